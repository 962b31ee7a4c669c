package nids

import (
	"fmt"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/grafana/vitanid/pkg/fileutil"
)

// Load reads a nids db.yml (optionally gzip or zstd compressed) from fs and
// builds it with b.
func Load(fs afero.Fs, path string, b *Builder) (*Database, error) {
	data, err := fileutil.ReadFile(fs, path)
	if err != nil {
		return nil, err
	}

	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("failed to parse nids db %s: %w", path, err)
	}

	db, err := b.Build(&root)
	if err != nil {
		return nil, fmt.Errorf("invalid nids db %s: %w", path, err)
	}
	return db, nil
}
