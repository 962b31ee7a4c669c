// Package config holds the settings of the vitanid command line tool. They can
// be read from a YAML file and overridden with command line flags.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"slices"
	"strings"

	"github.com/alecthomas/kingpin/v2"
	"github.com/hashicorp/go-multierror"
	pkgerrors "github.com/pkg/errors"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

const (
	OutputConsole = "console"
	OutputJSON    = "json"
	OutputYAML    = "yaml"
)

var Outputs = []string{OutputConsole, OutputJSON, OutputYAML}

// ErrNoDatabase is returned when no database path was given. It means the user
// did not pick a database rather than a failure.
var ErrNoDatabase = errors.New("no db.yml path specified")

type Config struct {
	// Database is the path of the nids database, a .yml or .yaml file,
	// optionally gzip or zstd compressed.
	Database    string `yaml:"database"`
	Output      string `yaml:"output"`
	MetricsFile string `yaml:"metrics_file"`
}

// RegisterFlags binds the flags of app to c. Flags left unset keep the zero
// value so that Merge can tell them apart from explicit settings.
func (c *Config) RegisterFlags(app *kingpin.Application) {
	app.Flag("db", "Path to the nids database (db.yml, optionally .gz or .zst).").StringVar(&c.Database)
	app.Flag("output", "How to output the result: "+strings.Join(Outputs, ", ")+".").EnumVar(&c.Output, Outputs...)
	app.Flag("metrics-file", "Write the metrics of the run to this file in the Prometheus text format.").StringVar(&c.MetricsFile)
}

// Load reads a YAML config file. An empty file yields an empty Config.
func Load(fs afero.Fs, path string) (*Config, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "read config %s", path)
	}
	return Parse(data)
}

func Parse(data []byte) (*Config, error) {
	var c Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &c, nil
}

// Merge overrides the fields of c with the non-empty fields of o.
func (c *Config) Merge(o Config) {
	if o.Database != "" {
		c.Database = o.Database
	}
	if o.Output != "" {
		c.Output = o.Output
	}
	if o.MetricsFile != "" {
		c.MetricsFile = o.MetricsFile
	}
}

// ApplyDefaults fills the fields that were neither in the file nor on the
// command line.
func (c *Config) ApplyDefaults() {
	if c.Output == "" {
		c.Output = OutputConsole
	}
}

// Validate reports every problem of c at once. A missing database is
// reported as ErrNoDatabase alone.
func (c *Config) Validate() error {
	if c.Database == "" {
		return ErrNoDatabase
	}
	var err *multierror.Error
	if !HasDatabaseExt(c.Database) {
		err = multierror.Append(err, fmt.Errorf("database %q must be a .yml or .yaml file", c.Database))
	}
	if c.Output != "" && !slices.Contains(Outputs, c.Output) {
		err = multierror.Append(err, fmt.Errorf("unsupported output %q, must be one of %s", c.Output, strings.Join(Outputs, ", ")))
	}
	if c.MetricsFile != "" && c.MetricsFile == c.Database {
		err = multierror.Append(err, errors.New("metrics_file must not overwrite the database"))
	}
	return err.ErrorOrNil()
}

// HasDatabaseExt reports whether path names a YAML file, ignoring a trailing
// .gz or .zst compression extension.
func HasDatabaseExt(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".gz" || ext == ".zst" {
		path = strings.TrimSuffix(path, filepath.Ext(path))
		ext = strings.ToLower(filepath.Ext(path))
	}
	return ext == ".yml" || ext == ".yaml"
}
