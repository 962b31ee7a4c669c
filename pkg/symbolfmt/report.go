package symbolfmt

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize"

	"github.com/grafana/vitanid/pkg/config"
	"github.com/grafana/vitanid/pkg/image"
)

// Report is the outcome of resolving the imports of one image.
type Report struct {
	Path    string         `json:"path" yaml:"path"`
	Base    uint64         `json:"base" yaml:"base"`
	Entry   uint64         `json:"entry" yaml:"entry"`
	Size    uint64         `json:"size" yaml:"size"`
	Symbols []image.Symbol `json:"symbols" yaml:"symbols"`
}

func WriteReport(w io.Writer, format string, r Report) error {
	if format != config.OutputConsole {
		return encode(w, format, r)
	}
	fmt.Fprintf(w, "%s: base 0x%x, module info at +0x%x, %s mapped, %d symbols\n",
		r.Path, r.Base, r.Entry, humanize.Bytes(r.Size), len(r.Symbols))
	table := newTable(w, "Address", "Kind", "Name")
	for _, s := range r.Symbols {
		table.Append([]string{fmt.Sprintf("0x%08x", s.Address), s.Kind.String(), s.Name})
	}
	table.Render()
	return nil
}
