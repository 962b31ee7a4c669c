package main

import (
	"context"

	"github.com/go-kit/log/level"

	"github.com/grafana/vitanid/pkg/config"
	"github.com/grafana/vitanid/pkg/image"
	"github.com/grafana/vitanid/pkg/nids"
	"github.com/grafana/vitanid/pkg/stubtable"
	"github.com/grafana/vitanid/pkg/symbolfmt"
	vitacontext "github.com/grafana/vitanid/pkg/vita/context"
)

func loadDatabase(ctx context.Context, c *config.Config) (*nids.Database, error) {
	return nids.Load(
		vitacontext.Fs(ctx),
		c.Database,
		nids.NewBuilder(vitacontext.Logger(ctx), vitacontext.Registry(ctx)),
	)
}

// resolve defines a symbol for every import of the executable at path and
// prints them. The symbols defined before a failed walk are printed as well.
func resolve(ctx context.Context, c *config.Config, path string) error {
	logger := vitacontext.Logger(ctx)

	db, err := loadDatabase(ctx, c)
	if err != nil {
		return err
	}
	img, err := image.Open(vitacontext.Fs(ctx), path)
	if err != nil {
		return err
	}

	walkErr := stubtable.New(logger, vitacontext.Registry(ctx)).ResolveImports(img, db)
	if walkErr != nil {
		level.Warn(logger).Log("msg", "stub table walk aborted", "path", path, "defined", len(img.Symbols()), "err", walkErr)
	}

	report := symbolfmt.Report{
		Path:    path,
		Base:    img.BaseAddress(),
		Entry:   img.EntryPoint(),
		Size:    img.Size(),
		Symbols: img.Symbols(),
	}
	if err := symbolfmt.WriteReport(vitacontext.Output(ctx), c.Output, report); err != nil {
		return err
	}
	return walkErr
}
