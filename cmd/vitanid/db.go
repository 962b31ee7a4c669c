package main

import (
	"context"
	"fmt"

	"github.com/grafana/vitanid/pkg/config"
	"github.com/grafana/vitanid/pkg/nids"
	"github.com/grafana/vitanid/pkg/symbolfmt"
	vitacontext "github.com/grafana/vitanid/pkg/vita/context"
)

func dbStats(ctx context.Context, c *config.Config) error {
	db, err := loadDatabase(ctx, c)
	if err != nil {
		return err
	}
	return symbolfmt.WriteStats(vitacontext.Output(ctx), c.Output, db.Stats)
}

func dbLookup(ctx context.Context, c *config.Config, args []string) error {
	keys := make([]nids.NID, 0, len(args))
	for _, arg := range args {
		nid, err := nids.ParseNIDString(arg)
		if err != nil {
			return fmt.Errorf("nid %q: %w", arg, err)
		}
		keys = append(keys, nid)
	}
	db, err := loadDatabase(ctx, c)
	if err != nil {
		return err
	}
	return symbolfmt.WriteLookup(vitacontext.Output(ctx), c.Output, db, keys)
}

func dbDump(ctx context.Context, c *config.Config) error {
	db, err := loadDatabase(ctx, c)
	if err != nil {
		return err
	}
	return symbolfmt.WriteDatabase(vitacontext.Output(ctx), c.Output, db)
}
