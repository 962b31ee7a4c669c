package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/alecthomas/kingpin/v2"
	"github.com/fatih/color"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/version"

	"github.com/grafana/vitanid/pkg/config"
	vitacontext "github.com/grafana/vitanid/pkg/vita/context"
)

var cfg struct {
	verbose    bool
	configFile string
	flags      config.Config
	resolve    struct {
		image string
	}
	lookup struct {
		nids []string
	}
}

var (
	consoleOutput = os.Stderr
	logger        = log.NewLogfmtLogger(consoleOutput)
)

func main() {
	app := kingpin.New(filepath.Base(os.Args[0]), "Names the imported functions of PlayStation Vita executables using a nids database.").UsageWriter(os.Stdout)
	app.Version(version.Print("vitanid"))
	app.HelpFlag.Short('h')
	app.Flag("verbose", "Enable verbose logging.").Short('v').Default("0").BoolVar(&cfg.verbose)
	app.Flag("config.file", "YAML file to read the settings from. Flags take precedence.").StringVar(&cfg.configFile)
	cfg.flags.RegisterFlags(app)

	resolveCmd := app.Command("resolve", "Resolve the imports of an executable and list the defined symbols.")
	resolveCmd.Arg("elf", "The executable, optionally gzip or zstd compressed.").Required().StringVar(&cfg.resolve.image)

	dbCmd := app.Command("db", "Inspect a nids database.")
	dbStatsCmd := dbCmd.Command("stats", "Print the database counters, collisions included.")
	dbLookupCmd := dbCmd.Command("lookup", "Print the function name of NIDs.")
	dbLookupCmd.Arg("nid", "0x prefixed hexadecimal NIDs.").Required().StringsVar(&cfg.lookup.nids)
	dbDumpCmd := dbCmd.Command("dump", "Print the module, library and function tree.")

	// parse command line arguments
	parsedCmd := kingpin.MustParse(app.Parse(os.Args[1:]))

	// import traces are logged at info level, only show them when asked to
	if cfg.verbose {
		logger = level.NewFilter(logger, level.AllowDebug())
	} else {
		logger = level.NewFilter(logger, level.AllowWarn())
	}

	reg := prometheus.NewRegistry()
	ctx := vitacontext.WithLogger(context.Background(), logger)
	ctx = vitacontext.WithRegistry(ctx, reg)
	ctx = vitacontext.WithOutput(ctx, os.Stdout)

	c, err := loadConfig(ctx, cfg.configFile, cfg.flags)
	if err != nil {
		os.Exit(checkError(consoleOutput, err))
	}

	switch parsedCmd {
	case resolveCmd.FullCommand():
		err = resolve(vitacontext.WrapCommand(ctx, "resolve"), c, cfg.resolve.image)
	case dbStatsCmd.FullCommand():
		err = dbStats(vitacontext.WrapCommand(ctx, "db-stats"), c)
	case dbLookupCmd.FullCommand():
		err = dbLookup(vitacontext.WrapCommand(ctx, "db-lookup"), c, cfg.lookup.nids)
	case dbDumpCmd.FullCommand():
		err = dbDump(vitacontext.WrapCommand(ctx, "db-dump"), c)
	default:
		level.Error(logger).Log("msg", "unknown command", "cmd", parsedCmd)
	}

	if c.MetricsFile != "" {
		if mErr := prometheus.WriteToTextfile(c.MetricsFile, reg); mErr != nil {
			level.Warn(logger).Log("msg", "failed to write metrics file", "path", c.MetricsFile, "err", mErr)
		}
	}
	os.Exit(checkError(consoleOutput, err))
}

// loadConfig reads the optional config file and applies the command line
// flags on top of it.
func loadConfig(ctx context.Context, path string, flags config.Config) (*config.Config, error) {
	c := &config.Config{}
	if path != "" {
		var err error
		if c, err = config.Load(vitacontext.Fs(ctx), path); err != nil {
			return nil, err
		}
	}
	c.Merge(flags)
	c.ApplyDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// checkError prints err the same way for every failure, a missing database
// path included, and returns the process exit code.
func checkError(w io.Writer, err error) int {
	if err == nil {
		return 0
	}
	fmt.Fprintln(w, color.RedString("nids import failed: %v", err))
	return 1
}
