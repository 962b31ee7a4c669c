package context

import (
	"bytes"
	"context"
	"os"
	"testing"

	"github.com/go-kit/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, defaultLogger, Logger(ctx))
	assert.NotNil(t, Registry(ctx))
	assert.Equal(t, os.Stdout, Output(ctx))
	assert.Equal(t, defaultFs, Fs(ctx))
}

func TestWith(t *testing.T) {
	var out bytes.Buffer
	fs := afero.NewMemMapFs()
	logger := log.NewNopLogger()
	reg := prometheus.NewRegistry()

	ctx := WithOutput(context.Background(), &out)
	ctx = WithFs(ctx, fs)
	ctx = WithLogger(ctx, logger)
	ctx = WithRegistry(ctx, reg)

	assert.Equal(t, &out, Output(ctx))
	assert.Equal(t, fs, Fs(ctx))
	assert.Equal(t, logger, Logger(ctx))
	assert.Equal(t, reg, Registry(ctx))
}

func TestWrapCommand(t *testing.T) {
	var buf bytes.Buffer
	reg := prometheus.NewRegistry()
	ctx := WithLogger(context.Background(), log.NewLogfmtLogger(&buf))
	ctx = WithRegistry(ctx, reg)
	ctx = WrapCommand(ctx, "resolve")

	require.NoError(t, Logger(ctx).Log("msg", "hello"))
	assert.Equal(t, "command=resolve msg=hello\n", buf.String())

	promauto.With(Registry(ctx)).NewCounter(prometheus.CounterOpts{Name: "runs_total", Help: "Runs."}).Inc()
	require.NoError(t, testutil.GatherAndCompare(reg, bytes.NewBufferString(`
# HELP runs_total Runs.
# TYPE runs_total counter
runs_total{command="resolve"} 1
`), "runs_total"))
}
