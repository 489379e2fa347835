package main

import (
	"context"
	"errors"
	"flag"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"latencygen/internal/config"
)

func noEnv(string) string { return "" }

func TestParseConfig_Defaults(t *testing.T) {
	t.Parallel()

	cfg, _, err := parseConfig(nil, noEnv)
	require.NoError(t, err)
	require.Equal(t, config.Default(), cfg)
}

func TestParseConfig_FlagsOverrideEnvOverrideFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "c.yaml")
	require.NoError(t, os.WriteFile(path, []byte("gateway:\n  url: http://file:9091\nschedule:\n  interval_sec: 30\n"), 0o600))
	env := func(key string) string {
		if key == config.EnvGateway {
			return "http://env:9091"
		}
		return ""
	}

	cfg, _, err := parseConfig([]string{"--config", path}, env)
	require.NoError(t, err)
	require.Equal(t, "http://env:9091", cfg.Gateway.URL)
	require.Equal(t, 30.0, cfg.Schedule.IntervalSec)

	cfg, _, err = parseConfig([]string{"--config", path, "--gateway", "http://flag:9091", "--interval", "0.5"}, env)
	require.NoError(t, err)
	require.Equal(t, "http://flag:9091", cfg.Gateway.URL)
	require.Equal(t, 0.5, cfg.Schedule.IntervalSec)
}

func TestParseConfig_AllFlags(t *testing.T) {
	t.Parallel()

	cfg, _, err := parseConfig([]string{
		"--once", "--mode", "ordered", "--nodes", "x, y,,z", "--custom", "rows.csv",
		"--job", "j", "--instance", "i", "--timeout", "2", "--seed", "7", "--verbose",
		"--listen", ":9100", "--log-level", "debug", "--log-format", "console",
	}, noEnv)
	require.NoError(t, err)
	require.True(t, cfg.Schedule.Once)
	require.Equal(t, "ordered", cfg.Generator.Mode)
	require.Equal(t, []string{"x", "y", "z"}, cfg.Generator.Nodes)
	require.Equal(t, "rows.csv", cfg.Generator.CustomFile)
	require.Equal(t, "j", cfg.Gateway.Job)
	require.Equal(t, "i", cfg.Gateway.Instance)
	require.Equal(t, 2, cfg.Gateway.TimeoutSec)
	require.EqualValues(t, 7, cfg.Generator.Seed)
	require.True(t, cfg.Verbose)
	require.Equal(t, ":9100", cfg.Listen)
	require.Equal(t, config.LogConfig{Level: "debug", Format: "console"}, cfg.Log)
}

func TestParseConfig_WriteConfigRoundTrips(t *testing.T) {
	t.Parallel()

	out := filepath.Join(t.TempDir(), "effective.yaml")
	cfg, path, err := parseConfig([]string{"--write-config", out, "--nodes", "x,y", "--interval", "3"}, noEnv)
	require.NoError(t, err)
	require.Equal(t, out, path)

	require.NoError(t, config.Save(path, cfg))
	loaded, err := config.Load(path)
	require.NoError(t, err)
	require.Equal(t, cfg, loaded)
}

func TestParseConfig_UsageErrors(t *testing.T) {
	t.Parallel()

	var ue usageError
	_, _, err := parseConfig([]string{"--interval", "soon"}, noEnv)
	require.True(t, errors.As(err, &ue), "err=%v", err)

	_, _, err = parseConfig([]string{"--bogus"}, noEnv)
	require.True(t, errors.As(err, &ue), "err=%v", err)

	_, _, err = parseConfig([]string{"extra"}, noEnv)
	require.True(t, errors.As(err, &ue), "err=%v", err)

	_, _, err = parseConfig([]string{"-h"}, noEnv)
	require.ErrorIs(t, err, flag.ErrHelp)

	_, _, err = parseConfig([]string{"--config", filepath.Join(t.TempDir(), "missing.yaml")}, noEnv)
	require.Error(t, err)
	require.False(t, errors.As(err, &ue))
}

type gatewayRecorder struct {
	mu    sync.Mutex
	paths []string
	body  []string
}

func (g *gatewayRecorder) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	g.mu.Lock()
	g.paths = append(g.paths, r.Method+" "+r.URL.Path)
	g.body = append(g.body, string(body))
	g.mu.Unlock()
}

func TestRun_OncePushesToGateway(t *testing.T) {
	t.Parallel()

	rec := &gatewayRecorder{}
	s := httptest.NewServer(rec)
	defer s.Close()

	cfg := config.Default()
	cfg.Gateway.URL = s.URL
	cfg.Generator.Nodes = []string{"node-a", "node-b"}
	cfg.Schedule.Once = true

	require.NoError(t, run(context.Background(), cfg, zap.NewNop()))

	require.Equal(t, []string{"PUT /metrics/job/fake_latency_test/instance/manual"}, rec.paths)
	lines := strings.Split(strings.TrimSuffix(rec.body[0], "\n"), "\n")
	require.Len(t, lines, 2)
	require.True(t, strings.HasPrefix(lines[0], `fake_latency_seconds{source="node-a",target="node-b",direction="fwd"} `))
	require.True(t, strings.HasPrefix(lines[1], `fake_latency_seconds{source="node-b",target="node-a",direction="rev"} `))
}

func TestRun_CustomFile(t *testing.T) {
	t.Parallel()

	rec := &gatewayRecorder{}
	s := httptest.NewServer(rec)
	defer s.Close()

	path := filepath.Join(t.TempDir(), "rows.csv")
	require.NoError(t, os.WriteFile(path, []byte("source,target,latency\nnode-a,node-b,0.5\n"), 0o600))

	cfg := config.Default()
	cfg.Gateway.URL = s.URL
	cfg.Generator.CustomFile = path
	cfg.Schedule.Once = true
	cfg.Listen = "127.0.0.1:0"

	require.NoError(t, run(context.Background(), cfg, zap.NewNop()))
	require.Equal(t, []string{
		"fake_latency_seconds{source=\"node-a\",target=\"node-b\",direction=\"fwd\"} 0.5\n" +
			"fake_latency_seconds{source=\"node-b\",target=\"node-a\",direction=\"rev\"} 0.5\n",
	}, rec.body)
}

func TestRun_Errors(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	cfg.Schedule.Once = true
	cfg.Generator.CustomFile = filepath.Join(t.TempDir(), "missing.yaml")
	require.Error(t, run(context.Background(), cfg, zap.NewNop()))

	cfg = config.Default()
	cfg.Schedule.Once = true
	cfg.Gateway.URL = "http://"
	require.Error(t, run(context.Background(), cfg, zap.NewNop()))
}

func TestRun_CancelledReturnsContextError(t *testing.T) {
	t.Parallel()

	s := httptest.NewServer(&gatewayRecorder{})
	defer s.Close()

	cfg := config.Default()
	cfg.Gateway.URL = s.URL
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := run(ctx, cfg, zap.NewNop())
	require.ErrorIs(t, err, context.Canceled)
}
