package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"igproxy/pkg/config"
	"igproxy/pkg/errors"
	"igproxy/pkg/instagram"
	"igproxy/pkg/logger"
)

func TestTargetParsesArguments(t *testing.T) {
	var paths []string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		w.Write([]byte(`{"graphql":{"shortcode_media":{"__typename":"GraphImage","display_url":"https://cdn.example/a.jpg"}}}`))
	}))
	defer upstream.Close()

	client := instagram.NewClient(time.Second, logger.NewNopLogger(), instagram.WithBaseURL(upstream.URL))

	run, err := target(client, "post", "https://www.instagram.com/p/ABC123/")
	require.NoError(t, err)
	items, err := run(context.Background())
	require.NoError(t, err)
	assert.Len(t, items, 1)
	assert.Equal(t, []string{"/p/ABC123/"}, paths)
}

func TestTargetRejectsBadInput(t *testing.T) {
	client := instagram.NewClient(time.Second, logger.NewNopLogger())

	_, err := target(client, "album", "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown target type")

	_, err = target(client, "reel", "https://www.instagram.com/p/ABC/")
	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))

	_, err = target(client, "profile", "bad name")
	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))
}

func TestServeFlagsOnlyIncludesChangedFlags(t *testing.T) {
	cmd := serveCmd
	t.Cleanup(func() {
		cmd.Flags().VisitAll(func(f *pflag.Flag) { f.Changed = false })
		serveAddr, rateLimitMax, noCache = "", 0, false
	})

	require.NoError(t, cmd.Flags().Parse([]string{"--addr", ":9999", "--rate-limit", "10", "--no-cache"}))

	flags := serveFlags(cmd)
	assert.Equal(t, ":9999", flags["addr"])
	assert.Equal(t, 10, flags["rate-limit"])
	assert.Equal(t, true, flags["no-cache"])
	assert.NotContains(t, flags, "serve-ui")
	assert.NotContains(t, flags, "cache-backend")

	cfg := config.DefaultConfig()
	cfg.MergeCommandLineFlags(flags)
	assert.Equal(t, ":9999", cfg.Server.Addr)
	assert.Equal(t, 10, cfg.RateLimit.MaxRequests)
	assert.False(t, cfg.Cache.Enabled)
}

func TestConfigInitWritesLoadableFile(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("IGPROXY_ADDR", "")
	path := filepath.Join(t.TempDir(), "igproxy.yaml")
	configFile = path
	t.Cleanup(func() { configFile = "" })

	var out bytes.Buffer
	initCmd.SetOut(&out)
	initCmd.SetErr(&out)
	require.NoError(t, runConfigInit(initCmd, nil))
	assert.Contains(t, out.String(), path)

	_, err := os.Stat(path)
	require.NoError(t, err)

	// A second init refuses to overwrite
	require.Error(t, runConfigInit(initCmd, nil))

	cfg, err := config.Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, config.DefaultConfig().Server.Addr, cfg.Server.Addr)
}
