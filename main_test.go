package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/satriahrh/shg-assistant/adapters/catalog"
	"github.com/satriahrh/shg-assistant/utils/log"
)

func TestAskFallback(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("ASSISTANT_MODE", "")

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"ask", "--fallback", "Tell", "me", "about", "a", "self", "help", "group"})
	defer rootCmd.SetArgs(nil)

	require.NoError(t, rootCmd.Execute())

	want, ok := catalog.Default().Response("self help")
	require.True(t, ok)
	assert.Equal(t, want, strings.TrimSpace(out.String()))
}

func TestWebsocketURL(t *testing.T) {
	u, err := websocketURL("https://shg.example.org/base/", "abc")
	require.NoError(t, err)
	assert.Equal(t, "wss://shg.example.org/base/ws?token=abc", u)

	u, err = websocketURL("http://localhost:8080", "a b")
	require.NoError(t, err)
	assert.Equal(t, "ws://localhost:8080/ws?token=a+b", u)
}

func TestLoadConfig_DebugFromDotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("DEBUG=true\n"), 0o600))
	t.Setenv("DEBUG", "")
	os.Unsetenv("DEBUG")
	t.Cleanup(func() { log.Configure(false) })

	log.Configure(false)
	require.False(t, log.With().Core().Enabled(zap.DebugLevel))

	cfg, err := loadConfig(path)
	require.NoError(t, err)
	assert.True(t, cfg.Debug)
	assert.True(t, log.With().Core().Enabled(zap.DebugLevel))
}
