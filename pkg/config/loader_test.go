package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/kadirpekel/voicetree/pkg/config/provider"
	"github.com/stretchr/testify/require"
)

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfigFile_AppliesDefaultsAndExpandsEnv(t *testing.T) {
	t.Setenv("VT_ANTHROPIC_KEY", "sk-test-123")

	path := writeTempConfig(t, `
llm:
  provider: anthropic
  api_key: ${VT_ANTHROPIC_KEY}

markdown:
  output_dir: ./out

server:
  port: 9091
`)

	cfg, loader, err := LoadConfigFile(context.Background(), path)
	require.NoError(t, err)
	defer loader.Close()

	require.Equal(t, "sk-test-123", cfg.LLM.APIKey)
	require.Equal(t, "./out", cfg.Markdown.OutputDir)
	require.Equal(t, 9091, cfg.Server.Port)
	require.Equal(t, 83, cfg.Pipeline.BufferSizeThreshold)
}

func TestLoadConfigFile_ValidationFailurePropagates(t *testing.T) {
	path := writeTempConfig(t, `
llm:
  provider: openai
`)

	_, _, err := LoadConfigFile(context.Background(), path)
	require.Error(t, err)
}

func TestLoadConfig_FileProviderRoundTrip(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "sk-default")

	path := writeTempConfig(t, `name: test-config`)

	cfg, loader, err := LoadConfig(context.Background(), provider.ProviderConfig{
		Type: provider.TypeFile,
		Path: path,
	})
	require.NoError(t, err)
	defer loader.Close()

	require.Equal(t, "test-config", cfg.Name)
	require.Equal(t, LLMProviderAnthropic, cfg.LLM.Provider)
}
