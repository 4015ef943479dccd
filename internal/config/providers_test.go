package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeProvidersFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "providers.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadProviders(t *testing.T) {
	path := writeProvidersFile(t, `
providers:
  - name: deepseek
    model: deepseek-chat
    timeout_sec: 45
  - name: gemini
ocr_fallback: true
`)
	p, err := LoadProviders(path)
	require.NoError(t, err)

	require.Len(t, p.Providers, 2)
	assert.Equal(t, "deepseek", p.Providers[0].Name, "file order is failover order")
	assert.Equal(t, "deepseek-chat", p.Providers[0].Model)
	assert.Equal(t, 45, p.Providers[0].TimeoutSec)
	assert.Equal(t, "gemini", p.Providers[1].Name)
	assert.Zero(t, p.Providers[1].TimeoutSec)
	assert.True(t, p.OCRFallback)
}

func TestLoadProvidersRejectsUnknownName(t *testing.T) {
	path := writeProvidersFile(t, `
providers:
  - name: skynet
`)
	_, err := LoadProviders(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "skynet")
}

func TestLoadProvidersRejectsEmptyList(t *testing.T) {
	path := writeProvidersFile(t, "ocr_fallback: true\n")
	_, err := LoadProviders(path)
	assert.Error(t, err)
}

func TestLoadProvidersRejectsNegativeTimeout(t *testing.T) {
	path := writeProvidersFile(t, `
providers:
  - name: gpt
    timeout_sec: -5
`)
	_, err := LoadProviders(path)
	assert.Error(t, err)
}

func TestLoadProvidersMissingFile(t *testing.T) {
	_, err := LoadProviders(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestDefaultProviders(t *testing.T) {
	p := DefaultProviders()
	require.Len(t, p.Providers, 3)
	assert.Equal(t, "gemini", p.Providers[0].Name)
	assert.Equal(t, "gpt", p.Providers[1].Name)
	assert.Equal(t, "deepseek", p.Providers[2].Name)
	assert.True(t, p.OCRFallback)
}
