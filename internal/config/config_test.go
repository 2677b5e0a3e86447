package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nlu-regress/internal/matcher"
	"nlu-regress/internal/nlu"
	"nlu-regress/internal/util"
)

const sampleConfig = `{
  "project": "new_bot",
  "mediumConfidence": 0.6,
  "highConfidence": 0.8,
  "endpoints": {
    "dev": {"url": "http://localhost:5000/parse", "name": "Development"},
    "prod": {"url": "https://nlu.example.com/parse", "name": "Production"}
  }
}`

func writeProjectFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{EnvDevURL, EnvProdURL, EnvMediumConfidence, EnvHighConfidence, EnvTimeout, EnvToken} {
		t.Setenv(key, "")
	}
}

func TestLoadJSON(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	writeProjectFile(t, dir, "config.json", sampleConfig)

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "new_bot", cfg.Project)
	assert.Equal(t, matcher.Thresholds{Medium: 0.6, High: 0.8}, cfg.Thresholds())
	assert.Equal(t, nlu.DefaultTimeout, cfg.RequestTimeout())
	assert.Equal(t, filepath.Join(dir, "config.json"), cfg.Path())

	dev, err := cfg.Endpoint(Development)
	require.NoError(t, err)
	assert.Equal(t, "Development", dev.Name)

	prod, err := cfg.Endpoint(Production)
	require.NoError(t, err)
	assert.Equal(t, "https://nlu.example.com/parse", prod.URL)
}

func TestLoadDefaultsThresholds(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	writeProjectFile(t, dir, "config.yaml", `
project: new_bot
endpoints:
  dev:
    url: http://localhost:5000/parse
timeout: 2s
concurrency: 4
`)
	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, matcher.Thresholds{Medium: DefaultMediumConfidence, High: DefaultHighConfidence}, cfg.Thresholds())
	assert.Equal(t, 2*time.Second, cfg.RequestTimeout())
	assert.Equal(t, 4, cfg.Concurrency)

	dev, err := cfg.Endpoint("")
	require.NoError(t, err)
	assert.Equal(t, "dev", dev.Name)

	_, err = cfg.Endpoint(Production)
	assert.Error(t, err)

	_, err = cfg.Endpoint("staging")
	assert.ErrorIs(t, err, ErrUnknownTarget)
}

func TestLoadRejectsInvertedThresholds(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	writeProjectFile(t, dir, "config.json", `{"project":"x","mediumConfidence":0.9,"highConfidence":0.5}`)
	_, err := Load(dir)
	assert.ErrorIs(t, err, matcher.ErrInvalidThresholds)
}

func TestLoadRejectsBadTimeout(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	writeProjectFile(t, dir, "config.json", `{"project":"x","timeout":"soon"}`)
	_, err := Load(dir)
	assert.Error(t, err)
}

func TestLoadMissingConfig(t *testing.T) {
	_, err := Load(t.TempDir())
	assert.True(t, errors.Is(err, util.ErrProjectFileNotFound))
}

func TestOverridesPrecedence(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	writeProjectFile(t, dir, "config.json", sampleConfig)
	writeProjectFile(t, dir, ".env", "NLU_REGRESS_DEV_URL=http://dotenv/parse\nNLU_REGRESS_HIGH_CONFIDENCE=0.9\nNLU_REGRESS_TOKEN=from-file\n")
	t.Setenv(EnvHighConfidence, "0.95")
	t.Setenv(EnvTimeout, "750ms")

	cfg, err := Load(dir)
	require.NoError(t, err)

	dev, err := cfg.Endpoint(Development)
	require.NoError(t, err)
	assert.Equal(t, "http://dotenv/parse", dev.URL)
	assert.Equal(t, 0.95, cfg.Thresholds().High)
	assert.Equal(t, 750*time.Millisecond, cfg.RequestTimeout())

	clientCfg, ep, err := cfg.ClientConfig(Development)
	require.NoError(t, err)
	assert.Equal(t, "from-file", clientCfg.Token)
	assert.Equal(t, "new_bot", clientCfg.Project)
	assert.Equal(t, ep.URL, clientCfg.URL)
}

func TestOverrideParseError(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	writeProjectFile(t, dir, "config.json", sampleConfig)
	t.Setenv(EnvMediumConfidence, "lots")
	_, err := Load(dir)
	assert.Error(t, err)
}

func TestLoadJSONWithEscapedSurrogatePair(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	writeProjectFile(t, dir, "config.json", `{"project":"bot \ud83e\udd16","endpoints":{"dev":{"url":"http://localhost:5000/parse"}}}`)

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "bot 🤖", cfg.Project)
}
