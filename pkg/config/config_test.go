package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// isolate runs the test in an empty directory with the medgraph variables
// unset; t.Setenv restores them afterwards.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	for _, key := range []string{
		"MEDGRAPH_STORE_DRIVER", "MEDGRAPH_DATA_DIR", "NEO4J_URI", "NEO4J_USERNAME", "NEO4J_PASSWORD",
		"NEO4J_DATABASE", "DATABASE_URL", "MEDGRAPH_SOURCE", "MEDGRAPH_S3_REGION", "MEDGRAPH_S3_ENDPOINT",
		"MEDGRAPH_MANIFEST", "LOG_LEVEL", "MEDGRAPH_METRICS_LISTEN", "MEDGRAPH_BATCH_SIZE",
		"MEDGRAPH_PARALLELISM", "MEDGRAPH_STRICT_ENDPOINTS",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
	return dir
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, DriverEmbedded, cfg.Store.Driver)
	assert.Equal(t, DefaultDataDir, cfg.Store.DataDir)
	assert.Equal(t, 1000, cfg.Load.BatchSize)
	assert.Equal(t, 1, cfg.Load.Parallelism)
	assert.Equal(t, ".", cfg.Source.URI)
	assert.False(t, cfg.Load.StrictEndpoints)
}

func TestLoadYAMLAndEnv(t *testing.T) {
	dir := isolate(t)
	path := writeFile(t, dir, "medgraph.yaml", `
store:
  driver: neo4j
  uri: bolt://db:7687
  username: neo4j
load:
  batch_size: 500
  strict_endpoints: true
source:
  uri: s3://medical/v1
  s3:
    region: eu-west-1
`)
	t.Setenv("NEO4J_PASSWORD", "secret")
	t.Setenv("MEDGRAPH_PARALLELISM", "3")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, DriverNeo4j, cfg.Store.Driver)
	assert.Equal(t, "bolt://db:7687", cfg.Store.URI)
	assert.Equal(t, "secret", cfg.Store.Password)
	assert.Equal(t, 500, cfg.Load.BatchSize)
	assert.Equal(t, 3, cfg.Load.Parallelism)
	assert.True(t, cfg.Load.StrictEndpoints)
	assert.Equal(t, "eu-west-1", cfg.Source.S3.Region)
}

func TestLoadDotEnv(t *testing.T) {
	dir := isolate(t)
	writeFile(t, dir, ".env", "NEO4J_URI=neo4j://from-dotenv:7687\nNEO4J_DATABASE=medical\nMEDGRAPH_STORE_DRIVER=neo4j\n")
	t.Setenv("NEO4J_DATABASE", "explicit")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "neo4j://from-dotenv:7687", cfg.Store.URI)
	assert.Equal(t, "explicit", cfg.Store.Database, ".env must not override the environment")
}

func TestLoadErrors(t *testing.T) {
	dir := isolate(t)

	_, err := Load(writeFile(t, dir, "bad.yaml", "store:\n  drivr: neo4j\n"))
	assert.ErrorContains(t, err, "drivr")

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	assert.ErrorContains(t, err, "failed to read config")

	t.Setenv("MEDGRAPH_BATCH_SIZE", "many")
	_, err = Load("")
	assert.ErrorContains(t, err, "MEDGRAPH_BATCH_SIZE")
}

func TestValidate(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	cfg.Store.Driver = DriverPostgres
	cfg.Load.BatchSize = 0
	cfg.Load.Parallelism = 100
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "3 errors")

	cfg = Default()
	cfg.Store.Driver = "mysql"
	assert.ErrorContains(t, cfg.Validate(), "store.driver")

	cfg = Default()
	cfg.Log.Level = "verbose"
	assert.ErrorContains(t, cfg.Validate(), "log.level")
}
