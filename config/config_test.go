package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/poiesic/codeindex/core"
	"github.com/poiesic/codeindex/indexing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envMap(vars map[string]string) func(string) (string, bool) {
	return func(name string) (string, bool) {
		v, ok := vars[name]
		return v, ok
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "http://localhost:11434/v1", cfg.Embedding.Host)
	assert.Equal(t, "embeddinggemma", cfg.Embedding.Model)
	assert.Equal(t, 256, cfg.Embedding.CacheSize)
	assert.Equal(t, indexing.DefaultBatchSize, cfg.Index.BatchSize)
	assert.Equal(t, indexing.DefaultCharBudget, cfg.Index.CharBudget)
	assert.Equal(t, BackendBadger, cfg.Storage.Backend)
	assert.NotEmpty(t, cfg.Storage.Path)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "codeindex.toml")
	content := `
[embedding]
model = "nomic-embed-text"

[index]
ignore_patterns = ["fixtures/**", "*.snap"]
batch_size = 32
collection = "shared_code"

[storage]
backend = "sqlite"
path = "/var/lib/codeindex/index.db"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:11434/v1", cfg.Embedding.Host, "unset keys keep defaults")
	assert.Equal(t, "nomic-embed-text", cfg.Embedding.Model)
	assert.Equal(t, []string{"fixtures/**", "*.snap"}, cfg.Index.IgnorePatterns)
	assert.Equal(t, 32, cfg.Index.BatchSize)
	assert.Equal(t, indexing.DefaultCharBudget, cfg.Index.CharBudget)
	assert.Equal(t, "shared_code", cfg.Index.Collection)
	assert.Equal(t, BackendSQLite, cfg.Storage.Backend)
	assert.Equal(t, "/var/lib/codeindex/index.db", cfg.Storage.Path)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}

func TestLoad_MalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.toml")
	require.NoError(t, os.WriteFile(path, []byte("[index\nbatch_size = "), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestApplyEnv(t *testing.T) {
	cfg := Default()
	cfg.Index.IgnorePatterns = []string{"from-file/**"}

	err := cfg.ApplyEnv(envMap(map[string]string{
		"CODEINDEX_EMBEDDING_HOST":  "http://embed:8080",
		"CODEINDEX_EMBEDDING_MODEL": "text-embedding-3-small",
		"CODEINDEX_IGNORE_PATTERNS": "tmp-data/**, *.bak ,",
		"CODEINDEX_BATCH_SIZE":      "8",
		"CODEINDEX_DB":              "/data/index",
		"CODEINDEX_COLLECTION":      "",
	}))
	require.NoError(t, err)

	assert.Equal(t, "http://embed:8080", cfg.Embedding.Host)
	assert.Equal(t, "text-embedding-3-small", cfg.Embedding.Model)
	assert.Equal(t, []string{"from-file/**", "tmp-data/**", "*.bak"}, cfg.Index.IgnorePatterns)
	assert.Equal(t, 8, cfg.Index.BatchSize)
	assert.Equal(t, "/data/index", cfg.Storage.Path)
	assert.Empty(t, cfg.Index.Collection, "empty variables are ignored")
}

func TestApplyEnv_RejectsNonInteger(t *testing.T) {
	cfg := Default()
	err := cfg.ApplyEnv(envMap(map[string]string{"CODEINDEX_CONCURRENCY": "many"}))

	var cfgErr *core.ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "CODEINDEX_CONCURRENCY", cfgErr.Field)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"missing host", func(c *Config) { c.Embedding.Host = "" }, "embedding.host"},
		{"missing model", func(c *Config) { c.Embedding.Model = "" }, "embedding.model"},
		{"negative cache", func(c *Config) { c.Embedding.CacheSize = -1 }, "embedding.cache_size"},
		{"negative batch size", func(c *Config) { c.Index.BatchSize = -1 }, "index.batch_size"},
		{"bad collection", func(c *Config) { c.Index.Collection = "a:b" }, "index.collection"},
		{"unknown backend", func(c *Config) { c.Storage.Backend = "qdrant" }, "storage.backend"},
		{"badger without path", func(c *Config) { c.Storage.Path = "" }, "storage.path"},
		{"file snapshots without dir", func(c *Config) { c.Storage.Snapshot = SnapshotFile }, "storage.snapshot_dir"},
		{"unknown snapshot store", func(c *Config) { c.Storage.Snapshot = "redis" }, "storage.snapshot"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := cfg.Validate()
			var cfgErr *core.ConfigurationError
			require.True(t, errors.As(err, &cfgErr))
			assert.Equal(t, tt.field, cfgErr.Field)
		})
	}
}

func TestValidate_MemoryBackendNeedsNoPath(t *testing.T) {
	cfg := Default()
	cfg.Storage.Backend = BackendMemory
	cfg.Storage.Path = ""
	assert.NoError(t, cfg.Validate())
}

func TestAIConfig(t *testing.T) {
	cfg := Default()
	cfg.Embedding.Host = "http://embed:8080"

	ac := cfg.AIConfig()
	require.NoError(t, ac.Validate())
	assert.Equal(t, "http://embed:8080/v1", ac.EmbeddingHost)
	assert.Equal(t, "none", ac.APIToken)
	assert.Equal(t, 256, ac.QueryCacheSize)
}

func TestIndexOptions(t *testing.T) {
	cfg := &Config{}
	assert.Empty(t, cfg.IndexOptions())

	cfg.Index = IndexConfig{
		IgnorePatterns: []string{"fixtures/**"},
		Extensions:     []string{".proto"},
		BatchSize:      10,
		Concurrency:    2,
		Collection:     "shared",
	}
	assert.Len(t, cfg.IndexOptions(), 5)
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, ".codeindex"), expandHome("~/.codeindex"))
	assert.Equal(t, "/abs/path", expandHome("/abs/path"))
	assert.Equal(t, "relative", expandHome("relative"))
}
