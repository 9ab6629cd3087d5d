package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))

	require.NoError(t, err)
	assert.Equal(t, ":8000", cfg.Server.Addr)
	assert.Equal(t, "muet.edu.pk", cfg.Crawler.AllowedDomain)
	assert.Equal(t, 1000, cfg.Chunker.Size)
	assert.Equal(t, 10, cfg.Retriever.TopK)
	assert.Equal(t, "bolt", cfg.VectorStore.Type)
}

func TestLoadAppliesDefaultsToPartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := "server:\n  addr: \":9090\"\nnews:\n  max_pages: 5\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	cfg, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, 5, cfg.News.MaxPages)
	assert.Equal(t, 12, cfg.News.Hour)
	assert.Equal(t, "muet_data.txt", cfg.Paths.SiteDump)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.yaml")
	cfg, err := Load("does-not-exist.yaml")
	require.NoError(t, err)
	cfg.Retriever.TopK = 3

	require.NoError(t, Save(path, cfg))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 3, loaded.Retriever.TopK)
}
