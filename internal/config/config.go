// Package config loads the application configuration from YAML.
package config

import (
	"errors"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ServerConfig controls the HTTP surface.
type ServerConfig struct {
	Addr      string `yaml:"addr"`
	StaticDir string `yaml:"static_dir"`
}

// CrawlerConfig controls the full site crawl.
type CrawlerConfig struct {
	UserAgent         string   `yaml:"user_agent"`
	TimeoutSecs       int      `yaml:"timeout_secs"`
	RequestsPerSecond float64  `yaml:"requests_per_second"`
	AllowedDomain     string   `yaml:"allowed_domain"`
	ExcludeSubstrings []string `yaml:"exclude_substrings"`
	SeedFile          string   `yaml:"seed_file"`

	// DiscoverRoots seed the link discovery walk that regenerates the
	// seed file.
	DiscoverRoots    []string `yaml:"discover_roots"`
	DiscoverMaxPages int      `yaml:"discover_max_pages"`
}

// NewsConfig controls the paginated news listing crawl.
type NewsConfig struct {
	BaseURL  string `yaml:"base_url"`
	MaxPages int    `yaml:"max_pages"`
	// Hour is the local hour of the daily refresh.
	Hour int `yaml:"hour"`
}

// PathsConfig names the on-disk artifacts.
type PathsConfig struct {
	DataDir               string `yaml:"data_dir"`
	SiteDump              string `yaml:"site_dump"`
	NewsDump              string `yaml:"news_dump"`
	Prospectus            string `yaml:"prospectus"`
	ProspectusFallbackURL string `yaml:"prospectus_fallback_url"`
	IndexPath             string `yaml:"index_path"`
}

// EmbedderConfig configures the OpenAI-compatible embedder.
type EmbedderConfig struct {
	BaseURL     string `yaml:"base_url"`
	APIKeyEnv   string `yaml:"api_key_env"`
	Model       string `yaml:"model"`
	TimeoutSecs int    `yaml:"timeout_secs"`
	BatchSize   int    `yaml:"batch_size"`
}

// LLMConfig configures the chat completion model.
type LLMConfig struct {
	BaseURL     string  `yaml:"base_url"`
	APIKeyEnv   string  `yaml:"api_key_env"`
	Model       string  `yaml:"model"`
	Temperature float64 `yaml:"temperature"`
	TimeoutSecs int     `yaml:"timeout_secs"`
}

// ChunkerConfig configures the recursive splitter.
type ChunkerConfig struct {
	Size    int `yaml:"size"`
	Overlap int `yaml:"overlap"`
}

// RetrieverConfig configures retrieval.
type RetrieverConfig struct {
	TopK int `yaml:"top_k"`
}

// QdrantConfig contains connection details for a Qdrant vector store.
type QdrantConfig struct {
	URL         string `yaml:"url"`
	APIKey      string `yaml:"api_key"`
	Collection  string `yaml:"collection"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// VectorStoreConfig selects and configures the vector store implementation.
type VectorStoreConfig struct {
	Type   string        `yaml:"type"`
	Qdrant *QdrantConfig `yaml:"qdrant,omitempty"`
}

// SchedulerConfig controls the background refresh jobs.
type SchedulerConfig struct {
	Enabled bool `yaml:"enabled"`
	// FullCrawlAt is an RFC 3339 timestamp for the one-time full
	// crawl. Empty disables it.
	FullCrawlAt string `yaml:"full_crawl_at"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	Server      ServerConfig      `yaml:"server"`
	Crawler     CrawlerConfig     `yaml:"crawler"`
	News        NewsConfig        `yaml:"news"`
	Paths       PathsConfig       `yaml:"paths"`
	Embedder    EmbedderConfig    `yaml:"embedder"`
	LLM         LLMConfig         `yaml:"llm"`
	Chunker     ChunkerConfig     `yaml:"chunker"`
	Retriever   RetrieverConfig   `yaml:"retriever"`
	VectorStore VectorStoreConfig `yaml:"vector_store"`
	Scheduler   SchedulerConfig   `yaml:"scheduler"`
}

// Load reads a config from a specified path. If the file does not exist, returns defaults.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return defaultConfig(), nil
		}
		return nil, err
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	applyConfigDefaults(&cfg)
	return &cfg, nil
}

// LoadDefault tries ./config.yaml first, then ~/.config/muetbot/config.yaml.
// If neither exists, it writes defaults to ~/.config/muetbot/config.yaml and returns them.
func LoadDefault() (*AppConfig, string, error) {
	cwdPath := "config.yaml"
	if _, err := os.Stat(cwdPath); err == nil {
		cfg, err := Load(cwdPath)
		return cfg, cwdPath, err
	}
	userPath, err := defaultUserConfigPath()
	if err != nil {
		return nil, "", err
	}
	if _, err := os.Stat(userPath); err == nil {
		cfg, err := Load(userPath)
		return cfg, userPath, err
	}
	cfg := defaultConfig()
	if err := Save(userPath, cfg); err != nil {
		return nil, "", err
	}
	return cfg, userPath, nil
}

// Save writes the config to the given path, creating directories as needed.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func defaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "muetbot", "config.yaml"), nil
}

func defaultConfig() *AppConfig {
	cfg := &AppConfig{
		VectorStore: VectorStoreConfig{Type: "bolt"},
		Scheduler:   SchedulerConfig{Enabled: true},
	}
	applyConfigDefaults(cfg)
	return cfg
}

func applyConfigDefaults(cfg *AppConfig) {
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8000"
	}
	if cfg.Crawler.UserAgent == "" {
		cfg.Crawler.UserAgent = "muetbot-crawler/1.0"
	}
	if cfg.Crawler.TimeoutSecs == 0 {
		cfg.Crawler.TimeoutSecs = 30
	}
	if cfg.Crawler.RequestsPerSecond == 0 {
		cfg.Crawler.RequestsPerSecond = 2
	}
	if cfg.Crawler.AllowedDomain == "" {
		cfg.Crawler.AllowedDomain = "muet.edu.pk"
	}
	if cfg.Crawler.ExcludeSubstrings == nil {
		cfg.Crawler.ExcludeSubstrings = []string{"facebook"}
	}
	if cfg.Crawler.SeedFile == "" {
		cfg.Crawler.SeedFile = "muet_links.txt"
	}
	if cfg.Crawler.DiscoverRoots == nil {
		cfg.Crawler.DiscoverRoots = []string{"https://www.muet.edu.pk/"}
	}
	if cfg.Crawler.DiscoverMaxPages == 0 {
		cfg.Crawler.DiscoverMaxPages = 2000
	}
	if cfg.News.BaseURL == "" {
		cfg.News.BaseURL = "https://www.muet.edu.pk"
	}
	if cfg.News.MaxPages == 0 {
		cfg.News.MaxPages = 100
	}
	if cfg.News.Hour == 0 {
		cfg.News.Hour = 12
	}
	if cfg.Paths.DataDir == "" {
		cfg.Paths.DataDir = "data"
	}
	if cfg.Paths.SiteDump == "" {
		cfg.Paths.SiteDump = "muet_data.txt"
	}
	if cfg.Paths.NewsDump == "" {
		cfg.Paths.NewsDump = "muet_circular_data.txt"
	}
	if cfg.Paths.Prospectus == "" {
		cfg.Paths.Prospectus = "prospectus.pdf"
	}
	if cfg.Paths.IndexPath == "" {
		cfg.Paths.IndexPath = "index.db"
	}
	if cfg.Embedder.BaseURL == "" {
		cfg.Embedder.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Embedder.APIKeyEnv == "" {
		cfg.Embedder.APIKeyEnv = "OPENAI_API_KEY"
	}
	if cfg.Embedder.Model == "" {
		cfg.Embedder.Model = "text-embedding-3-small"
	}
	if cfg.Embedder.TimeoutSecs == 0 {
		cfg.Embedder.TimeoutSecs = 30
	}
	if cfg.Embedder.BatchSize == 0 {
		cfg.Embedder.BatchSize = 32
	}
	if cfg.LLM.BaseURL == "" {
		cfg.LLM.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.LLM.APIKeyEnv == "" {
		cfg.LLM.APIKeyEnv = "OPENAI_API_KEY"
	}
	if cfg.LLM.Model == "" {
		cfg.LLM.Model = "gpt-4o-mini"
	}
	if cfg.LLM.Temperature == 0 {
		cfg.LLM.Temperature = 0.7
	}
	if cfg.LLM.TimeoutSecs == 0 {
		cfg.LLM.TimeoutSecs = 60
	}
	if cfg.Chunker.Size == 0 {
		cfg.Chunker.Size = 1000
	}
	if cfg.Chunker.Overlap == 0 {
		cfg.Chunker.Overlap = 200
	}
	if cfg.Retriever.TopK == 0 {
		cfg.Retriever.TopK = 10
	}
	if cfg.VectorStore.Type == "" {
		cfg.VectorStore.Type = "bolt"
	}
	if cfg.VectorStore.Type == "qdrant" && cfg.VectorStore.Qdrant != nil {
		if cfg.VectorStore.Qdrant.Collection == "" {
			cfg.VectorStore.Qdrant.Collection = "muetbot"
		}
		if cfg.VectorStore.Qdrant.TimeoutSecs == 0 {
			cfg.VectorStore.Qdrant.TimeoutSecs = 30
		}
	}
}
