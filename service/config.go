package service

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/studykit/corpus/chunker"
	"github.com/studykit/corpus/embeddings"
	"github.com/studykit/corpus/embeddings/ollama"
	"github.com/studykit/corpus/embeddings/openai"
	"github.com/studykit/corpus/loader"
	"github.com/studykit/corpus/ocr"
	"github.com/studykit/corpus/vectordb/sqlite"
)

// Config assembles a Service from a YAML file plus environment overrides.
type Config struct {
	Store    StoreConfig    `yaml:"store"`
	Embedder EmbedderConfig `yaml:"embedder"`
	Chunker  ChunkerConfig  `yaml:"chunker"`
	OCR      OCRConfig      `yaml:"ocr"`
}

// StoreConfig defines vector store settings.
type StoreConfig struct {
	DSN string `yaml:"dsn"`
}

// EmbedderConfig selects the embedding provider. E5Prefixes wraps the
// provider so passage/query marker prefixes are applied on embedding input.
type EmbedderConfig struct {
	Provider   string `yaml:"provider"`
	Model      string `yaml:"model"`
	BaseURL    string `yaml:"baseURL,omitempty"`
	APIKey     string `yaml:"apiKey,omitempty"`
	E5Prefixes bool   `yaml:"e5Prefixes"`
}

// ChunkerConfig defines semantic chunking settings. Zero values fall back
// to package defaults.
type ChunkerConfig struct {
	MaxChunkSize         int     `yaml:"maxChunkSize"`
	BreakpointPercentile float64 `yaml:"breakpointPercentile"`
}

// OCRConfig defines scanned-document processing settings.
type OCRConfig struct {
	TesseractBinary string `yaml:"tesseractBinary,omitempty"`
	Languages       string `yaml:"languages,omitempty"`
	PopplerBinary   string `yaml:"popplerBinary,omitempty"`
	Resolution      int    `yaml:"resolution,omitempty"`
	Parallelism     int    `yaml:"parallelism,omitempty"`
}

// LoadConfig reads a YAML config, overlays a .env file from the config's
// directory when present, then applies environment overrides.
func LoadConfig(path string) (*Config, error) {
	path, err := expandUserPath(path)
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if env := filepath.Join(filepath.Dir(path), ".env"); fileExists(env) {
		if err := godotenv.Load(env); err != nil {
			return nil, fmt.Errorf("load %s: %w", env, err)
		}
	}
	cfg.applyEnv()
	if cfg.Store.DSN != "" {
		if cfg.Store.DSN, err = expandUserPath(cfg.Store.DSN); err != nil {
			return nil, err
		}
	}
	return &cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("MAX_CHUNK_SIZE"); v != "" {
		if size, err := strconv.Atoi(v); err == nil && size > 0 {
			c.Chunker.MaxChunkSize = size
		}
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" && c.Embedder.APIKey == "" {
		c.Embedder.APIKey = v
	}
	if v := os.Getenv("OLLAMA_BASE_URL"); v != "" && c.Embedder.BaseURL == "" {
		c.Embedder.BaseURL = v
	}
}

// NewFromConfig builds a Service with the embedder, store, chunker and
// loader the config describes.
func NewFromConfig(cfg *Config, opts ...Option) (*Service, error) {
	embedder, err := cfg.Embedder.build()
	if err != nil {
		return nil, err
	}
	store, err := sqlite.New(sqlite.WithDSN(cfg.Store.DSN))
	if err != nil {
		return nil, err
	}
	var chunkerOpts []chunker.Option
	if cfg.Chunker.MaxChunkSize > 0 {
		chunkerOpts = append(chunkerOpts, chunker.WithMaxChunkSize(cfg.Chunker.MaxChunkSize))
	}
	if cfg.Chunker.BreakpointPercentile > 0 {
		chunkerOpts = append(chunkerOpts, chunker.WithBreakpointPercentile(cfg.Chunker.BreakpointPercentile))
	}
	// The loader is built before the Service exists; logf forwards to the
	// Service sink once construction finishes.
	var svc *Service
	logf := func(format string, args ...any) {
		if svc != nil {
			svc.logPrintf(format, args...)
		}
	}
	defaults := []Option{
		WithChunker(chunker.NewSemantic(embedder, chunkerOpts...)),
		WithLoader(cfg.OCR.buildLoader(logf)),
	}
	svc = New(embedder, store, append(defaults, opts...)...)
	return svc, nil
}

func (c EmbedderConfig) build() (embeddings.Embedder, error) {
	var embedder embeddings.Embedder
	switch strings.ToLower(c.Provider) {
	case "", "ollama":
		var opts []ollama.Option
		if c.BaseURL != "" {
			opts = append(opts, ollama.WithBaseURL(c.BaseURL))
		}
		embedder = ollama.New(c.Model, opts...)
	case "openai":
		embedder = openai.New(c.APIKey, c.Model)
	default:
		return nil, fmt.Errorf("unknown embedder provider: %s", c.Provider)
	}
	if c.E5Prefixes {
		embedder = embeddings.NewE5(embedder)
	}
	return embedder, nil
}

func (c OCRConfig) buildLoader(logf func(format string, args ...any)) *loader.Loader {
	var engineOpts []ocr.TesseractOption
	if c.TesseractBinary != "" {
		engineOpts = append(engineOpts, ocr.WithBinary(c.TesseractBinary))
	}
	if c.Languages != "" {
		engineOpts = append(engineOpts, ocr.WithLanguages(c.Languages))
	}
	var rasterOpts []loader.PopplerOption
	if c.PopplerBinary != "" {
		rasterOpts = append(rasterOpts, loader.WithPopplerBinary(c.PopplerBinary))
	}
	if c.Resolution > 0 {
		rasterOpts = append(rasterOpts, loader.WithResolution(c.Resolution))
	}
	opts := []loader.Option{
		loader.WithOCR(ocr.NewTesseract(engineOpts...)),
		loader.WithRasterizer(loader.NewPopplerRasterizer(rasterOpts...)),
		loader.WithLogf(logf),
	}
	if c.Parallelism > 0 {
		opts = append(opts, loader.WithOCRParallelism(c.Parallelism))
	}
	return loader.New(opts...)
}

func expandUserPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" || trimmed[0] != '~' {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	if trimmed == "~" {
		return home, nil
	}
	if !strings.HasPrefix(trimmed, "~/") {
		return "", fmt.Errorf("config: unsupported ~user path: %s", path)
	}
	return filepath.Join(home, trimmed[2:]), nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
