package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Project struct {
		Root string `yaml:"root"`
		Name string `yaml:"name"` // root node label; defaults to "Contract"
	} `yaml:"project"`
	Extractor struct {
		ContractAttributes []string `yaml:"contract_attributes"`
		EventMacros        []string `yaml:"event_macros"`
		IncludeAllImpls    bool     `yaml:"include_all_impls"`
	} `yaml:"extractor"`
	Diagram struct {
		Dialect   string `yaml:"dialect"`
		Direction string `yaml:"direction"`
		OutputDir string `yaml:"output_dir"`
		Workers   int    `yaml:"workers"`
	} `yaml:"diagram"`
	Storage struct {
		Path string `yaml:"path"`
	} `yaml:"storage"`
	Neo4j struct {
		URI      string `yaml:"uri"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
	} `yaml:"neo4j"`
	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	var cfg Config
	cfg.Project.Root = "."
	cfg.Extractor.ContractAttributes = []string{"near_bindgen", "near"}
	cfg.Extractor.EventMacros = []string{"log", "emit"}
	cfg.Diagram.Dialect = "mermaid"
	cfg.Diagram.Direction = "TB"
	cfg.Diagram.OutputDir = "diagrams"
	cfg.Diagram.Workers = 4
	cfg.Storage.Path = "contractmap.db"
	cfg.Neo4j.URI = "bolt://localhost:7687"
	cfg.Neo4j.User = "neo4j"
	cfg.Log.Level = "warn"
	return &cfg
}

// LoadConfig reads path on top of the defaults. A missing file is not an error.
func LoadConfig(path string) (*Config, error) {
	// 1. Load .env if exists
	_ = godotenv.Load()

	cfg := Default()

	// 2. Load YAML config
	file, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(file, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	// 3. Override with Environment Variables if present
	applyEnv(cfg)

	if cfg.Diagram.Workers <= 0 {
		cfg.Diagram.Workers = 1
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	overrides := []struct {
		key string
		dst *string
	}{
		{"CONTRACTMAP_ROOT", &cfg.Project.Root},
		{"CONTRACTMAP_DIALECT", &cfg.Diagram.Dialect},
		{"CONTRACTMAP_DIRECTION", &cfg.Diagram.Direction},
		{"CONTRACTMAP_DB", &cfg.Storage.Path},
		{"CONTRACTMAP_NEO4J_URI", &cfg.Neo4j.URI},
		{"CONTRACTMAP_NEO4J_USER", &cfg.Neo4j.User},
		{"CONTRACTMAP_NEO4J_PASSWORD", &cfg.Neo4j.Password},
		{"CONTRACTMAP_LOG_LEVEL", &cfg.Log.Level},
	}
	for _, o := range overrides {
		if v := strings.TrimSpace(os.Getenv(o.key)); v != "" {
			*o.dst = v
		}
	}
}
