// Package config defines environment configuration structs and loaders.
package config

import (
	"context"
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/sethvargo/go-envconfig"
)

const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

type AppConfig struct {
	Environment string `env:"ENVIRONMENT, default=prod"`
	ArtifactEnvConfig
	GDFEnvConfig
}

// ArtifactEnvConfig selects where scale and weight artifacts live.
type ArtifactEnvConfig struct {
	Backend        string `env:"ARTIFACT_BACKEND, default=file"`
	Dir            string `env:"ARTIFACT_DIR, default=."`
	SQLitePath     string `env:"ARTIFACT_SQLITE_PATH, default=artifacts.db"`
	Compress       bool   `env:"ARTIFACT_COMPRESS, default=true"`
	ScaleArtifact  string `env:"SCALE_ARTIFACT, default=scale_factor"`
	WeightArtifact string `env:"WEIGHT_ARTIFACT, default=atomic_weights"`
}

// GDFEnvConfig tunes the density weighting.
type GDFEnvConfig struct {
	Sigma       float64 `env:"GDF_SIGMA, default=0.02"`
	UseModifier bool    `env:"GDF_MODIFIER, default=false"`
	ModifierB   float64 `env:"GDF_MODIFIER_B, default=150.0"`
	ModifierC   float64 `env:"GDF_MODIFIER_C, default=1.0"`
	BlockSize   int     `env:"GDF_BLOCK_SIZE, default=256"`
	Workers     int     `env:"GDF_WORKERS, default=0"`
}

// LoadConfig reads an optional .env file and then the process environment.
func LoadConfig(ctx context.Context) (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("No .env file loaded")
	}
	return LoadConfigWith(ctx, envconfig.OsLookuper())
}

// LoadConfigWith parses the configuration from lookuper.
func LoadConfigWith(ctx context.Context, lookuper envconfig.Lookuper) (*AppConfig, error) {
	cfg := &AppConfig{}
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   cfg,
		Lookuper: lookuper,
	}); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *AppConfig) Validate() error {
	c.Backend = strings.ToLower(c.Backend)
	switch c.Backend {
	case BackendFile, BackendSQLite:
	default:
		return fmt.Errorf("config: unknown artifact backend %q", c.Backend)
	}
	if !(c.Sigma > 0) {
		return fmt.Errorf("config: GDF_SIGMA must be positive, got %v", c.Sigma)
	}
	if c.ScaleArtifact == "" || c.WeightArtifact == "" {
		return fmt.Errorf("config: artifact ids must not be empty")
	}
	return nil
}
