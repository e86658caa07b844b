// Package config handles mnemograph's configuration, loaded from
// environment variables with an optional YAML file layered underneath.
// Mirrors nornicdb's env-var-driven Config/LoadFromEnv()/Validate() pattern,
// pared down to the core engine's actual open parameters plus the ambient
// knobs (durability, memory pressure, GC cadence) that pattern always
// carries alongside them.
//
// Environment Variables:
//
//	MNEMOGRAPH_DATA_DIR=./data/mnemograph
//	MNEMOGRAPH_NAMESPACE=default
//	MNEMOGRAPH_EMBEDDING_DIMENSION=768
//	MNEMOGRAPH_SYNC_WRITES=true
//	MNEMOGRAPH_LOW_MEMORY=false
//	MNEMOGRAPH_GC_INTERVAL=10m
//	MNEMOGRAPH_GC_DISCARD_RATIO=0.5
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds everything needed to open an engine instance.
type Config struct {
	// DataDir is the directory Badger stores data files in. Required
	// unless InMemory is set.
	DataDir string `yaml:"data_dir"`

	// InMemory runs the engine with no on-disk files, for tests and
	// ephemeral instances.
	InMemory bool `yaml:"in_memory"`

	// Namespace labels this engine instance (used in CLI output and
	// future multi-database support). Defaults to "default".
	Namespace string `yaml:"namespace"`

	// EmbeddingDimension is the fixed vector width the engine enforces
	// (I6). 0 means infer it from the first inserted embedding.
	EmbeddingDimension int `yaml:"embedding_dimension"`

	// SyncWrites forces an fsync on every commit. Slower, more durable.
	SyncWrites bool `yaml:"sync_writes"`

	// LowMemory trims Badger's in-memory tables for constrained hosts.
	LowMemory bool `yaml:"low_memory"`

	// GCInterval is how often a background GC pass runs. Zero disables
	// the background GC loop (callers may still invoke it manually).
	GCInterval time.Duration `yaml:"gc_interval"`

	// GCDiscardRatio is the Badger value-log discard ratio threshold
	// passed to RunValueLogGC.
	GCDiscardRatio float64 `yaml:"gc_discard_ratio"`
}

// LoadFromEnv builds a Config from environment variables, falling back to
// defaults for anything unset.
func LoadFromEnv() *Config {
	return &Config{
		DataDir:            getEnv("MNEMOGRAPH_DATA_DIR", "./data/mnemograph"),
		InMemory:           getEnvBool("MNEMOGRAPH_IN_MEMORY", false),
		Namespace:          getEnv("MNEMOGRAPH_NAMESPACE", "default"),
		EmbeddingDimension: getEnvInt("MNEMOGRAPH_EMBEDDING_DIMENSION", 0),
		SyncWrites:         getEnvBool("MNEMOGRAPH_SYNC_WRITES", true),
		LowMemory:          getEnvBool("MNEMOGRAPH_LOW_MEMORY", false),
		GCInterval:         getEnvDuration("MNEMOGRAPH_GC_INTERVAL", 10*time.Minute),
		GCDiscardRatio:     getEnvFloat("MNEMOGRAPH_GC_DISCARD_RATIO", 0.5),
	}
}

// LoadFromFile reads a YAML config file and layers env vars on top of it —
// explicit environment variables always win, matching the config-from-
// file-and-env layering the rest of the pack uses for plugin manifests.
// Only data_dir, namespace, embedding_dimension, and gc_interval are taken
// from the file, and only when non-empty/non-zero there; in_memory,
// sync_writes, low_memory, and gc_discard_ratio in the file are ignored and
// come from the environment or the defaults.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	cfg := LoadFromEnv()
	fileCfg := &Config{}
	if err := yaml.Unmarshal(data, fileCfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	if !envSet("MNEMOGRAPH_DATA_DIR") && fileCfg.DataDir != "" {
		cfg.DataDir = fileCfg.DataDir
	}
	if !envSet("MNEMOGRAPH_NAMESPACE") && fileCfg.Namespace != "" {
		cfg.Namespace = fileCfg.Namespace
	}
	if !envSet("MNEMOGRAPH_EMBEDDING_DIMENSION") && fileCfg.EmbeddingDimension != 0 {
		cfg.EmbeddingDimension = fileCfg.EmbeddingDimension
	}
	if !envSet("MNEMOGRAPH_GC_INTERVAL") && fileCfg.GCInterval != 0 {
		cfg.GCInterval = fileCfg.GCInterval
	}
	return cfg, nil
}

// Validate checks that the config is internally consistent and usable to
// open an engine.
func (c *Config) Validate() error {
	if !c.InMemory && c.DataDir == "" {
		return fmt.Errorf("config: data_dir is required unless in_memory is set")
	}
	if c.EmbeddingDimension < 0 {
		return fmt.Errorf("config: embedding_dimension must be >= 0, got %d", c.EmbeddingDimension)
	}
	if c.GCDiscardRatio < 0 || c.GCDiscardRatio > 1 {
		return fmt.Errorf("config: gc_discard_ratio must be in [0, 1], got %f", c.GCDiscardRatio)
	}
	return nil
}

func (c *Config) String() string {
	return fmt.Sprintf("Config{DataDir:%s Namespace:%s EmbeddingDimension:%d SyncWrites:%v}",
		c.DataDir, c.Namespace, c.EmbeddingDimension, c.SyncWrites)
}

func envSet(key string) bool {
	_, ok := os.LookupEnv(key)
	return ok
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		val = strings.ToLower(val)
		return val == "true" || val == "1" || val == "yes" || val == "on"
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
		if secs, err := strconv.Atoi(val); err == nil {
			return time.Duration(secs) * time.Second
		}
	}
	return defaultVal
}
