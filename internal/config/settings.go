package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Policy makes the subtyping rules that annotated snippets leave implicit
// explicit. Generic arguments are always invariant.
type Policy struct {
	BoolIsInt  bool `yaml:"bool_is_int"`  // bool is accepted where int is declared
	IntIsFloat bool `yaml:"int_is_float"` // int is accepted where float is declared
}

// DefaultPolicy mirrors Python's numeric tower.
func DefaultPolicy() Policy {
	return Policy{BoolIsInt: true, IntIsFloat: true}
}

// String is stable and is used as part of cache keys.
func (p Policy) String() string {
	return fmt.Sprintf("bool_is_int=%t,int_is_float=%t", p.BoolIsInt, p.IntIsFloat)
}

type ColorMode string

const (
	ColorAuto   ColorMode = "auto"
	ColorAlways ColorMode = "always"
	ColorNever  ColorMode = "never"
)

// Config is the contents of sigcheck.yaml.
type Config struct {
	Policy  Policy    `yaml:"policy"`
	Cache   string    `yaml:"cache"`   // Path to the SQLite result cache; empty disables it
	Color   ColorMode `yaml:"color"`   // auto, always or never
	Workers int       `yaml:"workers"` // Parallel checks per file; <= 1 means sequential
}

func Default() *Config {
	return &Config{
		Policy:  DefaultPolicy(),
		Color:   ColorAuto,
		Workers: 1,
	}
}

// Load reads the YAML config at path, then applies environment overrides.
// A missing file is not an error: defaults are used.
func Load(path string) (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	cfg := Default()
	if path == "" {
		path = DefaultConfigFile
	}
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("read config %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("SIGCHECK_CACHE"); v != "" {
		c.Cache = v
	}
	if v := os.Getenv("SIGCHECK_COLOR"); v != "" {
		c.Color = ColorMode(v)
	}
	if v := os.Getenv("SIGCHECK_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("SIGCHECK_WORKERS: %w", err)
		}
		c.Workers = n
	}
	for name, dst := range map[string]*bool{
		"SIGCHECK_BOOL_IS_INT":  &c.Policy.BoolIsInt,
		"SIGCHECK_INT_IS_FLOAT": &c.Policy.IntIsFloat,
	} {
		v := os.Getenv(name)
		if v == "" {
			continue
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		*dst = b
	}
	return nil
}

func (c *Config) Validate() error {
	switch c.Color {
	case "":
		c.Color = ColorAuto
	case ColorAuto, ColorAlways, ColorNever:
	default:
		return fmt.Errorf("invalid color mode %q (want auto, always or never)", c.Color)
	}
	if c.Workers < 1 {
		c.Workers = 1
	}
	return nil
}
