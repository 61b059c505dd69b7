package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// Config carries the daemon settings. Everything the settlement core itself
// needs is injected programmatically; this file only configures the
// embedding service.
type Config struct {
	ListenAddress string `toml:"ListenAddress"`
	DataDir       string `toml:"DataDir"`
	Environment   string `toml:"Environment"`
	ContactToken  string `toml:"ContactToken"`
	// JWTSecretEnv names the environment variable holding the HMAC secret
	// used to verify gateway bearer tokens. The secret itself never lives
	// in the config file.
	JWTSecretEnv string `toml:"JWTSecretEnv"`
}

const defaultJWTSecretEnv = "TALENTPASS_JWT_SECRET"

// Load reads the configuration at path, creating a default file when none
// exists.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	applyDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if strings.TrimSpace(cfg.ListenAddress) == "" {
		cfg.ListenAddress = ":8545"
	}
	if strings.TrimSpace(cfg.DataDir) == "" {
		cfg.DataDir = "./data"
	}
	if strings.TrimSpace(cfg.Environment) == "" {
		cfg.Environment = "dev"
	}
	if strings.TrimSpace(cfg.ContactToken) == "" {
		cfg.ContactToken = "USDC"
	}
	if strings.TrimSpace(cfg.JWTSecretEnv) == "" {
		cfg.JWTSecretEnv = defaultJWTSecretEnv
	}
}

// Validate checks the configuration for obvious misconfiguration.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.ListenAddress) == "" {
		return fmt.Errorf("config: ListenAddress required")
	}
	if strings.TrimSpace(c.DataDir) == "" {
		return fmt.Errorf("config: DataDir required")
	}
	return nil
}

// JWTSecret resolves the gateway signing secret from the environment.
func (c *Config) JWTSecret() ([]byte, error) {
	name := strings.TrimSpace(c.JWTSecretEnv)
	if name == "" {
		name = defaultJWTSecretEnv
	}
	secret := os.Getenv(name)
	if secret == "" {
		return nil, fmt.Errorf("config: environment variable %s not set", name)
	}
	return []byte(secret), nil
}

func createDefault(path string) (*Config, error) {
	cfg := &Config{}
	applyDefaults(cfg)
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
