package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/accord-io/accord/internal/model"
)

// Config models accord.yaml, the repo-level configuration.
type Config struct {
	Accounts []model.Account `yaml:"accounts"`

	// Parallelism bounds concurrent remote calls per fan-out.
	Parallelism int `yaml:"parallelism,omitempty"`

	Retry struct {
		MaxRetries int           `yaml:"max_retries,omitempty"`
		BaseDelay  time.Duration `yaml:"base_delay,omitempty"`
		MaxDelay   time.Duration `yaml:"max_delay,omitempty"`
	} `yaml:"retry,omitempty"`

	Providers struct {
		// Memory enables the in-process provider, mostly for trying the
		// tool out without cloud credentials.
		Memory bool       `yaml:"memory,omitempty"`
		AWS    *AWSConfig `yaml:"aws,omitempty"`
	} `yaml:"providers,omitempty"`

	Report struct {
		// Dir receives the proposed_changes.yaml artifact. Defaults to
		// the repo root.
		Dir string    `yaml:"dir,omitempty"`
		S3  *S3Report `yaml:"s3,omitempty"`
	} `yaml:"report,omitempty"`
}

// AWSConfig configures the AWS provider binding.
type AWSConfig struct {
	Region string `yaml:"region,omitempty"`
	// Profile is the default shared-config profile; an account can
	// override it with a "profile" variable.
	Profile string `yaml:"profile,omitempty"`
}

// S3Report configures the optional S3 copy of each run report.
type S3Report struct {
	Bucket string `yaml:"bucket"`
	Prefix string `yaml:"prefix,omitempty"`
	Region string `yaml:"region,omitempty"`
}

// Path returns the config file location inside a repo.
func Path(root string) string {
	return filepath.Join(root, "accord.yaml")
}

// Load reads and validates the config for a repo root.
func Load(root string) (*Config, error) {
	path := Path(root)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config %s not found; create one with accord init", path)
		}
		return nil, err
	}
	return FromYAML(data)
}

// FromYAML parses and validates config bytes.
func FromYAML(data []byte) (*Config, error) {
	var c Config
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	c.applyDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) applyDefaults() {
	if c.Parallelism == 0 {
		c.Parallelism = 10
	}
	if c.Retry.MaxRetries == 0 {
		c.Retry.MaxRetries = 3
	}
	if c.Retry.BaseDelay == 0 {
		c.Retry.BaseDelay = time.Second
	}
	if c.Retry.MaxDelay == 0 {
		c.Retry.MaxDelay = 30 * time.Second
	}
}

// Validate ensures the config meets required structure.
func (c *Config) Validate() error {
	if len(c.Accounts) == 0 {
		return fmt.Errorf("config.accounts is required")
	}
	seen := make(map[string]bool)
	for i, acct := range c.Accounts {
		if acct.ID == "" {
			return fmt.Errorf("config.accounts[%d] is missing an id", i)
		}
		if seen[acct.ID] {
			return fmt.Errorf("duplicate account id %s", acct.ID)
		}
		seen[acct.ID] = true
	}
	if c.Parallelism < 1 {
		return fmt.Errorf("config.parallelism must be positive")
	}
	if s3 := c.Report.S3; s3 != nil && s3.Bucket == "" {
		return fmt.Errorf("config.report.s3.bucket is required when s3 reporting is set")
	}
	return nil
}
