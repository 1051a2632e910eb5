// Package config loads the blobmirror configuration: a YAML file with
// BLOBMIRROR_* environment overrides, resolved once at startup into an
// explicit struct that gets passed into adapter constructors. Nothing in
// here is mutable process-wide state.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// AzureConfig identifies the source blob store.
type AzureConfig struct {
	ConnectionString string `mapstructure:"connection_string"`
	AccountName      string `mapstructure:"account_name"`
}

// S3Config identifies the target bucket.
type S3Config struct {
	Bucket  string `mapstructure:"bucket"`
	Region  string `mapstructure:"region"`
	Profile string `mapstructure:"profile"`
}

// MirrorConfig controls the bulk download run.
type MirrorConfig struct {
	// Root is the local directory the store is mirrored under. Empty means
	// a directory named after the store in the working directory.
	Root string `mapstructure:"root"`

	// LedgerPath overrides the retry ledger location. Empty means
	// {account}_download_retry.txt next to the mirror root.
	LedgerPath string `mapstructure:"ledger_path"`

	Prefix   string   `mapstructure:"prefix"`
	Excludes []string `mapstructure:"excludes"`
}

// ReconcileConfig controls inventory building and comparison.
type ReconcileConfig struct {
	// VirtualRoot is the source-side prefix stripped before target lookup.
	VirtualRoot string `mapstructure:"virtual_root"`

	// ListingDir is where the per-store listing artifacts are written.
	ListingDir string `mapstructure:"listing_dir"`

	// Concurrency bounds parallel content-type fetches per store.
	Concurrency int `mapstructure:"concurrency"`
}

// LogConfig controls output verbosity.
type LogConfig struct {
	Level string `mapstructure:"level"`
	Quiet bool   `mapstructure:"quiet"`
}

// Config is the full blobmirror configuration.
type Config struct {
	Azure     AzureConfig     `mapstructure:"azure"`
	S3        S3Config        `mapstructure:"s3"`
	Mirror    MirrorConfig    `mapstructure:"mirror"`
	Reconcile ReconcileConfig `mapstructure:"reconcile"`
	Log       LogConfig       `mapstructure:"log"`
}

// Load reads the configuration file at path (optional when empty: defaults
// and environment only).
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("BLOBMIRROR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	// Empty defaults keep AutomaticEnv able to see keys that only arrive
	// via the environment.
	v.SetDefault("azure.connection_string", "")
	v.SetDefault("azure.account_name", "")
	v.SetDefault("s3.bucket", "")
	v.SetDefault("s3.region", "")
	v.SetDefault("s3.profile", "")
	v.SetDefault("mirror.root", "")
	v.SetDefault("mirror.ledger_path", "")
	v.SetDefault("mirror.prefix", "")
	v.SetDefault("reconcile.virtual_root", "$root/")
	v.SetDefault("reconcile.listing_dir", ".")
	v.SetDefault("reconcile.concurrency", 1)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.quiet", false)
}

// ValidateMirror checks the fields the mirror run needs.
func (c *Config) ValidateMirror() error {
	if c.Azure.ConnectionString == "" {
		return fmt.Errorf("azure.connection_string is required")
	}
	if c.Azure.AccountName == "" {
		return fmt.Errorf("azure.account_name is required")
	}
	return nil
}

// ValidateReconcile checks the fields the reconcile run needs.
func (c *Config) ValidateReconcile() error {
	if err := c.ValidateMirror(); err != nil {
		return err
	}
	if c.S3.Bucket == "" {
		return fmt.Errorf("s3.bucket is required")
	}
	return nil
}
