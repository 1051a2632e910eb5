package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "$root/", cfg.Reconcile.VirtualRoot)
	assert.Equal(t, ".", cfg.Reconcile.ListingDir)
	assert.Equal(t, 1, cfg.Reconcile.Concurrency)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.False(t, cfg.Log.Quiet)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
azure:
  connection_string: "DefaultEndpointsProtocol=https;AccountName=acct;AccountKey=secret"
  account_name: acct
s3:
  bucket: acct-mirror
  region: ap-northeast-1
mirror:
  prefix: assets/
  excludes:
    - "tmp/**"
reconcile:
  concurrency: 8
log:
  level: debug
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "acct", cfg.Azure.AccountName)
	assert.Equal(t, "acct-mirror", cfg.S3.Bucket)
	assert.Equal(t, "ap-northeast-1", cfg.S3.Region)
	assert.Equal(t, "assets/", cfg.Mirror.Prefix)
	assert.Equal(t, []string{"tmp/**"}, cfg.Mirror.Excludes)
	assert.Equal(t, 8, cfg.Reconcile.Concurrency)
	assert.Equal(t, "$root/", cfg.Reconcile.VirtualRoot, "defaults survive partial files")
	assert.Equal(t, "debug", cfg.Log.Level)

	require.NoError(t, cfg.ValidateMirror())
	require.NoError(t, cfg.ValidateReconcile())
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Config)
		mirrorErr string
		reconErr  string
	}{
		{
			name:      "empty config",
			mutate:    func(*Config) {},
			mirrorErr: "azure.connection_string",
			reconErr:  "azure.connection_string",
		},
		{
			name: "missing account name",
			mutate: func(c *Config) {
				c.Azure.ConnectionString = "conn"
			},
			mirrorErr: "azure.account_name",
			reconErr:  "azure.account_name",
		},
		{
			name: "missing bucket only fails reconcile",
			mutate: func(c *Config) {
				c.Azure.ConnectionString = "conn"
				c.Azure.AccountName = "acct"
			},
			reconErr: "s3.bucket",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var cfg Config
			tt.mutate(&cfg)

			if tt.mirrorErr != "" {
				assert.ErrorContains(t, cfg.ValidateMirror(), tt.mirrorErr)
			} else {
				assert.NoError(t, cfg.ValidateMirror())
			}
			if tt.reconErr != "" {
				assert.ErrorContains(t, cfg.ValidateReconcile(), tt.reconErr)
			} else {
				assert.NoError(t, cfg.ValidateReconcile())
			}
		})
	}
}
