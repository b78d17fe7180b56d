// Copyright 2025 NetApp, Inc. All Rights Reserved.

package imagecache

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/netapp/nfs-imagecache/storage_drivers/ontap/imagecache/types"
	"github.com/netapp/nfs-imagecache/utils/errors"
)

func writeConfigFile(t *testing.T, name, contents string) string {
	t.Helper()
	configPath := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(configPath, []byte(contents), 0o600))
	return configPath
}

func newConfigFlags() *pflag.FlagSet {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Int("start-threshold", DefaultThresholdStartPercent, "")
	flags.Int("stop-threshold", DefaultThresholdStopPercent, "")
	flags.Int("expiry-minutes", DefaultExpiryMinutes, "")
	flags.StringSlice("share", nil, "")
	flags.String("mount-base", DefaultNfsMountPointBase, "")
	flags.Bool("as-root", true, "")
	flags.String("capacity-source", "", "")
	return flags
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	require.NoError(t, cfg.Validate())
	assert.Equal(t, 20, cfg.ThresholdStartPercent)
	assert.Equal(t, 60, cfg.ThresholdStopPercent)
	assert.Equal(t, 720, cfg.ExpiryMinutes)
	assert.False(t, cfg.UseOntap())
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "start below zero", mutate: func(c *Config) { c.ThresholdStartPercent = -1 }, wantErr: true},
		{name: "stop above 100", mutate: func(c *Config) { c.ThresholdStopPercent = 101 }, wantErr: true},
		{name: "start equals stop", mutate: func(c *Config) { c.ThresholdStartPercent = 80 }},
		{name: "start above stop", mutate: func(c *Config) { c.ThresholdStartPercent = 90 }, wantErr: true},
		{name: "zero expiry", mutate: func(c *Config) { c.ExpiryMinutes = 0 }},
		{name: "negative expiry", mutate: func(c *Config) { c.ExpiryMinutes = -5 }, wantErr: true},
		{name: "reserve above 100", mutate: func(c *Config) { c.ReservedPercentage = 150 }, wantErr: true},
		{name: "ratio below 1", mutate: func(c *Config) { c.MaxOverSubscriptionRatio = 0.5 }, wantErr: true},
		{name: "no housekeeping interval", mutate: func(c *Config) { c.HousekeepingInterval = 0 }, wantErr: true},
		{name: "no command timeout", mutate: func(c *Config) { c.CommandTimeout = 0 }, wantErr: true},
		{name: "negative command timeout", mutate: func(c *Config) { c.CommandTimeout = -time.Second }, wantErr: true},
		{name: "no visibility timeout", mutate: func(c *Config) { c.FileVisibilityTimeout = 0 }, wantErr: true},
		{name: "no visibility interval", mutate: func(c *Config) { c.FileVisibilityInterval = 0 }, wantErr: true},
		{
			name:    "negative visibility interval",
			mutate:  func(c *Config) { c.FileVisibilityInterval = -time.Millisecond },
			wantErr: true,
		},
		{name: "no mount base", mutate: func(c *Config) { c.NfsMountPointBase = "" }, wantErr: true},
		{
			name:    "root without helper",
			mutate:  func(c *Config) { c.ExecuteAsRoot, c.RootHelper = true, "" },
			wantErr: true,
		},
		{name: "bad share", mutate: func(c *Config) { c.Shares = []string{"nohost"} }, wantErr: true},
		{name: "statfs source", mutate: func(c *Config) { c.CapacitySource = CapacitySourceStatfs }},
		{name: "ontap source without lif", mutate: func(c *Config) { c.CapacitySource = CapacitySourceOntap }, wantErr: true},
		{
			name:   "ontap source",
			mutate: func(c *Config) { c.CapacitySource, c.Ontap.ManagementLIF = CapacitySourceOntap, "10.0.0.100" },
		},
		{name: "unknown source", mutate: func(c *Config) { c.CapacitySource = "df" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr {
				assert.True(t, errors.IsConfigError(err), "expected a config error, got %v", err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestConfig_ValidateThresholdsNil(t *testing.T) {
	var cfg *Config
	assert.True(t, errors.IsConfigError(cfg.ValidateThresholds()))
	assert.Nil(t, cfg.Copy())
}

func TestConfig_Copy(t *testing.T) {
	cfg := testConfig()
	cfg.Ontap.Password = "secret"

	copied := cfg.Copy()
	require.Equal(t, cfg, copied)

	copied.Shares[0] = "changed:/vol"
	copied.Ontap.Password = "other"
	assert.Equal(t, shareA.String(), cfg.Shares[0])
	assert.Equal(t, "secret", cfg.Ontap.Password)
}

func TestConfig_UseOntap(t *testing.T) {
	tests := []struct {
		source string
		lif    string
		want   bool
	}{
		{source: CapacitySourceAuto, lif: "", want: false},
		{source: CapacitySourceAuto, lif: "10.0.0.100", want: true},
		{source: CapacitySourceStatfs, lif: "10.0.0.100", want: false},
		{source: CapacitySourceOntap, lif: "10.0.0.100", want: true},
	}

	for _, tt := range tests {
		cfg := testConfig()
		cfg.CapacitySource, cfg.Ontap.ManagementLIF = tt.source, tt.lif
		assert.Equal(t, tt.want, cfg.UseOntap(), "source %q lif %q", tt.source, tt.lif)
	}
}

func TestConfig_ParsedShares(t *testing.T) {
	cfg := testConfig()
	cfg.Shares = append(cfg.Shares, "bogus")

	assert.Equal(t, []types.Share{shareA, shareB}, cfg.ParsedShares())
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig("", nil)

	require.NoError(t, err)
	defaults := DefaultConfig()
	assert.Equal(t, defaults.ThresholdStartPercent, cfg.ThresholdStartPercent)
	assert.Equal(t, defaults.ThresholdStopPercent, cfg.ThresholdStopPercent)
	assert.Equal(t, defaults.ExpiryMinutes, cfg.ExpiryMinutes)
	assert.Equal(t, defaults.HousekeepingInterval, cfg.HousekeepingInterval)
	assert.Equal(t, defaults.NfsMountPointBase, cfg.NfsMountPointBase)
	assert.Equal(t, defaults.Ontap.Timeout, cfg.Ontap.Timeout)
	assert.True(t, cfg.ExecuteAsRoot)
	assert.Empty(t, cfg.Shares)
}

func TestLoadConfig_File(t *testing.T) {
	configPath := writeConfigFile(t, "config.yaml", `
thresAvlSizePercStart: 30
thresAvlSizePercStop: 50
expiryThresMinutes: 90
housekeepingInterval: 5m
shares:
  - 10.0.0.1:/vol_a
  - 10.0.0.2:/vol_b
executeAsRoot: false
ontap:
  managementLIF: 10.0.0.100
  svm: svm1
  username: admin
`)

	cfg, err := LoadConfig(configPath, nil)

	require.NoError(t, err)
	assert.Equal(t, 30, cfg.ThresholdStartPercent)
	assert.Equal(t, 50, cfg.ThresholdStopPercent)
	assert.Equal(t, 90, cfg.ExpiryMinutes)
	assert.Equal(t, 5*time.Minute, cfg.HousekeepingInterval)
	assert.Equal(t, []string{"10.0.0.1:/vol_a", "10.0.0.2:/vol_b"}, cfg.Shares)
	assert.False(t, cfg.ExecuteAsRoot)
	assert.Equal(t, "10.0.0.100", cfg.Ontap.ManagementLIF)
	assert.Equal(t, "svm1", cfg.Ontap.SVM)
	assert.True(t, cfg.UseOntap())
	assert.Equal(t, DefaultCommandTimeout, cfg.CommandTimeout)
}

func TestLoadConfig_JSONFile(t *testing.T) {
	configPath := writeConfigFile(t, "config.json", `{"thresAvlSizePercStart": 10, "thresAvlSizePercStop": 15}`)

	cfg, err := LoadConfig(configPath, nil)

	require.NoError(t, err)
	assert.Equal(t, 10, cfg.ThresholdStartPercent)
	assert.Equal(t, 15, cfg.ThresholdStopPercent)
}

func TestLoadConfig_Errors(t *testing.T) {
	tests := []struct {
		name       string
		configPath func(t *testing.T) string
	}{
		{name: "missing file", configPath: func(t *testing.T) string { return filepath.Join(t.TempDir(), "none.yaml") }},
		{name: "malformed file", configPath: func(t *testing.T) string { return writeConfigFile(t, "c.yaml", "shares: [") }},
		{
			name: "zero command timeout",
			configPath: func(t *testing.T) string {
				return writeConfigFile(t, "c.yaml", "commandTimeout: 0s\n")
			},
		},
		{
			name: "zero visibility interval",
			configPath: func(t *testing.T) string {
				return writeConfigFile(t, "c.yaml", "fileVisibilityInterval: 0s\n")
			},
		},
		{
			name: "invalid thresholds",
			configPath: func(t *testing.T) string {
				return writeConfigFile(t, "c.yaml", "thresAvlSizePercStart: 70\nthresAvlSizePercStop: 60\n")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(tt.configPath(t), nil)
			assert.True(t, errors.IsConfigError(err), "expected a config error, got %v", err)
		})
	}
}

func TestLoadConfig_EnvironmentOverridesFile(t *testing.T) {
	configPath := writeConfigFile(t, "config.yaml", "thresAvlSizePercStart: 30\nthresAvlSizePercStop: 50\n")
	t.Setenv("NFS_IMAGECACHE_THRESAVLSIZEPERCSTART", "40")
	t.Setenv("NFS_IMAGECACHE_ONTAP_SVM", "svm9")

	cfg, err := LoadConfig(configPath, nil)

	require.NoError(t, err)
	assert.Equal(t, 40, cfg.ThresholdStartPercent)
	assert.Equal(t, 50, cfg.ThresholdStopPercent)
	assert.Equal(t, "svm9", cfg.Ontap.SVM)
}

func TestLoadConfig_ChangedFlagsOverrideEverything(t *testing.T) {
	configPath := writeConfigFile(t, "config.yaml", "thresAvlSizePercStart: 30\nthresAvlSizePercStop: 50\n")
	t.Setenv("NFS_IMAGECACHE_THRESAVLSIZEPERCSTART", "40")

	flags := newConfigFlags()
	require.NoError(t, flags.Parse([]string{
		"--start-threshold=45",
		"--share=10.0.0.3:/vol_c",
		"--as-root=false",
	}))

	cfg, err := LoadConfig(configPath, flags)

	require.NoError(t, err)
	assert.Equal(t, 45, cfg.ThresholdStartPercent)
	assert.Equal(t, 50, cfg.ThresholdStopPercent, "unchanged flags keep the file value")
	assert.Equal(t, []string{"10.0.0.3:/vol_c"}, cfg.Shares)
	assert.False(t, cfg.ExecuteAsRoot)
}
