// Copyright 2025 NetApp, Inc. All Rights Reserved.

package imagecache

import (
	"fmt"
	"strings"
	"time"

	"github.com/brunoga/deep"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/netapp/nfs-imagecache/config"
	"github.com/netapp/nfs-imagecache/storage_drivers/ontap/api"
	"github.com/netapp/nfs-imagecache/storage_drivers/ontap/imagecache/types"
	"github.com/netapp/nfs-imagecache/utils/errors"
)

const (
	DefaultThresholdStartPercent    = 20
	DefaultThresholdStopPercent     = 60
	DefaultExpiryMinutes            = 720
	DefaultMaxOverSubscriptionRatio = 20.0
	DefaultHousekeepingInterval     = 10 * time.Minute
	DefaultNfsMountPointBase        = "/var/lib/" + config.OrchestratorName + "/mnt"
	DefaultRootHelper               = "sudo"
	DefaultCommandTimeout           = 2 * time.Minute
	DefaultFileVisibilityTimeout    = 75 * time.Second
	DefaultFileVisibilityInterval   = 2 * time.Second

	CapacitySourceAuto   = ""
	CapacitySourceOntap  = "ontap"
	CapacitySourceStatfs = "statfs"
)

// Config holds the image cache options.  Keys mirror the NetApp NFS driver option names.
type Config struct {
	// ThresholdStartPercent starts cleaning a share once its available space is at or below this percentage.
	ThresholdStartPercent int `json:"thresAvlSizePercStart" mapstructure:"thresAvlSizePercStart"`
	// ThresholdStopPercent is the available space percentage cleaning tries to reach.
	ThresholdStopPercent int `json:"thresAvlSizePercStop" mapstructure:"thresAvlSizePercStop"`
	// ExpiryMinutes is the minimum time since last access before a cache file may be evicted.
	ExpiryMinutes int `json:"expiryThresMinutes" mapstructure:"expiryThresMinutes"`

	ReservedPercentage       int     `json:"reservedPercentage" mapstructure:"reservedPercentage"`
	MaxOverSubscriptionRatio float64 `json:"maxOverSubscriptionRatio" mapstructure:"maxOverSubscriptionRatio"`

	HousekeepingInterval time.Duration `json:"housekeepingInterval" mapstructure:"housekeepingInterval"`

	Shares            []string `json:"shares" mapstructure:"shares"`
	NfsMountPointBase string   `json:"nfsMountPointBase" mapstructure:"nfsMountPointBase"`

	ExecuteAsRoot  bool          `json:"executeAsRoot" mapstructure:"executeAsRoot"`
	RootHelper     string        `json:"rootHelper" mapstructure:"rootHelper"`
	CommandTimeout time.Duration `json:"commandTimeout" mapstructure:"commandTimeout"`

	FileVisibilityTimeout  time.Duration `json:"fileVisibilityTimeout" mapstructure:"fileVisibilityTimeout"`
	FileVisibilityInterval time.Duration `json:"fileVisibilityInterval" mapstructure:"fileVisibilityInterval"`

	// CapacitySource selects how share capacity is read: "ontap", "statfs", or empty to use ONTAP when configured.
	CapacitySource string `json:"capacitySource" mapstructure:"capacitySource"`

	Ontap api.ClientConfig `json:"ontap" mapstructure:"ontap"`
}

// DefaultConfig returns a Config populated with the driver defaults.
func DefaultConfig() *Config {
	return &Config{
		ThresholdStartPercent:    DefaultThresholdStartPercent,
		ThresholdStopPercent:     DefaultThresholdStopPercent,
		ExpiryMinutes:            DefaultExpiryMinutes,
		MaxOverSubscriptionRatio: DefaultMaxOverSubscriptionRatio,
		HousekeepingInterval:     DefaultHousekeepingInterval,
		NfsMountPointBase:        DefaultNfsMountPointBase,
		ExecuteAsRoot:            true,
		RootHelper:               DefaultRootHelper,
		CommandTimeout:           DefaultCommandTimeout,
		FileVisibilityTimeout:    DefaultFileVisibilityTimeout,
		FileVisibilityInterval:   DefaultFileVisibilityInterval,
		Ontap:                    api.ClientConfig{Timeout: config.HTTPTimeout},
	}
}

// Copy returns a deep copy of the configuration.
func (c *Config) Copy() *Config {
	if c == nil {
		return nil
	}
	copied, err := deep.Copy(c)
	if err != nil {
		cfgCopy := *c
		cfgCopy.Shares = append([]string(nil), c.Shares...)
		return &cfgCopy
	}
	return copied
}

// ValidateThresholds checks the options a reclamation pass cannot run without.
func (c *Config) ValidateThresholds() error {
	if c == nil {
		return errors.ConfigError("image cache configuration is missing")
	}
	if c.ThresholdStartPercent < 0 || c.ThresholdStartPercent > 100 {
		return errors.ConfigError("thresAvlSizePercStart must be between 0 and 100, got %d", c.ThresholdStartPercent)
	}
	if c.ThresholdStopPercent < 0 || c.ThresholdStopPercent > 100 {
		return errors.ConfigError("thresAvlSizePercStop must be between 0 and 100, got %d", c.ThresholdStopPercent)
	}
	if c.ThresholdStartPercent > c.ThresholdStopPercent {
		return errors.ConfigError("thresAvlSizePercStart (%d) must not exceed thresAvlSizePercStop (%d)",
			c.ThresholdStartPercent, c.ThresholdStopPercent)
	}
	if c.ExpiryMinutes < 0 {
		return errors.ConfigError("expiryThresMinutes must not be negative, got %d", c.ExpiryMinutes)
	}
	return nil
}

// Validate checks the whole configuration.
func (c *Config) Validate() error {
	if err := c.ValidateThresholds(); err != nil {
		return err
	}
	if c.ReservedPercentage < 0 || c.ReservedPercentage > 100 {
		return errors.ConfigError("reservedPercentage must be between 0 and 100, got %d", c.ReservedPercentage)
	}
	if c.MaxOverSubscriptionRatio < 1 {
		return errors.ConfigError("maxOverSubscriptionRatio must be at least 1, got %v", c.MaxOverSubscriptionRatio)
	}
	if c.HousekeepingInterval <= 0 {
		return errors.ConfigError("housekeepingInterval must be positive, got %v", c.HousekeepingInterval)
	}
	if c.CommandTimeout <= 0 {
		return errors.ConfigError("commandTimeout must be positive, got %v", c.CommandTimeout)
	}
	if c.FileVisibilityTimeout <= 0 {
		return errors.ConfigError("fileVisibilityTimeout must be positive, got %v", c.FileVisibilityTimeout)
	}
	if c.FileVisibilityInterval <= 0 {
		return errors.ConfigError("fileVisibilityInterval must be positive, got %v", c.FileVisibilityInterval)
	}
	if c.NfsMountPointBase == "" {
		return errors.ConfigError("nfsMountPointBase is required")
	}
	if c.ExecuteAsRoot && c.RootHelper == "" {
		return errors.ConfigError("rootHelper is required when executeAsRoot is set")
	}
	for _, share := range c.Shares {
		if _, err := types.ParseShare(share); err != nil {
			return errors.WrapConfigError(err)
		}
	}
	switch c.CapacitySource {
	case CapacitySourceAuto, CapacitySourceStatfs:
	case CapacitySourceOntap:
		if c.Ontap.ManagementLIF == "" {
			return errors.ConfigError("capacitySource %q requires ontap.managementLIF", CapacitySourceOntap)
		}
	default:
		return errors.ConfigError("unknown capacitySource %q", c.CapacitySource)
	}
	return nil
}

// ParsedShares returns the configured shares in parsed form.  Invalid entries are rejected by Validate.
func (c *Config) ParsedShares() []types.Share {
	shares := make([]types.Share, 0, len(c.Shares))
	for _, s := range c.Shares {
		if share, err := types.ParseShare(s); err == nil {
			shares = append(shares, share)
		}
	}
	return shares
}

// UseOntap reports whether capacity and cloning go through the ONTAP REST API.
func (c *Config) UseOntap() bool {
	switch c.CapacitySource {
	case CapacitySourceOntap:
		return true
	case CapacitySourceStatfs:
		return false
	default:
		return c.Ontap.ManagementLIF != ""
	}
}

// flagKeys maps command line flag names to configuration keys.
var flagKeys = map[string]string{
	"start-threshold": "thresAvlSizePercStart",
	"stop-threshold":  "thresAvlSizePercStop",
	"expiry-minutes":  "expiryThresMinutes",
	"share":           "shares",
	"mount-base":      "nfsMountPointBase",
	"as-root":         "executeAsRoot",
	"capacity-source": "capacitySource",
}

// LoadConfig reads the configuration from path (YAML or JSON), then applies NFS_IMAGECACHE_* environment variables
// and any changed flags in flags.  An empty path skips the file; a missing file is an error.
func LoadConfig(path string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	defaults := DefaultConfig()
	v.SetDefault("thresAvlSizePercStart", defaults.ThresholdStartPercent)
	v.SetDefault("thresAvlSizePercStop", defaults.ThresholdStopPercent)
	v.SetDefault("expiryThresMinutes", defaults.ExpiryMinutes)
	v.SetDefault("reservedPercentage", defaults.ReservedPercentage)
	v.SetDefault("maxOverSubscriptionRatio", defaults.MaxOverSubscriptionRatio)
	v.SetDefault("housekeepingInterval", defaults.HousekeepingInterval)
	v.SetDefault("shares", []string{})
	v.SetDefault("nfsMountPointBase", defaults.NfsMountPointBase)
	v.SetDefault("executeAsRoot", defaults.ExecuteAsRoot)
	v.SetDefault("rootHelper", defaults.RootHelper)
	v.SetDefault("commandTimeout", defaults.CommandTimeout)
	v.SetDefault("fileVisibilityTimeout", defaults.FileVisibilityTimeout)
	v.SetDefault("fileVisibilityInterval", defaults.FileVisibilityInterval)
	v.SetDefault("capacitySource", defaults.CapacitySource)
	v.SetDefault("ontap.managementLIF", "")
	v.SetDefault("ontap.svm", "")
	v.SetDefault("ontap.username", "")
	v.SetDefault("ontap.password", "")
	v.SetDefault("ontap.clientCertificate", "")
	v.SetDefault("ontap.clientPrivateKey", "")
	v.SetDefault("ontap.trustedCACertificate", "")
	v.SetDefault("ontap.timeout", defaults.Ontap.Timeout)

	v.SetEnvPrefix(config.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		for flagName, key := range flagKeys {
			if flag := flags.Lookup(flagName); flag != nil {
				if err := v.BindPFlag(key, flag); err != nil {
					return nil, fmt.Errorf("could not bind flag %s; %w", flagName, err)
				}
			}
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.WrapConfigError(fmt.Errorf("could not read config file %s; %w", path, err))
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.WrapConfigError(fmt.Errorf("could not parse configuration; %w", err))
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
