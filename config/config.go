// Copyright (c) 2025 BVK Chaitanya

// Package config loads the daemon configuration from a TOML file. Every key
// can be overridden with an environment variable named HASHBID_<SECTION>_<KEY>,
// for example HASHBID_NICEHASH_API_KEY.
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"github.com/bvk/hashbid/engine"
	"github.com/bvk/hashbid/logdir"
	"github.com/bvk/hashbid/market"
	"github.com/bvk/hashbid/nicehash"
	"github.com/bvk/hashbid/pushover"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

const (
	DefaultFile = "config.toml"

	EnvPrefix = "HASHBID"
)

type NiceHash struct {
	APIID  string `mapstructure:"api_id"`
	APIKey string `mapstructure:"api_key"`

	// PriceAdjustRate is one of slow, medium or fast.
	PriceAdjustRate string `mapstructure:"price_adjust_rate"`

	// CallInterval is the minimum spacing between two api calls.
	CallInterval time.Duration `mapstructure:"call_interval"`

	// Regions and Algorithms restrict the managed segments. Empty means all.
	Regions    []string `mapstructure:"regions"`
	Algorithms []string `mapstructure:"algorithms"`
}

type HashManager struct {
	LoopDelayMinutes int `mapstructure:"loop_delay_minutes"`
}

type Logging struct {
	Level string `mapstructure:"level"`

	// Dir is the log directory. Logs go to stderr only when empty.
	Dir string `mapstructure:"dir"`
}

type Server struct {
	ListenIP   string `mapstructure:"listen_ip"`
	ListenPort int    `mapstructure:"listen_port"`
}

type Pushover struct {
	ApplicationKey string `mapstructure:"application_key"`
	UserKey        string `mapstructure:"user_key"`
}

type Config struct {
	NiceHash    NiceHash    `mapstructure:"nicehash"`
	HashManager HashManager `mapstructure:"hashmanager"`
	Logging     Logging     `mapstructure:"logging"`
	Server      Server      `mapstructure:"server"`
	Pushover    Pushover    `mapstructure:"pushover"`
}

var defaults = map[string]any{
	"nicehash.api_id":                "",
	"nicehash.api_key":               "",
	"nicehash.price_adjust_rate":     "",
	"nicehash.call_interval":         "5s",
	"nicehash.regions":               []string{},
	"nicehash.algorithms":            []string{},
	"hashmanager.loop_delay_minutes": 0,
	"logging.level":                  "info",
	"logging.dir":                    "",
	"server.listen_ip":               "127.0.0.1",
	"server.listen_port":             10000,
	"pushover.application_key":       "",
	"pushover.user_key":              "",
}

// Load reads the configuration file at path, applies environment overrides
// and validates the result.
func Load(path string) (*Config, error) {
	if len(path) == 0 {
		path = DefaultFile
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("toml")
	for k, d := range defaults {
		v.SetDefault(k, d)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("config file %q does not exist: %w", path, os.ErrNotExist)
		}
		return nil, fmt.Errorf("could not read config file %q: %w", path, err)
	}

	cfg := new(Config)
	hooks := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))
	if err := v.Unmarshal(cfg, hooks); err != nil {
		return nil, fmt.Errorf("could not decode config file %q: %w", path, err)
	}
	if err := cfg.Check(); err != nil {
		return nil, fmt.Errorf("invalid config file %q: %w", path, err)
	}
	return cfg, nil
}

// Check validates the configuration values. Returned errors wrap
// os.ErrInvalid.
func (c *Config) Check() error {
	if _, err := c.Credentials(); err != nil {
		return err
	}
	if _, err := c.Tier(); err != nil {
		return err
	}
	if c.NiceHash.CallInterval < 0 {
		return fmt.Errorf("nicehash.call_interval cannot be negative: %w", os.ErrInvalid)
	}
	if _, err := c.Segments(); err != nil {
		return err
	}
	if c.HashManager.LoopDelayMinutes <= 0 {
		return fmt.Errorf("hashmanager.loop_delay_minutes must be a positive number: %w", os.ErrInvalid)
	}
	if _, err := logdir.ParseLevel(c.Logging.Level); err != nil {
		return err
	}
	if _, err := c.ListenAddr(); err != nil {
		return err
	}
	if (c.Pushover.ApplicationKey == "") != (c.Pushover.UserKey == "") {
		return fmt.Errorf("pushover needs both application_key and user_key: %w", os.ErrInvalid)
	}
	return nil
}

// Credentials returns the marketplace api credentials.
func (c *Config) Credentials() (*nicehash.Credentials, error) {
	creds := &nicehash.Credentials{
		APIID:  c.NiceHash.APIID,
		APIKey: c.NiceHash.APIKey,
	}
	if err := creds.Check(); err != nil {
		return nil, err
	}
	return creds, nil
}

// Tier returns the configured price adjustment rate tier.
func (c *Config) Tier() (engine.Tier, error) {
	return engine.ParseTier(c.NiceHash.PriceAdjustRate)
}

// LoopDelay returns the pause between two control cycles.
func (c *Config) LoopDelay() time.Duration {
	return time.Duration(c.HashManager.LoopDelayMinutes) * time.Minute
}

// Segments returns the managed market segments. Every known region and
// algorithm is used when the corresponding list is empty.
func (c *Config) Segments() ([]market.Segment, error) {
	regions := market.Regions()
	if len(c.NiceHash.Regions) != 0 {
		regions = nil
		for _, s := range c.NiceHash.Regions {
			r, err := market.ParseRegion(s)
			if err != nil {
				return nil, err
			}
			regions = append(regions, r)
		}
	}
	algos := market.Algorithms()
	if len(c.NiceHash.Algorithms) != 0 {
		algos = nil
		for _, s := range c.NiceHash.Algorithms {
			a, err := market.ParseAlgorithm(s)
			if err != nil {
				return nil, err
			}
			algos = append(algos, a)
		}
	}
	segs := market.AllSegments(regions, algos)
	seen := make(map[market.Segment]bool)
	for _, seg := range segs {
		if seen[seg] {
			return nil, fmt.Errorf("segment %s is configured more than once: %w", seg, os.ErrInvalid)
		}
		seen[seg] = true
	}
	return segs, nil
}

// ListenAddr returns the tcp address for the status api server.
func (c *Config) ListenAddr() (*net.TCPAddr, error) {
	ip := net.ParseIP(c.Server.ListenIP)
	if ip == nil {
		return nil, fmt.Errorf("server.listen_ip %q is not an ip address: %w", c.Server.ListenIP, os.ErrInvalid)
	}
	if c.Server.ListenPort < 0 || c.Server.ListenPort > 65535 {
		return nil, fmt.Errorf("server.listen_port %d is out of range: %w", c.Server.ListenPort, os.ErrInvalid)
	}
	return &net.TCPAddr{IP: ip, Port: c.Server.ListenPort}, nil
}

// PushoverKeys returns the alert keys or nil when alerts are not configured.
func (c *Config) PushoverKeys() *pushover.Keys {
	if c.Pushover.ApplicationKey == "" {
		return nil
	}
	return &pushover.Keys{
		ApplicationKey: c.Pushover.ApplicationKey,
		UserKey:        c.Pushover.UserKey,
	}
}

// Example is a minimal configuration file.
const Example = `[nicehash]
API_ID = "123456"
API_KEY = "01234567-89ab-cdef-0123-456789abcdef"
PRICE_ADJUST_RATE = "medium"

[hashmanager]
LOOP_DELAY_MINUTES = 5
`
