// Copyright (c) 2025 BVK Chaitanya

package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/bvk/hashbid/engine"
	"github.com/bvk/hashbid/market"
)

func writeConfig(t *testing.T, content string) string {
	file := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(file, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	return file
}

func TestLoadExample(t *testing.T) {
	cfg, err := Load(writeConfig(t, Example))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.NiceHash.APIID != "123456" {
		t.Fatalf("unexpected api id %q", cfg.NiceHash.APIID)
	}
	if tier, _ := cfg.Tier(); tier != engine.Medium {
		t.Fatalf("want medium tier, got %q", tier)
	}
	if d := cfg.LoopDelay(); d != 5*time.Minute {
		t.Fatalf("want 5m loop delay, got %s", d)
	}
	if cfg.NiceHash.CallInterval != 5*time.Second {
		t.Fatalf("want default call interval 5s, got %s", cfg.NiceHash.CallInterval)
	}
	segs, err := cfg.Segments()
	if err != nil {
		t.Fatal(err)
	}
	if len(segs) != len(market.Regions())*len(market.Algorithms()) {
		t.Fatalf("want all segments by default, got %v", segs)
	}
	if cfg.PushoverKeys() != nil {
		t.Fatalf("pushover must be disabled by default")
	}
	addr, err := cfg.ListenAddr()
	if err != nil {
		t.Fatal(err)
	}
	if addr.Port != 10000 {
		t.Fatalf("want default port 10000, got %d", addr.Port)
	}
}

func TestLoadFull(t *testing.T) {
	content := `
[nicehash]
API_ID = "1"
API_KEY = "k"
PRICE_ADJUST_RATE = "Fast"
CALL_INTERVAL = "2s"
REGIONS = ["us"]
ALGORITHMS = ["GrinCuckaroo31", "38"]

[hashmanager]
LOOP_DELAY_MINUTES = 1

[logging]
level = "debug"
dir = "/tmp/hashbid-logs"

[server]
listen_ip = "0.0.0.0"
listen_port = 18000

[pushover]
application_key = "app"
user_key = "user"
`
	cfg, err := Load(writeConfig(t, content))
	if err != nil {
		t.Fatal(err)
	}
	if tier, _ := cfg.Tier(); tier != engine.Fast {
		t.Fatalf("want fast tier, got %q", tier)
	}
	if cfg.NiceHash.CallInterval != 2*time.Second {
		t.Fatalf("want 2s call interval, got %s", cfg.NiceHash.CallInterval)
	}
	segs, err := cfg.Segments()
	if err != nil {
		t.Fatal(err)
	}
	if len(segs) != 2 {
		t.Fatalf("want two segments, got %v", segs)
	}
	for _, seg := range segs {
		if seg.Region != market.RegionUSA {
			t.Fatalf("unexpected segment %v", seg)
		}
	}
	if keys := cfg.PushoverKeys(); keys == nil || keys.UserKey != "user" {
		t.Fatalf("unexpected pushover keys %#v", keys)
	}
	if cfg.Logging.Dir != "/tmp/hashbid-logs" {
		t.Fatalf("unexpected log dir %q", cfg.Logging.Dir)
	}
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("HASHBID_NICEHASH_API_KEY", "from-env")
	t.Setenv("HASHBID_NICEHASH_PRICE_ADJUST_RATE", "slow")

	cfg, err := Load(writeConfig(t, Example))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.NiceHash.APIKey != "from-env" {
		t.Fatalf("want api key from environment, got %q", cfg.NiceHash.APIKey)
	}
	if tier, _ := cfg.Tier(); tier != engine.Slow {
		t.Fatalf("want slow tier from environment, got %q", tier)
	}
}

func TestInvalidConfigs(t *testing.T) {
	testCases := map[string]string{
		"missing key": `
[nicehash]
API_ID = "1"
PRICE_ADJUST_RATE = "slow"
[hashmanager]
LOOP_DELAY_MINUTES = 1
`,
		"unknown tier": `
[nicehash]
API_ID = "1"
API_KEY = "k"
PRICE_ADJUST_RATE = "turbo"
[hashmanager]
LOOP_DELAY_MINUTES = 1
`,
		"zero delay": `
[nicehash]
API_ID = "1"
API_KEY = "k"
PRICE_ADJUST_RATE = "slow"
`,
		"unknown region": `
[nicehash]
API_ID = "1"
API_KEY = "k"
PRICE_ADJUST_RATE = "slow"
REGIONS = ["ASIA"]
[hashmanager]
LOOP_DELAY_MINUTES = 1
`,
		"half pushover": `
[nicehash]
API_ID = "1"
API_KEY = "k"
PRICE_ADJUST_RATE = "slow"
[hashmanager]
LOOP_DELAY_MINUTES = 1
[pushover]
user_key = "user"
`,
	}
	for name, content := range testCases {
		if _, err := Load(writeConfig(t, content)); !errors.Is(err, os.ErrInvalid) {
			t.Fatalf("%s: want os.ErrInvalid, got %v", name, err)
		}
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.toml")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("want os.ErrNotExist for a missing file, got %v", err)
	}
}
