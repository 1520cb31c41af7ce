package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"riserroute/core"
	"riserroute/orchestrator"
	"riserroute/sanitary"
	"riserroute/spatial"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
	if cfg.GridResolution[core.KindWall] != 0.5 || cfg.GridResolution[core.KindFloor] != 1.0 {
		t.Errorf("GridResolution = %v", cfg.GridResolution)
	}
	if cfg.ObstacleMultipliers[spatial.Stud] != 5 || cfg.ObstacleMultipliers[spatial.Joist] != 3 {
		t.Errorf("ObstacleMultipliers = %v", cfg.ObstacleMultipliers)
	}
	if cfg.TransitionCost != 2.0 {
		t.Errorf("TransitionCost = %v, want 2", cfg.TransitionCost)
	}
	if cfg.TradePriority[0] != core.SanitaryDrain || len(cfg.TradePriority) != len(core.KnownSystemTypes) {
		t.Errorf("TradePriority = %v", cfg.TradePriority)
	}
	if cfg.ConflictRetries != 3 {
		t.Errorf("ConflictRetries = %d, want 3", cfg.ConflictRetries)
	}
	if cfg.RoutingTimeout != 30*time.Second {
		t.Errorf("RoutingTimeout = %v, want 30s", cfg.RoutingTimeout)
	}
	if cfg.TargetJoinRadius != 0.75 {
		t.Errorf("TargetJoinRadius = %v, want 0.75", cfg.TargetJoinRadius)
	}

	// Defaults must not share the package-level trade table.
	cfg.TradePriority[0] = core.Data
	if core.KnownSystemTypes[0] != core.SanitaryDrain {
		t.Error("Defaults aliases core.KnownSystemTypes")
	}
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "riserroute.yaml")
	data := []byte(`
grid_resolution:
  wall: 0.25
obstacle_multipliers:
  stud: 6
trade_priority: [vent, sanitary_drain, power]
slope_brackets:
  - {max_diameter: 0.3, min_slope: 0.03}
  - {max_diameter: 0, min_slope: 0.01}
routing_timeout: 45s
parallel_zones: true
zone_strategy: single
`)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.GridResolution[core.KindWall] != 0.25 {
		t.Errorf("wall resolution = %v, want 0.25", cfg.GridResolution[core.KindWall])
	}
	if cfg.GridResolution[core.KindFloor] != 1.0 {
		t.Error("keys absent from the file should keep their defaults")
	}
	if cfg.ObstacleMultipliers[spatial.Stud] != 6 || cfg.ObstacleMultipliers[spatial.Joist] != 3 {
		t.Errorf("ObstacleMultipliers = %v", cfg.ObstacleMultipliers)
	}
	if len(cfg.TradePriority) != 3 || cfg.TradePriority[0] != core.Vent {
		t.Errorf("TradePriority = %v", cfg.TradePriority)
	}
	if cfg.SlopeBrackets[0] != (sanitary.Bracket{MaxDiameter: 0.3, MinSlope: 0.03}) {
		t.Errorf("SlopeBrackets = %v", cfg.SlopeBrackets)
	}
	if cfg.RoutingTimeout != 45*time.Second {
		t.Errorf("RoutingTimeout = %v, want 45s", cfg.RoutingTimeout)
	}
	if !cfg.ParallelZones || cfg.ZoneStrategy != "single" {
		t.Errorf("ParallelZones=%v ZoneStrategy=%s", cfg.ParallelZones, cfg.ZoneStrategy)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("missing config file should be an error")
	}
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("RISERROUTE_CONFLICT_RETRIES", "5")
	t.Setenv("RISERROUTE_DEFAULT_CLEARANCE", "0.1")
	t.Setenv("RISERROUTE_ROUTING_TIMEOUT", "2m")
	t.Setenv("RISERROUTE_PARALLEL_ZONES", "1")
	t.Setenv("RISERROUTE_TRADE_PRIORITY", "power, data")
	t.Setenv("RISERROUTE_BUNDLE_TRADES", "data")
	t.Setenv("RISERROUTE_MAX_CANDIDATES", "not-a-number")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ConflictRetries != 5 {
		t.Errorf("ConflictRetries = %d, want 5", cfg.ConflictRetries)
	}
	if cfg.DefaultClearance != 0.1 {
		t.Errorf("DefaultClearance = %v, want 0.1", cfg.DefaultClearance)
	}
	if cfg.RoutingTimeout != 2*time.Minute {
		t.Errorf("RoutingTimeout = %v, want 2m", cfg.RoutingTimeout)
	}
	if !cfg.ParallelZones {
		t.Error("ParallelZones should be enabled")
	}
	if len(cfg.TradePriority) != 2 || cfg.TradePriority[1] != core.Data {
		t.Errorf("TradePriority = %v", cfg.TradePriority)
	}
	if len(cfg.BundleTrades) != 1 || cfg.BundleTrades[0] != core.Data {
		t.Errorf("BundleTrades = %v", cfg.BundleTrades)
	}
	if cfg.MaxCandidates != 5 {
		t.Errorf("unparsable override should keep the default, got %d", cfg.MaxCandidates)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"negative clearance", func(c *Config) { c.DefaultClearance = -0.1 }},
		{"negative trade clearance", func(c *Config) { c.Clearance[core.Power] = -1 }},
		{"empty trade priority", func(c *Config) { c.TradePriority = nil }},
		{"duplicate trade", func(c *Config) { c.TradePriority = []core.SystemType{core.Vent, core.Vent} }},
		{"unknown trade", func(c *Config) { c.TradePriority = []core.SystemType{"steam"} }},
		{"zero resolution", func(c *Config) { c.GridResolution[core.KindWall] = 0 }},
		{"multiplier below one", func(c *Config) { c.ObstacleMultipliers[spatial.Stud] = 0.5 }},
		{"negative transition cost", func(c *Config) { c.TransitionCost = -1 }},
		{"negative retries", func(c *Config) { c.ConflictRetries = -1 }},
		{"zero slope", func(c *Config) { c.SlopeBrackets[0].MinSlope = 0 }},
		{"no brackets", func(c *Config) { c.SlopeBrackets = nil }},
		{"unsorted brackets", func(c *Config) {
			c.SlopeBrackets = []sanitary.Bracket{{MaxDiameter: 0.5, MinSlope: 0.01}, {MaxDiameter: 0.25, MinSlope: 0.02}}
		}},
		{"unbounded bracket first", func(c *Config) {
			c.SlopeBrackets = []sanitary.Bracket{{MaxDiameter: 0, MinSlope: 0.01}, {MaxDiameter: 0.25, MinSlope: 0.02}}
		}},
		{"unknown zone strategy", func(c *Config) { c.ZoneStrategy = "by-wing" }},
		{"bad log level", func(c *Config) { c.LogLevel = "loud" }},
		{"bad log format", func(c *Config) { c.LogFormat = "xml" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(cfg)
			err := cfg.Validate()
			if !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("Validate() = %v, want ErrInvalidConfig", err)
			}
			if !errors.Is(err, core.ErrInvalidConfig) {
				t.Error("config errors should match core.ErrInvalidConfig")
			}
		})
	}
}

func TestOrchestratorOptions(t *testing.T) {
	cfg := Defaults()
	cfg.BundleTrades = []core.SystemType{core.Data}
	cfg.ZoneStrategy = "single"
	opts := cfg.OrchestratorOptions(nil)

	if !opts.Exemptions.BundleTrades[core.Data] || opts.Exemptions.JoinRadius != 0.75 {
		t.Errorf("Exemptions = %+v", opts.Exemptions)
	}
	if _, ok := opts.Zones.(orchestrator.SingleZone); !ok {
		t.Errorf("Zones = %T, want SingleZone", opts.Zones)
	}
	if opts.Graph.Resolution[core.KindFloor] != 1.0 || opts.Graph.TransitionCost != 2.0 {
		t.Errorf("Graph = %+v", opts.Graph)
	}
	if opts.Hanan.NonPenetrablePenalty != 1000 {
		t.Errorf("Hanan penalty = %v", opts.Hanan.NonPenetrablePenalty)
	}
	if opts.Timeout != 30*time.Second || opts.CacheSize != 1024 || opts.MaxExpansions != 200000 {
		t.Errorf("limits = %v/%d/%d", opts.Timeout, opts.CacheSize, opts.MaxExpansions)
	}

	san := cfg.SanitaryOptions(nil, nil)
	if san.ElbowMinRun != 0.5 || len(san.Brackets) != 2 {
		t.Errorf("SanitaryOptions = %+v", san)
	}
}

func TestNewLogger(t *testing.T) {
	cfg := Defaults()
	cfg.LogFormat = "json"
	cfg.LogLevel = "debug"

	var buf bytes.Buffer
	cfg.NewLogger(&buf).Debug("graph built", "nodes", 12)

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("log line is not JSON: %v (%q)", err, buf.String())
	}
	if rec["msg"] != "graph built" || rec["nodes"] != float64(12) {
		t.Errorf("record = %v", rec)
	}

	buf.Reset()
	cfg.LogLevel = "warn"
	cfg.NewLogger(&buf).Info("dropped")
	if buf.Len() != 0 {
		t.Errorf("info record written at warn level: %q", buf.String())
	}
}

func TestMerge(t *testing.T) {
	base := Defaults()
	merged, err := base.Merge(map[string]any{
		"grid_resolution":  map[string]any{"floor": 0.25},
		"clearance":        map[string]any{"power": 0.1},
		"conflict_retries": 5,
		"routing_timeout":  "1m",
	})
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if merged.GridResolution[core.KindFloor] != 0.25 || merged.GridResolution[core.KindWall] != 0.5 {
		t.Errorf("GridResolution = %v", merged.GridResolution)
	}
	if merged.Clearance[core.Power] != 0.1 || merged.ConflictRetries != 5 || merged.RoutingTimeout != time.Minute {
		t.Errorf("merged = %+v", merged)
	}
	if base.GridResolution[core.KindFloor] != 1.0 || len(base.Clearance) != 0 || base.ConflictRetries != 3 {
		t.Error("Merge modified the base configuration")
	}

	same, err := base.Merge(nil)
	if err != nil || same == base {
		t.Errorf("Merge(nil) = %p, %v, want a copy", same, err)
	}

	for name, bad := range map[string]map[string]any{
		"negative clearance": {"default_clearance": -1},
		"unknown key":        {"clearances": 0.1},
		"wrong type":         {"conflict_retries": "many"},
	} {
		if _, err := base.Merge(bad); !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("%s: err = %v, want ErrInvalidConfig", name, err)
		}
	}
}
