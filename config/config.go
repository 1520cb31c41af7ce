// Package config holds the solver's configuration table: defaults, an optional YAML file,
// .env and RISERROUTE_* environment overrides, and validation.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"riserroute/core"
	"riserroute/graph"
	"riserroute/hanan"
	"riserroute/orchestrator"
	"riserroute/sanitary"
	"riserroute/spatial"
)

// ErrInvalidConfig is returned by Validate.
var ErrInvalidConfig = core.ErrInvalidConfig

// EnvPrefix prefixes every environment override.
const EnvPrefix = "RISERROUTE_"

// Config is the full configuration table. Every key has a default.
type Config struct {
	GridResolution       map[core.DomainKind]float64      `yaml:"grid_resolution"`
	DefaultResolution    float64                          `yaml:"default_resolution"`
	ObstacleMultipliers  map[spatial.ObstacleKind]float64 `yaml:"obstacle_multipliers"`
	NonPenetrablePenalty float64                          `yaml:"non_penetrable_penalty"`
	TransitionCost       float64                          `yaml:"transition_cost"`
	TradePriority        []core.SystemType                `yaml:"trade_priority"`
	SlopeBrackets        []sanitary.Bracket               `yaml:"slope_brackets"`
	ElbowMinRun          float64                          `yaml:"elbow_min_run"`
	Clearance            map[core.SystemType]float64      `yaml:"clearance"`
	DefaultClearance     float64                          `yaml:"default_clearance"`
	BundleTrades         []core.SystemType                `yaml:"bundle_trades"`
	TargetJoinRadius     float64                          `yaml:"target_join_radius"`
	ConflictRetries      int                              `yaml:"conflict_retries"`
	RoutingTimeout       time.Duration                    `yaml:"routing_timeout"`
	MaxExpansions        int                              `yaml:"max_expansions"`
	MaxCandidates        int                              `yaml:"max_candidates"`
	ParallelZones        bool                             `yaml:"parallel_zones"`
	ZoneStrategy         string                           `yaml:"zone_strategy"`
	PathCacheSize        int                              `yaml:"path_cache_size"`
	LogLevel             string                           `yaml:"log_level"`
	LogFormat            string                           `yaml:"log_format"`
}

// Defaults returns the built-in configuration.
func Defaults() *Config {
	return &Config{
		GridResolution: map[core.DomainKind]float64{
			core.KindWall:    0.5,
			core.KindFloor:   1.0,
			core.KindCeiling: 1.0,
			core.KindShaft:   0.5,
		},
		DefaultResolution: 0.5,
		ObstacleMultipliers: map[spatial.ObstacleKind]float64{
			spatial.Stud:      5,
			spatial.Joist:     3,
			spatial.Plate:     4,
			spatial.Blocking:  2,
			spatial.FireRated: 8,
			spatial.Generic:   2,
		},
		NonPenetrablePenalty: hanan.DefaultPenalty,
		TransitionCost:       2.0,
		TradePriority:        append([]core.SystemType(nil), core.KnownSystemTypes...),
		SlopeBrackets:        sanitary.DefaultBrackets(),
		ElbowMinRun:          sanitary.DefaultElbowMinRun,
		Clearance:            map[core.SystemType]float64{},
		DefaultClearance:     0.05,
		TargetJoinRadius:     0.75,
		ConflictRetries:      3,
		RoutingTimeout:       30 * time.Second,
		MaxExpansions:        200000,
		MaxCandidates:        5,
		ZoneStrategy:         "level",
		PathCacheSize:        1024,
		LogLevel:             "info",
		LogFormat:            "text",
	}
}

// Load builds the configuration from defaults, the optional YAML file at path,
// a .env file in the working directory and the process environment, in that order.
func Load(path string) (*Config, error) {
	cfg := Defaults()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: %w", err)
		}
		if err := Parse(data, cfg); err != nil {
			return nil, err
		}
	}

	_ = godotenv.Load()
	cfg.applyEnv()
	return cfg, cfg.Validate()
}

// Parse decodes YAML over cfg. Keys absent from data keep their current values.
func Parse(data []byte, cfg *Config) error {
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("config: parse: %w", err)
	}
	return nil
}

// Clone returns a deep copy of the configuration.
func (c *Config) Clone() *Config {
	out := *c
	out.GridResolution = maps.Clone(c.GridResolution)
	out.ObstacleMultipliers = maps.Clone(c.ObstacleMultipliers)
	out.Clearance = maps.Clone(c.Clearance)
	out.TradePriority = slices.Clone(c.TradePriority)
	out.SlopeBrackets = slices.Clone(c.SlopeBrackets)
	out.BundleTrades = slices.Clone(c.BundleTrades)
	return &out
}

// Merge returns a copy of c with the overrides applied and validated. c is not modified.
// Overrides use the file keys; unknown keys are rejected.
func (c *Config) Merge(overrides map[string]any) (*Config, error) {
	out := c.Clone()
	if len(overrides) == 0 {
		return out, nil
	}
	data, err := yaml.Marshal(overrides)
	if err != nil {
		return nil, fmt.Errorf("config: encode overrides: %w", err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: overrides: %v", ErrInvalidConfig, err)
	}
	if err := out.Validate(); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Config) applyEnv() {
	c.DefaultResolution = getEnvFloat("DEFAULT_RESOLUTION", c.DefaultResolution)
	c.NonPenetrablePenalty = getEnvFloat("NON_PENETRABLE_PENALTY", c.NonPenetrablePenalty)
	c.TransitionCost = getEnvFloat("TRANSITION_COST", c.TransitionCost)
	c.ElbowMinRun = getEnvFloat("ELBOW_MIN_RUN", c.ElbowMinRun)
	c.DefaultClearance = getEnvFloat("DEFAULT_CLEARANCE", c.DefaultClearance)
	c.TargetJoinRadius = getEnvFloat("TARGET_JOIN_RADIUS", c.TargetJoinRadius)
	c.ConflictRetries = getEnvInt("CONFLICT_RETRIES", c.ConflictRetries)
	c.RoutingTimeout = getEnvDuration("ROUTING_TIMEOUT", c.RoutingTimeout)
	c.MaxExpansions = getEnvInt("MAX_EXPANSIONS", c.MaxExpansions)
	c.MaxCandidates = getEnvInt("MAX_CANDIDATES", c.MaxCandidates)
	c.ParallelZones = getEnvBool("PARALLEL_ZONES", c.ParallelZones)
	c.ZoneStrategy = getEnv("ZONE_STRATEGY", c.ZoneStrategy)
	c.PathCacheSize = getEnvInt("PATH_CACHE_SIZE", c.PathCacheSize)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.LogFormat = getEnv("LOG_FORMAT", c.LogFormat)
	if v := getEnv("TRADE_PRIORITY", ""); v != "" {
		c.TradePriority = parseTrades(v)
	}
	if v := getEnv("BUNDLE_TRADES", ""); v != "" {
		c.BundleTrades = parseTrades(v)
	}
}

func parseTrades(v string) []core.SystemType {
	var out []core.SystemType
	for _, part := range strings.Split(v, ",") {
		if s := strings.TrimSpace(part); s != "" {
			out = append(out, core.SystemType(s))
		}
	}
	return out
}

// Validate rejects configurations that cannot produce a meaningful run.
func (c *Config) Validate() error {
	invalid := func(format string, args ...any) error {
		return fmt.Errorf("%w: "+format, append([]any{ErrInvalidConfig}, args...)...)
	}

	if c.DefaultResolution <= 0 {
		return invalid("default_resolution must be positive, got %v", c.DefaultResolution)
	}
	for kind, r := range c.GridResolution {
		if r <= 0 {
			return invalid("grid_resolution[%s] must be positive, got %v", kind, r)
		}
	}
	for kind, m := range c.ObstacleMultipliers {
		if m < 1 {
			return invalid("obstacle_multipliers[%s] must be at least 1, got %v", kind, m)
		}
	}
	if c.NonPenetrablePenalty < 1 {
		return invalid("non_penetrable_penalty must be at least 1, got %v", c.NonPenetrablePenalty)
	}
	if c.TransitionCost < 0 {
		return invalid("transition_cost must not be negative, got %v", c.TransitionCost)
	}

	if len(c.TradePriority) == 0 {
		return invalid("trade_priority must not be empty")
	}
	seen := make(map[core.SystemType]bool)
	for _, s := range c.TradePriority {
		if !s.Valid() {
			return invalid("trade_priority lists unknown trade %q", s)
		}
		if seen[s] {
			return invalid("trade_priority lists %s twice", s)
		}
		seen[s] = true
	}
	for _, s := range c.BundleTrades {
		if !s.Valid() {
			return invalid("bundle_trades lists unknown trade %q", s)
		}
	}

	if c.DefaultClearance < 0 {
		return invalid("default_clearance must not be negative, got %v", c.DefaultClearance)
	}
	for s, v := range c.Clearance {
		if v < 0 {
			return invalid("clearance[%s] must not be negative, got %v", s, v)
		}
	}
	if c.TargetJoinRadius < 0 {
		return invalid("target_join_radius must not be negative, got %v", c.TargetJoinRadius)
	}

	if len(c.SlopeBrackets) == 0 {
		return invalid("slope_brackets must not be empty")
	}
	last := 0.0
	for i, b := range c.SlopeBrackets {
		if b.MinSlope <= 0 {
			return invalid("slope_brackets[%d].min_slope must be positive, got %v", i, b.MinSlope)
		}
		if b.MaxDiameter < 0 {
			return invalid("slope_brackets[%d].max_diameter must not be negative", i)
		}
		if b.MaxDiameter == 0 && i != len(c.SlopeBrackets)-1 {
			return invalid("only the last slope bracket may be unbounded")
		}
		if b.MaxDiameter != 0 && b.MaxDiameter <= last {
			return invalid("slope_brackets must be sorted by max_diameter")
		}
		last = b.MaxDiameter
	}
	if c.ElbowMinRun < 0 {
		return invalid("elbow_min_run must not be negative, got %v", c.ElbowMinRun)
	}

	if c.ConflictRetries < 0 {
		return invalid("conflict_retries must not be negative, got %d", c.ConflictRetries)
	}
	if c.RoutingTimeout < 0 {
		return invalid("routing_timeout must not be negative, got %v", c.RoutingTimeout)
	}
	if c.MaxExpansions < 0 || c.MaxCandidates < 0 || c.PathCacheSize < 0 {
		return invalid("max_expansions, max_candidates and path_cache_size must not be negative")
	}
	if _, err := orchestrator.StrategyByName(c.ZoneStrategy); err != nil {
		return invalid("%v", err)
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		return invalid("%v", err)
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		return invalid("log_format must be text or json, got %q", c.LogFormat)
	}
	return nil
}

// OrchestratorOptions converts the table into orchestrator options.
func (c *Config) OrchestratorOptions(log *slog.Logger) orchestrator.Options {
	zones, err := orchestrator.StrategyByName(c.ZoneStrategy)
	if err != nil {
		zones = orchestrator.ByLevel{}
	}
	bundle := make(map[core.SystemType]bool, len(c.BundleTrades))
	for _, s := range c.BundleTrades {
		bundle[s] = true
	}
	return orchestrator.Options{
		Graph: graph.Options{
			Resolution:        c.GridResolution,
			DefaultResolution: c.DefaultResolution,
			Multipliers:       c.ObstacleMultipliers,
			TransitionCost:    c.TransitionCost,
		},
		Hanan: hanan.Options{
			Multipliers:          c.ObstacleMultipliers,
			NonPenetrablePenalty: c.NonPenetrablePenalty,
		},
		TradePriority:    c.TradePriority,
		Clearance:        c.Clearance,
		DefaultClearance: c.DefaultClearance,
		Exemptions:       spatial.Exemptions{BundleTrades: bundle, JoinRadius: c.TargetJoinRadius},
		ConflictRetries:  c.ConflictRetries,
		MaxCandidates:    c.MaxCandidates,
		MaxExpansions:    c.MaxExpansions,
		CacheSize:        c.PathCacheSize,
		Parallel:         c.ParallelZones,
		Timeout:          c.RoutingTimeout,
		Zones:            zones,
		Logger:           log,
	}
}

// SanitaryOptions converts the table into post-processor options.
func (c *Config) SanitaryOptions(occ *spatial.OccupancyMap, log *slog.Logger) sanitary.Options {
	return sanitary.Options{
		Brackets:         c.SlopeBrackets,
		ElbowMinRun:      c.ElbowMinRun,
		Occupancy:        occ,
		Clearance:        c.Clearance,
		DefaultClearance: c.DefaultClearance,
		Logger:           log,
	}
}

// NewLogger returns a logger writing to w in the configured level and format.
func (c *Config) NewLogger(w io.Writer) *slog.Logger {
	level, err := parseLevel(c.LogLevel)
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if c.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("log_level %q: %w", s, err)
	}
	return level, nil
}

func getEnv(key, defaultVal string) string {
	if v := os.Getenv(EnvPrefix + key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	v := os.Getenv(EnvPrefix + key)
	if v == "" {
		return defaultVal
	}
	return v == "true" || v == "1"
}

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(EnvPrefix + key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if v := os.Getenv(EnvPrefix + key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(EnvPrefix + key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultVal
}
