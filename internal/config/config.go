// Package config exposes strongly typed application configuration structs loaded from YAML.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/rajnet70/Pingr-ml-insights/internal/analytics"
	"github.com/rajnet70/Pingr-ml-insights/internal/cycle"
)

// App captures process-wide runtime settings.
type App struct {
	Name        string `yaml:"name"`
	LogLevel    string `yaml:"log_level"`
	MetricsAddr string `yaml:"metrics_addr"`
}

// Input locates the JSONL alert log to analyze.
type Input struct {
	LogFile string `yaml:"log_file"`
}

// Output controls where the reporting layer writes its tables.
type Output struct {
	Dir        string `yaml:"dir"`
	CleanedCSV bool   `yaml:"cleaned_csv"`
}

// Tracking tunes the cycle tracker and outcome classifier.
type Tracking struct {
	GainThreshold   float64 `yaml:"gain_threshold"`
	StructurePolicy string  `yaml:"structure_policy"` // strict | lenient
	ReAlertPolicy   string  `yaml:"re_alert_policy"`  // latest_wins | ignore_while_open
}

// BinningSpec configures one dimension's bucketing: either explicit edges
// with labels, or a quantile split derived from the data.
type BinningSpec struct {
	Edges    []float64 `yaml:"edges"`
	Labels   []string  `yaml:"labels"`
	Quantile bool      `yaml:"quantile"`
}

// Buckets groups the binning configuration for all three dimensions.
type Buckets struct {
	RSI   BinningSpec `yaml:"rsi"`
	Heat  BinningSpec `yaml:"heat"`
	Score BinningSpec `yaml:"score"`
}

// Live configures the streaming tracker mode.
type Live struct {
	URL          string `yaml:"url"`
	SnapshotSecs int    `yaml:"snapshot_secs"`
}

// Config collects every configuration leaf for easy marshaling from YAML.
type Config struct {
	App      App      `yaml:"app"`
	Input    Input    `yaml:"input"`
	Output   Output   `yaml:"output"`
	Tracking Tracking `yaml:"tracking"`
	Buckets  Buckets  `yaml:"buckets"`
	Live     Live     `yaml:"live"`
}

// Default returns the configuration the tracker runs with when a field is
// left unset.
func Default() Config {
	return Config{
		App:      App{Name: "pingr-insights", LogLevel: "info", MetricsAddr: ":9109"},
		Input:    Input{LogFile: "alert_log.jsonl"},
		Output:   Output{Dir: "reports", CleanedCSV: true},
		Tracking: Tracking{GainThreshold: cycle.DefaultGainThreshold, StructurePolicy: "strict", ReAlertPolicy: "latest_wins"},
		Buckets: Buckets{
			RSI:   BinningSpec{Edges: []float64{0, 45, 55, 65, 100}, Labels: []string{"cool", "ideal", "warm", "overheated"}},
			Heat:  BinningSpec{Edges: []float64{0, 0.5, 1, 2, 10}, Labels: []string{"low", "moderate", "high", "extreme"}},
			Score: BinningSpec{Edges: []float64{0, 3, 5, 7, 10}, Labels: []string{"low", "mid", "strong", "extreme"}},
		},
		Live: Live{SnapshotSecs: 60},
	}
}

// Load reads a YAML file from disk over the defaults and applies environment
// overrides (.env is loaded best-effort).
func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	config := Default()
	if err := yaml.NewDecoder(file).Decode(&config); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	config.applyEnv()
	return &config, nil
}

// LoadOrDefault behaves like Load but falls back to the defaults (plus
// environment overrides) when the file does not exist.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if err == nil {
		return cfg, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}
	fallback := Default()
	fallback.applyEnv()
	return &fallback, nil
}

// Save persists a Config struct to disk as YAML.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

func (c *Config) applyEnv() {
	_ = godotenv.Load() // best-effort
	if v := os.Getenv("PINGR_LOG_FILE"); v != "" {
		c.Input.LogFile = v
	}
	if v := os.Getenv("PINGR_OUTPUT_DIR"); v != "" {
		c.Output.Dir = v
	}
	if v := os.Getenv("PINGR_LIVE_URL"); v != "" {
		c.Live.URL = v
	}
}

// Classifier builds the outcome classifier the tracking section describes.
func (t Tracking) Classifier() (cycle.Classifier, error) {
	cls := cycle.NewClassifier()
	if t.GainThreshold > 0 {
		cls.GainThreshold = t.GainThreshold
	}
	switch t.StructurePolicy {
	case "", "strict":
		cls.Structure = cycle.StructureStrict
	case "lenient":
		cls.Structure = cycle.StructureLenient
	default:
		return cls, fmt.Errorf("unknown structure_policy %q", t.StructurePolicy)
	}
	return cls, nil
}

// ReAlert maps the configured re-alert policy name to its constant.
func (t Tracking) ReAlert() (cycle.ReAlertPolicy, error) {
	switch t.ReAlertPolicy {
	case "", "latest_wins":
		return cycle.LatestAlertWins, nil
	case "ignore_while_open":
		return cycle.IgnoreWhileOpen, nil
	default:
		return cycle.LatestAlertWins, fmt.Errorf("unknown re_alert_policy %q", t.ReAlertPolicy)
	}
}

// Binning materializes the spec into an analytics.Binning. Quantile specs
// return ok=false so the caller derives edges from the data instead.
func (b BinningSpec) Binning() (analytics.Binning, bool, error) {
	if b.Quantile {
		return analytics.Binning{}, false, nil
	}
	binning, err := analytics.NewBinning(b.Edges, b.Labels)
	if err != nil {
		return analytics.Binning{}, false, err
	}
	return binning, true, nil
}
