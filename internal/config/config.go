package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration tree, loaded from YAML with environment
// variable overrides applied on top.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Matcher  MatcherConfig  `yaml:"matcher"`
	Features FeaturesConfig `yaml:"features"`
	Worker   WorkerConfig   `yaml:"worker"`
	Logging  LoggingConfig  `yaml:"logging"`
}

type ServerConfig struct {
	Port   int    `yaml:"port"`
	APIKey string `yaml:"api_key"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	MaxConns int    `yaml:"max_conns"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		d.User, d.Password, d.Host, d.Port, d.Name)
}

// MatcherConfig carries the FP_* matching parameters. Names and defaults
// mirror the original service's environment variables exactly, so existing
// tuning (deployment env files) carries over unchanged.
type MatcherConfig struct {
	Ratio                        float64 `yaml:"ratio"`
	MinBase                      int     `yaml:"min_base"`
	MinPercent                   float64 `yaml:"min_percent"`
	ConfMin                      float64 `yaml:"conf_min"`
	ConfHigh                     float64 `yaml:"conf_high"`
	MinKeypoints                 int     `yaml:"min_keypoints"`
	MinKeypointsWarn             int     `yaml:"min_keypoints_warn"`
	HighConfKeypoints            int     `yaml:"high_conf_keypoints"`
	MarginBase                   int     `yaml:"margin_base"`
	MarginPercent                float64 `yaml:"margin_percent"`
	AbsMinScore                  int     `yaml:"abs_min_score"`
	SingleTemplateMarginMin      int     `yaml:"single_template_margin_min"`
	SingleTemplateMarginRatio    float64 `yaml:"single_template_margin_ratio"`
	PrecomputedFloor             int     `yaml:"precomputed_floor"`
	PrecomputedThresholdSlack    int     `yaml:"precomputed_threshold_slack"`
	PrecomputedRequiredSlack     int     `yaml:"precomputed_required_slack"`
	EarlyExitConfidenceBonus     float64 `yaml:"early_exit_confidence_bonus"`
	EarlyExitMinTemplates        int     `yaml:"early_exit_min_templates"`
	MultiTemplateConsistencyMin  int     `yaml:"multi_template_consistency_min"`
	TopK                         int     `yaml:"top_k"`
}

// FeaturesConfig carries the SIFT-like detector's tunables.
type FeaturesConfig struct {
	MaxKeypoints      int     `yaml:"max_keypoints"`
	ContrastThreshold float64 `yaml:"contrast_threshold"`
	EdgeThreshold     float64 `yaml:"edge_threshold"`
	Sigma             float64 `yaml:"sigma"`
}

type WorkerConfig struct {
	MaxWorkers int `yaml:"max_workers"`
}

type LoggingConfig struct {
	Level    string `yaml:"level"`
	Format   string `yaml:"format"`
	FilePath string `yaml:"file_path"`
}

// Load reads config from a YAML file and applies environment variable
// overrides, exactly as the teacher's internal/config loader does.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	applyEnvOverrides(cfg)
	setDefaults(cfg)

	return cfg, nil
}

func setDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.MaxConns == 0 {
		cfg.Database.MaxConns = 20
	}

	m := &cfg.Matcher
	if m.Ratio == 0 {
		m.Ratio = 0.70
	}
	if m.MinBase == 0 {
		m.MinBase = 45
	}
	if m.MinPercent == 0 {
		m.MinPercent = 0.055
	}
	if m.ConfMin == 0 {
		m.ConfMin = 65
	}
	if m.ConfHigh == 0 {
		m.ConfHigh = 85
	}
	if m.MinKeypoints == 0 {
		m.MinKeypoints = 200
	}
	if m.MinKeypointsWarn == 0 {
		m.MinKeypointsWarn = 160
	}
	if m.HighConfKeypoints == 0 {
		m.HighConfKeypoints = 525
	}
	if m.MarginBase == 0 {
		m.MarginBase = 3
	}
	if m.MarginPercent == 0 {
		m.MarginPercent = 0.10
	}
	if m.AbsMinScore == 0 {
		m.AbsMinScore = 45
	}
	if m.SingleTemplateMarginMin == 0 {
		m.SingleTemplateMarginMin = 5
	}
	if m.SingleTemplateMarginRatio == 0 {
		m.SingleTemplateMarginRatio = 0.10
	}
	if m.PrecomputedFloor == 0 {
		m.PrecomputedFloor = 38
	}
	if m.PrecomputedThresholdSlack == 0 {
		m.PrecomputedThresholdSlack = 7
	}
	if m.PrecomputedRequiredSlack == 0 {
		m.PrecomputedRequiredSlack = 3
	}
	if m.EarlyExitConfidenceBonus == 0 {
		m.EarlyExitConfidenceBonus = 15
	}
	if m.EarlyExitMinTemplates == 0 {
		m.EarlyExitMinTemplates = 3
	}
	if m.MultiTemplateConsistencyMin == 0 {
		m.MultiTemplateConsistencyMin = 3
	}
	if m.TopK == 0 {
		m.TopK = 5
	}

	f := &cfg.Features
	if f.MaxKeypoints == 0 {
		f.MaxKeypoints = 800
	}
	if f.ContrastThreshold == 0 {
		f.ContrastThreshold = 0.04
	}
	if f.EdgeThreshold == 0 {
		f.EdgeThreshold = 10
	}
	if f.Sigma == 0 {
		f.Sigma = 1.6
	}

	if cfg.Worker.MaxWorkers == 0 {
		cfg.Worker.MaxWorkers = 4
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Logging.FilePath == "" {
		cfg.Logging.FilePath = "logs.txt"
	}
}

func applyEnvOverrides(cfg *Config) {
	str("FP_SERVER_PORT", func(v string) { envInt(&cfg.Server.Port, v) })
	str("FP_API_KEY", func(v string) { cfg.Server.APIKey = v })
	str("FP_DB_HOST", func(v string) { cfg.Database.Host = v })
	str("FP_DB_PORT", func(v string) { envInt(&cfg.Database.Port, v) })
	str("FP_DB_NAME", func(v string) { cfg.Database.Name = v })
	str("FP_DB_USER", func(v string) { cfg.Database.User = v })
	str("FP_DB_PASSWORD", func(v string) { cfg.Database.Password = v })

	m := &cfg.Matcher
	str("FP_RATIO", func(v string) { envFloat(&m.Ratio, v) })
	str("FP_MIN_BASE", func(v string) { envInt(&m.MinBase, v) })
	str("FP_MIN_PERCENT", func(v string) { envFloat(&m.MinPercent, v) })
	str("FP_CONF_MIN", func(v string) { envFloat(&m.ConfMin, v) })
	str("FP_CONF_HIGH", func(v string) { envFloat(&m.ConfHigh, v) })
	str("FP_MIN_KEYPOINTS", func(v string) { envInt(&m.MinKeypoints, v) })
	str("FP_MIN_KEYPOINTS_WARN", func(v string) { envInt(&m.MinKeypointsWarn, v) })
	str("FP_HIGH_CONF_KP", func(v string) { envInt(&m.HighConfKeypoints, v) })
	str("FP_MARGIN_BASE", func(v string) { envInt(&m.MarginBase, v) })
	str("FP_MARGIN_PERCENT", func(v string) { envFloat(&m.MarginPercent, v) })
	str("FP_ABS_MIN_SCORE", func(v string) { envInt(&m.AbsMinScore, v) })
	str("FP_SINGLE_TEMPLATE_MARGIN_MIN", func(v string) { envInt(&m.SingleTemplateMarginMin, v) })
	str("FP_SINGLE_TEMPLATE_MARGIN_RATIO", func(v string) { envFloat(&m.SingleTemplateMarginRatio, v) })
	str("FP_MAX_WORKERS", func(v string) { envInt(&cfg.Worker.MaxWorkers, v) })

	f := &cfg.Features
	str("FP_SIFT_FEATURES", func(v string) { envInt(&f.MaxKeypoints, v) })
	str("FP_SIFT_CONTRAST", func(v string) { envFloat(&f.ContrastThreshold, v) })
	str("FP_SIFT_EDGE", func(v string) { envFloat(&f.EdgeThreshold, v) })
	str("FP_SIFT_SIGMA", func(v string) { envFloat(&f.Sigma, v) })
}

func str(key string, apply func(string)) {
	if v := os.Getenv(key); v != "" {
		apply(v)
	}
}

func envInt(dst *int, v string) {
	if n, err := strconv.Atoi(v); err == nil {
		*dst = n
	}
}

func envFloat(dst *float64, v string) {
	if n, err := strconv.ParseFloat(v, 64); err == nil {
		*dst = n
	}
}
