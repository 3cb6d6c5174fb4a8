package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// Config is the top-level application configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Log      LogConfig      `mapstructure:"log"`
	Detector DetectorConfig `mapstructure:"detector"`
	Scanner  ScannerConfig  `mapstructure:"scanner"`
	Scoring  ScoringConfig  `mapstructure:"scoring"`
	Verdict  VerdictConfig  `mapstructure:"verdict"`
	Storage  StorageConfig  `mapstructure:"storage"`
	MQTT     MQTTConfig     `mapstructure:"mqtt"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"` // optional log file in addition to stdout
}

// DetectorConfig holds paths and parameters for the OpenCV face detector
// and the embedding model.
type DetectorConfig struct {
	CascadePath        string  `mapstructure:"cascade_path"`
	EmbeddingModelPath string  `mapstructure:"embedding_model_path"`
	ScaleFactor        float64 `mapstructure:"scale_factor"`
	MinNeighbors       int     `mapstructure:"min_neighbors"`
	MinSizeWidth       int     `mapstructure:"min_size_width"`
	MinSizeHeight      int     `mapstructure:"min_size_height"`
}

// ScannerConfig holds the filtering and normalization policy applied to
// raw detections.
type ScannerConfig struct {
	MinFaceRatio   float64 `mapstructure:"min_face_ratio"`   // minimum face area relative to frame area
	MinAspectRatio float64 `mapstructure:"min_aspect_ratio"` // minimum width/height of an accepted box
	MaxAspectRatio float64 `mapstructure:"max_aspect_ratio"` // maximum width/height of an accepted box
	ROIMargin      float64 `mapstructure:"roi_margin"`       // margin added around a detection before embedding
	ROISize        int     `mapstructure:"roi_size"`         // side length of the normalized face crop
}

// ScoringConfig holds the constants of the distance-to-similarity curve.
// The curve is a logistic transform; see face.Scorer.
type ScoringConfig struct {
	Midpoint  float64 `mapstructure:"midpoint"`
	Steepness float64 `mapstructure:"steepness"`
	Boost     float64 `mapstructure:"boost"` // additive sharpening below distance 0.5; 0 disables
}

// VerdictConfig holds the similarity thresholds for verdict bands.
type VerdictConfig struct {
	PossibleThreshold float64 `mapstructure:"possible_threshold"` // above this: possible match (and match=true)
	ExactThreshold    float64 `mapstructure:"exact_threshold"`    // above this: exact match
	StrongThreshold   float64 `mapstructure:"strong_threshold"`   // above this: extra strong-consistency remark
}

// StorageConfig holds settings for persisting matched face crops.
type StorageConfig struct {
	SaveCrops bool   `mapstructure:"save_crops"`
	CropDir   string `mapstructure:"crop_dir"`
	CropURL   string `mapstructure:"crop_url"` // URL prefix the crop directory is served under
}

// MQTTConfig holds settings for the optional result publisher.
type MQTTConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Broker   string `mapstructure:"broker"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	ClientID string `mapstructure:"client_id"`
	Topic    string `mapstructure:"topic"`
}

// Load reads the configuration from file, environment variables and defaults.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			log.Warnf("Config file %s does not exist, using defaults", configPath)
		} else {
			v.SetConfigFile(configPath)
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
			log.Infof("Config loaded from %s", configPath)
		}
	}

	// Environment variables overlay the file values.
	v.AutomaticEnv()
	v.SetEnvPrefix("FACE_MATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := ensureDirectories(&cfg); err != nil {
		return nil, fmt.Errorf("failed to create required directories: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets the default configuration values.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 3002)

	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")

	// Detector defaults
	v.SetDefault("detector.cascade_path", "models/haarcascade_frontalface_default.xml")
	v.SetDefault("detector.embedding_model_path", "models/nn4.small2.v1.t7")
	v.SetDefault("detector.scale_factor", 1.1)
	v.SetDefault("detector.min_neighbors", 3)
	v.SetDefault("detector.min_size_width", 30)
	v.SetDefault("detector.min_size_height", 30)

	// Scanner defaults
	v.SetDefault("scanner.min_face_ratio", 0.01)
	v.SetDefault("scanner.min_aspect_ratio", 0.5)
	v.SetDefault("scanner.max_aspect_ratio", 1.5)
	v.SetDefault("scanner.roi_margin", 0.3)
	v.SetDefault("scanner.roi_size", 160)

	// Scoring defaults: logistic curve with midpoint 0.5 and steepness 12,
	// no additive boost.
	v.SetDefault("scoring.midpoint", 0.5)
	v.SetDefault("scoring.steepness", 12.0)
	v.SetDefault("scoring.boost", 0.0)

	// Verdict defaults
	v.SetDefault("verdict.possible_threshold", 40.0)
	v.SetDefault("verdict.exact_threshold", 55.0)
	v.SetDefault("verdict.strong_threshold", 70.0)

	// Storage defaults
	v.SetDefault("storage.save_crops", false)
	v.SetDefault("storage.crop_dir", "/data/crops")
	v.SetDefault("storage.crop_url", "/crops")

	// MQTT defaults
	v.SetDefault("mqtt.enabled", false)
	v.SetDefault("mqtt.port", 1883)
	v.SetDefault("mqtt.client_id", "face-match-go")
	v.SetDefault("mqtt.topic", "facematch/results")
}

// ensureDirectories makes sure the directories the configuration points at
// exist before anything tries to write into them.
func ensureDirectories(cfg *Config) error {
	if cfg.Storage.SaveCrops && cfg.Storage.CropDir != "" {
		if err := os.MkdirAll(cfg.Storage.CropDir, 0755); err != nil {
			return fmt.Errorf("failed to create crop directory: %w", err)
		}
	}

	if cfg.Log.File != "" {
		logDir := filepath.Dir(cfg.Log.File)
		if err := os.MkdirAll(logDir, 0755); err != nil {
			return fmt.Errorf("failed to create log directory: %w", err)
		}
	}

	return nil
}
