package config

import (
	"context"
	"log/slog"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"northpier.systems/reelsync/internal/pipeline"
)

// caBaseDir anchors relative DATABASE_CA_FILE paths.
const caBaseDir = "/etc/reelsync"

type Config struct {
	// Object Storage Configuration
	S3Bucket            string `mapstructure:"AWS_S3_BUCKET" validate:"required"`
	S3Region            string `mapstructure:"AWS_REGION"`
	S3Endpoint          string `mapstructure:"AWS_S3_ENDPOINT"`
	S3AccessKeyID       string `mapstructure:"AWS_ACCESS_KEY_ID"`
	S3SecretAccessKey   string `mapstructure:"AWS_SECRET_ACCESS_KEY"`
	PublicAssetURLs     bool   `mapstructure:"PUBLIC_ASSET_URLS"`
	SignedURLTTLSeconds int    `mapstructure:"SIGNED_URL_TTL_SECONDS"`

	// Database Configuration
	DatabaseDSN      string `mapstructure:"DATABASE_DSN" validate:"required"`
	DatabaseRetries  int    `mapstructure:"DATABASE_RETRIES"`
	DatabaseMaxConns int    `mapstructure:"DATABASE_MAX_CONNS"`
	DatabaseSSL      bool   `mapstructure:"DATABASE_SSL"`
	DatabaseCAFile   string `mapstructure:"DATABASE_CA_FILE"`

	// External Tools
	FFmpegPath  string `mapstructure:"FFMPEG_PATH"`
	FFprobePath string `mapstructure:"FFPROBE_PATH"`

	// Pipeline Limits
	DownloadTimeoutSeconds int `mapstructure:"DOWNLOAD_TIMEOUT_SECONDS"`
	ExtractTimeoutSeconds  int `mapstructure:"EXTRACT_TIMEOUT_SECONDS"`
}

// SignedURLTTL returns the requested signed URL lifetime. Clamping to the
// protocol ceiling happens in the resolver.
func (c Config) SignedURLTTL() time.Duration {
	return time.Duration(c.SignedURLTTLSeconds) * time.Second
}

// DownloadTimeout bounds the source video fetch.
func (c Config) DownloadTimeout() time.Duration {
	return time.Duration(c.DownloadTimeoutSeconds) * time.Second
}

// ExtractTimeout bounds a frame-extraction tool invocation.
func (c Config) ExtractTimeout() time.Duration {
	return time.Duration(c.ExtractTimeoutSeconds) * time.Second
}

// ResolvedCAFile returns the database CA path, anchoring relative paths
// under /etc/reelsync. Empty when no CA file is configured.
func (c Config) ResolvedCAFile() string {
	p := strings.TrimSpace(c.DatabaseCAFile)
	if p == "" {
		return ""
	}
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(caBaseDir, p)
}

// use reflect to bind environment variables based on mapstructure tags
func bindEnv(c Config) {
	val := reflect.ValueOf(c)
	typ := val.Type()

	for i := 0; i < val.NumField(); i++ {
		field := typ.Field(i)
		fieldVal := val.Field(i)
		tag := field.Tag.Get("mapstructure")

		if tag != "" {
			viper.BindEnv(tag)
		}

		// Handle nested structs
		if field.Type.Kind() == reflect.Struct && tag == "" {
			nestedTyp := fieldVal.Type()
			for j := 0; j < fieldVal.NumField(); j++ {
				nestedField := nestedTyp.Field(j)
				nestedTag := nestedField.Tag.Get("mapstructure")
				if nestedTag != "" {
					viper.BindEnv(nestedTag)
				}
			}
		}
	}
	slog.Info("Environment variables bound")
}

func LoadConfig(ctx context.Context) (*Config, error) {
	bindEnv(Config{})
	viper.AutomaticEnv()

	// Defaults
	viper.SetDefault("AWS_REGION", "us-east-1")
	viper.SetDefault("SIGNED_URL_TTL_SECONDS", 604800)
	viper.SetDefault("DATABASE_RETRIES", 10)
	viper.SetDefault("DATABASE_MAX_CONNS", 4)
	viper.SetDefault("FFMPEG_PATH", "ffmpeg")
	viper.SetDefault("DOWNLOAD_TIMEOUT_SECONDS", 300)
	viper.SetDefault("EXTRACT_TIMEOUT_SECONDS", 120)

	cfg := Config{}
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, pipeline.Wrap(pipeline.ErrConfiguration, "unmarshal config", err)
	}

	slog.Info("Loaded configuration",
		"bucket", cfg.S3Bucket,
		"region", cfg.S3Region,
		"endpoint", cfg.S3Endpoint,
		"public_asset_urls", cfg.PublicAssetURLs,
		"ffmpeg", cfg.FFmpegPath)

	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		return nil, pipeline.Wrap(pipeline.ErrConfiguration, "validate config", err)
	}

	return &cfg, nil
}
