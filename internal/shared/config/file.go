package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// fileConfig mirrors Config for the optional YAML file. Zero values mean "not set".
type fileConfig struct {
	Port              string   `yaml:"port"`
	CORSAllowOrigins  []string `yaml:"cors_allow_origins"`
	Env               string   `yaml:"env"`
	DatabaseURL       string   `yaml:"database_url"`
	JWTSecret         string   `yaml:"jwt_secret"`
	AdminSubject      string   `yaml:"admin_subject"`
	ChunkStore        string   `yaml:"chunk_store"`
	LocalStoreDir     string   `yaml:"local_store_dir"`
	StagingDir        string   `yaml:"staging_dir"`
	ChunkSizeBytes    int      `yaml:"chunk_size_bytes"`
	MaxUploadBytes    int64    `yaml:"max_upload_bytes"`
	AWSRegion         string   `yaml:"aws_region"`
	S3Bucket          string   `yaml:"s3_bucket"`
	S3Prefix          string   `yaml:"s3_prefix"`
	S3Endpoint        string   `yaml:"s3_endpoint"`
	LogLevel          string   `yaml:"log_level"`
	RateLimitRPS      float64  `yaml:"rate_limit_rps"`
	RateLimitBurst    int      `yaml:"rate_limit_burst"`
	ShutdownTimeout   string   `yaml:"shutdown_timeout"`
	DeleteConcurrency int      `yaml:"delete_concurrency"`
}

// loadFile parses the YAML config at path. An empty path yields an empty config.
func loadFile(path string) (fileConfig, error) {
	var fc fileConfig
	path = strings.TrimSpace(path)
	if path == "" {
		return fc, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fileConfig{}, fmt.Errorf("read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fileConfig{}, fmt.Errorf("parse %s: %w", path, err)
	}
	return fc, nil
}
