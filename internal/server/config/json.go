package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/photodiary/internal/flagx"
	"github.com/dmitrijs2005/photodiary/internal/timex"
)

// JsonConfig is the on-disk shape of the configuration file. Durations use
// timex.Duration so both "2s" and integer nanoseconds are accepted. Pointer
// fields distinguish "absent" from a zero value.
type JsonConfig struct {
	HTTPAddr        string          `json:"http_addr"`
	GRPCAddr        string          `json:"grpc_addr"`
	Storage         string          `json:"storage"`
	DatabaseDSN     string          `json:"database_dsn"`
	S3RootUser      string          `json:"s3_root_user"`
	S3RootPassword  string          `json:"s3_root_password"`
	S3Bucket        string          `json:"s3_bucket"`
	S3Region        string          `json:"s3_region"`
	S3BaseEndpoint  string          `json:"s3_base_endpoint"`
	S3PublicBaseURL string          `json:"s3_public_base_url"`
	URLExpiry       *timex.Duration `json:"url_expiry"`
	PollInterval    *timex.Duration `json:"poll_interval"`
	CleanupInterval *timex.Duration `json:"cleanup_interval"`
	CleanupGrace    *timex.Duration `json:"cleanup_grace"`
	UniquePaths     *bool           `json:"unique_paths"`
	LogLevel        string          `json:"log_level"`
	LogFormat       string          `json:"log_format"`
}

// parseJson loads the file given with -c or -config and copies every field
// present in it into config. Without the flag nothing happens. An unreadable
// file or invalid JSON panics.
func parseJson(config *Config) {
	jsonConfigFile := flagx.ConfigFile(os.Args[1:])
	if jsonConfigFile == "" {
		return
	}

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(data, c); err != nil {
		panic(err)
	}

	c.apply(config)
}

func (c *JsonConfig) apply(config *Config) {
	setString(&config.HTTPAddr, c.HTTPAddr)
	setString(&config.GRPCAddr, c.GRPCAddr)
	setString(&config.Storage, c.Storage)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.S3RootUser, c.S3RootUser)
	setString(&config.S3RootPassword, c.S3RootPassword)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	setString(&config.S3PublicBaseURL, c.S3PublicBaseURL)
	setString(&config.LogLevel, c.LogLevel)
	setString(&config.LogFormat, c.LogFormat)

	if c.URLExpiry != nil {
		config.URLExpiry = c.URLExpiry.Duration
	}
	if c.PollInterval != nil {
		config.PollInterval = c.PollInterval.Duration
	}
	if c.CleanupInterval != nil {
		config.CleanupInterval = c.CleanupInterval.Duration
	}
	if c.CleanupGrace != nil {
		config.CleanupGrace = c.CleanupGrace.Duration
	}
	if c.UniquePaths != nil {
		config.UniquePaths = *c.UniquePaths
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
