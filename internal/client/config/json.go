package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/photodiary/internal/flagx"
	"github.com/dmitrijs2005/photodiary/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling.
type JsonConfig struct {
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
	UniquePaths     *bool           `json:"unique_paths"`
	LogLevel        string          `json:"log_level"`
}

// parseJson overlays Config with values loaded from the file named by -c or
// -config. Fields missing from the file keep their value. Panics on read or
// unmarshal errors.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.ConfigFile(os.Args[1:])
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	for dst, v := range map[*string]string{
		&cfg.Storage:         jc.Storage,
		&cfg.DatabaseDSN:     jc.DatabaseDSN,
		&cfg.S3RootUser:      jc.S3RootUser,
		&cfg.S3RootPassword:  jc.S3RootPassword,
		&cfg.S3Bucket:        jc.S3Bucket,
		&cfg.S3Region:        jc.S3Region,
		&cfg.S3BaseEndpoint:  jc.S3BaseEndpoint,
		&cfg.S3PublicBaseURL: jc.S3PublicBaseURL,
		&cfg.LogLevel:        jc.LogLevel,
	} {
		if v != "" {
			*dst = v
		}
	}

	if jc.URLExpiry != nil {
		cfg.URLExpiry = jc.URLExpiry.Duration
	}
	if jc.PollInterval != nil {
		cfg.PollInterval = jc.PollInterval.Duration
	}
	if jc.UniquePaths != nil {
		cfg.UniquePaths = *jc.UniquePaths
	}
}
