package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/gallerykeeper/internal/flagx"
	"github.com/dmitrijs2005/gallerykeeper/internal/timex"
)

// JsonConfig is the DTO for JSON configuration files. Interval fields use
// timex.Duration, which accepts both string values such as "30s" and
// integer nanoseconds. After unmarshalling, its fields are copied into
// the runtime Config.
type JsonConfig struct {
	DatabaseDSN      string         `json:"database_dsn"`
	StagingBucket    string         `json:"staging_bucket"`
	GalleryBucket    string         `json:"gallery_bucket"`
	OwnerID          string         `json:"owner_id"`
	DigestAlgorithm  string         `json:"digest_algorithm"`
	S3RootUser       string         `json:"s3_root_user"`
	S3RootPassword   string         `json:"s3_root_password"`
	S3Region         string         `json:"s3_region"`
	S3BaseEndpoint   string         `json:"s3_base_endpoint"`
	PollInterval     timex.Duration `json:"poll_interval"`
	WorkerCount      int            `json:"worker_count"`
	StepTimeout      timex.Duration `json:"step_timeout"`
	RetryMaxAttempts uint64         `json:"retry_max_attempts"`
	RetryBaseDelay   timex.Duration `json:"retry_base_delay"`
}

// parseJson loads configuration values from a JSON file into the provided
// Config instance. The file path comes from the -c or -config flags; when
// neither is set, no JSON file is loaded. An unreadable or invalid file
// panics: a worker started with broken explicit configuration must not
// fall back to defaults silently.
//
// The DTO is seeded from the current Config before unmarshalling, so a
// partial file overrides only the keys it contains and every other field
// keeps its prior value.
func parseJson(config *Config) {

	jsonConfigFile := flagx.JsonConfigFlags()

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{
		DatabaseDSN:      config.DatabaseDSN,
		StagingBucket:    config.StagingBucket,
		GalleryBucket:    config.GalleryBucket,
		OwnerID:          config.OwnerID,
		DigestAlgorithm:  config.DigestAlgorithm,
		S3RootUser:       config.S3RootUser,
		S3RootPassword:   config.S3RootPassword,
		S3Region:         config.S3Region,
		S3BaseEndpoint:   config.S3BaseEndpoint,
		PollInterval:     timex.Duration{Duration: config.PollInterval},
		WorkerCount:      config.WorkerCount,
		StepTimeout:      timex.Duration{Duration: config.StepTimeout},
		RetryMaxAttempts: config.RetryMaxAttempts,
		RetryBaseDelay:   timex.Duration{Duration: config.RetryBaseDelay},
	}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	config.DatabaseDSN = c.DatabaseDSN
	config.StagingBucket = c.StagingBucket
	config.GalleryBucket = c.GalleryBucket
	config.OwnerID = c.OwnerID
	config.DigestAlgorithm = c.DigestAlgorithm
	config.S3RootUser = c.S3RootUser
	config.S3RootPassword = c.S3RootPassword
	config.S3Region = c.S3Region
	config.S3BaseEndpoint = c.S3BaseEndpoint
	config.PollInterval = c.PollInterval.Duration
	config.WorkerCount = c.WorkerCount
	config.StepTimeout = c.StepTimeout.Duration
	config.RetryMaxAttempts = c.RetryMaxAttempts
	config.RetryBaseDelay = c.RetryBaseDelay.Duration
}
