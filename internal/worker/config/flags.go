package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/gallerykeeper/internal/flagx"
)

// parseFlags populates selected worker Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-d string   ledger DSN (postgres://... or a SQLite path)
//	-b string   staging bucket
//	-y string   gallery bucket
//	-w string   owner id recorded on references
//	-m string   digest algorithm ("SHA-256", "BLAKE3")
//	-u string   S3 root user
//	-p string   S3 root password
//	-g string   S3 region
//	-e string   S3 base endpoint (e.g., "http://127.0.0.1:9000/")
//	-n int      staging poll interval, seconds
//	-k int      concurrent traversal workers
//	-t int      per-attempt step timeout, seconds
//	-r int      max retries per step
//	-x int      retry base delay, milliseconds
//
// The function first filters os.Args to only the flags it recognizes
// using flagx.FilterArgs, avoiding collisions with other components.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:],
		[]string{"-d", "-b", "-y", "-w", "-m", "-u", "-p", "-g", "-e", "-n", "-k", "-t", "-r", "-x"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "ledger DSN")
	fs.StringVar(&config.StagingBucket, "b", config.StagingBucket, "staging bucket")
	fs.StringVar(&config.GalleryBucket, "y", config.GalleryBucket, "gallery bucket")
	fs.StringVar(&config.OwnerID, "w", config.OwnerID, "owner id")
	fs.StringVar(&config.DigestAlgorithm, "m", config.DigestAlgorithm, "digest algorithm")

	fs.StringVar(&config.S3RootUser, "u", config.S3RootUser, "S3 root user")
	fs.StringVar(&config.S3RootPassword, "p", config.S3RootPassword, "S3 root password")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")

	pollInterval := fs.Int("n", int(config.PollInterval.Seconds()), "poll_interval (in seconds)")
	workerCount := fs.Int("k", config.WorkerCount, "concurrent traversal workers")
	stepTimeout := fs.Int("t", int(config.StepTimeout.Seconds()), "step_timeout (in seconds)")
	retryMaxAttempts := fs.Int("r", int(config.RetryMaxAttempts), "max retries per step")
	retryBaseDelay := fs.Int("x", int(config.RetryBaseDelay.Milliseconds()), "retry_base_delay (in milliseconds)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.PollInterval = time.Duration(*pollInterval) * time.Second
	config.WorkerCount = *workerCount
	config.StepTimeout = time.Duration(*stepTimeout) * time.Second
	config.RetryMaxAttempts = uint64(*retryMaxAttempts)
	config.RetryBaseDelay = time.Duration(*retryBaseDelay) * time.Millisecond
}
