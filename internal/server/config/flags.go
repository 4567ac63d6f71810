package config

import (
	"flag"
	"os"

	"github.com/dmitrijs2005/photodiary/internal/flagx"
)

var ownFlags = []string{
	"-http", "-grpc", "-storage", "-d",
	"-u", "-p", "-b", "-g", "-e", "-public-url",
	"-url-expiry", "-poll", "-cleanup", "-cleanup-grace", "-unique-paths",
	"-log-level", "-log-format",
}

// parseFlags overlays Config with command-line flags.
//
//	-http string           web UI bind address (":8080")
//	-grpc string           gRPC health bind address (":50051")
//	-storage string        "postgres" or "memory"
//	-d string              PostgreSQL DSN
//	-u / -p string         S3 user and password
//	-b / -g / -e string    S3 bucket, region and base endpoint
//	-public-url string     public base URL of the bucket
//	-url-expiry duration   presigned URL lifetime ("168h")
//	-poll duration         live query poll interval
//	-cleanup duration      orphaned blob sweep interval, 0 disables
//	-cleanup-grace duration  minimum age of a blob before it may be swept
//	-unique-paths          add a random suffix to blob paths
//	-log-level / -log-format string
//
// Only the flags above are read from os.Args; everything else is left to
// other components. A malformed flag panics.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], ownFlags)

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.HTTPAddr, "http", config.HTTPAddr, "web UI bind address")
	fs.StringVar(&config.GRPCAddr, "grpc", config.GRPCAddr, "gRPC health bind address")
	fs.StringVar(&config.Storage, "storage", config.Storage, "storage backend: postgres or memory")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")

	fs.StringVar(&config.S3RootUser, "u", config.S3RootUser, "S3 root user")
	fs.StringVar(&config.S3RootPassword, "p", config.S3RootPassword, "S3 root password")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")
	fs.StringVar(&config.S3PublicBaseURL, "public-url", config.S3PublicBaseURL, "public base URL of the bucket")

	fs.DurationVar(&config.URLExpiry, "url-expiry", config.URLExpiry, "presigned image URL lifetime")
	fs.DurationVar(&config.PollInterval, "poll", config.PollInterval, "live query poll interval")
	fs.DurationVar(&config.CleanupInterval, "cleanup", config.CleanupInterval, "orphaned blob sweep interval (0 = off)")
	fs.DurationVar(&config.CleanupGrace, "cleanup-grace", config.CleanupGrace, "minimum blob age before sweeping")
	fs.BoolVar(&config.UniquePaths, "unique-paths", config.UniquePaths, "add a random suffix to blob paths")

	fs.StringVar(&config.LogLevel, "log-level", config.LogLevel, "log level")
	fs.StringVar(&config.LogFormat, "log-format", config.LogFormat, "log format: json or text")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}
}
