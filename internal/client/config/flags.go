package config

import (
	"flag"
	"os"

	"github.com/dmitrijs2005/photodiary/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Note: The function filters os.Args to only include the flags it knows about,
// using flagx.FilterArgs, to avoid interference with other components.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{
		"-storage", "-d", "-u", "-p", "-b", "-g", "-e", "-public-url",
		"-poll", "-unique-paths", "-log-level",
	})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.Storage, "storage", cfg.Storage, "storage backend: postgres or memory")
	fs.StringVar(&cfg.DatabaseDSN, "d", cfg.DatabaseDSN, "database DSN")
	fs.StringVar(&cfg.S3RootUser, "u", cfg.S3RootUser, "S3 root user")
	fs.StringVar(&cfg.S3RootPassword, "p", cfg.S3RootPassword, "S3 root password")
	fs.StringVar(&cfg.S3Bucket, "b", cfg.S3Bucket, "S3 bucket")
	fs.StringVar(&cfg.S3Region, "g", cfg.S3Region, "S3 region")
	fs.StringVar(&cfg.S3BaseEndpoint, "e", cfg.S3BaseEndpoint, "S3 base endpoint")
	fs.StringVar(&cfg.S3PublicBaseURL, "public-url", cfg.S3PublicBaseURL, "public base URL of the bucket")
	fs.DurationVar(&cfg.PollInterval, "poll", cfg.PollInterval, "live query poll interval")
	fs.BoolVar(&cfg.UniquePaths, "unique-paths", cfg.UniquePaths, "add a random suffix to blob paths")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}
}
