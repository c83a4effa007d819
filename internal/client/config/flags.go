package config

import (
	"flag"
	"os"
	"time"

	"github.com/ShiyouQi888/on-tab/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-d string   path to the local database file
//	-u string   base URL of the identity provider
//	-r string   postgres DSN of the cloud store
//	-i int      periodic sync interval in seconds
//
// The function filters os.Args to only include the flags it knows about,
// using flagx.FilterArgs, to avoid interference with other components.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-d", "-u", "-r", "-i"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.DatabasePath, "d", cfg.DatabasePath, "path to the local database file")
	fs.StringVar(&cfg.IdentityURL, "u", cfg.IdentityURL, "base URL of the identity provider")
	fs.StringVar(&cfg.RemoteDSN, "r", cfg.RemoteDSN, "postgres DSN of the cloud store")
	syncInterval := fs.Int("i", int(cfg.SyncInterval.Seconds()), "periodic sync interval (in seconds)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.SyncInterval = time.Duration(*syncInterval) * time.Second
}
