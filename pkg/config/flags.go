package config

import (
	"flag"
	"os"
	"time"

	"github.com/offnote/offnote/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-d string   path of the local database file
//	-r string   base URL of the sync server
//	-s string   base URL of the assistant service
//	-i int      online check interval in seconds
//
// Args are filtered via flagx.FilterArgs so flags owned by other packages
// pass through untouched.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-d", "-r", "-s", "-i"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.DatabasePath, "d", cfg.DatabasePath, "path of the local database file")
	fs.StringVar(&cfg.RemoteBaseURL, "r", cfg.RemoteBaseURL, "base URL of the sync server")
	fs.StringVar(&cfg.AIBaseURL, "s", cfg.AIBaseURL, "base URL of the assistant service")
	onlineCheckInterval := fs.Int("i", int(cfg.OnlineCheckInterval.Seconds()), "online check interval (in seconds)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.OnlineCheckInterval = time.Duration(*onlineCheckInterval) * time.Second
}
