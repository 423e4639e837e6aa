package config

import (
	"flag"
	"time"

	"github.com/dmitrijs2005/totpkeeper/internal/flagx"
)

// parseFlags applies the server's command-line flags:
//
//	-a string   listen address
//	-f string   encrypted data file
//	-s string   JWT signing key
//	-t int      token validity, minutes
//	-l string   log level
//	-i          prompt for the master password at startup
//	-r          restore the data file from the S3 backup at startup
//
// Only these flags are read from args, so the -c flag and anything else on
// the command line are left alone.
func parseFlags(config *Config, args []string) error {
	args = flagx.FilterArgs(args, []string{"-a", "-f", "-s", "-t", "-l", "-i", "-r"})

	fs := flag.NewFlagSet("totpkeeper", flag.ContinueOnError)

	fs.StringVar(&config.ListenAddr, "a", config.ListenAddr, "address and port to listen on")
	fs.StringVar(&config.DataFile, "f", config.DataFile, "encrypted data file")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "token signing key")
	ttl := fs.Int("t", int(config.TokenTTL.Minutes()), "token validity (in minutes)")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")
	fs.BoolVar(&config.Interactive, "i", config.Interactive, "prompt for the master password")
	fs.BoolVar(&config.Restore, "r", config.Restore, "restore the data file from backup")

	if err := fs.Parse(args); err != nil {
		return err
	}

	fs.Visit(func(f *flag.Flag) {
		if f.Name == "t" {
			config.TokenTTL = time.Duration(*ttl) * time.Minute
		}
	})
	return nil
}
