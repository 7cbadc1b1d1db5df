package main

import "github.com/spf13/pflag"

// config holds replicasim's command-line flags, bound the way
// cdc-sink-redshift's server.Config binds its own flag set in
// internal/source/server/config.go.
type config struct {
	script  string
	verbose bool
}

func (c *config) bind(flags *pflag.FlagSet) {
	flags.StringVarP(&c.script, "file", "f", "",
		"read simulation commands from this file instead of stdin")
	flags.BoolVarP(&c.verbose, "verbose", "v", false,
		"enable debug logging")
}
