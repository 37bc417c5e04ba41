package config

import (
	"github.com/NotCoffee418/p1reader/pkg/pathing"
	"github.com/caarlos0/env/v11"
	"github.com/spf13/pflag"
)

// ParseOptions reads the environment first and lets command line flags override it.
func ParseOptions(name string, args []string) (Options, error) {
	opts := Options{}
	if err := env.Parse(&opts); err != nil {
		return opts, err
	}
	if opts.ConfigFile == "" {
		opts.ConfigFile = pathing.GetConfigPath()
	}

	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.StringVar(&opts.ConfigFile, "config-file", opts.ConfigFile, "P1 config file")
	fs.StringVar(&opts.LogLevel, "log", opts.LogLevel, "log level (debug, info, warning, error, critical)")
	fs.BoolVar(&opts.Test, "test", opts.Test, "test mode, stop after a few telegrams")
	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	return opts, nil
}
