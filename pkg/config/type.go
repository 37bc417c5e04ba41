package config

// Config holds the parsed configuration file. Categories are TOML tables,
// keys are the entries inside them.
type Config struct {
	path   string
	values map[string]map[string]any
}

// Options are the process level settings that come from the command line or
// the environment rather than the configuration file.
type Options struct {
	ConfigFile string `env:"P1_CONFIG_FILE"`
	LogLevel   string `env:"P1_LOG_LEVEL" envDefault:"info"`
	// Stop after a handful of telegrams.
	Test bool `env:"P1_TEST"`
}
