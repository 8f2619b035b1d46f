package config

import (
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	ConfigDebug            = "debug"
	ConfigLogLevel         = "log-level"
	ConfigTTSize           = "tt-size"
	ConfigTTMemoryFraction = "tt-memory-fraction"
	ConfigThreads          = "threads"
	ConfigCPUProfile       = "cpu-profile"
)

// Environment variables look like CONNECT4_TT_SIZE.
const envPrefix = "CONNECT4"

type Config struct {
	*viper.Viper
	args []string
}

func DefaultConfig() *Config {
	c := &Config{Viper: viper.New()}
	c.setDefaults()
	return c
}

func (c *Config) setDefaults() {
	c.SetDefault(ConfigDebug, false)
	c.SetDefault(ConfigLogLevel, "info")
	// 0 means size the table from tt-memory-fraction.
	c.SetDefault(ConfigTTSize, 0)
	c.SetDefault(ConfigTTMemoryFraction, 0.25)
	c.SetDefault(ConfigThreads, 1)
	c.SetDefault(ConfigCPUProfile, "")
}

// Load parses flags from args and binds them, along with the environment,
// on top of the defaults. Parsing stops at the first non-flag argument; the
// rest are available from Args.
func (c *Config) Load(args []string) error {
	if c.Viper == nil {
		c.Viper = viper.New()
		c.setDefaults()
	}
	c.SetEnvPrefix(envPrefix)
	c.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	c.AutomaticEnv()

	fs := pflag.NewFlagSet("connect4", pflag.ContinueOnError)
	fs.SetInterspersed(false)
	fs.Bool(ConfigDebug, c.GetBool(ConfigDebug), "debug logging on")
	fs.String(ConfigLogLevel, c.GetString(ConfigLogLevel), "log level when debug is off")
	fs.Uint64(ConfigTTSize, c.GetUint64(ConfigTTSize), "transposition table buckets; must be odd")
	fs.Float64(ConfigTTMemoryFraction, c.GetFloat64(ConfigTTMemoryFraction),
		"fraction of system memory for the transposition table when tt-size is 0")
	fs.Int(ConfigThreads, c.GetInt(ConfigThreads), "benchmark worker threads")
	fs.String(ConfigCPUProfile, c.GetString(ConfigCPUProfile), "write a CPU profile to this file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := c.BindPFlags(fs); err != nil {
		return err
	}
	c.args = fs.Args()
	return nil
}

// Args are the positional arguments left after flag parsing.
func (c *Config) Args() []string {
	return c.args
}

func (c *Config) SanitizedSettings() map[string]any {
	return c.AllSettings()
}
