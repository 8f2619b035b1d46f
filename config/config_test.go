package config

import (
	"testing"

	"github.com/matryer/is"
)

func TestDefaults(t *testing.T) {
	is := is.New(t)
	cfg := DefaultConfig()
	is.NoErr(cfg.Load(nil))
	is.Equal(cfg.GetBool(ConfigDebug), false)
	is.Equal(cfg.GetString(ConfigLogLevel), "info")
	is.Equal(cfg.GetUint64(ConfigTTSize), uint64(0))
	is.Equal(cfg.GetFloat64(ConfigTTMemoryFraction), 0.25)
	is.Equal(cfg.GetInt(ConfigThreads), 1)
	is.Equal(len(cfg.Args()), 0)
}

func TestFlagsStopAtCommand(t *testing.T) {
	is := is.New(t)
	cfg := &Config{}
	is.NoErr(cfg.Load([]string{"--debug", "--tt-size", "65537", "bench", "suite.txt", "-weak"}))
	is.True(cfg.GetBool(ConfigDebug))
	is.Equal(cfg.GetUint64(ConfigTTSize), uint64(65537))
	is.Equal(cfg.Args(), []string{"bench", "suite.txt", "-weak"})
}

func TestEnvironment(t *testing.T) {
	is := is.New(t)
	t.Setenv("CONNECT4_THREADS", "6")
	t.Setenv("CONNECT4_TT_MEMORY_FRACTION", "0.5")
	cfg := DefaultConfig()
	is.NoErr(cfg.Load([]string{"solve"}))
	is.Equal(cfg.GetInt(ConfigThreads), 6)
	is.Equal(cfg.GetFloat64(ConfigTTMemoryFraction), 0.5)

	// Flags win over the environment.
	cfg = DefaultConfig()
	is.NoErr(cfg.Load([]string{"--threads", "2"}))
	is.Equal(cfg.GetInt(ConfigThreads), 2)
}

func TestBadFlag(t *testing.T) {
	is := is.New(t)
	cfg := DefaultConfig()
	is.True(cfg.Load([]string{"--no-such-flag"}) != nil)
}
