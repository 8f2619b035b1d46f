package main

import (
	"fmt"
	"os"
	"os/signal"
	"runtime/pprof"
	"strings"
	"syscall"
	"time"

	"github.com/kballard/go-shellquote"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/domino14/connect4/config"
	"github.com/domino14/connect4/shell"
)

var (
	GitVersion string
)

func main() {
	cfg := config.DefaultConfig()
	if err := cfg.Load(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	output := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	output.FormatLevel = func(i interface{}) string {
		return strings.ToUpper(fmt.Sprintf("| %-6s|", i))
	}
	output.FormatMessage = func(i interface{}) string {
		return fmt.Sprintf("%s", i)
	}
	output.FormatFieldName = func(i interface{}) string {
		return fmt.Sprintf("%s:", i)
	}

	level := zerolog.InfoLevel
	if cfg.GetBool(config.ConfigDebug) {
		level = zerolog.DebugLevel
	} else if ll, err := zerolog.ParseLevel(cfg.GetString(config.ConfigLogLevel)); err == nil {
		level = ll
	}
	zerolog.SetGlobalLevel(level)
	logger := zerolog.New(output).Level(level).With().Timestamp().Logger()
	zerolog.DefaultContextLogger = &logger
	log.Logger = logger
	logger.Debug().Msg("Debug logging is on")
	log.Info().Str("version", GitVersion).Interface("config", cfg.SanitizedSettings()).Msg("loaded-config")

	if cfg.GetString(config.ConfigCPUProfile) != "" {
		f, err := os.Create(cfg.GetString(config.ConfigCPUProfile))
		if err != nil {
			panic("could not create CPU profile: " + err.Error())
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			panic("could not start CPU profile: " + err.Error())
		}
		defer pprof.StopCPUProfile()
	}

	sc, err := shell.NewShellController(cfg, GitVersion)
	if err != nil {
		log.Error().Err(err).Msg("creating-shell")
		return
	}

	idleConnsClosed := make(chan struct{})
	sig := make(chan os.Signal, 1)
	go func() {
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		for s := range sig {
			// A signal during a solve or bench only stops that command.
			if s == syscall.SIGINT && sc.Interrupt() {
				log.Info().Msg("interrupted-command")
				continue
			}
			break
		}
		log.Info().Msg("got quit signal...")
		sc.Cleanup()
		close(idleConnsClosed)
	}()

	if args := cfg.Args(); len(args) == 0 {
		go sc.Loop(sig)
	} else {
		sc.Execute(sig, shellquote.Join(args...))
		sig <- syscall.SIGINT
	}

	<-idleConnsClosed
	log.Debug().Msg("shutting-down")
}
