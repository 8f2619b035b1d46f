package shell

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"syscall"

	"github.com/chzyer/readline"
	"github.com/kballard/go-shellquote"
	"github.com/rs/zerolog/log"

	"github.com/domino14/connect4/board"
	"github.com/domino14/connect4/config"
	"github.com/domino14/connect4/solver"
)

var (
	errNoData            = errors.New("no data in this line")
	errWrongOptionSyntax = errors.New("wrong format for option")
	errUnknownCommand    = errors.New("command not found")
)

// Options that take no value.
var boolOptions = map[string]bool{
	"weak": true,
	"stop": true,
	"hist": true,
}

type shellcmd struct {
	cmd     string
	args    []string
	options CmdOptions
}

type ShellController struct {
	l      *readline.Instance
	config *config.Config
	out    io.Writer

	gitVersion string

	ctx    context.Context
	cancel context.CancelFunc

	// cmdCancel aborts the command in progress, if any.
	cmdMu     sync.Mutex
	cmdCancel context.CancelFunc

	solver *solver.Solver
	// moves is the 1-indexed move string from the empty board.
	moves string
	pos   board.Position
}

func filterInput(r rune) (rune, bool) {
	switch r {
	// block CtrlZ feature
	case readline.CharCtrlZ:
		return r, false
	}
	return r, true
}

func NewShellController(cfg *config.Config, gitVersion string) (*ShellController, error) {
	s := new(solver.Solver)
	if err := s.Init(tableSize(cfg, 1)); err != nil {
		return nil, err
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &ShellController{
		config:     cfg,
		out:        os.Stdout,
		gitVersion: gitVersion,
		ctx:        ctx,
		cancel:     cancel,
		solver:     s,
		pos:        board.NewPosition(),
	}, nil
}

// tableSize is the per-solver table size when threads solvers share the
// configured memory.
func tableSize(cfg *config.Config, threads int) uint64 {
	if n := cfg.GetUint64(config.ConfigTTSize); n != 0 {
		return n
	}
	return solver.TableSizeForMemory(cfg.GetFloat64(config.ConfigTTMemoryFraction) / float64(max(threads, 1)))
}

func (sc *ShellController) initReadline() error {
	l, err := readline.NewEx(&readline.Config{
		Prompt:          "\033[31mconnect4>\033[0m ",
		HistoryFile:     "/tmp/connect4_readline.tmp",
		AutoComplete:    NewShellCompleter(sc),
		EOFPrompt:       "exit",
		InterruptPrompt: "^C",

		HistorySearchFold:   true,
		FuncFilterInputRune: filterInput,
	})
	if err != nil {
		return err
	}
	sc.l = l
	sc.out = l.Stdout()
	return nil
}

func extractFields(line string) (*shellcmd, error) {
	fields, err := shellquote.Split(line)
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, errNoData
	}
	cmd := fields[0]
	var args []string
	options := CmdOptions{}
	for i := 1; i < len(fields); i++ {
		if !strings.HasPrefix(fields[i], "-") || len(fields[i]) == 1 {
			args = append(args, fields[i])
			continue
		}
		opt := fields[i][1:]
		if boolOptions[opt] {
			options[opt] = append(options[opt], "true")
			continue
		}
		if i == len(fields)-1 {
			return nil, errWrongOptionSyntax
		}
		options[opt] = append(options[opt], fields[i+1])
		i++
	}
	return &shellcmd{cmd: cmd, args: args, options: options}, nil
}

func (sc *ShellController) showMessage(msg string) {
	io.WriteString(sc.out, msg)
	io.WriteString(sc.out, "\n")
}

func (sc *ShellController) showError(err error) {
	sc.showMessage("Error: " + err.Error())
}

// errExit is returned by the exit command.
var errExit = errors.New("exit")

// commandContext returns a context for one command. Interrupt cancels it
// without touching the shell's own context.
func (sc *ShellController) commandContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(sc.ctx)
	sc.cmdMu.Lock()
	sc.cmdCancel = cancel
	sc.cmdMu.Unlock()
	return ctx, func() {
		sc.cmdMu.Lock()
		sc.cmdCancel = nil
		sc.cmdMu.Unlock()
		cancel()
	}
}

// Interrupt cancels the command in progress. It reports whether there was
// one; the shell keeps running either way.
func (sc *ShellController) Interrupt() bool {
	sc.cmdMu.Lock()
	defer sc.cmdMu.Unlock()
	if sc.cmdCancel == nil {
		return false
	}
	sc.cmdCancel()
	sc.cmdCancel = nil
	return true
}

func (sc *ShellController) executeCommand(line string) (*Response, error) {
	cmd, err := extractFields(line)
	if err != nil {
		return nil, err
	}
	ctx, done := sc.commandContext()
	defer done()
	switch cmd.cmd {
	case "exit":
		return nil, errExit
	case "help":
		return sc.help(cmd)
	case "new":
		return sc.newGame(cmd)
	case "play":
		return sc.play(cmd)
	case "undo":
		return sc.undo(cmd)
	case "show":
		return sc.show(cmd)
	case "solve":
		return sc.solve(ctx, cmd, false)
	case "weak":
		return sc.solve(ctx, cmd, true)
	case "reset":
		return sc.reset(cmd)
	case "random":
		return sc.random(cmd)
	case "bench":
		return sc.bench(ctx, cmd)
	}
	return nil, fmt.Errorf("%w: %s", errUnknownCommand, cmd.cmd)
}

// Execute runs a single command line, for non-interactive use.
func (sc *ShellController) Execute(sig chan os.Signal, line string) {
	resp, err := sc.executeCommand(line)
	if errors.Is(err, errExit) {
		return
	}
	if err != nil {
		sc.showError(err)
		return
	}
	if resp != nil {
		sc.showMessage(resp.message)
	}
}

func (sc *ShellController) Loop(sig chan os.Signal) {
	if err := sc.initReadline(); err != nil {
		log.Error().Err(err).Msg("readline-init")
		sig <- syscall.SIGINT
		return
	}
	defer sc.l.Close()

	for {
		line, err := sc.l.Readline()
		if err == readline.ErrInterrupt {
			if len(line) == 0 {
				sig <- syscall.SIGINT
				break
			} else {
				continue
			}
		} else if err == io.EOF {
			sig <- syscall.SIGINT
			break
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		resp, err := sc.executeCommand(line)
		if errors.Is(err, errExit) {
			sig <- syscall.SIGINT
			break
		}
		if err != nil {
			sc.showError(err)
			continue
		}
		if resp != nil {
			sc.showMessage(resp.message)
		}
	}
	log.Debug().Msgf("Exiting readline loop...")
}

// Cleanup aborts any running command and the shell with it.
func (sc *ShellController) Cleanup() {
	sc.cancel()
}
