package env

import (
	"fmt"
	"os/exec"
	"strings"

	"monks.co/backupcloser/logger"
)

// Executor runs one short-lived command and returns its output lines.
// Long-running streams (zfs send/receive) don't go through here; see
// stream.go.
type Executor interface {
	Exec(logs logger.Logger, cmd ...string) ([]string, error)
	Execf(logs logger.Logger, cmd string, args ...any) ([]string, error)
}

var (
	_ Executor = LocalExecutor{}
	_ Executor = SudoExecutor{}
)

// Local runs commands directly on this host.
var Local = LocalExecutor{}

// Sudo runs commands through sudo, for unprivileged runs against the
// system zfs tool.
var Sudo = SudoExecutor{}

type LocalExecutor struct{}

func (LocalExecutor) Exec(logs logger.Logger, args ...string) ([]string, error) {
	return Exec(logs, args...)
}

func (LocalExecutor) Execf(logs logger.Logger, s string, args ...any) ([]string, error) {
	return Execf(logs, s, args...)
}

type SudoExecutor struct{}

func (SudoExecutor) Exec(logs logger.Logger, args ...string) ([]string, error) {
	return Exec(logs, append([]string{"sudo"}, args...)...)
}

func (SudoExecutor) Execf(logs logger.Logger, s string, args ...any) ([]string, error) {
	return Exec(logs, append([]string{"sudo"}, strings.Fields(fmt.Sprintf(s, args...))...)...)
}

func Exec(logs logger.Logger, args ...string) ([]string, error) {
	name, args := args[0], args[1:]
	logs.Printf("%s %s", name, strings.Join(args, " "))

	cmd := exec.Command(name, args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		output := strings.Join(strings.Split(strings.TrimSpace(string(out)), "\n"), "; ")
		return nil, fmt.Errorf("running '%s': %w: %s", name, err, output)
	}

	trimmed := strings.TrimSpace(string(out))
	if trimmed == "" {
		return nil, nil
	}
	return strings.Split(trimmed, "\n"), nil
}

func Execf(logs logger.Logger, s string, args ...any) ([]string, error) {
	return Exec(logs, strings.Fields(fmt.Sprintf(s, args...))...)
}
