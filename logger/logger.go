package logger

import (
	"io"
	"log"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"
)

type Logger interface {
	Printf(s string, args ...any)
}

type logger struct{ label string }

func New(label string) Logger {
	return logger{label}
}

func (l logger) Printf(s string, args ...any) {
	args = append([]any{string(l.label)}, args...)
	log.Printf("[%s]\t"+s, args...)
}

// UseFile mirrors all log output into a size-rotated file alongside stderr.
func UseFile(path string, maxMB int) {
	log.SetOutput(io.MultiWriter(os.Stderr, &lumberjack.Logger{
		Filename:   path,
		MaxSize:    maxMB,
		MaxBackups: 3,
	}))
}

// Discard silences all log output. Tests use it.
func Discard() {
	log.SetOutput(io.Discard)
}

type nop struct{}

func (nop) Printf(string, ...any) {}

// Nop returns a logger that drops everything.
func Nop() Logger {
	return nop{}
}
