package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

// defaultSignals end a run when NewSigctx is given no explicit set.
var defaultSignals = []os.Signal{syscall.SIGHUP, syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT}

// NewSigctx returns a context canceled by the given signals. An in-flight
// receive sees the cancellation and commits or aborts before the run ends;
// no partial snapshot becomes visible.
func NewSigctx(signals ...os.Signal) context.Context {
	ctx, _ := NewSigctxWithCancel(signals...)
	return ctx
}

func NewSigctxWithCancel(signals ...os.Signal) (context.Context, func(err error)) {
	if len(signals) == 0 {
		signals = defaultSignals
	}

	ctx, cancel := context.WithCancelCause(context.Background())
	go func() {
		sigs := make(chan os.Signal, 1)
		signal.Notify(sigs, signals...)
		sig := <-sigs
		cancel(fmt.Errorf("got signal: %s", sig))
	}()
	return ctx, cancel
}
