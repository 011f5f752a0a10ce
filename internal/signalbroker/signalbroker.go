// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package signalbroker relays OS signals to a run.
//
// New subscribes to the termination signals (interrupt, SIGTERM and SIGQUIT unless
// others are given). Watch turns the first one into a context cancellation, which
// makes a run tear down every process tree it started; the same signal a second time
// exits at once. NotifyResize reports terminal size changes where the platform has them.
package signalbroker

import (
	"context"
	"os"
	"os/signal"
	"slices"
	"syscall"

	"github.com/matt-FFFFFF/monorun/internal/ctxlog"
)

// TerminationSignals are subscribed to by New when no signals are given.
var TerminationSignals = []os.Signal{
	os.Interrupt,
	syscall.SIGTERM,
	syscall.SIGQUIT,
}

// New returns a channel receiving sigs, or TerminationSignals when sigs is empty.
func New(ctx context.Context, sigs ...os.Signal) chan os.Signal {
	if len(sigs) == 0 {
		sigs = slices.Clone(TerminationSignals)
	}

	ch := make(chan os.Signal, 1)
	signal.Notify(ch, sigs...)

	ctxlog.Debug(ctx, "relaying signals", "signals", sigs)

	return ch
}

// Stop stops relaying signals to ch. It does not close the channel.
func Stop(ch chan os.Signal) {
	signal.Stop(ch)
}
