// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package signalbroker

import (
	"context"
	"os"

	"github.com/matt-FFFFFF/monorun/internal/ctxlog"
)

// ForcedExitCode is the status used when a repeated signal aborts the process.
const ForcedExitCode = 130

var exitFunc = os.Exit

// Watch relays signals from sigCh until it is closed, or until ctx is done before
// any signal arrived. The first signal of a given type calls cancel; ctx may be the
// context cancel belongs to, Watch then keeps listening. The second signal of the
// same type exits the process with ForcedExitCode, skipping the graceful teardown.
func Watch(ctx context.Context, sigCh chan os.Signal, cancel context.CancelFunc) {
	seen := make(map[os.Signal]struct{})
	done := ctx.Done()

	for {
		select {
		case <-done:
			return
		case sig, ok := <-sigCh:
			if !ok {
				return
			}

			if _, again := seen[sig]; again {
				ctxlog.Warn(ctx, "received signal again, exiting now", "signal", sig.String())
				exitFunc(ForcedExitCode)

				return
			}

			ctxlog.Info(ctx, "received signal, terminating running tasks", "signal", sig.String())

			seen[sig] = struct{}{}
			done = nil

			cancel()
		}
	}
}
