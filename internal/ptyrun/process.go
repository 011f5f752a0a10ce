// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package ptyrun

import (
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"time"
	"unicode/utf8"

	"github.com/matt-FFFFFF/monorun/internal/ctxlog"
	"github.com/matt-FFFFFF/monorun/internal/teereader"
)

const (
	readBufferSize = 32 * 1024
	outputBacklog  = 64
	lastLineMax    = 200
	termEnv        = "TERM=xterm-256color"
)

// ReadGrace is how long the reader may keep draining after the child exits.
// Grandchildren that inherited the terminal can keep it open indefinitely.
var ReadGrace = 500 * time.Millisecond

var _ Handle = (*Process)(nil)

// Process is a script running in a pseudo-terminal.
type Process struct {
	spec   Spec
	cmd    *exec.Cmd
	tty    io.ReadCloser
	resize func(Size) error
	last   *teereader.LastLineTeeReader

	out  chan string
	done chan struct{}
	err  error
}

// Start spawns spec's command in its folder. The returned Process is already running.
// A start failure is returned as *SpawnFailure.
func Start(ctx context.Context, spec Spec) (*Process, error) {
	logger := ctxlog.Logger(ctx).With(ctxlog.FolderKey, spec.Folder)

	cmd := exec.Command(spec.Command.Path, spec.Command.Args...)
	cmd.Dir = spec.Folder
	cmd.Env = append(append(os.Environ(), termEnv), spec.Env...)

	logger.Debug("starting process", "command", spec.Command.String())

	tty, resize, err := startPlatform(cmd, spec.Size.OrDefault())
	if err != nil {
		return nil, &SpawnFailure{Folder: spec.Folder, Script: spec.Script, Err: err}
	}

	logger.Debug("process started", "pid", cmd.Process.Pid)

	p := &Process{
		spec:   spec,
		cmd:    cmd,
		tty:    tty,
		resize: resize,
		last:   teereader.NewLastLineTeeReader(tty),
		out:    make(chan string, outputBacklog),
		done:   make(chan struct{}),
	}

	readerDone := make(chan struct{})

	go p.pump(readerDone)
	go p.wait(ctx, readerDone)

	return p, nil
}

// pump forwards the terminal output as chunks that never split a UTF-8 sequence.
func (p *Process) pump(readerDone chan<- struct{}) {
	defer close(readerDone)
	defer close(p.out)

	buf := make([]byte, readBufferSize)

	var carry []byte

	for {
		n, err := p.last.Read(buf)
		if n > 0 {
			data := append(carry, buf[:n]...)

			cut := completeUTF8(data)
			if cut > 0 {
				p.out <- string(data[:cut])
			}

			carry = append([]byte(nil), data[cut:]...)
		}

		if err != nil {
			break
		}
	}

	if len(carry) > 0 {
		p.out <- string(carry)
	}
}

// completeUTF8 returns the length of the longest prefix of b that does not end in the
// middle of a multi-byte sequence.
func completeUTF8(b []byte) int {
	for i := len(b) - 1; i >= 0 && i >= len(b)-utf8.UTFMax; i-- {
		if !utf8.RuneStart(b[i]) {
			continue
		}

		if utf8.FullRune(b[i:]) {
			return len(b)
		}

		return i
	}

	return len(b)
}

func (p *Process) wait(ctx context.Context, readerDone <-chan struct{}) {
	waitErr := p.cmd.Wait()

	grace := time.NewTimer(ReadGrace)
	defer grace.Stop()

	select {
	case <-readerDone:
	case <-grace.C:
		ctxlog.Debug(ctx, "terminal still open after exit, closing", ctxlog.FolderKey, p.spec.Folder)
	}

	_ = p.tty.Close()
	<-readerDone

	p.err = p.classify(waitErr)
	close(p.done)
}

func (p *Process) classify(waitErr error) error {
	if waitErr == nil {
		return nil
	}

	code := -1

	var ee *exec.ExitError
	if errors.As(waitErr, &ee) {
		code = ee.ExitCode()
	}

	return &ExitFailure{
		Code:     code,
		Folder:   p.spec.Folder,
		Script:   p.spec.Script,
		LastLine: p.last.LastLine(lastLineMax),
	}
}

// Pid returns the process id.
func (p *Process) Pid() int { return p.cmd.Process.Pid }

// Folder returns the working directory of the process.
func (p *Process) Folder() string { return p.spec.Folder }

// Output returns the output chunks in emission order.
// It must be drained, otherwise the process blocks once the backlog is full.
func (p *Process) Output() <-chan string { return p.out }

// Done is closed once the process has exited and Output is closed.
func (p *Process) Done() <-chan struct{} { return p.done }

// Err returns nil on exit status 0 and an *ExitFailure otherwise.
// It must only be called after Done is closed.
func (p *Process) Err() error { return p.err }

// Resize changes the terminal size seen by the process.
func (p *Process) Resize(s Size) error { return p.resize(s.OrDefault()) }

// Kill kills the process itself. Descendants are left to the terminate package.
func (p *Process) Kill() error { return p.cmd.Process.Kill() }

// LastLine returns the last complete visible output line.
func (p *Process) LastLine() string { return p.last.LastLine(lastLineMax) }
