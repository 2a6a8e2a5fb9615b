package util

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
)

// CmdSpec describes a subprocess to run.
type CmdSpec struct {
	Path    string   // Binary path
	Args    []string // Arguments
	Env     []string // Extra KEY=VALUE pairs on top of the inherited environment.
	Dir     string   // Working directory; empty = inherit.
	Verbose bool     // Log the command line and every output line at debug level.

	StdoutLine func(string) // Called for each stdout line (if non-nil)
	StderrLine func(string) // Called for each stderr line (if non-nil)
}

// CmdResult contains captured output and exit status.
type CmdResult struct {
	Stdout []byte
	Stderr []byte
	Code   int
}

// CmdRunner runs subprocesses. Tests substitute a fake.
type CmdRunner interface {
	Run(ctx context.Context, spec CmdSpec) (CmdResult, error)
}

type defaultRunner struct{}

// NewDefaultRunner returns a CmdRunner backed by os/exec.
func NewDefaultRunner() CmdRunner {
	return defaultRunner{}
}

func (defaultRunner) Run(ctx context.Context, spec CmdSpec) (CmdResult, error) {
	return Run(ctx, spec)
}

// Run executes the command and captures both streams. On non-zero exit the
// returned error names the exit code; the result is populated either way.
func Run(ctx context.Context, spec CmdSpec) (CmdResult, error) {
	cmd := exec.CommandContext(ctx, spec.Path, spec.Args...)
	cmd.Dir = spec.Dir
	if spec.Env != nil {
		cmd.Env = append(os.Environ(), spec.Env...)
	}

	stdoutPipe, err := cmd.StdoutPipe()
	if err != nil {
		return CmdResult{Code: -1}, err
	}
	stderrPipe, err := cmd.StderrPipe()
	if err != nil {
		return CmdResult{Code: -1}, err
	}

	if spec.Verbose {
		log.Debug().Str("cmd", shellQuote(spec.Path, spec.Args)).Msg("exec")
	}
	if err := cmd.Start(); err != nil {
		return CmdResult{Code: -1}, err
	}

	var stdoutBuf, stderrBuf bytes.Buffer
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		scanLines(stdoutPipe, "stdout", spec.Verbose, spec.StdoutLine, &stdoutBuf)
	}()
	go func() {
		defer wg.Done()
		scanLines(stderrPipe, "stderr", spec.Verbose, spec.StderrLine, &stderrBuf)
	}()
	// Pipes must be drained before Wait closes them.
	wg.Wait()
	waitErr := cmd.Wait()

	res := CmdResult{Stdout: stdoutBuf.Bytes(), Stderr: stderrBuf.Bytes()}
	if waitErr != nil {
		res.Code = -1
		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) {
			res.Code = exitErr.ExitCode()
		}
		return res, fmt.Errorf("command failed (exit %d): %w", res.Code, waitErr)
	}
	return res, nil
}

func scanLines(r io.Reader, stream string, verbose bool, onLine func(string), buf *bytes.Buffer) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := sc.Text()
		if onLine != nil {
			onLine(line)
		}
		if verbose {
			log.Debug().Str("stream", stream).Msg(line)
		}
		buf.WriteString(line)
		buf.WriteByte('\n')
	}
	if err := sc.Err(); err != nil {
		if verbose {
			log.Debug().Err(err).Str("stream", stream).Msg("scan error")
		}
		// Keep the child from blocking on a full pipe.
		_, _ = io.Copy(io.Discard, r)
	}
}

// shellQuote returns a printable shell-like command string for logging.
func shellQuote(path string, args []string) string {
	parts := make([]string, 0, len(args)+1)
	parts = append(parts, quote(path))
	for _, a := range args {
		parts = append(parts, quote(a))
	}
	return strings.Join(parts, " ")
}

func quote(s string) string {
	if s == "" {
		return "''"
	}
	if strings.ContainsAny(s, " \t\n\"'\\$`(){}[]*&;|<>?!") {
		return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
	}
	return s
}
