//go:build !windows

// Package stderr captures output from C audio libraries (ALSA) that write
// directly to file descriptor 2, bypassing Go's os.Stderr, and routes it
// through the structured logger instead of letting it interleave with log
// output.
package stderr

import (
	"bufio"
	"os"
	"strings"
	"syscall"

	"github.com/sirupsen/logrus"
)

var (
	origStderr int
	pipeRead   *os.File
	pipeWrite  *os.File
	started    bool
)

// Start begins capturing stderr output, forwarding captured lines to log at
// debug level. The logger's own output is moved to the original stderr so it
// is not captured by its own redirect.
// Must be called early in main(), before any C library initialization.
// Returns an error if capture cannot be set up, but the program can continue
// without stderr capture (native errors will just go to the original stderr).
func Start(log *logrus.Logger) error {
	if started {
		return nil
	}

	// Create a pipe
	r, w, err := os.Pipe()
	if err != nil {
		return err
	}

	// Save original stderr file descriptor
	origStderr, err = syscall.Dup(int(os.Stderr.Fd()))
	if err != nil {
		r.Close()
		w.Close()
		return err
	}

	// Redirect stderr (fd 2) to the pipe's write end
	err = syscall.Dup2(int(w.Fd()), int(os.Stderr.Fd()))
	if err != nil {
		syscall.Close(origStderr)
		r.Close()
		w.Close()
		return err
	}

	pipeRead = r
	pipeWrite = w
	started = true

	// Keep log output on the real stderr
	log.SetOutput(os.NewFile(uintptr(origStderr), "stderr"))

	go func() {
		scanner := bufio.NewScanner(pipeRead)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line != "" {
				log.WithField("source", "native").Debug(line)
			}
		}
	}()

	return nil
}

// Stop restores the original stderr. Should be called on program exit.
func Stop() {
	if !started {
		return
	}

	// Restore original stderr
	_ = syscall.Dup2(origStderr, int(os.Stderr.Fd()))

	// Close pipe
	pipeWrite.Close()
	pipeRead.Close()

	started = false
}
