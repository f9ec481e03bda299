// Copyright (c) 2025 BVK Chaitanya

// Package daemonize respawns the current program as a background process.
package daemonize

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"log/syslog"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/bvk/hashbid/ctxutil"
	"golang.org/x/sys/unix"
)

// EnvKey identifies the background process. It holds the parent pid in the
// child and must be unset otherwise.
var EnvKey = "HASHBID_DAEMONIZE"

// CheckFunc reports whether the background process with the given pid has
// finished initializing.
type CheckFunc func(ctx context.Context, pid int) error

// IsChild returns true in the background process.
func IsChild() bool {
	return len(os.Getenv(EnvKey)) != 0
}

// Daemonize must be called at the program startup before opening databases or
// starting servers.
//
// In the parent process, it starts a copy of the program with the same
// arguments, environment and working directory, waits for the check function
// to succeed and exits. An error is returned if the child dies or the context
// expires before that.
//
// In the child process, it starts a new session, points the standard log
// package at syslog and returns nil. Standard input and outputs of the child
// are /dev/null.
func Daemonize(ctx context.Context, name string, check CheckFunc) error {
	if !IsChild() {
		if err := startChild(ctx, check); err != nil {
			return err
		}
		os.Exit(0)
	}
	if err := setupChild(name); err != nil {
		os.Exit(1)
	}
	return nil
}

func startChild(ctx context.Context, check CheckFunc) error {
	binary, err := exec.LookPath(os.Args[0])
	if err != nil {
		return fmt.Errorf("failed to lookup binary: %w", err)
	}
	binaryPath, err := filepath.Abs(binary)
	if err != nil {
		return fmt.Errorf("could not determine absolute path for binary: %w", err)
	}
	wd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("could not determine working directory: %w", err)
	}

	file, err := os.OpenFile(os.DevNull, os.O_RDWR, 0)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", os.DevNull, err)
	}
	defer file.Close()

	// Receive signal when child-process dies.
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGCHLD, os.Interrupt)
	defer stop()

	attr := &os.ProcAttr{
		Dir:   wd,
		Env:   append(os.Environ(), EnvKey+"="+strconv.Itoa(os.Getpid())),
		Files: []*os.File{file, file, file},
	}
	child, err := os.StartProcess(binaryPath, os.Args, attr)
	if err != nil {
		return fmt.Errorf("failed to start process: %w", err)
	}

	if check != nil {
		ctxutil.Sleep(ctx, time.Second)
		for ctx.Err() == nil {
			if err := check(ctx, child.Pid); err != nil {
				slog.WarnContext(ctx, "background process is not yet initialized", "pid", child.Pid, "err", err)
				ctxutil.Sleep(ctx, time.Second)
				continue
			}
			break
		}
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("could not initialize the background process: %w", err)
	}
	log.Printf("started background process with pid %d", child.Pid)
	return nil
}

func setupChild(name string) error {
	syslogger, err := syslog.New(syslog.LOG_INFO, name)
	if err != nil {
		return fmt.Errorf("could not create syslog: %w", err)
	}
	log.SetOutput(syslogger)

	if _, err := unix.Setsid(); err != nil {
		return fmt.Errorf("could not set session id: %w", err)
	}
	return nil
}
