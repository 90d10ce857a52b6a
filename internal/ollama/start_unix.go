// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

//go:build !windows
// +build !windows

// Package ollama provides the HTTP client for communicating with Ollama API.
package ollama

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"syscall"
)

// findServerExecutable locates the ollama binary on Unix/macOS.
// PATH is checked first, then the common install locations.
func findServerExecutable() (string, error) {
	if path, err := exec.LookPath("ollama"); err == nil {
		return path, nil
	}

	candidates := []string{
		"/usr/local/bin/ollama",
		"/usr/bin/ollama",
		"/opt/ollama/ollama",
		"/Applications/Ollama.app/Contents/Resources/ollama",
	}
	if home := os.Getenv("HOME"); home != "" {
		candidates = append(candidates,
			filepath.Join(home, ".local", "bin", "ollama"),
			filepath.Join(home, "bin", "ollama"),
		)
	}

	for _, p := range candidates {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}

	return "", errors.New("ollama not found in PATH or common install directories")
}

// startServer launches "ollama serve" detached from this process and polls
// until the server answers.
func (c *Client) startServer(ctx context.Context) error {
	path, err := findServerExecutable()
	if err != nil {
		return &ClientError{Type: ErrTypeConnection, Message: "failed to find Ollama executable", Cause: err}
	}

	cmd := exec.Command(path, "serve")

	// Child inherits the environment so OLLAMA_* tuning vars reach the server.
	cmd.Env = os.Environ()

	// New process group: the server outlives this process and never receives
	// our terminal signals.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Stdin = nil
	cmd.Stdout = nil
	cmd.Stderr = nil

	if err := cmd.Start(); err != nil {
		return &ClientError{
			Type:    ErrTypeConnection,
			Message: "failed to start Ollama (path: " + path + ")",
			Cause:   err,
		}
	}

	if cmd.Process != nil {
		cmd.Process.Release()
	}

	return c.waitForServer(ctx, path)
}
