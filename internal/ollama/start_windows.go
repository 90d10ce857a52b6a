// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

//go:build windows
// +build windows

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

// Windows process creation flags for a fully detached child.
const (
	// CREATE_NO_WINDOW prevents a console window from being created
	CREATE_NO_WINDOW = 0x08000000
	// DETACHED_PROCESS creates a new process that is detached from the console
	DETACHED_PROCESS = 0x00000008
)

// findServerExecutable locates ollama.exe on Windows.
// PATH is checked first, then the standard install locations.
func findServerExecutable() (string, error) {
	if path, err := exec.LookPath("ollama.exe"); err == nil {
		return path, nil
	}
	if path, err := exec.LookPath("ollama"); err == nil {
		return path, nil
	}

	var candidates []string
	if localAppData := os.Getenv("LOCALAPPDATA"); localAppData != "" {
		candidates = append(candidates, filepath.Join(localAppData, "Programs", "Ollama", "ollama.exe"))
	}
	candidates = append(candidates,
		`C:\Program Files\Ollama\ollama.exe`,
		`C:\Program Files (x86)\Ollama\ollama.exe`,
	)
	if userProfile := os.Getenv("USERPROFILE"); userProfile != "" {
		candidates = append(candidates,
			filepath.Join(userProfile, "Ollama", "ollama.exe"),
			filepath.Join(userProfile, ".ollama", "ollama.exe"),
		)
	}

	for _, p := range candidates {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}

	return "", errors.New("ollama.exe not found in PATH or standard install directories")
}

// startServer launches "ollama serve" detached from the console and polls
// until the server answers.
func (c *Client) startServer(ctx context.Context) error {
	path, err := findServerExecutable()
	if err != nil {
		return &ClientError{Type: ErrTypeConnection, Message: "failed to find Ollama executable", Cause: err}
	}

	cmd := exec.Command(path, "serve")

	// Child inherits the environment so OLLAMA_* tuning vars reach the server.
	cmd.Env = os.Environ()

	// New process group, no console window, detached: the server outlives
	// this process and never flashes a terminal at the user.
	cmd.SysProcAttr = &syscall.SysProcAttr{
		CreationFlags: syscall.CREATE_NEW_PROCESS_GROUP | CREATE_NO_WINDOW | DETACHED_PROCESS,
	}
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
