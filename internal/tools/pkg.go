// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package tools provides the agentic tool system for rigagent.
// pkg.go implements install_package and remove_package. Both build their
// argv directly (no shell involved), so a package name can never smuggle in
// shell syntax.
package tools

import (
	"context"
	"os/exec"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/jeranaias/rigagent/internal/util"
)

// =============================================================================
// SUPPORTED MANAGERS
// =============================================================================

// managerVerbs maps a package manager to its install and remove argv
// prefixes. Only managers on this list can be invoked.
var managerVerbs = map[string]struct {
	install []string
	remove  []string
}{
	"pip":     {install: []string{"install"}, remove: []string{"uninstall", "-y"}},
	"pip3":    {install: []string{"install"}, remove: []string{"uninstall", "-y"}},
	"npm":     {install: []string{"install"}, remove: []string{"uninstall"}},
	"apt":     {install: []string{"install", "-y"}, remove: []string{"remove", "-y"}},
	"apt-get": {install: []string{"install", "-y"}, remove: []string{"remove", "-y"}},
	"brew":    {install: []string{"install"}, remove: []string{"uninstall"}},
	"cargo":   {install: []string{"install"}, remove: []string{"uninstall"}},
}

// packageNameRegex accepts common package names (pip, npm scoped, versioned)
// while rejecting anything that could be parsed as a flag or path escape.
// A name starts with an alphanumeric, optionally preceded by an npm
// "@scope/" prefix, so "-rf" or "--upgrade" can never pass as a name.
var packageNameRegex = regexp.MustCompile(`^(?:@[A-Za-z0-9][A-Za-z0-9._-]*/)?[A-Za-z0-9][A-Za-z0-9@/._+=^~<>-]*$`)

// validatePackageRequest checks the manager and package name. Returns the
// canonical manager key.
func validatePackageRequest(manager, name string) (string, error) {
	manager = strings.ToLower(strings.TrimSpace(manager))
	if _, ok := managerVerbs[manager]; !ok {
		supported := make([]string, 0, len(managerVerbs))
		for m := range managerVerbs {
			supported = append(supported, m)
		}
		sort.Strings(supported)
		return "", &SecurityError{
			Type:    "package_manager",
			Message: "unsupported package manager '" + manager + "' (supported: " + strings.Join(supported, ", ") + ")",
		}
	}
	if name == "" {
		return "", &SecurityError{
			Type:    "validation",
			Message: "package name is required",
		}
	}
	if !packageNameRegex.MatchString(name) {
		return "", &SecurityError{
			Type:    "package_name",
			Message: "invalid package name '" + name + "'",
		}
	}
	return manager, nil
}

// runPackageCommand executes a package manager with the given verb and
// package name through the shared process runner.
func runPackageCommand(manager string, verb []string, name, workDir string, timeout time.Duration) Result {
	if _, err := exec.LookPath(manager); err != nil {
		return Failure("package manager '" + manager + "' is not installed")
	}

	argv := append([]string{manager}, verb...)
	argv = append(argv, name)

	output, exitCode, timedOut, err := runProcess(argv, workDir, timeout, defaultMaxOutputSize)
	if err != nil {
		return Failure("cannot start " + manager + ": " + err.Error())
	}
	if timedOut {
		msg := strings.Join(argv, " ") + " timed out after " + formatDuration(timeout)
		if output != "" {
			msg += "\n\nPartial output:\n" + output
		}
		return Failure(msg)
	}
	if exitCode != 0 {
		msg := manager + " exited with code " + util.IntToString(exitCode)
		if output != "" {
			msg += "\n" + output
		}
		return Failure(msg)
	}
	if output == "" {
		output = "(no output)"
	}
	return Success(output)
}

// =============================================================================
// INSTALL PACKAGE
// =============================================================================

// InstallPackageTool installs a package via a supported package manager.
type InstallPackageTool struct {
	// Timeout is the command wall-clock budget (default: 60s)
	Timeout time.Duration
}

func (t *InstallPackageTool) Name() string { return "install_package" }

func (t *InstallPackageTool) Description() string {
	return `Install a software package.
Supported managers: apt, apt-get, brew, cargo, npm, pip, pip3. The default
is pip3. Package names are validated; shell syntax is never interpreted.`
}

func (t *InstallPackageTool) Parameters() []Parameter {
	return []Parameter{
		{
			Name:        "name",
			Type:        "string",
			Required:    true,
			Description: "Package to install, e.g. 'requests' or 'requests==2.31.0'.",
		},
		{
			Name:        "manager",
			Type:        "string",
			Required:    false,
			Description: "Package manager to use. Default: pip3.",
		},
	}
}

// Execute installs the package.
func (t *InstallPackageTool) Execute(ctx context.Context, args Args, workDir string) Result {
	timeout := t.Timeout
	if timeout == 0 {
		timeout = defaultShellTimeout
	}

	name := args.GetString("name", "")
	manager, err := validatePackageRequest(args.GetString("manager", "pip3"), name)
	if err != nil {
		return Failure(err.Error())
	}

	if err := ctx.Err(); err != nil {
		return Failure("operation cancelled")
	}

	return runPackageCommand(manager, managerVerbs[manager].install, name, workDir, timeout)
}

// =============================================================================
// REMOVE PACKAGE
// =============================================================================

// RemovePackageTool removes a package via a supported package manager.
type RemovePackageTool struct {
	// Timeout is the command wall-clock budget (default: 60s)
	Timeout time.Duration
}

func (t *RemovePackageTool) Name() string { return "remove_package" }

func (t *RemovePackageTool) Description() string {
	return `Remove an installed software package.
Supported managers: apt, apt-get, brew, cargo, npm, pip, pip3. The default
is pip3. Package names are validated; shell syntax is never interpreted.`
}

func (t *RemovePackageTool) Parameters() []Parameter {
	return []Parameter{
		{
			Name:        "name",
			Type:        "string",
			Required:    true,
			Description: "Package to remove.",
		},
		{
			Name:        "manager",
			Type:        "string",
			Required:    false,
			Description: "Package manager to use. Default: pip3.",
		},
	}
}

// Execute removes the package.
func (t *RemovePackageTool) Execute(ctx context.Context, args Args, workDir string) Result {
	timeout := t.Timeout
	if timeout == 0 {
		timeout = defaultShellTimeout
	}

	name := args.GetString("name", "")
	manager, err := validatePackageRequest(args.GetString("manager", "pip3"), name)
	if err != nil {
		return Failure(err.Error())
	}

	if err := ctx.Err(); err != nil {
		return Failure("operation cancelled")
	}

	return runPackageCommand(manager, managerVerbs[manager].remove, name, workDir, timeout)
}
