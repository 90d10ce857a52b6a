// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package tools provides the agentic tool system for rigagent.
// shell.go implements shell command execution with security restrictions.
package tools

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"

	"github.com/jeranaias/rigagent/internal/util"
)

// =============================================================================
// CONSTANTS
// =============================================================================

const (
	// defaultShellTimeout is the wall-clock budget a command gets before the
	// whole process group is killed.
	defaultShellTimeout = 60 * time.Second

	// defaultMaxOutputSize caps combined stdout+stderr at 100KB.
	defaultMaxOutputSize = 100 * 1024

	// maxCommandLength rejects absurdly long command strings.
	maxCommandLength = 10000

	// maxCommandNewlines limits multi-line commands to prevent multi-command
	// injection via embedded newlines.
	maxCommandNewlines = 3
)

// =============================================================================
// SECURITY: Unicode Normalization
// =============================================================================

// normalizeCommand normalizes unicode to NFKC form to prevent homoglyph
// attacks. NFKC (Compatibility Decomposition + Canonical Composition)
// converts lookalike characters to their canonical forms, preventing
// bypasses using unicode homoglyphs. This runs before every other check.
func normalizeCommand(cmd string) string {
	return norm.NFKC.String(cmd)
}

// =============================================================================
// SECURITY: Blocklists
// =============================================================================

// DefaultBlockedCommands are command substrings that are always blocked.
var DefaultBlockedCommands = []string{
	// Destructive file operations
	"rm -rf /", "rm -rf /*", "rm -rf ~", "rm -rf ~/", "rm -rf $HOME",
	"rm -fr /", "rm --no-preserve-root",
	"rmdir /s /q c:", "rmdir /s /q c:\\",

	// Disk and partition operations
	"dd if=", "dd of=/dev",
	"mkfs", "mke2fs", "mkswap",
	"fdisk", "gdisk", "parted", "wipefs", "shred",

	// Fork bombs and resource exhaustion
	":(){:|:&};:", ":(){ :|:& };:",
	"while true; do", "while :; do",

	// Dangerous permissions
	"chmod -R 777 /", "chmod 777 /", "chmod 000 /",
	"chattr +i /",

	// Remote code execution
	"curl | bash", "curl | sh", "curl|bash", "curl|sh",
	"wget | bash", "wget | sh", "wget|bash", "wget|sh",
	"curl -s | bash", "curl -sSL | bash", "curl -fsSL | bash",
	"bash <(curl", "sh <(curl", "bash <(wget", "sh <(wget",

	// Windows destructive commands
	"format c:", "del /f /s /q c:\\", "rd /s /q c:\\",
	"diskpart", "bcdedit", "bootrec",

	// System control
	"shutdown -h now", "shutdown /s", "shutdown -r now",
	"poweroff", "reboot", "halt", "init 0", "init 6",
	"systemctl poweroff", "systemctl reboot", "systemctl halt",

	// Reverse shells
	"nc -e", "nc -c", "ncat -e",
	"bash -i >& /dev/tcp",

	// Credential access
	"cat /etc/shadow", "cat /etc/sudoers", "visudo",
	".ssh/id_rsa", ".ssh/id_ed25519",
	".aws/credentials", ".kube/config",

	// History and log tampering
	"history -c", "rm ~/.bash_history", "> ~/.bash_history",
	"rm /var/log", "> /var/log",
}

// DefaultBlockedPatterns are substring patterns that are always blocked.
// Pattern matching catches obfuscation attempts that slip past the command
// list above.
var DefaultBlockedPatterns = []string{
	// Device access
	"> /dev/sd", "> /dev/nvme", "> /dev/hd", ">/dev/sd", ">/dev/nvme",
	"of=/dev/",

	// Command chaining with destructive operations
	"| rm ", "|rm ", "; rm -rf", "&& rm -rf", "|| rm -rf",

	// Shell execution
	"| bash", "| sh", "|bash", "|sh",
	"| eval", "|eval",
	"| python -c", "| python3 -c", "| perl -e", "| ruby -e",
	"; exec ", "&& exec ",
	"`",  // backtick command substitution
	"$(", // command substitution

	// Reverse shells
	"/dev/tcp/", "/dev/udp/", "mkfifo", "mknod",

	// Encoding/obfuscation
	"base64 -d |", "base64 --decode |", "| base64 -d",
	"xxd -r |", "printf '\\x",

	// Environment manipulation
	"export PATH=", "PATH=", "LD_PRELOAD=", "LD_LIBRARY_PATH=",
	"DYLD_INSERT_LIBRARIES=",

	// Sensitive file access
	"/etc/shadow", "/etc/sudoers", "/etc/gshadow",
	"/.ssh/", "\\.ssh\\", "/id_rsa", "/id_ed25519",

	// Windows-specific
	"\\system32\\", "/system32/",
	"reg add", "reg delete", "schtasks /create",
}

// interactiveCommands require a TTY and would hang a headless session.
var interactiveCommands = []string{
	"vim", "vi", "nano", "emacs", "pico",
	"less", "more",
	"top", "htop", "btop",
	"ssh", "telnet", "ftp",
	"mysql", "psql", "sqlite3",
	"python -i", "python3 -i", "node -i",
	"bash -i", "sh -i", "zsh -i",
}

// =============================================================================
// RUN SHELL TOOL
// =============================================================================

// RunShellTool executes a shell command inside the working directory with a
// hard timeout and a forcible process-group kill. stdout and stderr stream
// into buffers as the command runs, so a timed-out command still reports the
// output it produced before being killed.
type RunShellTool struct {
	// Timeout is the command wall-clock budget (default: 60s)
	Timeout time.Duration

	// MaxOutputSize is the maximum combined output size (default: 100KB)
	MaxOutputSize int

	// BlockedCommands overrides DefaultBlockedCommands when set
	BlockedCommands []string

	// BlockedPatterns overrides DefaultBlockedPatterns when set
	BlockedPatterns []string
}

func (t *RunShellTool) Name() string { return "run_shell" }

func (t *RunShellTool) Description() string {
	return `Run a shell command in the working directory.
For builds, tests, git, and inspecting the system. Destructive and
interactive commands are blocked. Commands are killed after the timeout;
output is capped at 100KB.`
}

func (t *RunShellTool) Parameters() []Parameter {
	return []Parameter{
		{
			Name:        "command",
			Type:        "string",
			Required:    true,
			Description: "The shell command to execute, e.g. 'ls -la' or 'python3 script.py'.",
		},
	}
}

// Execute validates and runs the command. The tool owns its timeout; the
// surrounding loop never cancels a command mid-run.
func (t *RunShellTool) Execute(ctx context.Context, args Args, workDir string) Result {
	timeout := t.Timeout
	if timeout == 0 {
		timeout = defaultShellTimeout
	}
	maxOutput := t.MaxOutputSize
	if maxOutput == 0 {
		maxOutput = defaultMaxOutputSize
	}

	command := args.GetString("command", "")
	if command == "" {
		return Failure("command is required")
	}

	// Unicode normalization must happen before any other check.
	command = normalizeCommand(command)

	if err := t.validateCommand(command); err != nil {
		return Failure(err.Error())
	}

	if err := ctx.Err(); err != nil {
		return Failure("operation cancelled")
	}

	var argv []string
	if runtime.GOOS == "windows" {
		argv = []string{"cmd", "/C", command}
	} else {
		argv = []string{"bash", "-c", command}
	}

	output, exitCode, timedOut, err := runProcess(argv, workDir, timeout, maxOutput)
	if err != nil {
		return Failure("cannot start command: " + err.Error())
	}
	if timedOut {
		msg := "command timed out after " + formatDuration(timeout)
		if output != "" {
			msg += "\n\nPartial output:\n" + output
		}
		return Failure(msg)
	}
	if exitCode != 0 {
		msg := "command exited with code " + util.IntToString(exitCode)
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

// validateCommand checks a command against the security rules.
func (t *RunShellTool) validateCommand(command string) error {
	blockedCommands := t.BlockedCommands
	if len(blockedCommands) == 0 {
		blockedCommands = DefaultBlockedCommands
	}
	blockedPatterns := t.BlockedPatterns
	if len(blockedPatterns) == 0 {
		blockedPatterns = DefaultBlockedPatterns
	}

	if len(command) > maxCommandLength {
		return &SecurityError{
			Type:    "command_validation",
			Message: "command exceeds maximum length of " + util.IntToString(maxCommandLength) + " characters",
		}
	}
	if strings.Contains(command, "\x00") {
		return &SecurityError{
			Type:    "command_validation",
			Message: "command contains null bytes",
		}
	}
	if strings.Count(command, "\n") > maxCommandNewlines {
		return &SecurityError{
			Type:    "command_validation",
			Message: "command contains too many newlines (max " + util.IntToString(maxCommandNewlines) + ")",
		}
	}

	normalizedCmd := strings.ToLower(strings.TrimSpace(command))
	normalizedCmd = strings.ReplaceAll(normalizedCmd, "\t", " ")

	// Blocked command substrings plus token-based matching on the first word.
	tokens, err := parseCommandTokens(command)
	if err != nil {
		return &SecurityError{
			Type:    "command_validation",
			Message: "failed to parse command: " + err.Error(),
		}
	}
	if len(tokens) > 0 {
		baseCmd := strings.ToLower(filepath.Base(tokens[0]))
		for _, blocked := range blockedCommands {
			if baseCmd == strings.ToLower(blocked) || strings.Contains(normalizedCmd, strings.ToLower(blocked)) {
				return &SecurityError{
					Type:    "command_blocked",
					Message: "command contains blocked operation: " + blocked,
				}
			}
		}
	}

	for _, pattern := range blockedPatterns {
		if strings.Contains(normalizedCmd, strings.ToLower(pattern)) {
			return &SecurityError{
				Type:    "command_pattern",
				Message: "command contains dangerous pattern",
			}
		}
	}

	for _, interactive := range interactiveCommands {
		interactiveLower := strings.ToLower(interactive)
		if normalizedCmd == interactiveLower ||
			strings.HasPrefix(normalizedCmd, interactiveLower+" ") ||
			strings.Contains(normalizedCmd, "| "+interactiveLower) ||
			strings.Contains(normalizedCmd, "|"+interactiveLower) {
			return &SecurityError{
				Type:    "command_interactive",
				Message: "interactive command '" + interactive + "' cannot run in a non-TTY environment",
			}
		}
	}

	if containsBackgroundOperator(command) {
		return &SecurityError{
			Type:    "command_background",
			Message: "backgrounding commands with '&' is not allowed",
		}
	}

	// Privilege escalation needs an explicit human, not a model.
	if len(tokens) > 0 {
		switch strings.ToLower(tokens[0]) {
		case "sudo", "su", "doas", "pkexec":
			return &SecurityError{
				Type:    "command_privileged",
				Message: "privileged command '" + tokens[0] + "' is not allowed",
			}
		}
	}

	return nil
}

// =============================================================================
// PROCESS RUNNER
// =============================================================================

// runProcess starts argv in dir, waits up to timeout, and returns the
// combined output. On timeout the entire process group is killed so
// grandchildren cannot linger. Shared by run_shell and the package tools.
func runProcess(argv []string, dir string, timeout time.Duration, maxOutput int) (output string, exitCode int, timedOut bool, err error) {
	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Dir = dir

	// SECURITY: Sanitize environment to prevent injection attacks
	cmd.Env = sanitizeEnvironment()

	// Buffers fill as the process writes, so partial output survives a kill.
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	// New process group so the timeout kill reaches every descendant.
	setProcessGroup(cmd)

	if startErr := cmd.Start(); startErr != nil {
		return "", 0, false, startErr
	}

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	var waitErr error
	select {
	case waitErr = <-done:
	case <-timer.C:
		timedOut = true
		killProcessGroup(cmd)
		// Reap the killed process so no zombie is left behind.
		waitErr = <-done
	}

	output = buildProcessOutput(&stdout, &stderr, maxOutput)

	if timedOut {
		return output, -1, true, nil
	}
	if waitErr != nil {
		if exitErr, ok := waitErr.(*exec.ExitError); ok {
			return output, exitErr.ExitCode(), false, nil
		}
		return output, -1, false, waitErr
	}
	return output, 0, false, nil
}

// buildProcessOutput combines stdout and stderr with truncation.
func buildProcessOutput(stdout, stderr *bytes.Buffer, maxOutput int) string {
	var sb strings.Builder
	truncated := false

	if stdout.Len() > 0 {
		outStr := stdout.String()
		if len(outStr) > maxOutput {
			outStr = outStr[:maxOutput]
			truncated = true
		}
		sb.WriteString(outStr)
	}

	if stderr.Len() > 0 {
		if sb.Len() > 0 {
			sb.WriteString("\n\nSTDERR:\n")
		}
		errStr := stderr.String()
		remaining := maxOutput - sb.Len()
		if remaining > 0 {
			if len(errStr) > remaining {
				errStr = errStr[:remaining]
				truncated = true
			}
			sb.WriteString(errStr)
		} else {
			truncated = true
		}
	}

	result := sb.String()
	if truncated {
		result += "\n\n[Output truncated at " + util.IntToString(maxOutput) + " bytes]"
	}
	return result
}

// containsBackgroundOperator checks for standalone & (not &&).
func containsBackgroundOperator(command string) bool {
	chars := []rune(command)
	inSingleQuote := false
	inDoubleQuote := false

	for i := 0; i < len(chars); i++ {
		c := chars[i]

		if c == '\'' && !inDoubleQuote {
			inSingleQuote = !inSingleQuote
			continue
		}
		if c == '"' && !inSingleQuote {
			inDoubleQuote = !inDoubleQuote
			continue
		}
		if inSingleQuote || inDoubleQuote {
			continue
		}

		if c == '&' {
			var prev, next rune
			if i > 0 {
				prev = chars[i-1]
			}
			if i < len(chars)-1 {
				next = chars[i+1]
			}
			// && is command chaining, not backgrounding.
			if prev == '&' || next == '&' {
				continue
			}
			return true
		}
	}

	return false
}

// formatDuration formats a duration as a compact string.
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return util.IntToString(int(d.Milliseconds())) + "ms"
	}
	if d < time.Minute {
		return util.IntToString(int(d.Seconds())) + "s"
	}
	mins := int(d.Minutes())
	secs := int(d.Seconds()) % 60
	if secs == 0 {
		return util.IntToString(mins) + "m"
	}
	return util.IntToString(mins) + "m" + util.IntToString(secs) + "s"
}

// =============================================================================
// ENVIRONMENT SANITIZATION
// =============================================================================

// dangerousEnvVars can be used for injection attacks and never reach child
// processes.
var dangerousEnvVars = []string{
	// Library injection
	"LD_PRELOAD", "LD_LIBRARY_PATH", "LD_AUDIT",
	"DYLD_INSERT_LIBRARIES", "DYLD_LIBRARY_PATH",

	// Shell behavior modification
	"BASH_ENV", "ENV", "SHELLOPTS", "BASHOPTS", "CDPATH", "GLOBIGNORE",

	// Dangerous executables
	"EDITOR", "VISUAL", "PAGER",

	// IFS injection
	"IFS",

	// Interpreter injection
	"PYTHONSTARTUP", "PYTHONPATH", "PYTHONHOME",
	"RUBYOPT", "RUBYLIB",
	"PERL5OPT", "PERL5LIB",
	"NODE_OPTIONS", "NODE_PATH",
	"JAVA_TOOL_OPTIONS", "_JAVA_OPTIONS",

	// Git hooks
	"GIT_SSH", "GIT_SSH_COMMAND", "GIT_EXEC_PATH",

	// Prompt injection
	"PS1", "PS2", "PS4", "PROMPT_COMMAND",
}

// sanitizeEnvironment creates a sanitized environment for command execution.
// It filters out dangerous environment variables that could be used for
// injection.
func sanitizeEnvironment() []string {
	dangerousSet := make(map[string]bool, len(dangerousEnvVars))
	for _, v := range dangerousEnvVars {
		dangerousSet[strings.ToUpper(v)] = true
	}

	currentEnv := getEnviron()
	result := make([]string, 0, len(currentEnv))

	for _, env := range currentEnv {
		idx := strings.Index(env, "=")
		if idx <= 0 {
			continue
		}
		keyUpper := strings.ToUpper(env[:idx])

		if dangerousSet[keyUpper] {
			continue
		}
		if strings.HasPrefix(keyUpper, "BASH_FUNC_") ||
			strings.HasPrefix(keyUpper, "LD_") ||
			strings.HasPrefix(keyUpper, "DYLD_") {
			continue
		}

		result = append(result, env)
	}

	return result
}

// getEnviron returns the current environment (abstracted for testing).
var getEnviron = func() []string {
	return os.Environ()
}
