// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// chat.go - Interactive chat command handler for the rigagent CLI.
//
// USABILITY: Markdown rendering and input history for better CLI experience
//
// Handles the "rigagent chat" command: an interactive REPL where each
// message runs the full agent loop with tool use and approval prompts.
//
// Command: chat
// Short:   Start an interactive agent session
//
// Examples:
//   rigagent chat                       Start chat (default model)
//   rigagent chat --model qwen2.5:14b   Use specific model
//   rigagent chat --root ~/project      Sandbox tools to a directory
//
// Interactive Commands (during chat):
//   /help, /h           Show available commands
//   /tools, /t          List registered tools
//   /undo, /u           Undo the last reversible action
//   /history [n]        Show recent actions for this session
//   /clear, /c          Clear conversation context
//   /quit, /q           Exit chat
//   Ctrl+C              Cancel the current task
//   Ctrl+D              Exit chat
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/peterh/liner"

	"github.com/jeranaias/rigagent/internal/agent"
)

// =============================================================================
// INPUT HISTORY
// =============================================================================

// ChatCLI provides input history and line editing for interactive chat.
// USABILITY: Supports arrow keys for history navigation and line editing.
type ChatCLI struct {
	line        *liner.State
	historyFile string
}

// NewChatCLI creates a ChatCLI persisting input history to historyFile.
func NewChatCLI(historyFile string) *ChatCLI {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	cli := &ChatCLI{
		line:        line,
		historyFile: historyFile,
	}
	cli.LoadHistory()
	return cli
}

// LoadHistory loads input history from file.
func (c *ChatCLI) LoadHistory() {
	if f, err := os.Open(c.historyFile); err == nil {
		c.line.ReadHistory(f)
		f.Close()
	}
}

// ReadInput reads a line of input with the given prompt.
// Non-empty input is appended to history.
func (c *ChatCLI) ReadInput(prompt string) (string, error) {
	input, err := c.line.Prompt(prompt)
	if err != nil {
		return "", err
	}

	if strings.TrimSpace(input) != "" {
		c.line.AppendHistory(input)
	}

	return input, nil
}

// SaveHistory persists input history with owner-only permissions.
func (c *ChatCLI) SaveHistory() {
	if err := os.MkdirAll(filepath.Dir(c.historyFile), 0700); err != nil {
		return
	}

	f, err := os.OpenFile(c.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return
	}
	defer f.Close()

	c.line.WriteHistory(f)
}

// Close saves history and closes the liner.
func (c *ChatCLI) Close() {
	c.SaveHistory()
	c.line.Close()
}

// =============================================================================
// CHAT LOOP STATE
// =============================================================================

// chatLoop holds per-REPL state: the harness, the input handler, and the
// cancel function for the task currently running.
type chatLoop struct {
	h     *harness
	input *ChatCLI
	start time.Time

	mu     sync.Mutex
	cancel context.CancelFunc
}

// setCancel installs (or clears) the cancel function for the running task.
func (c *chatLoop) setCancel(fn context.CancelFunc) {
	c.mu.Lock()
	c.cancel = fn
	c.mu.Unlock()
}

// interrupt cancels the running task, if any. Called from the signal
// handler goroutine.
func (c *chatLoop) interrupt() {
	c.mu.Lock()
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
		fmt.Fprintln(os.Stderr, "\n"+WarningStyle.Render("[cancelled]"))
	}
	c.mu.Unlock()
}

// =============================================================================
// CHAT HANDLER
// =============================================================================

// HandleChatCommand handles the "chat" command.
func HandleChatCommand(args Args) error {
	if err := RequiresTTY("chat"); err != nil {
		return err
	}

	h, err := buildHarness(args)
	if err != nil {
		return err
	}
	defer h.Close()

	historyFile, err := h.cfg.REPLHistoryPath()
	if err != nil {
		historyFile = filepath.Join(os.TempDir(), "rigagent_repl_history")
	}

	loop := &chatLoop{
		h:     h,
		input: NewChatCLI(historyFile),
		start: time.Now(),
	}
	defer loop.input.Close()

	if !args.Quiet {
		printWelcome(h)
	}

	// First Ctrl+C cancels the running task; at the prompt liner turns it
	// into ErrPromptAborted instead.
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		for range sigChan {
			loop.interrupt()
		}
	}()

	for {
		input, err := loop.input.ReadInput(PromptStyle.Render("rigagent> "))
		if err != nil {
			// Ctrl+C at the prompt or EOF (Ctrl+D) - exit gracefully
			fmt.Println()
			printExitSummary(loop)
			return nil
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}

		if strings.HasPrefix(input, "/") {
			shouldContinue, err := handleSlashCommand(loop, input)
			if err != nil {
				fmt.Fprintf(os.Stderr, "%s %v\n", ErrorStyle.Render("[error]"), err)
			}
			if !shouldContinue {
				printExitSummary(loop)
				return nil
			}
			continue
		}

		if strings.EqualFold(input, "exit") || strings.EqualFold(input, "quit") {
			printExitSummary(loop)
			return nil
		}

		runTask(loop, input)
	}
}

// runTask runs one agent task and prints the outcome.
func runTask(loop *chatLoop, task string) {
	ctx, cancel := context.WithCancel(context.Background())
	loop.setCancel(cancel)
	defer func() {
		loop.setCancel(nil)
		cancel()
	}()

	result, err := loop.h.session.Run(ctx, task)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", ErrorStyle.Render("[error]"), err)
		return
	}

	fmt.Println()
	if result.Outcome != agent.OutcomeAnswered {
		fmt.Fprintf(os.Stderr, "%s %s after %d iterations\n",
			WarningStyle.Render("[incomplete]"), result.Outcome, result.Iterations)
	}
	DisplayAnswer(result.Answer, loop.h.cfg.CLI.RenderMarkdown)
}

// =============================================================================
// SLASH COMMANDS
// =============================================================================

// handleSlashCommand processes slash commands.
// Returns (shouldContinue, error) where shouldContinue=false means exit.
func handleSlashCommand(loop *chatLoop, cmd string) (bool, error) {
	parts := strings.Fields(cmd)
	if len(parts) == 0 {
		return true, nil
	}

	command := strings.ToLower(parts[0])
	rest := parts[1:]

	switch command {
	case "/help", "/h", "/?", "/":
		printChatHelp()
		return true, nil

	case "/tools", "/t":
		printTools(loop.h)
		return true, nil

	case "/undo", "/u":
		fmt.Println(ValueStyle.Render(loop.h.session.Ledger().UndoLast()))
		return true, nil

	case "/history":
		n := 10
		if len(rest) > 0 {
			if v, err := parsePositiveInt(rest[0]); err == nil {
				n = v
			}
		}
		fmt.Println(loop.h.session.Ledger().Summary(n))
		return true, nil

	case "/clear", "/c":
		loop.h.session.ClearConversation()
		fmt.Println(SuccessStyle.Render("[conversation cleared]"))
		return true, nil

	case "/quit", "/q", "/exit":
		return false, nil

	default:
		return true, fmt.Errorf("unknown command: %s (type /help for commands)", command)
	}
}

// parsePositiveInt parses a positive integer argument.
func parsePositiveInt(s string) (int, error) {
	var n int
	if _, err := fmt.Sscanf(s, "%d", &n); err != nil {
		return 0, err
	}
	if n <= 0 {
		return 0, fmt.Errorf("must be positive: %d", n)
	}
	return n, nil
}

// =============================================================================
// DISPLAY FUNCTIONS
// =============================================================================

// printWelcome prints the welcome banner.
func printWelcome(h *harness) {
	fmt.Println()
	fmt.Println(TitleStyle.Render("rigagent interactive chat"))
	fmt.Println(RenderSeparator(30))
	fmt.Printf("%s %s\n", DimStyle.Render("Model:"), ValueStyle.Render(h.model))
	fmt.Printf("%s %s\n", DimStyle.Render("Workdir:"), ValueStyle.Render(h.workDir))

	if h.cfg.Approval.ConfirmDestructive {
		mode := "prompt before destructive actions"
		if h.cfg.Approval.Elevated {
			mode += " (elevated)"
		}
		fmt.Printf("%s %s\n", DimStyle.Render("Approval:"), ValueStyle.Render(mode))
	} else {
		fmt.Printf("%s %s\n", DimStyle.Render("Approval:"), WarningStyle.Render("disabled"))
	}

	if h.tracker != nil {
		fmt.Printf("%s %s\n", DimStyle.Render("Watcher:"), ValueStyle.Render("tracking external edits"))
	}

	fmt.Println()
	fmt.Println(DimStyle.Render("Type a task and press Enter. Commands: /help, /quit"))
	fmt.Println()
}

// printChatHelp prints available slash commands.
func printChatHelp() {
	fmt.Println()
	fmt.Println(SectionStyle.Render("Available Commands"))
	fmt.Println(RenderSeparator(20))
	fmt.Println()

	commands := []struct {
		cmd  string
		desc string
	}{
		{"/help, /h", "Show this help"},
		{"/tools, /t", "List registered tools"},
		{"/undo, /u", "Undo the last reversible action"},
		{"/history [n]", "Show recent actions this session"},
		{"/clear, /c", "Clear conversation context"},
		{"/quit, /q", "Exit chat"},
	}

	for _, c := range commands {
		fmt.Printf("  %s  %s\n",
			SuccessStyle.Render(fmt.Sprintf("%-15s", c.cmd)),
			DimStyle.Render(c.desc))
	}

	fmt.Println()
	fmt.Println(DimStyle.Render("Tip: Ctrl+C cancels the current task, Ctrl+D exits"))
	fmt.Println()
}

// printTools lists the registered tools with their first description line.
// Tools behind the approval gate are marked with *.
func printTools(h *harness) {
	fmt.Println()
	fmt.Println(SectionStyle.Render("Registered Tools"))
	fmt.Println(RenderSeparator(20))

	gated := false
	for _, tool := range h.session.Registry().All() {
		desc := tool.Description()
		if idx := strings.Index(desc, "\n"); idx > 0 {
			desc = desc[:idx]
		}
		marker := " "
		if h.gate != nil && h.gate.NeedsApproval(tool.Name()) {
			marker = WarningStyle.Render("*")
			gated = true
		}
		fmt.Printf("  %s %s  %s\n",
			marker,
			ToolStyle.Render(fmt.Sprintf("%-16s", tool.Name())),
			DimStyle.Render(desc))
	}
	if gated {
		fmt.Println()
		fmt.Println(DimStyle.Render("  * requires approval"))
	}
	fmt.Println()
}

// printExitSummary prints session statistics on exit.
func printExitSummary(loop *chatLoop) {
	elapsed := time.Since(loop.start).Round(time.Second)
	actions := loop.h.session.Ledger().Len()

	fmt.Println()
	fmt.Println(SectionStyle.Render("Session Summary"))
	fmt.Println(RenderSeparator(20))
	fmt.Printf("  %s %s\n", DimStyle.Render("Duration:"), ValueStyle.Render(elapsed.String()))
	fmt.Printf("  %s %s\n", DimStyle.Render("Actions:"), ValueStyle.Render(formatNumber(actions)))
	fmt.Printf("  %s %s\n", DimStyle.Render("Session:"), ValueStyle.Render(loop.h.session.ID()))
	fmt.Println()
}
