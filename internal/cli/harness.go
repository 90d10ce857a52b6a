// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// harness.go - Assembles the full agent stack for CLI commands.
//
// Both chat and run need the same wiring: config, Ollama client, tool
// registry, approval gate, ledger, workspace tracker, history store, and
// the session that ties them together. buildHarness does it once.

package cli

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/jeranaias/rigagent/internal/agent"
	"github.com/jeranaias/rigagent/internal/approve"
	"github.com/jeranaias/rigagent/internal/config"
	"github.com/jeranaias/rigagent/internal/history"
	"github.com/jeranaias/rigagent/internal/ledger"
	"github.com/jeranaias/rigagent/internal/ollama"
	"github.com/jeranaias/rigagent/internal/parse"
	"github.com/jeranaias/rigagent/internal/tools"
	"github.com/jeranaias/rigagent/internal/util"
	"github.com/jeranaias/rigagent/internal/workspace"
)

// startupCheckTimeout bounds the initial Ollama health check.
const startupCheckTimeout = 5 * time.Second

// harness bundles everything a command needs to run the agent.
type harness struct {
	cfg     *config.Config
	client  *ollama.Client
	session *agent.Session
	prompt  *approvalPrompt
	gate    *approve.Gate      // nil when approval is disabled
	store   *history.Store     // nil when history is disabled
	tracker *workspace.Tracker // nil when watching is disabled
	model   string
	workDir string
	quiet   bool
	verbose bool
}

// buildHarness wires the agent stack from global config plus CLI overrides.
// Callers must Close the harness when done.
func buildHarness(args Args) (*harness, error) {
	cfg := config.Global().Clone()

	// CLI flags override config
	if args.Model != "" {
		cfg.Ollama.Model = args.Model
	}
	if args.Root != "" {
		cfg.Agent.Root = args.Root
	}
	if args.MaxIter > 0 {
		cfg.Agent.MaxIterations = args.MaxIter
	}

	ConfigureColors(cfg.CLI.Color)

	workDir, err := cfg.RootDir()
	if err != nil {
		return nil, NewConfigError("cannot resolve working directory", err)
	}
	if info, err := os.Stat(workDir); err != nil || !info.IsDir() {
		return nil, NewConfigError(fmt.Sprintf("working directory %s is not usable", workDir), err)
	}

	h := &harness{
		cfg:     cfg,
		model:   cfg.Ollama.Model,
		workDir: workDir,
		quiet:   args.Quiet,
		verbose: args.Verbose,
	}

	h.client = ollama.NewClientWithConfig(&ollama.ClientConfig{
		BaseURL:      cfg.Ollama.URL,
		Timeout:      cfg.RequestTimeout(),
		DefaultModel: cfg.Ollama.Model,
	})

	if err := h.checkBackend(); err != nil {
		return nil, err
	}

	registry := tools.NewDefaultRegistry()

	classifier := approve.NewClassifier()
	for _, name := range cfg.Approval.DestructiveTools {
		classifier.Mark(name)
	}
	for _, name := range cfg.Approval.SafeTools {
		classifier.Unmark(name)
	}

	elevation, err := buildElevation(cfg)
	if err != nil {
		return nil, err
	}
	h.prompt = newApprovalPrompt(elevation, args.Yes, args.Quiet, workDir)

	var gate *approve.Gate
	if cfg.Approval.ConfirmDestructive {
		gate = approve.NewGate(classifier)
		gate.SetApprovalFunc(h.prompt.Confirm)
	}
	h.gate = gate

	led := ledger.New()

	// RELIABILITY: watcher and history failures degrade features, never
	// block the agent.
	if cfg.Workspace.Watch {
		tracker, err := workspace.New(workDir, cfg.Debounce())
		if err == nil {
			err = tracker.Watch()
		}
		if err != nil {
			h.warnf("workspace watching disabled: %v", err)
			tracker = nil
		} else {
			led.SetStalenessCheck(tracker.ChangedSince)
		}
		h.tracker = tracker
	}

	if cfg.History.Enabled {
		path, err := cfg.HistoryPath()
		if err == nil {
			var store *history.Store
			store, err = history.Open(path, cfg.History.MaxRows)
			h.store = store
		}
		if err != nil {
			h.warnf("action history disabled: %v", err)
			h.store = nil
		}
	}

	session, err := agent.NewSession(agent.Options{
		Registry:      registry,
		Complete:      h.complete,
		Gate:          gate,
		Ledger:        led,
		Events:        h.buildEvents(),
		Observer:      h.observeAction,
		WorkDir:       workDir,
		MaxIterations: cfg.Agent.MaxIterations,
		LLMTimeout:    cfg.LLMTimeout(),
		MaxTokens:     cfg.Agent.MaxTokens,
		MaxToolOutput: cfg.Agent.MaxToolOutputBytes,
	})
	if err != nil {
		return nil, err
	}
	h.session = session

	return h, nil
}

// Close releases the watcher and history store.
func (h *harness) Close() {
	if h.tracker != nil {
		h.tracker.Close()
	}
	if h.store != nil {
		h.store.Close()
	}
}

// checkBackend verifies Ollama is reachable and the model looks available.
func (h *harness) checkBackend() error {
	ctx, cancel := context.WithTimeout(context.Background(), startupCheckTimeout)
	defer cancel()

	err := h.client.CheckRunning(ctx)
	if err != nil && h.cfg.Ollama.AutoStart {
		h.warnf("ollama not responding, attempting to start it")
		err = h.client.EnsureRunning(ctx)
	}
	if err != nil {
		return err
	}

	// Missing model is a warning, not an error: the model list can lag,
	// and the first chat call reports the definitive failure.
	if !h.client.ModelExists(ctx, h.model) {
		h.warnf("model %s not found locally; pull it with: ollama pull %s", h.model, h.model)
	}
	return nil
}

// buildElevation constructs the second-factor verifier from config.
// Returns nil when elevation is disabled.
func buildElevation(cfg *config.Config) (*approve.Elevation, error) {
	if !cfg.Approval.Elevated {
		return nil, nil
	}

	elevation := approve.NewElevation()
	if cfg.Approval.TOTPSecret != "" {
		elevation.SetTOTPSecret(cfg.Approval.TOTPSecret)
	}
	if cfg.Approval.PINHash != "" {
		hash, err := hex.DecodeString(cfg.Approval.PINHash)
		if err != nil {
			return nil, NewConfigError("invalid approval.pin_hash", err)
		}
		salt, err := hex.DecodeString(cfg.Approval.PINSalt)
		if err != nil {
			return nil, NewConfigError("invalid approval.pin_salt", err)
		}
		elevation.LoadPIN(hash, salt)
	}
	return elevation, nil
}

// complete adapts the Ollama chat API to the agent's completion contract.
// The session enforces its own deadline; the context here is the transport
// backstop so a wedged connection cannot outlive the process.
func (h *harness) complete(messages []agent.Message, maxTokens int) agent.Completion {
	ctx, cancel := context.WithTimeout(context.Background(), h.cfg.RequestTimeout())
	defer cancel()

	converted := make([]ollama.Message, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case agent.RoleSystem:
			converted = append(converted, ollama.NewSystemMessage(m.Content))
		case agent.RoleAssistant:
			converted = append(converted, ollama.NewAssistantMessage(m.Content))
		default:
			converted = append(converted, ollama.NewUserMessage(m.Content))
		}
	}

	opts := &ollama.Options{
		Temperature: h.cfg.Ollama.Temperature,
		NumCtx:      h.cfg.Ollama.NumCtx,
		NumPredict:  maxTokens,
	}

	resp, err := h.client.Chat(ctx, h.model, converted, opts)
	if err != nil {
		return agent.Completion{Err: err}
	}
	return agent.Completion{Succeeded: true, Content: resp.Message.Content}
}

// buildEvents wires loop progress onto stderr. Final answers are printed
// by the command itself, not here.
func (h *harness) buildEvents() *agent.Events {
	return &agent.Events{
		OnThinking: func(iteration int) {
			if h.verbose {
				fmt.Fprintf(os.Stderr, "%s iteration %d\n", DimStyle.Render("[think]"), iteration)
			}
		},
		OnApprovalRequest: func(name string, args tools.Args) {
			h.prompt.NoteRequest(name, args)
		},
		OnToolExecuting: func(name string) {
			if !h.quiet {
				fmt.Fprintf(os.Stderr, "%s %s\n", ToolStyle.Render("[tool]"), name)
			}
		},
		OnToolResult: func(result tools.Result) {
			if h.verbose {
				tag := SuccessStyle.Render("[ok]")
				if !result.Succeeded {
					tag = ErrorStyle.Render("[err]")
				}
				fmt.Fprintf(os.Stderr, "%s %s\n", tag, util.TruncateRunes(result.Output, 200))
			}
		},
		OnError: func(text string) {
			fmt.Fprintf(os.Stderr, "%s %s\n", ErrorStyle.Render("[error]"), text)
		},
	}
}

// observeAction persists each executed action and marks the agent's own
// file changes so the workspace tracker does not report them as external.
func (h *harness) observeAction(rec ledger.ActionRecord, strategy parse.Strategy, duration time.Duration) {
	if h.tracker != nil && rec.Succeeded {
		if abs := recordAbsPath(rec, h.workDir); abs != "" {
			h.tracker.MarkSelf(abs)
		}
	}

	if h.store == nil {
		return
	}

	argsJSON, err := json.Marshal(rec.Args)
	if err != nil {
		argsJSON = []byte("{}")
	}
	entry := history.Entry{
		ID:        rec.ID,
		SessionID: h.session.ID(),
		Tool:      rec.ToolName,
		ArgsJSON:  string(argsJSON),
		Output:    rec.ResultOutput,
		Succeeded: rec.Succeeded,
		Strategy:  strategy.String(),
		Duration:  duration,
		CreatedAt: rec.Timestamp,
	}
	if err := h.store.Record(entry); err != nil {
		h.warnf("history write failed: %v", err)
	}
}

// recordAbsPath extracts the absolute filesystem path an action touched,
// or empty when the action did not modify a file.
func recordAbsPath(rec ledger.ActionRecord, workDir string) string {
	switch rec.ToolName {
	case "write_file", "delete_file":
	default:
		return ""
	}

	if rec.Undo != nil && rec.Undo.AbsPath != "" {
		return rec.Undo.AbsPath
	}

	path := rec.Args.GetString("path", "")
	if path == "" {
		return ""
	}
	abs, err := tools.ResolvePath(workDir, path)
	if err != nil {
		return ""
	}
	return abs
}

// warnf prints a warning to stderr unless quiet.
func (h *harness) warnf(format string, args ...interface{}) {
	if h.quiet {
		return
	}
	fmt.Fprintf(os.Stderr, "%s %s\n", WarningStyle.Render("[warn]"), fmt.Sprintf(format, args...))
}
