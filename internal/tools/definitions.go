// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package tools provides the agentic tool system for rigagent.
// TOOLS: Proper timeout, validation, and resource cleanup
// All tools implement proper context handling with timeouts, argument
// validation, and resource cleanup using defer.
package tools

import (
	"context"
	"strings"
)

// =============================================================================
// TOOL INTERFACE
// =============================================================================

// Tool is implemented by every executable tool. Execution is uniform: a tool
// receives typed arguments plus the working directory it is confined to, and
// reports its outcome as a Result. Tools never return Go errors to the
// caller; failures are Results with Succeeded=false so dispatch stays total.
type Tool interface {
	// Name is the tool identifier the model calls it by (e.g. "write_file").
	Name() string

	// Description explains what the tool does. The first line is used in the
	// system prompt tool catalogue.
	Description() string

	// Parameters describes the tool's arguments for the catalogue.
	Parameters() []Parameter

	// Execute runs the tool. Implementations must not panic and must not
	// touch the filesystem outside workDir.
	Execute(ctx context.Context, args Args, workDir string) Result
}

// Parameter describes a single tool argument.
type Parameter struct {
	// Name of the parameter
	Name string

	// Type is the parameter type ("string", "number", "boolean")
	Type string

	// Required indicates if the parameter must be provided
	Required bool

	// Description explains the parameter
	Description string
}

// Result holds the outcome of a tool execution. Output carries either the
// tool's product or, when Succeeded is false, the failure message shown to
// the model.
type Result struct {
	Succeeded bool
	Output    string
}

// Failure builds a failed Result from a message.
func Failure(msg string) Result {
	return Result{Succeeded: false, Output: msg}
}

// Success builds a successful Result from an output string.
func Success(output string) Result {
	return Result{Succeeded: true, Output: output}
}

// ShortDescription returns the first line of a tool's description, used in
// the system prompt catalogue.
func ShortDescription(t Tool) string {
	desc := t.Description()
	if idx := strings.Index(desc, "\n"); idx != -1 {
		return desc[:idx]
	}
	return desc
}

// =============================================================================
// TOOL REGISTRY
// =============================================================================

// Registry holds all available tools keyed by name. Registration happens
// once during setup; after that the registry is read-only, so no locking
// is needed.
type Registry struct {
	tools map[string]Tool

	// names preserves registration order so the tool catalogue in the
	// system prompt is stable across runs.
	names []string
}

// NewRegistry creates an empty tool registry.
func NewRegistry() *Registry {
	return &Registry{
		tools: make(map[string]Tool),
	}
}

// NewDefaultRegistry creates a registry with all built-in tools registered.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	r.RegisterBuiltins()
	return r
}

// RegisterBuiltins registers all built-in tools with their defaults.
func (r *Registry) RegisterBuiltins() {
	r.Register(&ReadFileTool{})
	r.Register(&WriteFileTool{})
	r.Register(&DeleteFileTool{})
	r.Register(&ListFilesTool{})
	r.Register(&RunShellTool{})
	r.Register(&InstallPackageTool{})
	r.Register(&RemovePackageTool{})
}

// Register adds a tool to the registry. Re-registering a name replaces the
// previous tool but keeps its catalogue position.
func (r *Registry) Register(t Tool) {
	name := t.Name()
	if _, exists := r.tools[name]; !exists {
		r.names = append(r.names, name)
	}
	r.tools[name] = t
}

// Get retrieves a tool by name, or nil if not registered.
func (r *Registry) Get(name string) Tool {
	return r.tools[name]
}

// Has reports whether a tool is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.tools[name]
	return ok
}

// All returns all registered tools in registration order.
func (r *Registry) All() []Tool {
	result := make([]Tool, 0, len(r.names))
	for _, name := range r.names {
		result = append(result, r.tools[name])
	}
	return result
}

// Names returns all registered tool names in registration order.
func (r *Registry) Names() []string {
	result := make([]string, len(r.names))
	copy(result, r.names)
	return result
}

// =============================================================================
// DISPATCH
// =============================================================================

// Execute dispatches a call to the named tool. Dispatch is total: an
// unregistered name yields a failed Result, never an error, so the
// orchestration loop can surface it to the model and continue.
func (r *Registry) Execute(ctx context.Context, name string, args Args, workDir string) Result {
	tool := r.Get(name)
	if tool == nil {
		return Failure("unknown tool: " + name)
	}
	return tool.Execute(ctx, args, workDir)
}
