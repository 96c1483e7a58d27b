// Package tools implements the deterministic functions a strategy's
// backend may invoke mid-generation.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	cerrors "interview-agent/internal/common/errors"
	"interview-agent/internal/common/logger"
	"interview-agent/internal/common/metrics"

	"github.com/xeipuuv/gojsonschema"
)

// Tool is a pure, synchronous function of its typed input. Tools must be
// deterministic and side-effect-free; the executor never retries them.
type Tool interface {
	Name() string
	Description() string
	InputSchema() string
	Execute(ctx context.Context, input json.RawMessage) (interface{}, error)
}

// Spec is the wire-level declaration of a tool passed to the generation
// backend.
type Spec struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  json.RawMessage `json:"parameters"`
}

// Registry is the capability table a strategy exposes per generation call.
// The router never calls tools directly, only declares which are available.
type Registry struct {
	tools   map[string]Tool
	schemas map[string]*gojsonschema.Schema
	logger  logger.Logger
}

func NewRegistry(log logger.Logger, tools ...Tool) (*Registry, error) {
	r := &Registry{
		tools:   make(map[string]Tool, len(tools)),
		schemas: make(map[string]*gojsonschema.Schema, len(tools)),
		logger:  log.With(map[string]interface{}{"component": "tools"}),
	}
	for _, t := range tools {
		schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(t.InputSchema()))
		if err != nil {
			return nil, fmt.Errorf("compile schema for tool %s: %w", t.Name(), err)
		}
		r.tools[t.Name()] = t
		r.schemas[t.Name()] = schema
	}
	return r, nil
}

// Names returns the registered tool names in stable order.
func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.tools))
	for name := range r.tools {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Specs returns the wire declarations for the named tools. Unknown names
// are skipped; a strategy exposing no tools gets an empty slice.
func (r *Registry) Specs(active []string) []Spec {
	out := make([]Spec, 0, len(active))
	for _, name := range active {
		t, ok := r.tools[name]
		if !ok {
			continue
		}
		out = append(out, Spec{
			Name:        t.Name(),
			Description: t.Description(),
			Parameters:  json.RawMessage(t.InputSchema()),
		})
	}
	return out
}

// Execute validates the input against the tool's schema and runs it once.
func (r *Registry) Execute(ctx context.Context, name string, input json.RawMessage) (interface{}, error) {
	t, ok := r.tools[name]
	if !ok {
		metrics.ToolInvocations.WithLabelValues(name, "unknown").Inc()
		return nil, cerrors.NewToolValidationError(name, "unknown tool")
	}

	result, err := r.schemas[name].Validate(gojsonschema.NewBytesLoader(input))
	if err != nil {
		metrics.ToolInvocations.WithLabelValues(name, "invalid").Inc()
		return nil, cerrors.NewToolValidationError(name, err.Error())
	}
	if !result.Valid() {
		details := ""
		for i, desc := range result.Errors() {
			if i > 0 {
				details += "; "
			}
			details += desc.String()
		}
		metrics.ToolInvocations.WithLabelValues(name, "invalid").Inc()
		return nil, cerrors.NewToolValidationError(name, details)
	}

	out, err := t.Execute(ctx, input)
	if err != nil {
		metrics.ToolInvocations.WithLabelValues(name, "error").Inc()
		r.logger.Error("tool execution failed", map[string]interface{}{
			"tool":  name,
			"error": err.Error(),
		})
		return nil, cerrors.NewToolExecutionError(name, err)
	}

	metrics.ToolInvocations.WithLabelValues(name, "ok").Inc()
	return out, nil
}
