// Package mathsteps factors polynomial-like expressions step by step.
//
// The entry point pulls every factor shared by all terms of a sum out in
// front of it and records each rewrite, so that a caller can show how
// 2*x + 4*x^2 became 2*x*(1 + 2*x):
//
//	s, err := mathsteps.Isolate("2*x + 4*x^2")
//	fmt.Println(s.After) // 2*x*(1 + 2*x)
//	for _, sub := range s.Substeps {
//		fmt.Println(sub.Change, sub)
//	}
//
// The same operations are exposed as JSON tool calls through
// HandleToolCall, for use from an MCP server or an agent framework.
package mathsteps

import (
	"fmt"

	"github.com/florisdf/mathsteps/expr"
	"github.com/florisdf/mathsteps/isolate"
	"github.com/florisdf/mathsteps/step"
)

// Version is the module version reported by the tool schema.
const Version = "0.3.0"

// ============================================================
// Isolation
// ============================================================

// IsolateCommonFactors runs the default pipeline on n. The result is the
// no-change sentinel when nothing could be pulled out.
func IsolateCommonFactors(n expr.Node) *step.Step {
	return isolate.IsolateCommonFactors(n)
}

// Isolate parses text and runs the default pipeline on it.
func Isolate(text string) (*step.Step, error) {
	return IsolateWith(isolate.New(), text)
}

// IsolateWith parses text and runs p on it.
func IsolateWith(p *isolate.Pipeline, text string) (*step.Step, error) {
	n, err := expr.Parse(text)
	if err != nil {
		return nil, fmt.Errorf("parse %q: %w", text, err)
	}
	return p.IsolateCommonFactors(n), nil
}
