// Package middleware provides MCP protocol-level middleware for tool calls.
package middleware

import (
	"context"
	"time"
)

// contextKey is a private type for context keys.
type contextKey int

const callContextKey contextKey = iota

// CallContext describes the tool call being served.
type CallContext struct {
	RequestID string
	ToolName  string
	StartTime time.Time

	// Populated after the handler returns.
	Success  bool
	Duration time.Duration
}

// NewCallContext creates a call context starting now.
func NewCallContext(requestID, toolName string) *CallContext {
	return &CallContext{
		RequestID: requestID,
		ToolName:  toolName,
		StartTime: time.Now(),
	}
}

// WithCallContext adds a call context to ctx.
func WithCallContext(ctx context.Context, cc *CallContext) context.Context {
	return context.WithValue(ctx, callContextKey, cc)
}

// GetCallContext retrieves the call context from ctx, or nil.
func GetCallContext(ctx context.Context) *CallContext {
	if cc, ok := ctx.Value(callContextKey).(*CallContext); ok {
		return cc
	}
	return nil
}
