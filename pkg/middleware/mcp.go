package middleware

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const methodToolsCall = "tools/call"

// MCPToolCallMiddleware creates MCP protocol-level middleware that tags
// every tools/call request with a CallContext and logs its outcome.
// Other methods pass through untouched.
func MCPToolCallMiddleware(logger *slog.Logger) mcp.Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next mcp.MethodHandler) mcp.MethodHandler {
		return func(ctx context.Context, method string, req mcp.Request) (mcp.Result, error) {
			if method != methodToolsCall {
				return next(ctx, method, req)
			}

			toolName, err := extractToolName(req)
			if err != nil {
				logger.Warn("rejecting tool call", "error", err)
				return createErrorResult("invalid request: " + err.Error()), nil
			}

			cc := NewCallContext(uuid.NewString(), toolName)
			ctx = WithCallContext(ctx, cc)

			result, err := next(ctx, method, req)

			cc.Duration = time.Since(cc.StartTime)
			cc.Success = err == nil && !isErrorResult(result)
			logCall(ctx, logger, cc, err)

			return result, err
		}
	}
}

func logCall(ctx context.Context, logger *slog.Logger, cc *CallContext, err error) {
	attrs := []any{
		"tool", cc.ToolName,
		"request_id", cc.RequestID,
		"duration_ms", cc.Duration.Milliseconds(),
		"success", cc.Success,
	}
	if err != nil {
		attrs = append(attrs, "error", err)
	}
	if !cc.Success {
		logger.ErrorContext(ctx, "tool call failed", attrs...)
		return
	}
	logger.InfoContext(ctx, "tool call", attrs...)
}

// extractToolName extracts the tool name from a tools/call request.
func extractToolName(req mcp.Request) (string, error) {
	if req == nil {
		return "", errors.New("missing params")
	}
	params := req.GetParams()
	if params == nil {
		return "", errors.New("missing params")
	}

	callParams, ok := params.(*mcp.CallToolParamsRaw)
	if !ok || callParams == nil {
		return "", errors.New("missing params")
	}
	if callParams.Name == "" {
		return "", errors.New("missing tool name")
	}
	return callParams.Name, nil
}

func isErrorResult(result mcp.Result) bool {
	r, ok := result.(*mcp.CallToolResult)
	return ok && r != nil && r.IsError
}

// createErrorResult creates an MCP tool error result.
func createErrorResult(errMsg string) mcp.Result {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{
			&mcp.TextContent{Text: errMsg},
		},
	}
}
