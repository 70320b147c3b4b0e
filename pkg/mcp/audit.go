package mcp

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"
	"time"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-crm/pkg/auth"
	"github.com/ekaya-inc/ekaya-crm/pkg/logging"
	"github.com/ekaya-inc/ekaya-crm/pkg/metrics"
)

// ToolRecorder counts tool call outcomes.
type ToolRecorder interface {
	RecordToolCall(tool, result string)
}

// AuditLogger records MCP tool calls and rejected MCP requests in the
// structured log, and counts tool outcomes when a recorder is set.
type AuditLogger struct {
	recorder ToolRecorder
	logger   *zap.Logger

	// startTimes tracks when tool calls begin, keyed by request ID.
	startTimes sync.Map
}

// NewAuditLogger creates an AuditLogger. recorder may be nil.
func NewAuditLogger(recorder ToolRecorder, logger *zap.Logger) *AuditLogger {
	return &AuditLogger{
		recorder: recorder,
		logger:   logger.Named("mcp-audit"),
	}
}

// Hooks returns mcp-go Hooks configured to capture tool call events.
func (a *AuditLogger) Hooks() *server.Hooks {
	hooks := &server.Hooks{}
	hooks.AddBeforeCallTool(a.beforeCallTool)
	hooks.AddAfterCallTool(a.afterCallTool)
	hooks.AddOnError(a.onError)
	return hooks
}

func (a *AuditLogger) beforeCallTool(_ context.Context, id any, _ *mcplib.CallToolRequest) {
	a.startTimes.Store(id, time.Now())
}

func (a *AuditLogger) afterCallTool(ctx context.Context, id any, req *mcplib.CallToolRequest, result *mcplib.CallToolResult) {
	startTime, _ := a.loadAndDeleteStart(id)
	outcome := metrics.ToolSuccess
	if result != nil && result.IsError {
		outcome = metrics.ToolResultError
	}

	fields := a.eventFields(ctx, req, startTime)
	fields = append(fields, zap.String("outcome", outcome))
	if outcome == metrics.ToolResultError {
		fields = append(fields, zap.String("result", resultPreview(result)))
	}
	a.logger.Info("MCP tool call", fields...)
	a.record(req.Params.Name, outcome)
}

func (a *AuditLogger) onError(ctx context.Context, id any, method mcplib.MCPMethod, message any, err error) {
	if method != mcplib.MethodToolsCall {
		return
	}

	req, ok := message.(*mcplib.CallToolRequest)
	if !ok {
		return
	}

	startTime, _ := a.loadAndDeleteStart(id)
	fields := a.eventFields(ctx, req, startTime)
	fields = append(fields,
		zap.String("outcome", metrics.ToolFailure),
		zap.String("error", logging.SanitizeError(err)))
	a.logger.Warn("MCP tool call failed", fields...)
	a.record(req.Params.Name, metrics.ToolFailure)
}

// RecordAuthFailure logs a rejected MCP request.
func (a *AuditLogger) RecordAuthFailure(userID, reason, clientIP string) {
	a.logger.Warn("MCP authentication failed",
		zap.String("user_id", userID),
		zap.String("reason", reason),
		zap.String("client_ip", clientIP))
}

func (a *AuditLogger) record(tool, outcome string) {
	if a.recorder != nil {
		a.recorder.RecordToolCall(tool, outcome)
	}
}

func (a *AuditLogger) loadAndDeleteStart(id any) (time.Time, bool) {
	if v, ok := a.startTimes.LoadAndDelete(id); ok {
		return v.(time.Time), true
	}
	return time.Now(), false
}

func (a *AuditLogger) eventFields(ctx context.Context, req *mcplib.CallToolRequest, start time.Time) []zap.Field {
	fields := []zap.Field{
		zap.String("tool", req.Params.Name),
		zap.Int64("duration_ms", time.Since(start).Milliseconds()),
	}
	if params := sanitizeParams(req.Params.Arguments); len(params) > 0 {
		fields = append(fields, zap.Any("params", params))
	}
	if actor, ok := auth.GetActor(ctx); ok {
		fields = append(fields,
			zap.String("user_id", actor.UserID.String()),
			zap.String("role", actor.Role))
	}
	if claims, ok := auth.GetClaims(ctx); ok && claims.Email != "" {
		fields = append(fields, zap.String("user_email", claims.Email))
	}
	return fields
}

// maxParamSize is the longest string argument kept in audit entries.
const maxParamSize = 1024

var sensitiveParamFragments = []string{"password", "secret", "token", "api_key", "credential"}

// sanitizeParams sanitizes request arguments before they are logged.
// Sensitive values are hashed and long strings truncated.
func sanitizeParams(args any) map[string]any {
	params, ok := args.(map[string]any)
	if !ok || len(params) == 0 {
		return nil
	}

	sanitized := make(map[string]any, len(params))
	for k, v := range params {
		sanitized[k] = sanitizeValue(k, v)
	}
	return sanitized
}

func sanitizeValue(key string, value any) any {
	if isSensitiveParam(key) {
		return hashSensitiveValue(value)
	}

	switch val := value.(type) {
	case string:
		if len(val) > maxParamSize {
			return val[:maxParamSize] + "...[truncated]"
		}
		return val
	case map[string]any:
		return sanitizeParams(val)
	default:
		return value
	}
}

func isSensitiveParam(key string) bool {
	lower := strings.ToLower(key)
	for _, frag := range sensitiveParamFragments {
		if strings.Contains(lower, frag) {
			return true
		}
	}
	return false
}

// hashSensitiveValue returns a SHA-256 hash prefix for sensitive values,
// allowing correlation across audit entries without storing the actual value.
func hashSensitiveValue(value any) string {
	var str string
	switch v := value.(type) {
	case string:
		str = v
	default:
		str = fmt.Sprintf("%v", v)
	}
	hash := sha256.Sum256([]byte(str))
	return "sha256:" + hex.EncodeToString(hash[:8])
}

// resultPreview returns the first text content of a result, truncated.
func resultPreview(result *mcplib.CallToolResult) string {
	if result == nil {
		return ""
	}
	for _, c := range result.Content {
		if tc, ok := c.(mcplib.TextContent); ok {
			return logging.TruncateString(tc.Text, 200)
		}
	}
	return ""
}
