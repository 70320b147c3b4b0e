// Package audit provides security audit logging for SIEM consumption.
// It logs security-relevant events in structured JSON format for easy parsing
// and integration with security information and event management systems.
package audit

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-crm/pkg/auth"
	"github.com/ekaya-inc/ekaya-crm/pkg/logging"
)

// SecurityEventType categorizes security-relevant events for filtering and alerting.
type SecurityEventType string

const (
	// EventSQLInjectionAttempt is logged when libinjection flags a search term.
	EventSQLInjectionAttempt SecurityEventType = "sql_injection_attempt"
	// EventBatchRejected is logged when an admin batch import fails validation.
	EventBatchRejected SecurityEventType = "batch_rejected"
)

// SecurityEvent represents an auditable security event with all relevant context
// for SIEM ingestion and analysis.
type SecurityEvent struct {
	Timestamp time.Time         `json:"timestamp"`
	EventType SecurityEventType `json:"event_type"`
	Resource  string            `json:"resource"`
	UserID    string            `json:"user_id,omitempty"`
	ClientIP  string            `json:"client_ip,omitempty"`
	Details   any               `json:"details"`
	Severity  string            `json:"severity"` // info, warning, critical
}

// SQLInjectionDetails contains specifics of a flagged search term.
type SQLInjectionDetails struct {
	ParamName   string `json:"param_name"`
	ParamValue  string `json:"param_value"`
	Fingerprint string `json:"fingerprint"` // libinjection fingerprint for pattern analysis
}

// SecurityAuditor logs security events for SIEM consumption.
type SecurityAuditor struct {
	logger *zap.Logger
}

// NewSecurityAuditor creates a new security auditor with a dedicated logger namespace.
func NewSecurityAuditor(logger *zap.Logger) *SecurityAuditor {
	return &SecurityAuditor{logger: logger.Named("security_audit")}
}

func userIDFromContext(ctx context.Context) string {
	if id, ok := auth.GetUserID(ctx); ok {
		return id.String()
	}
	return ""
}

// LogInjectionAttempt records a search term flagged by libinjection.
// This is logged at ERROR level with "critical" severity for immediate alerting.
// The value is truncated and stripped of control characters before logging.
func (a *SecurityAuditor) LogInjectionAttempt(
	ctx context.Context,
	resource string,
	details SQLInjectionDetails,
	clientIP string,
) {
	userID := userIDFromContext(ctx)
	details.ParamValue = logging.SanitizeSearchTerm(details.ParamValue)

	event := SecurityEvent{
		Timestamp: time.Now().UTC(),
		EventType: EventSQLInjectionAttempt,
		Resource:  resource,
		UserID:    userID,
		ClientIP:  clientIP,
		Details:   details,
		Severity:  "critical",
	}

	// Ignoring error as marshaling known types should never fail
	eventJSON, _ := json.Marshal(event)

	a.logger.Error("SQL injection attempt detected",
		zap.String("event_json", string(eventJSON)),
		zap.String("resource", resource),
		zap.String("param_name", details.ParamName),
		zap.String("fingerprint", details.Fingerprint),
		zap.String("client_ip", clientIP),
		zap.String("user_id", userID),
		zap.String("severity", "critical"),
	)
}

// LogBatchRejected records an admin batch that failed validation.
// This is logged at WARN level as these are typically data errors, not attacks.
func (a *SecurityAuditor) LogBatchRejected(
	ctx context.Context,
	resource string,
	size int,
	errorMessage string,
	clientIP string,
) {
	userID := userIDFromContext(ctx)

	event := SecurityEvent{
		Timestamp: time.Now().UTC(),
		EventType: EventBatchRejected,
		Resource:  resource,
		UserID:    userID,
		ClientIP:  clientIP,
		Details: map[string]any{
			"batch_size": size,
			"error":      errorMessage,
		},
		Severity: "warning",
	}

	eventJSON, _ := json.Marshal(event)

	a.logger.Warn("Batch rejected",
		zap.String("event_json", string(eventJSON)),
		zap.String("resource", resource),
		zap.Int("batch_size", size),
		zap.String("error", errorMessage),
		zap.String("client_ip", clientIP),
		zap.String("user_id", userID),
		zap.String("severity", "warning"),
	)
}
