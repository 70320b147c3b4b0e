package handlers

import (
	"net"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-crm/pkg/audit"
	"github.com/ekaya-inc/ekaya-crm/pkg/sql"
)

// SearchGuard rejects list searches that look like SQL injection and records
// them as security events.
type SearchGuard struct {
	auditor *audit.SecurityAuditor
	logger  *zap.Logger
}

// NewSearchGuard creates a SearchGuard. A nil *SearchGuard lets every search
// through.
func NewSearchGuard(auditor *audit.SecurityAuditor, logger *zap.Logger) *SearchGuard {
	return &SearchGuard{auditor: auditor, logger: logger}
}

// Screen returns false, after writing a 400 invalid_search response, when
// term is flagged. resource names the list being searched.
func (g *SearchGuard) Screen(w http.ResponseWriter, r *http.Request, resource, term string) bool {
	if g == nil {
		return true
	}
	result := sql.CheckParameterForInjection("q", term)
	if result == nil {
		return true
	}

	if g.auditor != nil {
		g.auditor.LogInjectionAttempt(r.Context(), resource, audit.SQLInjectionDetails{
			ParamName:   result.ParamName,
			ParamValue:  result.ParamValue,
			Fingerprint: result.Fingerprint,
		}, clientIP(r))
	}
	if err := FieldErrorResponse(w, http.StatusBadRequest, "invalid_search", "Search term contains disallowed patterns", "q"); err != nil {
		g.logger.Error("Failed to write error response", zap.Error(err))
	}
	return false
}

// clientIP returns the first X-Forwarded-For hop, else the remote host.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		return strings.TrimSpace(first)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
