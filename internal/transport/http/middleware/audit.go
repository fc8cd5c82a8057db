package middleware

import (
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Severity tiers for security audit records. Critical events indicate access
// attempts against deleted, blocked or nonexistent accounts; high covers
// reuse of revoked, expired or stale tokens; medium covers malformed tokens
// and insufficient permissions; low covers everything else.
const (
	severityCritical = "critical"
	severityHigh     = "high"
	severityMedium   = "medium"
	severityLow      = "low"
)

// audit emits one structured security record per gate rejection.
func (g *Gate) audit(r *http.Request, severity, event, userID, email string) {
	attrs := []any{
		"audit_id", uuid.NewString(),
		"event", event,
		"severity", severity,
		"ts", time.Now().UTC().Format(time.RFC3339),
		"ip", realIP(r),
		"user_agent", r.UserAgent(),
		"method", r.Method,
		"path", r.URL.Path,
	}
	if userID != "" {
		attrs = append(attrs, "user_id", userID)
	}
	if email != "" {
		attrs = append(attrs, "email", email)
	}
	switch severity {
	case severityCritical, severityHigh:
		g.logger.Warn("security event", attrs...)
	default:
		g.logger.Info("security event", attrs...)
	}
}

// realIP resolves the client address behind common proxy headers.
func realIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if i := strings.IndexByte(xff, ','); i >= 0 {
			return strings.TrimSpace(xff[:i])
		}
		return strings.TrimSpace(xff)
	}
	if xr := r.Header.Get("X-Real-IP"); xr != "" {
		return xr
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
