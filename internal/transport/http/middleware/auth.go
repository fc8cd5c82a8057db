package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-auth-api/internal/domain"
	jwtinfra "github.com/go-auth-api/internal/infrastructure/jwt"
	"github.com/golang-jwt/jwt/v5"
)

type contextKey string

const authContextKey contextKey = "auth"

// AuthContext is the per-request identity attached by the gate. Only the gate
// constructs it; handlers read it via FromContext.
type AuthContext struct {
	Claims    *jwtinfra.Claims
	User      *domain.User
	IP        string
	UserAgent string
	StartedAt time.Time
}

type tokenVerifier interface {
	Verify(class jwtinfra.Class, tokenStr string) (*jwtinfra.Claims, error)
}

type userLoader interface {
	Get(ctx context.Context, userID string) (*domain.User, error)
}

type revocationChecker interface {
	IsRevoked(token string) bool
}

// Gate authenticates requests: it checks the bearer token's format,
// revocation state, signature, payload, age and the account's standing, in
// that order, and emits a severity-tiered audit record for every rejection.
type Gate struct {
	tokens      tokenVerifier
	users       userLoader
	revocations revocationChecker
	maxTokenAge time.Duration
	now         func() time.Time
	logger      *slog.Logger
}

type GateDeps struct {
	Tokens      tokenVerifier
	Users       userLoader
	Revocations revocationChecker
	MaxTokenAge time.Duration
	Now         func() time.Time // nil means time.Now
	Logger      *slog.Logger     // nil means slog.Default
}

func NewGate(deps GateDeps) *Gate {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	maxAge := deps.MaxTokenAge
	if maxAge <= 0 {
		maxAge = 24 * time.Hour
	}
	return &Gate{
		tokens:      deps.Tokens,
		users:       deps.Users,
		revocations: deps.Revocations,
		maxTokenAge: maxAge,
		now:         now,
		logger:      logger,
	}
}

// Auth admits only requests carrying a valid, fresh, non-revoked access token
// belonging to an account in good standing. An empty allowedRoles set admits
// any authenticated user; otherwise the account's role must be in the set.
func (g *Gate) Auth(allowedRoles ...domain.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ac, ok := g.authenticate(w, r, allowedRoles)
			if !ok {
				return
			}
			next.ServeHTTP(w, r.WithContext(withAuth(r.Context(), ac)))
		})
	}
}

// OptionalAuth admits anonymous requests untouched; a request that does carry
// a token goes through the same checks as Auth.
func (g *Gate) OptionalAuth(allowedRoles ...domain.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") == "" {
				next.ServeHTTP(w, r)
				return
			}
			ac, ok := g.authenticate(w, r, allowedRoles)
			if !ok {
				return
			}
			next.ServeHTTP(w, r.WithContext(withAuth(r.Context(), ac)))
		})
	}
}

// ResetAuth admits requests carrying a reset-class token. Only the subject id
// is required of the payload; the account must still exist and not be
// deleted.
func (g *Gate) ResetAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			g.audit(r, severityLow, "reset_missing_token", "", "")
			writeJSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing or malformed authorization header")
			return
		}
		claims, err := g.tokens.Verify(jwtinfra.ClassReset, token)
		if err != nil {
			g.audit(r, severityMedium, "reset_invalid_token", "", "")
			writeJSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid or expired reset token")
			return
		}
		if claims.UserID == "" {
			g.audit(r, severityMedium, "reset_malformed_payload", "", "")
			writeJSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid reset token payload")
			return
		}
		u, err := g.users.Get(r.Context(), claims.UserID)
		if err != nil {
			g.audit(r, severityCritical, "reset_unknown_account", claims.UserID, "")
			writeJSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "account no longer exists")
			return
		}
		if u.IsDeleted {
			g.audit(r, severityCritical, "reset_deleted_account", u.UserID, u.Email)
			writeJSONError(w, http.StatusForbidden, "FORBIDDEN", "account no longer exists")
			return
		}
		ac := g.newAuthContext(r, claims, u)
		next.ServeHTTP(w, r.WithContext(withAuth(r.Context(), ac)))
	})
}

// authenticate runs the full check sequence and writes the rejection itself.
// Order is fixed: header format, revocation, signature, payload shape, token
// age, account existence, deletion, status, role.
func (g *Gate) authenticate(w http.ResponseWriter, r *http.Request, allowedRoles []domain.Role) (*AuthContext, bool) {
	token, ok := bearerToken(r)
	if !ok {
		g.audit(r, severityLow, "missing_token", "", "")
		writeJSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing or malformed authorization header")
		return nil, false
	}

	if g.revocations != nil && g.revocations.IsRevoked(token) {
		g.audit(r, severityHigh, "revoked_token_reuse", "", "")
		writeJSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "token has been revoked")
		return nil, false
	}

	claims, err := g.tokens.Verify(jwtinfra.ClassAccess, token)
	if err != nil {
		if isExpired(err) {
			g.audit(r, severityHigh, "expired_token", "", "")
		} else {
			g.audit(r, severityMedium, "invalid_token", "", "")
		}
		writeJSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid or expired token")
		return nil, false
	}

	if claims.UserID == "" || claims.Email == "" {
		g.audit(r, severityMedium, "malformed_payload", claims.UserID, claims.Email)
		writeJSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid token payload")
		return nil, false
	}

	// A token with no iat claim has unknowable age and is treated as stale.
	if claims.IssuedAt == nil || g.now().Sub(claims.IssuedAt.Time) > g.maxTokenAge {
		g.audit(r, severityHigh, "stale_token", claims.UserID, claims.Email)
		writeJSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "token is too old, please log in again")
		return nil, false
	}

	u, err := g.users.Get(r.Context(), claims.UserID)
	if err != nil {
		g.audit(r, severityCritical, "unknown_account", claims.UserID, claims.Email)
		writeJSONError(w, http.StatusNotFound, "NOT_FOUND", "user not found")
		return nil, false
	}
	if u.IsDeleted {
		g.audit(r, severityCritical, "deleted_account_access", u.UserID, u.Email)
		writeJSONError(w, http.StatusForbidden, "FORBIDDEN", "account no longer exists")
		return nil, false
	}

	switch u.Status {
	case domain.StatusBlocked:
		g.audit(r, severityCritical, "blocked_account_access", u.UserID, u.Email)
		writeJSONError(w, http.StatusForbidden, "FORBIDDEN", "account is blocked")
		return nil, false
	case domain.StatusInactive:
		g.audit(r, severityLow, "inactive_account_access", u.UserID, u.Email)
		writeJSONError(w, http.StatusBadRequest, "BAD_REQUEST", "account is inactive")
		return nil, false
	case domain.StatusPending:
		g.audit(r, severityLow, "pending_account_access", u.UserID, u.Email)
		writeJSONError(w, http.StatusBadRequest, "BAD_REQUEST", "account is pending verification")
		return nil, false
	}

	if len(allowedRoles) > 0 && !roleAllowed(u.Role, allowedRoles) {
		g.audit(r, severityMedium, "insufficient_permissions", u.UserID, u.Email)
		writeJSONError(w, http.StatusForbidden, "FORBIDDEN", "insufficient permissions")
		return nil, false
	}

	return g.newAuthContext(r, claims, u), true
}

func (g *Gate) newAuthContext(r *http.Request, claims *jwtinfra.Claims, u *domain.User) *AuthContext {
	return &AuthContext{
		Claims:    claims,
		User:      u,
		IP:        realIP(r),
		UserAgent: r.UserAgent(),
		StartedAt: g.now(),
	}
}

func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	if !strings.HasPrefix(h, "Bearer ") {
		return "", false
	}
	token := strings.TrimPrefix(h, "Bearer ")
	if token == "" {
		return "", false
	}
	return token, true
}

func roleAllowed(role domain.Role, allowed []domain.Role) bool {
	for _, a := range allowed {
		if role == a {
			return true
		}
	}
	return false
}

func isExpired(err error) bool {
	return errors.Is(err, jwt.ErrTokenExpired)
}

func withAuth(ctx context.Context, ac *AuthContext) context.Context {
	return context.WithValue(ctx, authContextKey, ac)
}

// FromContext returns the identity the gate attached, if any.
func FromContext(ctx context.Context) (*AuthContext, bool) {
	ac, ok := ctx.Value(authContextKey).(*AuthContext)
	return ac, ok
}
