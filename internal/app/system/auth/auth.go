package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
	"go.uber.org/zap"
)

/*─────────────────────────────────────────────────────────────────────────────*
| Session keys                                                               |
*─────────────────────────────────────────────────────────────────────────────*/

const (
	isAuthKey = "is_authenticated"
	userIDKey = "user_id"
)

/*─────────────────────────────────────────────────────────────────────────────*
| Current-User helper                                                        |
*─────────────────────────────────────────────────────────────────────────────*/

// SessionUser is the signed-in identity injected into r.Context().
// It is rebuilt from the users collection on every request, so role and
// status changes take effect immediately.
type SessionUser struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Username        string `json:"username"`
	Email           string `json:"email"`
	Role            string `json:"role"`
	ProfileComplete bool   `json:"profile_complete"`
}

// IsAdmin reports whether the user has the admin role.
func (u *SessionUser) IsAdmin() bool {
	return u != nil && strings.EqualFold(u.Role, "admin")
}

// UserFetcher loads fresh user data by ID. It returns nil when the user no
// longer exists or may not sign in (suspended).
type UserFetcher interface {
	FetchUser(ctx context.Context, userID string) *SessionUser
}

type ctxKey string

const currentUserKey ctxKey = "currentUser"

// CurrentUser returns the user & “found?” flag.
func CurrentUser(r *http.Request) (*SessionUser, bool) {
	u, ok := r.Context().Value(currentUserKey).(*SessionUser)
	return u, ok && u != nil
}

// WithTestUser injects u into the request context. Tests use it to bypass
// LoadSessionUser.
func WithTestUser(r *http.Request, u *SessionUser) *http.Request {
	return withUser(r, u)
}

/*─────────────────────────────────────────────────────────────────────────────*
| SessionManager                                                             |
*─────────────────────────────────────────────────────────────────────────────*/

// SessionManager resolves the caller's identity from a signed session
// cookie or a bearer token and guards routes by sign-in and role.
type SessionManager struct {
	store   *sessions.CookieStore
	name    string
	fetcher UserFetcher
	tokens  *TokenIssuer
	log     *zap.Logger
}

// NewSessionManager builds a cookie-backed session manager.
//
// In production (secure=true) cookies are Secure + SameSite=None so they
// survive cross-site fetches over HTTPS. In local dev over http://localhost,
// use secure=false so cookies are accepted.
func NewSessionManager(sessionKey, name, domain string, maxAge time.Duration, secure bool, logger *zap.Logger) (*SessionManager, error) {
	if sessionKey == "" {
		return nil, fmt.Errorf("session key is empty; provide ≥32 random chars")
	}
	if len(sessionKey) < 32 {
		logger.Warn("session key is short; 32+ chars recommended",
			zap.Int("length", len(sessionKey)))
	}
	if name == "" {
		name = "preshnam-session"
	}

	store := sessions.NewCookieStore([]byte(sessionKey))
	opts := &sessions.Options{
		Domain:   domain,
		Path:     "/",
		MaxAge:   int(maxAge.Seconds()),
		Secure:   secure,
		HttpOnly: true,
	}
	if secure {
		opts.SameSite = http.SameSiteNoneMode
	} else {
		opts.SameSite = http.SameSiteLaxMode
	}
	store.Options = opts

	logger.Info("session store initialized",
		zap.String("name", name),
		zap.Bool("secure", secure),
		zap.String("domain", domain))

	return &SessionManager{store: store, name: name, log: logger}, nil
}

// SetUserFetcher installs the loader used to refresh identities per request.
func (sm *SessionManager) SetUserFetcher(f UserFetcher) { sm.fetcher = f }

// SetTokenIssuer enables bearer-token authentication.
func (sm *SessionManager) SetTokenIssuer(t *TokenIssuer) { sm.tokens = t }

// Tokens returns the configured issuer (nil when bearer auth is disabled).
func (sm *SessionManager) Tokens() *TokenIssuer { return sm.tokens }

// SignIn stores userID in the session cookie.
func (sm *SessionManager) SignIn(w http.ResponseWriter, r *http.Request, userID string) error {
	sess, _ := sm.store.Get(r, sm.name)
	sess.Values[isAuthKey] = true
	sess.Values[userIDKey] = userID
	return sess.Save(r, w)
}

// SignOut expires the session cookie.
func (sm *SessionManager) SignOut(w http.ResponseWriter, r *http.Request) error {
	sess, _ := sm.store.Get(r, sm.name)
	sess.Values = map[interface{}]interface{}{}
	sess.Options.MaxAge = -1
	return sess.Save(r, w)
}

// LoadSessionUser injects the user into context when a valid bearer token
// or session cookie is present. Anonymous requests pass through unchanged.
func (sm *SessionManager) LoadSessionUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := sm.bearerUserID(r)
		if userID == "" {
			userID = sm.cookieUserID(r)
		}
		if userID == "" {
			next.ServeHTTP(w, r)
			return
		}

		u := &SessionUser{ID: userID}
		if sm.fetcher != nil {
			u = sm.fetcher.FetchUser(r.Context(), userID)
		}
		if u != nil {
			r = withUser(r, u)
		}
		next.ServeHTTP(w, r)
	})
}

func (sm *SessionManager) bearerUserID(r *http.Request) string {
	if sm.tokens == nil {
		return ""
	}
	raw := ""
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		raw = strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	} else if r.Method == http.MethodGet && r.Header.Get("Upgrade") != "" {
		// Browsers cannot set headers on WebSocket handshakes.
		raw = r.URL.Query().Get("token")
	}
	if raw == "" {
		return ""
	}
	id, err := sm.tokens.Parse(raw)
	if err != nil {
		sm.log.Debug("bearer token rejected", zap.Error(err))
		return ""
	}
	return id
}

func (sm *SessionManager) cookieUserID(r *http.Request) string {
	sess, err := sm.store.Get(r, sm.name)
	if err != nil {
		var scErr securecookie.Error
		if errors.As(err, &scErr) && scErr.IsDecode() {
			// Rotated key or tampered cookie: treat as signed out.
			sm.log.Debug("session cookie could not be decoded", zap.Error(err))
		} else {
			sm.log.Warn("session load failed", zap.Error(err))
		}
		return ""
	}
	if isAuth, _ := sess.Values[isAuthKey].(bool); !isAuth {
		return ""
	}
	id, _ := sess.Values[userIDKey].(string)
	return id
}

// RequireSignedIn rejects anonymous callers with 401.
func (sm *SessionManager) RequireSignedIn(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := CurrentUser(r); ok {
			next.ServeHTTP(w, r)
			return
		}
		writeError(w, http.StatusUnauthorized, "unauthorized", "Please sign in to continue.")
	})
}

// RequireRole rejects anonymous callers with 401 and callers without one of
// the allowed roles with 403. Role comparison is case-insensitive.
func (sm *SessionManager) RequireRole(allowed ...string) func(http.Handler) http.Handler {
	set := make(map[string]struct{}, len(allowed))
	for _, role := range allowed {
		set[strings.ToLower(strings.TrimSpace(role))] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, ok := CurrentUser(r)
			if !ok {
				writeError(w, http.StatusUnauthorized, "unauthorized", "Please sign in to continue.")
				return
			}
			if _, has := set[strings.ToLower(u.Role)]; !has {
				writeError(w, http.StatusForbidden, "forbidden", "You don't have permission to do that.")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// helpers

func withUser(r *http.Request, u *SessionUser) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), currentUserKey, u))
}

// writeError mirrors the error envelope of the errors feature; that package
// depends on this one, so it cannot be imported here.
func writeError(w http.ResponseWriter, status int, code, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{"code": code, "message": msg, "dismiss_after_ms": 4000},
	})
}
