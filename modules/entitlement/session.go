package entitlement

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrymomot/lessonkit/handler"
	"github.com/dmitrymomot/lessonkit/pkg/environment"
	"github.com/dmitrymomot/lessonkit/pkg/token"
)

// AccountIDHeader carries the caller identity when no session token is sent.
// It is ignored in production.
const AccountIDHeader = "X-Account-ID"

var callerKey = handler.NewContextKey("caller")

type session struct {
	AccountID string `json:"sub"`
	ExpiresAt int64  `json:"exp"`
}

type sessionToken struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (m *Module) issueSession(accountID string) (sessionToken, error) {
	exp := m.now().Add(m.cfg.SessionTTL)
	tok, err := token.Sign(session{AccountID: accountID, ExpiresAt: exp.Unix()}, m.cfg.SessionSecret)
	if err != nil {
		return sessionToken{}, err
	}
	return sessionToken{Token: tok, ExpiresAt: exp.UTC()}, nil
}

// callerID resolves the caller from a Bearer session token, falling back to
// the X-Account-ID header outside production.
func (m *Module) callerID(r *http.Request) (string, error) {
	if auth := r.Header.Get("Authorization"); auth != "" {
		raw, ok := strings.CutPrefix(auth, "Bearer ")
		if !ok {
			return "", handler.ErrUnauthorized
		}
		s, err := token.Verify[session](strings.TrimSpace(raw), m.cfg.SessionSecret)
		if err != nil {
			return "", handler.ErrUnauthorized
		}
		if s.AccountID == "" || m.now().Unix() > s.ExpiresAt {
			return "", handler.ErrUnauthorized
		}
		return s.AccountID, nil
	}
	if environment.IsProduction(r.Context()) {
		return "", handler.ErrUnauthorized
	}
	if id := strings.TrimSpace(r.Header.Get(AccountIDHeader)); id != "" {
		return id, nil
	}
	return "", handler.ErrUnauthorized
}

func (m *Module) requireCaller(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := m.callerID(r)
		if err != nil {
			m.errorHandler(handler.NewContext(w, r), err)
			return
		}
		next.ServeHTTP(w, r.WithContext(withCaller(r.Context(), id)))
	})
}

func withCaller(ctx context.Context, accountID string) context.Context {
	return context.WithValue(ctx, callerKey, accountID)
}

func caller(ctx context.Context) string {
	return handler.ContextValue[string](ctx, callerKey)
}
