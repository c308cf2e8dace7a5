// Package session persists the client-side login state and decides whether
// a view may render for it.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/me/ccfeedback/internal/logging"
	"github.com/me/ccfeedback/pkg/model"
)

// Store is a client-side key-value store holding one session.
type Store interface {
	// Get returns the value stored under key and whether it was present.
	Get(ctx context.Context, key string) (string, bool, error)
	// Set stores value under key.
	Set(ctx context.Context, key, value string) error
	// Clear removes every key.
	Clear(ctx context.Context) error
}

// Load reads the persisted session from st. A persisted session that breaks
// the session invariant, or that cannot be read at all, is cleared and
// reported as logged out; the cause goes to logger. The only error Load
// returns is a failure to clear st.
func Load(ctx context.Context, st Store, logger *slog.Logger) (model.Session, error) {
	logger = logging.Component(logger, "session")

	values := make(map[string]string, len(model.SessionKeys))
	for _, key := range model.SessionKeys {
		v, _, err := st.Get(ctx, key)
		if err != nil {
			logger.Warn("discarding unreadable session", "key", key, "error", err)
			return model.Session{}, discard(ctx, st)
		}
		values[key] = v
	}

	sess := model.Session{
		Authenticated: values[model.KeyIsAuthenticated] == "true",
		Role:          model.Role(values[model.KeyUserRole]),
		Token:         values[model.KeyToken],
	}
	if !sess.Valid() {
		logger.Warn("discarding invalid session", "role", string(sess.Role), "has_token", sess.Token != "")
		return model.Session{}, discard(ctx, st)
	}
	return sess, nil
}

func discard(ctx context.Context, st Store) error {
	if err := st.Clear(ctx); err != nil {
		return fmt.Errorf("clear discarded session: %w", err)
	}
	return nil
}

// Persist replaces whatever st holds with an authenticated session for
// token and role. If any write fails, st is cleared again so no partial
// session survives.
func Persist(ctx context.Context, st Store, token string, role model.Role) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return errors.New("persist session: empty token")
	}
	if !role.Valid() {
		return fmt.Errorf("persist session: %w: %s", model.ErrInvalidRole, role)
	}

	if err := st.Clear(ctx); err != nil {
		return fmt.Errorf("clear previous session: %w", err)
	}

	writes := []struct{ key, value string }{
		{model.KeyToken, token},
		{model.KeyIsAuthenticated, "true"},
		{model.KeyUserRole, string(role)},
	}
	for _, w := range writes {
		if err := st.Set(ctx, w.key, w.value); err != nil {
			if cerr := st.Clear(ctx); cerr != nil {
				return errors.Join(fmt.Errorf("write %s: %w", w.key, err), fmt.Errorf("rollback: %w", cerr))
			}
			return fmt.Errorf("write %s: %w", w.key, err)
		}
	}
	return nil
}

// Logout clears every persisted session key.
func Logout(ctx context.Context, st Store) error {
	if err := st.Clear(ctx); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	return nil
}

// Token returns the trimmed persisted token, or "" when none is stored.
func Token(ctx context.Context, st Store) (string, error) {
	tok, _, err := st.Get(ctx, model.KeyToken)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", model.KeyToken, err)
	}
	return strings.TrimSpace(tok), nil
}

// StoredRole returns the persisted role exactly as stored.
func StoredRole(ctx context.Context, st Store) (string, error) {
	role, _, err := st.Get(ctx, model.KeyUserRole)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", model.KeyUserRole, err)
	}
	return role, nil
}
