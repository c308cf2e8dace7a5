// Package auth implements the login flow: submit credentials, retry on
// connectivity failures, validate the backend's answer and persist the
// resulting session.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/me/ccfeedback/internal/api"
	"github.com/me/ccfeedback/internal/logging"
	"github.com/me/ccfeedback/internal/retry"
	"github.com/me/ccfeedback/internal/session"
	"github.com/me/ccfeedback/internal/validate"
	"github.com/me/ccfeedback/pkg/model"
)

// SignInClient is the part of the backend client the login flow needs.
type SignInClient interface {
	SignIn(ctx context.Context, username, password string) (*model.SignInResponse, error)
}

// Observer receives login telemetry. All methods must be safe to call
// concurrently.
type Observer interface {
	LoginAttempt()
	LoginResult(kind string)
}

// Result is a successful login.
type Result struct {
	Role     model.Role
	Route    string
	Token    string
	Attempts int
}

// Flow runs logins against one backend, persisting into a session store
// chosen per call.
type Flow struct {
	client   SignInClient
	policy   retry.Policy
	logger   *slog.Logger
	observer Observer

	// OnRetry, if set, receives the progress message shown while waiting
	// for the next attempt.
	OnRetry func(attempt int, message string)
}

// NewFlow creates a login flow with the default retry policy.
func NewFlow(client SignInClient, logger *slog.Logger) *Flow {
	return &Flow{
		client: client,
		policy: retry.Default(),
		logger: logging.Component(logger, "auth"),
	}
}

// WithPolicy replaces the retry policy.
func (f *Flow) WithPolicy(p retry.Policy) *Flow {
	f.policy = p
	return f
}

// WithObserver attaches login telemetry.
func (f *Flow) WithObserver(o Observer) *Flow {
	f.observer = o
	return f
}

// Login signs in with username and password and persists the session into
// st. Every failure leaves st fully cleared and returns a *LoginError.
func (f *Flow) Login(ctx context.Context, st session.Store, username, password string) (*Result, error) {
	attempt := model.LoginAttempt{
		Username: strings.TrimSpace(username),
		Password: password,
	}

	res, err := f.login(ctx, st, &attempt)
	if err != nil {
		var le *LoginError
		if !errors.As(err, &le) {
			le = &LoginError{Kind: KindOther, Message: MsgGeneric, Err: err}
		}
		le.Attempts = attempt.RetryCount + 1
		if le.Kind == KindValidation {
			le.Attempts = 0
		}
		if cerr := session.Logout(ctx, st); cerr != nil {
			f.logger.Error("clear session after failed login", "error", cerr)
		}
		f.result(string(le.Kind))
		f.logger.Warn("login failed", "username", attempt.Username, "kind", le.Kind, "attempts", le.Attempts, "error", le.Err)
		return nil, le
	}

	res.Attempts = attempt.RetryCount + 1
	f.result("success")
	f.logger.Info("user logged in", "username", attempt.Username, "role", res.Role, "attempts", res.Attempts)
	return res, nil
}

func (f *Flow) login(ctx context.Context, st session.Store, attempt *model.LoginAttempt) (*Result, error) {
	if err := validate.Struct(model.SignInRequest{Username: attempt.Username, Password: attempt.Password}); err != nil {
		return nil, &LoginError{Kind: KindValidation, Message: MsgRequired, Err: err}
	}

	var resp *model.SignInResponse
	calls, err := f.policy.Do(ctx,
		func(ctx context.Context) error {
			if f.observer != nil {
				f.observer.LoginAttempt()
			}
			var err error
			resp, err = f.client.SignIn(ctx, attempt.Username, attempt.Password)
			return err
		},
		api.IsTransport,
		func(n int, err error) {
			msg := retryMessage(n, f.policy.Delay)
			f.logger.Info("login attempt failed, retrying", "attempt", n, "error", err)
			if f.OnRetry != nil {
				f.OnRetry(n, msg)
			}
		},
	)
	attempt.RetryCount = calls - 1
	if err != nil {
		return nil, classify(err)
	}

	token := strings.TrimSpace(resp.AccessToken)
	if token == "" {
		return nil, &LoginError{Kind: KindInvalidResponse, Message: MsgInvalidResponse, Err: errors.New("missing access token")}
	}
	if len(resp.Roles) == 0 {
		return nil, &LoginError{Kind: KindRoleNotFound, Message: MsgRoleNotFound, Err: errors.New("empty roles")}
	}

	raw := resp.Roles[0]
	role, err := model.ParseRole(raw)
	if err != nil {
		return nil, &LoginError{Kind: KindInvalidRole, Message: "Invalid user role: " + raw, Err: err}
	}

	route := role.Route()
	if route == "" {
		return nil, &LoginError{Kind: KindNoRoute, Message: MsgNoRoute, Err: fmt.Errorf("no route for %s", role)}
	}

	if err := session.Persist(ctx, st, token, role); err != nil {
		return nil, &LoginError{Kind: KindStorage, Message: MsgStorage, Err: err}
	}

	return &Result{Role: role, Route: route, Token: token}, nil
}

// classify maps a sign-in error to a user-facing login error.
func classify(err error) *LoginError {
	if api.IsTransport(err) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return &LoginError{Kind: KindUnreachable, Message: MsgUnreachable, Err: err}
	}
	if api.IsDecode(err) {
		return &LoginError{Kind: KindInvalidResponse, Message: MsgInvalidResponse, Err: err}
	}

	switch api.StatusCode(err) {
	case 0:
		return &LoginError{Kind: KindOther, Message: MsgGeneric, Err: err}
	case http.StatusUnauthorized, http.StatusNotFound:
		return &LoginError{Kind: KindInvalidCredentials, Message: MsgInvalidCredentials, Err: err}
	case http.StatusForbidden:
		return &LoginError{Kind: KindForbidden, Message: MsgForbidden, Err: err}
	case http.StatusInternalServerError:
		return &LoginError{Kind: KindServerError, Message: MsgServerError, Err: err}
	}

	msg := api.ServerMessage(err)
	if msg == "" {
		msg = MsgGeneric
	}
	return &LoginError{Kind: KindOther, Message: msg, Err: err}
}

func (f *Flow) result(kind string) {
	if f.observer != nil {
		f.observer.LoginResult(kind)
	}
}
