// Package feedback implements the respondent workflow: listing the
// questions addressed to a student or staff member and submitting ratings.
package feedback

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/me/ccfeedback/internal/api"
	"github.com/me/ccfeedback/internal/logging"
	"github.com/me/ccfeedback/internal/session"
	"github.com/me/ccfeedback/internal/validate"
	"github.com/me/ccfeedback/pkg/model"
)

var (
	// ErrNotLoggedIn means no token is stored; front ends send the user to
	// the login page.
	ErrNotLoggedIn = errors.New("not logged in")

	// ErrForbidden means the backend refused the listing; front ends send
	// the user to the login page.
	ErrForbidden = errors.New("permission denied")
)

// User-visible messages.
const (
	MsgFetchFailed   = "Failed to fetch questions"
	MsgNoQuestion    = "Please select a question"
	MsgNoRating      = "Please provide a rating"
	MsgInvalidRating = "Rating must be between 1 and 5"
	MsgSubmitFailed  = "Failed to submit feedback. Please try again."
	MsgSubmitted     = "Feedback submitted successfully!"
)

// DefaultDepartment is the department whose questions a dashboard lists
// when none is chosen.
const DefaultDepartment = 1

// ActionError is a failed respondent action with a user-visible message.
type ActionError struct {
	Message string
	Err     error
}

func (e *ActionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e *ActionError) Unwrap() error {
	return e.Err
}

// Message returns the user-visible message for err.
func Message(err error) string {
	var ae *ActionError
	if errors.As(err, &ae) {
		return ae.Message
	}
	if err != nil {
		return err.Error()
	}
	return ""
}

// Client is the part of the backend the respondent workflow needs.
type Client interface {
	StaffQuestions(ctx context.Context, token string, departmentID int) ([]model.Question, error)
	YearQuestions(ctx context.Context, token string, departmentID, year int) ([]model.Question, error)
	SubmitFeedback(ctx context.Context, token string, fb model.FeedbackSubmission) error
}

// Service lists questions and submits feedback on behalf of the session
// held in a store.
type Service struct {
	client Client
	logger *slog.Logger
}

// NewService creates a Service.
func NewService(client Client, logger *slog.Logger) *Service {
	return &Service{client: client, logger: logging.Component(logger, "feedback")}
}

// StaffQuestions lists the questions addressed to staff of departmentID.
func (s *Service) StaffQuestions(ctx context.Context, st session.Store, departmentID int) ([]model.Question, error) {
	return s.list(ctx, st, "staff", func(token string) ([]model.Question, error) {
		return s.client.StaffQuestions(ctx, token, departmentID)
	})
}

// StudentQuestions lists the questions addressed to students of
// departmentID in the given year.
func (s *Service) StudentQuestions(ctx context.Context, st session.Store, departmentID, year int) ([]model.Question, error) {
	return s.list(ctx, st, "student", func(token string) ([]model.Question, error) {
		return s.client.YearQuestions(ctx, token, departmentID, year)
	})
}

func (s *Service) list(ctx context.Context, st session.Store, group string, fetch func(token string) ([]model.Question, error)) ([]model.Question, error) {
	token, err := session.Token(ctx, st)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotLoggedIn, err)
	}
	if token == "" {
		s.logger.Warn("no authentication token found")
		return nil, ErrNotLoggedIn
	}

	questions, err := fetch(token)
	if err != nil {
		if api.IsForbidden(err) {
			s.logger.Warn("question listing forbidden", "group", group)
			return nil, fmt.Errorf("%w: %v", ErrForbidden, err)
		}
		s.logger.Error("fetch questions failed", "group", group, "error", err)
		return nil, &ActionError{Message: MsgFetchFailed, Err: err}
	}
	if questions == nil {
		questions = []model.Question{}
	}
	return questions, nil
}

// Submit sends a rating (1 to 5) and optional notes for questionID.
func (s *Service) Submit(ctx context.Context, st session.Store, questionID int64, rating int, notes string) error {
	if questionID == 0 {
		return &ActionError{Message: MsgNoQuestion}
	}
	if rating == 0 {
		return &ActionError{Message: MsgNoRating}
	}

	fb := model.FeedbackSubmission{QuestionID: questionID, Rating: rating, Notes: notes}
	if err := validate.Struct(fb); err != nil {
		return &ActionError{Message: MsgInvalidRating, Err: err}
	}

	token, err := session.Token(ctx, st)
	if err != nil {
		return &ActionError{Message: MsgSubmitFailed, Err: err}
	}
	if err := s.client.SubmitFeedback(ctx, token, fb); err != nil {
		s.logger.Error("submit feedback failed", "question", questionID, "error", err)
		return &ActionError{Message: MsgSubmitFailed, Err: err}
	}

	s.logger.Info("feedback submitted", "question", questionID, "rating", rating)
	return nil
}
