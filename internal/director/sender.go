package director

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/me/ccfeedback/internal/api"
	"github.com/me/ccfeedback/internal/logging"
	"github.com/me/ccfeedback/internal/session"
	"github.com/me/ccfeedback/internal/validate"
	"github.com/me/ccfeedback/pkg/model"
)

// QuestionClient creates questions on the backend.
type QuestionClient interface {
	CreateQuestion(ctx context.Context, token string, q model.QuestionRequest) error
}

// Observer receives director telemetry.
type Observer interface {
	QuestionsSent(n int)
	ReportDownloaded()
	ReportShared()
}

// Sender pushes a draft's questions to the backend.
type Sender struct {
	client   QuestionClient
	logger   *slog.Logger
	observer Observer
}

// NewSender creates a Sender.
func NewSender(client QuestionClient, logger *slog.Logger) *Sender {
	return &Sender{client: client, logger: logging.Component(logger, "director")}
}

// WithObserver attaches telemetry.
func (s *Sender) WithObserver(o Observer) *Sender {
	s.observer = o
	return s
}

// Send posts every question of d concurrently and waits for all of them.
// Any rejection fails the whole send. On success the draft is reset and
// the number of questions sent is returned.
func (s *Sender) Send(ctx context.Context, st session.Store, d *Draft) (int, error) {
	token, err := session.Token(ctx, st)
	if err != nil {
		return 0, &ActionError{Message: MsgLogin, Err: err}
	}
	if token == "" {
		return 0, actionErr(MsgLogin)
	}
	if len(d.Questions) == 0 {
		return 0, actionErr(MsgNoQuestions)
	}
	if d.DepartmentID <= 0 {
		return 0, actionErr(MsgNoDepartment)
	}
	switch d.target() {
	case model.TargetStudent:
		if d.Year <= 0 {
			return 0, actionErr(MsgStudentYear)
		}
	case model.TargetStaff:
		if d.StaffID <= 0 {
			return 0, actionErr(MsgNoStaff)
		}
	default:
		return 0, actionErr(MsgRequiredFields)
	}

	role, err := session.StoredRole(ctx, st)
	if err != nil {
		return 0, &ActionError{Message: MsgLogin, Err: err}
	}
	if role != string(model.RoleAcademicDirector) {
		return 0, actionErr(MsgSendRole)
	}

	reqs := d.Requests()
	for _, req := range reqs {
		if err := validate.Struct(req); err != nil {
			return 0, &ActionError{Message: MsgRequiredFields, Err: err}
		}
	}

	var g errgroup.Group
	for _, req := range reqs {
		g.Go(func() error {
			return s.client.CreateQuestion(ctx, token, req)
		})
	}
	if err := g.Wait(); err != nil {
		s.logger.Error("send questions failed", "count", len(reqs), "target", d.target(), "department", d.DepartmentID, "error", err)
		switch {
		case api.IsTransport(err):
			return 0, &ActionError{Message: MsgNoResponse, Err: err}
		case api.IsUnauthorized(err):
			return 0, expire(ctx, s.logger, st, err)
		case api.IsForbidden(err):
			return 0, &ActionError{Message: MsgSendForbidden, Err: err}
		}
		return 0, &ActionError{Message: serverMessageOr(err, MsgSendFailed), Err: err}
	}

	s.logger.Info("questions sent", "count", len(reqs), "target", d.target(), "department", d.DepartmentID)
	if s.observer != nil {
		s.observer.QuestionsSent(len(reqs))
	}
	d.Reset()
	return len(reqs), nil
}
