package director

import (
	"context"
	"log/slog"

	"github.com/me/ccfeedback/internal/api"
	"github.com/me/ccfeedback/internal/logging"
	"github.com/me/ccfeedback/internal/session"
	"github.com/me/ccfeedback/pkg/model"
)

// ReportClient downloads and shares the feedback report.
type ReportClient interface {
	DownloadReport(ctx context.Context, token string) (*model.Report, error)
	ShareReport(ctx context.Context, token string, req model.ShareReportRequest) error
}

// Reports runs the report actions of the director dashboard.
type Reports struct {
	client   ReportClient
	logger   *slog.Logger
	observer Observer
}

// NewReports creates a Reports.
func NewReports(client ReportClient, logger *slog.Logger) *Reports {
	return &Reports{client: client, logger: logging.Component(logger, "reports")}
}

// WithObserver attaches telemetry.
func (r *Reports) WithObserver(o Observer) *Reports {
	r.observer = o
	return r
}

// Download fetches the report for an academic director.
func (r *Reports) Download(ctx context.Context, st session.Store) (*model.Report, error) {
	token, err := session.Token(ctx, st)
	if err != nil || token == "" {
		return nil, &ActionError{Message: MsgLogin, Err: err}
	}
	role, err := session.StoredRole(ctx, st)
	if err != nil {
		return nil, &ActionError{Message: MsgLogin, Err: err}
	}
	if role != string(model.RoleAcademicDirector) {
		return nil, actionErr(MsgDownloadRole)
	}

	report, err := r.client.DownloadReport(ctx, token)
	if err != nil {
		r.logger.Error("download report failed", "error", err)
		switch {
		case api.IsUnauthorized(err):
			return nil, expire(ctx, r.logger, st, err)
		case api.IsForbidden(err):
			return nil, &ActionError{Message: MsgDownloadForbidden, Err: err}
		}
		return nil, &ActionError{Message: MsgDownloadFailed, Err: err}
	}

	r.logger.Info("report downloaded", "filename", report.Filename, "bytes", len(report.Data))
	if r.observer != nil {
		r.observer.ReportDownloaded()
	}
	return report, nil
}

// Share sends reportData to the given staff members. The token is sent when
// one is stored.
func (r *Reports) Share(ctx context.Context, st session.Store, reportData any, recipients []int64) error {
	if len(recipients) == 0 {
		return actionErr(MsgNoRecipients)
	}

	token, err := session.Token(ctx, st)
	if err != nil {
		return &ActionError{Message: MsgShareFailed, Err: err}
	}

	req := model.ShareReportRequest{ReportData: reportData, Recipients: recipients}
	if err := r.client.ShareReport(ctx, token, req); err != nil {
		r.logger.Error("share report failed", "recipients", len(recipients), "error", err)
		ae := &ActionError{Message: serverMessageOr(err, MsgShareFailed), Err: err}
		if api.IsUnauthorized(err) {
			if cerr := session.Logout(ctx, st); cerr != nil {
				r.logger.Error("clear expired session", "error", cerr)
			}
			ae.SessionExpired = true
		}
		return ae
	}

	r.logger.Info("report shared", "recipients", len(recipients))
	if r.observer != nil {
		r.observer.ReportShared()
	}
	return nil
}
