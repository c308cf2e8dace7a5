// Package ui serves ccf-web: a login page and one server-rendered
// dashboard per role, in front of the feedback backend.
package ui

import (
	"bytes"
	"cmp"
	"errors"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/go-chi/chi/v5"

	"github.com/me/ccfeedback/internal/api"
	"github.com/me/ccfeedback/internal/auth"
	"github.com/me/ccfeedback/internal/director"
	"github.com/me/ccfeedback/internal/feedback"
	"github.com/me/ccfeedback/internal/logging"
	"github.com/me/ccfeedback/internal/meetings"
	"github.com/me/ccfeedback/internal/metrics"
	"github.com/me/ccfeedback/internal/retry"
	"github.com/me/ccfeedback/internal/session"
	"github.com/me/ccfeedback/internal/store"
	"github.com/me/ccfeedback/internal/token"
	"github.com/me/ccfeedback/pkg/model"
)

// UI handles the web user interface.
type UI struct {
	sessions *SessionManager
	login    *auth.Flow
	sender   *director.Sender
	reports  *director.Reports
	feedback *feedback.Service
	meetings *meetings.Schedule
	now      func() time.Time
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

// Config holds UI configuration.
type Config struct {
	Secure      bool         // Use secure cookies for HTTPS
	RetryPolicy retry.Policy // Login retry policy
	Metrics     *metrics.Metrics
	Meetings    *meetings.Schedule // shown on the student dashboard; nil for none
	Now         func() time.Time   // clock for the meeting views; nil means time.Now
}

// New creates a new UI handler talking to the backend through client.
func New(st *store.SQLiteStore, client *api.Client, logger *slog.Logger, cfg Config) *UI {
	logger = logging.Component(logger, "ui")

	flow := auth.NewFlow(client, logger).WithPolicy(cfg.RetryPolicy).WithObserver(cfg.Metrics)
	flow.OnRetry = func(attempt int, msg string) {
		logger.Info(msg, "attempt", attempt)
	}

	return &UI{
		sessions: NewSessionManager(st, cfg.Secure),
		login:    flow,
		sender:   director.NewSender(client, logger).WithObserver(cfg.Metrics),
		reports:  director.NewReports(client, logger).WithObserver(cfg.Metrics),
		feedback: feedback.NewService(client, logger),
		meetings: cfg.Meetings,
		now:      cfg.Now,
		metrics:  cfg.Metrics,
		logger:   logger,
	}
}

// HandleLogin renders the login page. A logged-in browser goes straight to
// its dashboard.
func (ui *UI) HandleLogin(w http.ResponseWriter, r *http.Request) {
	if kv, _ := ui.sessions.FromRequest(r); kv != nil {
		if sess, err := session.Load(r.Context(), kv, ui.logger); err == nil && sess.Authenticated {
			if route := sess.Role.Route(); route != "" {
				http.Redirect(w, r, route, http.StatusSeeOther)
				return
			}
		}
	}

	ui.render(w, "login", map[string]any{
		"Title":    "Login - Class Committee Feedback",
		"Error":    r.URL.Query().Get("error"),
		"Username": r.URL.Query().Get("username"),
	})
}

// HandleLoginPost runs the login flow for the submitted credentials.
func (ui *UI) HandleLoginPost(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		redirectWith(w, r, "/login", "error", "Invalid request")
		return
	}
	username := r.FormValue("username")
	password := r.FormValue("password")

	kv, err := ui.sessions.Ensure(w, r)
	if err != nil {
		ui.logger.Error("create browser session failed", "error", err)
		redirectWith(w, r, "/login", "error", auth.MsgStorage)
		return
	}

	res, err := ui.login.Login(r.Context(), kv, username, password)
	if err != nil {
		q := url.Values{"error": {auth.Message(err)}, "username": {strings.TrimSpace(username)}}
		http.Redirect(w, r, "/login?"+q.Encode(), http.StatusSeeOther)
		return
	}

	http.Redirect(w, r, res.Route, http.StatusSeeOther)
}

// HandleLogout clears the session and redirects to login.
func (ui *UI) HandleLogout(w http.ResponseWriter, r *http.Request) {
	kv, _ := ui.sessions.FromRequest(r)
	if kv != nil {
		if err := session.Logout(r.Context(), kv); err != nil {
			ui.logger.Error("logout failed", "error", err)
		}
	}
	if err := ui.sessions.Destroy(w, r, kv); err != nil {
		ui.logger.Error("delete browser session failed", "error", err)
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// HandleStudentDashboard shows the student's profile and meeting schedule
// and lists the questions for a department and year, defaulting to the
// ones in the student's profile.
func (ui *UI) HandleStudentDashboard(w http.ResponseWriter, r *http.Request) {
	rs := sessionFromContext(r.Context())
	profile := token.ProfileOf(rs.Token)
	dept := queryInt(r, "department", cmp.Or(profile.DepartmentID, feedback.DefaultDepartment))
	year := queryInt(r, "year", cmp.Or(profile.Year, 1))

	questions, err := ui.feedback.StudentQuestions(r.Context(), rs.Store, dept, year)
	if ui.redirectIfUnauthorized(w, r, err) {
		return
	}

	now := time.Now()
	if ui.now != nil {
		now = ui.now()
	}

	data := ui.pageData(r, rs, "Student Dashboard")
	data["Student"] = true
	data["Profile"] = profile
	data["Meetings"] = ui.meetings.Split(now)
	data["Minutes"] = ui.meetings.Minutes(now)
	if next, ok := ui.meetings.Next(now); ok {
		data["NextMeeting"] = &next
		data["NextIn"] = humanize.RelTime(next.At, now, "ago", "from now")
	}
	data["Questions"] = questions
	data["Department"] = dept
	data["Year"] = year
	data["Departments"] = model.Departments
	data["Years"] = model.StudyYears
	data["Action"] = model.RoleStudent.Route() + "/feedback"
	ui.render(w, "respondent", data)
}

// HandleStaffDashboard lists the questions addressed to staff.
func (ui *UI) HandleStaffDashboard(w http.ResponseWriter, r *http.Request) {
	rs := sessionFromContext(r.Context())
	dept := queryInt(r, "department", feedback.DefaultDepartment)

	questions, err := ui.feedback.StaffQuestions(r.Context(), rs.Store, dept)
	if ui.redirectIfUnauthorized(w, r, err) {
		return
	}

	data := ui.pageData(r, rs, "Staff Dashboard")
	data["Questions"] = questions
	data["Department"] = dept
	data["Departments"] = model.Departments
	data["Action"] = model.RoleStaff.Route() + "/feedback"
	ui.render(w, "respondent", data)
}

// HandleFeedbackSubmit submits a rating from either respondent dashboard.
func (ui *UI) HandleFeedbackSubmit(w http.ResponseWriter, r *http.Request) {
	rs := sessionFromContext(r.Context())
	back := rs.Role.Route()
	if err := r.ParseForm(); err != nil {
		redirectWith(w, r, back, "error", "Invalid request")
		return
	}

	questionID, _ := strconv.ParseInt(r.FormValue("question_id"), 10, 64)
	rating, _ := strconv.Atoi(r.FormValue("rating"))

	if err := ui.feedback.Submit(r.Context(), rs.Store, questionID, rating, r.FormValue("notes")); err != nil {
		redirectWith(w, r, back, "error", feedback.Message(err))
		return
	}
	redirectWith(w, r, back, "success", feedback.MsgSubmitted)
}

// HandleAcademicDirectorDashboard renders the question draft and report forms.
func (ui *UI) HandleAcademicDirectorDashboard(w http.ResponseWriter, r *http.Request) {
	rs := sessionFromContext(r.Context())
	data := ui.pageData(r, rs, "Academic Director Dashboard")
	data["Draft"] = ui.loadDraft(r, rs)
	data["Departments"] = model.Departments
	data["Years"] = model.StudyYears
	data["Staff"] = model.StaffMembers
	ui.render(w, "academic_director", data)
}

// HandleDraftAdd adds the submitted questions (one per line) to the saved
// draft under the recipient selection of the form.
func (ui *UI) HandleDraftAdd(w http.ResponseWriter, r *http.Request) {
	rs := sessionFromContext(r.Context())
	back := model.RoleAcademicDirector.Route()
	if err := r.ParseForm(); err != nil {
		redirectWith(w, r, back, "error", "Invalid request")
		return
	}

	draft, added, err := ui.fillDraft(r, rs)
	if err != nil {
		redirectWith(w, r, back, "error", director.Message(err))
		return
	}
	if added == 0 {
		redirectWith(w, r, back, "error", director.MsgRequiredFields)
		return
	}
	if !ui.saveDraft(w, r, rs, draft) {
		return
	}
	redirectWith(w, r, back, "success", director.MsgQuestionAdded)
}

// HandleDraftUpdate replaces the text of one draft question.
func (ui *UI) HandleDraftUpdate(w http.ResponseWriter, r *http.Request) {
	rs := sessionFromContext(r.Context())
	back := model.RoleAcademicDirector.Route()
	if err := r.ParseForm(); err != nil {
		redirectWith(w, r, back, "error", "Invalid request")
		return
	}

	draft := ui.loadDraft(r, rs)
	id, _ := strconv.Atoi(chi.URLParam(r, "id"))
	if err := draft.Update(id, r.FormValue("text")); err != nil {
		redirectWith(w, r, back, "error", director.Message(err))
		return
	}
	if !ui.saveDraft(w, r, rs, draft) {
		return
	}
	redirectWith(w, r, back, "success", director.MsgQuestionUpdated)
}

// HandleDraftDelete removes one draft question.
func (ui *UI) HandleDraftDelete(w http.ResponseWriter, r *http.Request) {
	rs := sessionFromContext(r.Context())
	back := model.RoleAcademicDirector.Route()

	draft := ui.loadDraft(r, rs)
	id, _ := strconv.Atoi(chi.URLParam(r, "id"))
	if !draft.Delete(id) {
		redirectWith(w, r, back, "error", director.MsgQuestionNotInDraft)
		return
	}
	if !ui.saveDraft(w, r, rs, draft) {
		return
	}
	redirectWith(w, r, back, "success", director.MsgQuestionDeleted)
}

// HandleQuestionsSend adds any questions typed into the form to the saved
// draft and sends the whole draft. A failed send keeps the draft for
// another try; a successful one empties it.
func (ui *UI) HandleQuestionsSend(w http.ResponseWriter, r *http.Request) {
	rs := sessionFromContext(r.Context())
	back := model.RoleAcademicDirector.Route()
	if err := r.ParseForm(); err != nil {
		redirectWith(w, r, back, "error", "Invalid request")
		return
	}

	draft, _, err := ui.fillDraft(r, rs)
	if err != nil {
		redirectWith(w, r, back, "error", director.Message(err))
		return
	}

	n, err := ui.sender.Send(r.Context(), rs.Store, draft)
	if err != nil {
		if director.SessionExpired(err) {
			redirectWith(w, r, "/login", "error", director.Message(err))
			return
		}
		if len(draft.Questions) > 0 && !ui.saveDraft(w, r, rs, draft) {
			return
		}
		redirectWith(w, r, back, "error", director.Message(err))
		return
	}
	if !ui.saveDraft(w, r, rs, draft) {
		return
	}
	ui.logger.Info("questions sent from dashboard", "count", n)
	redirectWith(w, r, back, "success", director.MsgQuestionsSent)
}

// loadDraft returns the browser's saved draft. An unreadable draft is
// dropped.
func (ui *UI) loadDraft(r *http.Request, rs *requestSession) *director.Draft {
	draft, err := director.LoadDraft(r.Context(), rs.Store)
	if err != nil {
		ui.logger.Warn("discarding unreadable draft", "error", err)
		return &director.Draft{}
	}
	return draft
}

// fillDraft loads the saved draft, applies the form's recipient selection
// when it carries one, and adds each non-blank line of the questions field.
func (ui *UI) fillDraft(r *http.Request, rs *requestSession) (*director.Draft, int, error) {
	draft := ui.loadDraft(r, rs)

	if r.Form.Has("target") {
		target, err := model.ParseTargetRole(r.FormValue("target"))
		if err != nil {
			return nil, 0, &director.ActionError{Message: director.MsgRequiredFields, Err: err}
		}
		draft.TargetRole = target
		draft.DepartmentID = formInt(r, "department")
		draft.Year = formInt(r, "year")
		draft.StaffID = formInt(r, "staff")
	}

	added := 0
	for _, line := range strings.Split(r.FormValue("questions"), "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		if _, err := draft.Add(line); err != nil {
			return nil, 0, err
		}
		added++
	}
	return draft, added, nil
}

func (ui *UI) saveDraft(w http.ResponseWriter, r *http.Request, rs *requestSession, draft *director.Draft) bool {
	if err := director.SaveDraft(r.Context(), rs.Store, draft); err != nil {
		ui.logger.Error("save draft failed", "error", err)
		redirectWith(w, r, model.RoleAcademicDirector.Route(), "error", director.MsgSendFailed)
		return false
	}
	return true
}

// HandleReportDownload streams the backend report to the browser as an
// attachment.
func (ui *UI) HandleReportDownload(w http.ResponseWriter, r *http.Request) {
	rs := sessionFromContext(r.Context())
	back := model.RoleAcademicDirector.Route()

	report, err := ui.reports.Download(r.Context(), rs.Store)
	if err != nil {
		if director.SessionExpired(err) {
			redirectWith(w, r, "/login", "error", director.Message(err))
			return
		}
		redirectWith(w, r, back, "error", director.Message(err))
		return
	}

	contentType := report.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": report.Filename}))
	ui.logger.Info("report streamed", "filename", report.Filename, "size", humanize.Bytes(uint64(len(report.Data))))
	http.ServeContent(w, r, report.Filename, time.Time{}, bytes.NewReader(report.Data))
}

// HandleReportShare shares the report with the selected staff members.
func (ui *UI) HandleReportShare(w http.ResponseWriter, r *http.Request) {
	rs := sessionFromContext(r.Context())
	back := model.RoleAcademicDirector.Route()
	if err := r.ParseForm(); err != nil {
		redirectWith(w, r, back, "error", "Invalid request")
		return
	}

	var recipients []int64
	for _, v := range r.Form["recipients"] {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil && id > 0 {
			recipients = append(recipients, id)
		}
	}
	reportData := map[string]any{
		"title":    strings.TrimSpace(r.FormValue("title")),
		"sharedBy": string(rs.Role),
		"sharedAt": time.Now().UTC().Format(time.RFC3339),
	}

	if err := ui.reports.Share(r.Context(), rs.Store, reportData, recipients); err != nil {
		if director.SessionExpired(err) {
			redirectWith(w, r, "/login", "error", director.Message(err))
			return
		}
		redirectWith(w, r, back, "error", director.Message(err))
		return
	}
	redirectWith(w, r, back, "success", director.MsgReportShared)
}

// HandleExecutiveDirectorDashboard renders the executive overview.
func (ui *UI) HandleExecutiveDirectorDashboard(w http.ResponseWriter, r *http.Request) {
	rs := sessionFromContext(r.Context())
	data := ui.pageData(r, rs, "Executive Director Dashboard")
	data["Departments"] = model.Departments
	ui.render(w, "executive_director", data)
}

// redirectIfUnauthorized sends the browser to /login for listing errors
// that mean the session is unusable. Other errors are logged and the page
// renders with an empty list.
func (ui *UI) redirectIfUnauthorized(w http.ResponseWriter, r *http.Request, err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, feedback.ErrNotLoggedIn) || errors.Is(err, feedback.ErrForbidden) {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return true
	}
	ui.logger.Warn("listing questions failed", "path", r.URL.Path, "error", err)
	return false
}

// sessionView is the signed-in header shown on every dashboard.
type sessionView struct {
	Role      model.Role
	RoleLabel string
	Subject   string
	ExpiresAt time.Time
}

func (ui *UI) pageData(r *http.Request, rs *requestSession, title string) map[string]any {
	view := &sessionView{Role: rs.Role, RoleLabel: rs.Role.Label()}
	if info, err := token.Inspect(rs.Token); err == nil {
		view.Subject = info.Subject
		view.ExpiresAt = info.ExpiresAt
	}

	return map[string]any{
		"Title":   title + " - Class Committee Feedback",
		"Heading": title,
		"Session": view,
		"Error":   r.URL.Query().Get("error"),
		"Success": r.URL.Query().Get("success"),
	}
}

func (ui *UI) render(w http.ResponseWriter, name string, data map[string]any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	var buf bytes.Buffer
	if err := renderTemplate(&buf, name, data); err != nil {
		ui.logger.Error("template render failed", "template", name, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
	buf.WriteTo(w)
}

// redirectWith redirects to path with a single flash query parameter.
func redirectWith(w http.ResponseWriter, r *http.Request, path, key, msg string) {
	q := url.Values{key: {msg}}
	http.Redirect(w, r, path+"?"+q.Encode(), http.StatusSeeOther)
}

func queryInt(r *http.Request, name string, fallback int) int {
	if n, err := strconv.Atoi(r.URL.Query().Get(name)); err == nil && n > 0 {
		return n
	}
	return fallback
}

func formInt(r *http.Request, name string) int {
	n, _ := strconv.Atoi(strings.TrimSpace(r.FormValue(name)))
	return n
}
