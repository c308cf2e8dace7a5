// Package director implements the academic director workflow: drafting
// questions for a recipient group, sending them, and downloading or
// sharing the feedback report.
package director

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/me/ccfeedback/internal/api"
	"github.com/me/ccfeedback/internal/session"
)

// User-visible messages.
const (
	MsgRequiredFields     = "Please fill in all required fields"
	MsgStudentYear        = "Please select a year for student feedback"
	MsgStaffForFeedback   = "Please select a staff member for staff feedback"
	MsgLogin              = "Please log in to continue"
	MsgNoQuestions        = "Please add at least one question"
	MsgNoDepartment       = "Please select a department"
	MsgNoStaff            = "Please select a staff member"
	MsgSendRole           = "Only academic directors can send questions"
	MsgSessionExpired     = "Your session has expired. Please log in again later."
	MsgSendForbidden      = "You do not have permission to perform this action. Please check your role permissions."
	MsgSendFailed         = "Failed to send questions. Please try again."
	MsgNoResponse         = "No response from server. Please check your connection and try again."
	MsgDownloadRole       = "Only academic directors can download reports"
	MsgDownloadForbidden  = "You do not have permission to download reports. Please check your role permissions."
	MsgDownloadFailed     = "Failed to download report"
	MsgNoRecipients       = "Please select at least one staff member"
	MsgShareFailed        = "Failed to share report. Please try again."
	MsgQuestionAdded      = "Question added successfully"
	MsgQuestionUpdated    = "Question updated successfully"
	MsgQuestionDeleted    = "Question deleted successfully"
	MsgQuestionsSent      = "Questions sent successfully"
	MsgReportDownloaded   = "Report downloaded successfully"
	MsgReportShared       = "Report shared successfully!"
	MsgQuestionNotInDraft = "Question not found"
)

// ActionError is a failed director action. Message is safe to show to the
// user. SessionExpired is set when the backend rejected the token and the
// session was cleared.
type ActionError struct {
	Message        string
	SessionExpired bool
	Err            error
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

func actionErr(msg string) *ActionError {
	return &ActionError{Message: msg}
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

// SessionExpired reports whether err cleared the session.
func SessionExpired(err error) bool {
	var ae *ActionError
	return errors.As(err, &ae) && ae.SessionExpired
}

// expire clears st after the backend rejected its token.
func expire(ctx context.Context, logger *slog.Logger, st session.Store, err error) *ActionError {
	if cerr := session.Logout(ctx, st); cerr != nil {
		logger.Error("clear expired session", "error", cerr)
	}
	return &ActionError{Message: MsgSessionExpired, SessionExpired: true, Err: err}
}

// serverMessageOr returns the backend-provided message carried by err, or
// fallback.
func serverMessageOr(err error, fallback string) string {
	if m := api.ServerMessage(err); m != "" {
		return m
	}
	return fallback
}
