package model

// SignInRequest is the body of POST /api/auth/signin.
type SignInRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// SignInResponse is the success body of POST /api/auth/signin.
type SignInResponse struct {
	AccessToken string   `json:"accessToken"`
	Roles       []string `json:"roles"`
}

// QuestionRequest is the body of POST /api/questions.
type QuestionRequest struct {
	Text         string     `json:"text" validate:"required,notblank"`
	DepartmentID int        `json:"departmentId" validate:"required,gt=0"`
	Role         TargetRole `json:"role" validate:"required,oneof=student staff"`
	Year         int        `json:"year" validate:"gte=1"`
	StaffID      *int       `json:"staffId,omitempty" validate:"required_if=Role staff"`
}

// Question is a feedback question as returned by the question listing endpoints.
type Question struct {
	ID           int64      `json:"id"`
	Text         string     `json:"text"`
	DepartmentID int        `json:"departmentId,omitempty"`
	Role         TargetRole `json:"role,omitempty"`
	Year         int        `json:"year,omitempty"`
	StaffID      *int       `json:"staffId,omitempty"`
}

// FeedbackSubmission is the body of POST /api/feedback/submit.
type FeedbackSubmission struct {
	QuestionID int64  `json:"questionId" validate:"required"`
	Rating     int    `json:"rating" validate:"min=1,max=5"`
	Notes      string `json:"notes"`
}

// ShareReportRequest is the body of POST /api/reports/share.
type ShareReportRequest struct {
	ReportData any     `json:"reportData"`
	Recipients []int64 `json:"recipients" validate:"required,min=1"`
}

// Report is a downloaded report file.
type Report struct {
	Filename    string
	ContentType string
	Data        []byte
}

// DefaultReportFilename is used when the backend does not name the report.
const DefaultReportFilename = "feedback-report.pdf"

// MessageResponse is the error body shape the backend uses.
type MessageResponse struct {
	Message string `json:"message"`
}
