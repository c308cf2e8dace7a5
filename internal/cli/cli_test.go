package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"

	"github.com/me/ccfeedback/internal/auth"
	"github.com/me/ccfeedback/internal/session"
	"github.com/me/ccfeedback/internal/token"
	"github.com/me/ccfeedback/pkg/model"
)

func init() {
	sleep = func(context.Context, time.Duration) error { return nil }
}

// backend is a fake feedback backend recording what it receives.
type backend struct {
	mu        sync.Mutex
	signins   int
	questions []model.QuestionRequest
	submitted []model.FeedbackSubmission
	shared    []model.ShareReportRequest
}

func startBackend(t *testing.T) (*backend, string) {
	t.Helper()
	b := &backend{}
	roles := map[string]string{"sam": "ROLE_STUDENT", "stef": "ROLE_STAFF", "alex": "ROLE_ACADEMIC_DIRECTOR"}

	r := chi.NewRouter()
	r.Post("/api/auth/signin", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		b.signins++
		b.mu.Unlock()
		var req model.SignInRequest
		json.NewDecoder(r.Body).Decode(&req)
		role, ok := roles[req.Username]
		if !ok || req.Password != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode(model.SignInResponse{AccessToken: "tok-" + req.Username, Roles: []string{role}})
	})
	r.Get("/api/questions/department/{id}/staff", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]model.Question{{ID: 7, Text: "Rate the lab equipment"}})
	})
	r.Get("/api/questions/department/{id}/year/{year}", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]model.Question{})
	})
	r.Post("/api/questions", func(w http.ResponseWriter, r *http.Request) {
		var q model.QuestionRequest
		json.NewDecoder(r.Body).Decode(&q)
		b.mu.Lock()
		b.questions = append(b.questions, q)
		b.mu.Unlock()
	})
	r.Post("/api/feedback/submit", func(w http.ResponseWriter, r *http.Request) {
		var fb model.FeedbackSubmission
		json.NewDecoder(r.Body).Decode(&fb)
		b.mu.Lock()
		b.submitted = append(b.submitted, fb)
		b.mu.Unlock()
	})
	r.Get("/api/reports/download", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Disposition", `attachment; filename="q1-report.pdf"`)
		w.Write([]byte("%PDF-1.4 report"))
	})
	r.Post("/api/reports/share", func(w http.ResponseWriter, r *http.Request) {
		var req model.ShareReportRequest
		json.NewDecoder(r.Body).Decode(&req)
		b.mu.Lock()
		b.shared = append(b.shared, req)
		b.mu.Unlock()
	})

	ts := httptest.NewServer(r)
	t.Cleanup(ts.Close)
	return b, ts.URL
}

type cliEnv struct {
	url         string
	sessionFile string
}

func newCLIEnv(t *testing.T) (*backend, *cliEnv) {
	t.Helper()
	b, url := startBackend(t)
	return b, &cliEnv{url: url, sessionFile: filepath.Join(t.TempDir(), "session.json")}
}

// run executes one ccf invocation and returns stdout, stderr and the error.
func (e *cliEnv) run(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	root := NewRootCmd()

	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(append([]string{"--server", e.url, "--session-file", e.sessionFile}, args...))

	err := root.Execute()
	return out.String(), errOut.String(), err
}

func (e *cliEnv) login(t *testing.T, username string) {
	t.Helper()
	if _, stderr, err := e.run(t, username+"\nsecret\n", "login"); err != nil {
		t.Fatalf("login %s: %v\n%s", username, err, stderr)
	}
}

func (e *cliEnv) session(t *testing.T) model.Session {
	t.Helper()
	sess, err := session.Load(context.Background(), session.NewFileStore(e.sessionFile), nil)
	if err != nil {
		t.Fatal(err)
	}
	return sess
}

func TestLoginCommand(t *testing.T) {
	_, e := newCLIEnv(t)

	out, _, err := e.run(t, "stef\nsecret\n", "login")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if !strings.Contains(out, "Logged in as Staff.") || !strings.Contains(out, "/staff-dashboard") {
		t.Errorf("output = %q", out)
	}

	sess := e.session(t)
	if !sess.Authenticated || sess.Role != model.RoleStaff || sess.Token != "tok-stef" {
		t.Errorf("session = %+v", sess)
	}
}

func TestLoginUsernameFlag(t *testing.T) {
	_, e := newCLIEnv(t)
	if _, _, err := e.run(t, "secret", "login", "-u", "alex"); err != nil {
		t.Fatalf("login: %v", err)
	}
	if got := e.session(t).Role; got != model.RoleAcademicDirector {
		t.Errorf("role = %q", got)
	}
}

func TestLoginInvalidCredentials(t *testing.T) {
	b, e := newCLIEnv(t)
	e.login(t, "stef")

	_, _, err := e.run(t, "stef\nwrong\n", "login")
	if err == nil || err.Error() != auth.MsgInvalidCredentials {
		t.Fatalf("err = %v", err)
	}
	if b.signins != 2 {
		t.Errorf("signins = %d, want 2 (no retry on 401)", b.signins)
	}
	if e.session(t).Authenticated {
		t.Error("failed login left a session behind")
	}
}

func TestLoginUnreachable(t *testing.T) {
	dead := httptest.NewServer(http.NotFoundHandler())
	dead.Close()
	e := &cliEnv{url: dead.URL, sessionFile: filepath.Join(t.TempDir(), "session.json")}

	_, stderr, err := e.run(t, "stef\nsecret\n", "login")
	if err == nil || err.Error() != auth.MsgUnreachable {
		t.Fatalf("err = %v", err)
	}
	for _, want := range []string{"Connection attempt 1 failed", "Connection attempt 2 failed"} {
		if !strings.Contains(stderr, want) {
			t.Errorf("stderr missing %q:\n%s", want, stderr)
		}
	}
}

func TestWhoamiAndLogout(t *testing.T) {
	_, e := newCLIEnv(t)

	out, _, err := e.run(t, "", "whoami")
	if err != nil || !strings.Contains(out, "Not logged in.") {
		t.Fatalf("whoami before login = %q, %v", out, err)
	}

	e.login(t, "sam")
	out, _, err = e.run(t, "", "whoami")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "Student") || !strings.Contains(out, "/student-dashboard") {
		t.Errorf("whoami = %q", out)
	}

	if _, _, err := e.run(t, "", "logout"); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(e.sessionFile)
	if err == nil && strings.Contains(string(data), "tok-sam") {
		t.Error("token survived logout")
	}
}

func TestQuestionsList(t *testing.T) {
	_, e := newCLIEnv(t)

	if _, _, err := e.run(t, "", "questions", "list"); err == nil {
		t.Fatal("expected an error when logged out")
	}

	e.login(t, "stef")
	out, _, err := e.run(t, "", "questions", "list", "--department", "2")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "Rate the lab equipment") {
		t.Errorf("output = %q", out)
	}

	e.login(t, "sam")
	out, _, err = e.run(t, "", "questions", "list", "--year", "2")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "No questions found.") {
		t.Errorf("output = %q", out)
	}
}

func TestQuestionsSendFromStdin(t *testing.T) {
	b, e := newCLIEnv(t)
	e.login(t, "alex")

	out, _, err := e.run(t, "Was the pace right?\n\nWere the labs useful?\n",
		"questions", "send", "--target", "student", "--department", "1", "--year", "3")
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if !strings.Contains(out, "2 sent to student") {
		t.Errorf("output = %q", out)
	}
	if len(b.questions) != 2 {
		t.Fatalf("backend got %d questions", len(b.questions))
	}
	for _, q := range b.questions {
		if q.Year != 3 || q.StaffID != nil {
			t.Errorf("question = %+v", q)
		}
	}
}

func TestQuestionsSendValidation(t *testing.T) {
	tests := []struct {
		name string
		user string
		args []string
		want string
	}{
		{"staff without member", "alex", []string{"--target", "staff", "--department", "1", "Q"}, "Please select a staff member for staff feedback"},
		{"student without year", "alex", []string{"--department", "1", "Q"}, "Please select a year for student feedback"},
		{"no department", "alex", []string{"--year", "1", "Q"}, "Please fill in all required fields"},
		{"not a director", "stef", []string{"--department", "1", "--year", "1", "Q"}, "Only academic directors can send questions"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, e := newCLIEnv(t)
			e.login(t, tt.user)

			_, _, err := e.run(t, "", append([]string{"questions", "send"}, tt.args...)...)
			if err == nil || err.Error() != tt.want {
				t.Fatalf("err = %v, want %q", err, tt.want)
			}
			if len(b.questions) != 0 {
				t.Error("rejected draft reached the backend")
			}
		})
	}
}

func TestFeedbackSubmit(t *testing.T) {
	b, e := newCLIEnv(t)
	e.login(t, "stef")

	if _, _, err := e.run(t, "", "feedback", "submit", "7", "--rating", "6"); err == nil || err.Error() != "Rating must be between 1 and 5" {
		t.Fatalf("err = %v", err)
	}

	out, _, err := e.run(t, "", "feedback", "submit", "7", "-r", "4", "-n", "clear")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "Feedback submitted successfully!") {
		t.Errorf("output = %q", out)
	}
	if len(b.submitted) != 1 || b.submitted[0] != (model.FeedbackSubmission{QuestionID: 7, Rating: 4, Notes: "clear"}) {
		t.Errorf("submitted = %+v", b.submitted)
	}
}

func TestReportDownload(t *testing.T) {
	_, e := newCLIEnv(t)
	e.login(t, "alex")

	dest := filepath.Join(t.TempDir(), "report.pdf")
	out, _, err := e.run(t, "", "report", "download", "-o", dest)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "Report downloaded successfully") {
		t.Errorf("output = %q", out)
	}
	data, err := os.ReadFile(dest)
	if err != nil || string(data) != "%PDF-1.4 report" {
		t.Errorf("report file = %q, %v", data, err)
	}
}

func TestReportDownloadRequiresDirector(t *testing.T) {
	_, e := newCLIEnv(t)
	e.login(t, "stef")

	_, _, err := e.run(t, "", "report", "download", "-o", filepath.Join(t.TempDir(), "r.pdf"))
	if err == nil || err.Error() != "Only academic directors can download reports" {
		t.Fatalf("err = %v", err)
	}
}

func TestReportShare(t *testing.T) {
	b, e := newCLIEnv(t)
	e.login(t, "alex")

	if _, _, err := e.run(t, "", "report", "share"); err == nil || err.Error() != "Please select at least one staff member" {
		t.Fatalf("err = %v", err)
	}

	out, _, err := e.run(t, "", "report", "share", "--to", "1,2")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "Report shared successfully!") {
		t.Errorf("output = %q", out)
	}
	if len(b.shared) != 1 || len(b.shared[0].Recipients) != 2 {
		t.Errorf("shared = %+v", b.shared)
	}
}

func TestDirectory(t *testing.T) {
	_, e := newCLIEnv(t)
	out, _, err := e.run(t, "", "directory")
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"Computer Science", "3rd year", "Jane Smith"} {
		if !strings.Contains(out, want) {
			t.Errorf("directory output missing %q", want)
		}
	}
}

func TestInvalidAuthScheme(t *testing.T) {
	_, e := newCLIEnv(t)
	if _, _, err := e.run(t, "", "--auth-scheme", "cookie", "whoami"); err == nil {
		t.Fatal("expected a configuration error")
	}
}

// persist stores a session for raw as if login had run.
func (e *cliEnv) persist(t *testing.T, raw string, role model.Role) {
	t.Helper()
	if err := session.Persist(context.Background(), session.NewFileStore(e.sessionFile), raw, role); err != nil {
		t.Fatal(err)
	}
}

func studentToken(t *testing.T) string {
	t.Helper()
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, token.Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "pat"},

		Roles:        []string{"ROLE_STUDENT"},
		Name:         "Pat Doe",
		StudentID:    "S12345789",
		Email:        "pat@university.edu",
		DepartmentID: 2,
		Year:         3,
	}).SignedString([]byte("backend-secret"))
	if err != nil {
		t.Fatal(err)
	}
	return raw
}

func TestWhoamiProfile(t *testing.T) {
	_, e := newCLIEnv(t)
	e.persist(t, studentToken(t), model.RoleStudent)

	out, _, err := e.run(t, "", "whoami")
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{
		"Role:      Student",
		"User:      pat",
		"Name:      Pat Doe",
		"Student:   S12345789",
		"Dept:      Information Technology",
		"Year:      3rd",
		"Email:     pat@university.edu",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("whoami missing %q:\n%s", want, out)
		}
	}

	// Opaque tokens carry no profile.
	e.login(t, "sam")
	if out, _, _ := e.run(t, "", "whoami"); strings.Contains(out, "Name:") {
		t.Errorf("opaque token printed a profile:\n%s", out)
	}
}

const scheduleYAML = `meetings:
  - id: 1
    title: Academic Review
    date: "2024-01-15"
    start_time: "10:00 AM"
    location: "Room 101"
    minutes: |
      Attendance reviewed.
      Lab hours extended.
  - id: 2
    title: Current Project Review
    date: "2024-01-20"
    start_time: "11:30 AM"
    location: "Room 305"
  - id: 3
    title: Future Planning
    date: "2024-01-25"
    start_time: "09:00"
    location: "Room 402"
`

func writeSchedule(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "meetings.yaml")
	if err := os.WriteFile(path, []byte(scheduleYAML), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func fixClock(t *testing.T, now time.Time) {
	t.Helper()
	prev := clock
	clock = func() time.Time { return now }
	t.Cleanup(func() { clock = prev })
}

func TestMeetings(t *testing.T) {
	_, e := newCLIEnv(t)
	e.login(t, "sam")
	fixClock(t, time.Date(2024, 1, 20, 9, 0, 0, 0, time.Local))
	path := writeSchedule(t)

	out, _, err := e.run(t, "", "meetings", "--file", path, "--minutes")
	if err != nil {
		t.Fatalf("meetings: %v", err)
	}
	for _, want := range []string{
		"Next meeting: Current Project Review, Sat Jan 20 11:30 (2 hours from now)",
		"Past:\n  1    Mon Jan 15 10:00",
		"Today:\n  2    Sat Jan 20 11:30",
		"Upcoming:\n  3    Thu Jan 25 09:00",
		"Minutes:\n  Academic Review (Mon Jan 15 10:00)\n    Attendance reviewed.\n    Lab hours extended.",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("meetings output missing %q:\n%s", want, out)
		}
	}
}

func TestMeetingsAfterLastMeeting(t *testing.T) {
	_, e := newCLIEnv(t)
	e.login(t, "sam")
	fixClock(t, time.Date(2024, 2, 1, 9, 0, 0, 0, time.Local))
	path := writeSchedule(t)

	out, _, err := e.run(t, "", "meetings", "--file", path)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"Next meeting: none scheduled", "Today:\n  none", "Upcoming:\n  none"} {
		if !strings.Contains(out, want) {
			t.Errorf("meetings output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Minutes:") {
		t.Error("minutes printed without --minutes")
	}
}

func TestMeetingsShow(t *testing.T) {
	_, e := newCLIEnv(t)
	e.login(t, "sam")
	path := writeSchedule(t)

	out, _, err := e.run(t, "", "meetings", "--file", path, "1")
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"Meeting:  Academic Review", "Location: Room 101", "Lab hours extended."} {
		if !strings.Contains(out, want) {
			t.Errorf("meeting 1 missing %q:\n%s", want, out)
		}
	}

	if out, _, _ := e.run(t, "", "meetings", "--file", path, "3"); !strings.Contains(out, "No minutes recorded.") {
		t.Errorf("meeting 3 = %q", out)
	}
	if _, _, err := e.run(t, "", "meetings", "--file", path, "9"); err == nil || !strings.Contains(err.Error(), "no meeting with id 9") {
		t.Errorf("unknown id: %v", err)
	}
	if _, _, err := e.run(t, "", "meetings", "--file", path, "one"); err == nil {
		t.Error("expected an error for a non-numeric id")
	}
}

func TestMeetingsAccess(t *testing.T) {
	_, e := newCLIEnv(t)
	path := writeSchedule(t)

	tests := []struct {
		name  string
		login string
		args  []string
		want  string
	}{
		{"logged out", "", []string{"--file", path}, "not logged in"},
		{"staff", "stef", []string{"--file", path}, "logged in as Staff"},
		{"no schedule", "sam", nil, "no meeting schedule configured"},
		{"bad schedule", "sam", []string{"--file", filepath.Join(t.TempDir(), "missing.yaml")}, "read schedule"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.login != "" {
				e.login(t, tt.login)
			} else {
				e.run(t, "", "logout")
			}
			t.Setenv("CCF_MEETINGS_FILE", "")
			_, _, err := e.run(t, "", append([]string{"meetings"}, tt.args...)...)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("err = %v, want %q", err, tt.want)
			}
		})
	}
}

func TestMeetingsFileFromEnv(t *testing.T) {
	_, e := newCLIEnv(t)
	e.login(t, "sam")
	t.Setenv("CCF_MEETINGS_FILE", writeSchedule(t))

	out, _, err := e.run(t, "", "meetings", "2")
	if err != nil || !strings.Contains(out, "Current Project Review") {
		t.Errorf("meetings 2 = %q, %v", out, err)
	}
}
