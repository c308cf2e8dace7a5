package feedback

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/me/ccfeedback/internal/api"
	"github.com/me/ccfeedback/internal/session"
	"github.com/me/ccfeedback/pkg/model"
)

func newService(t *testing.T, register func(r chi.Router)) *Service {
	t.Helper()
	r := chi.NewRouter()
	register(r)
	ts := httptest.NewServer(r)
	t.Cleanup(ts.Close)
	return NewService(api.NewClient(ts.URL, nil), nil)
}

func loggedIn(t *testing.T, role model.Role) *session.MemoryStore {
	t.Helper()
	st := session.NewMemoryStore()
	if err := session.Persist(context.Background(), st, "tok", role); err != nil {
		t.Fatal(err)
	}
	return st
}

func TestStaffQuestions(t *testing.T) {
	svc := newService(t, func(r chi.Router) {
		r.Get("/api/questions/department/{id}/staff", func(w http.ResponseWriter, r *http.Request) {
			if chi.URLParam(r, "id") != "1" {
				t.Errorf("department = %s", chi.URLParam(r, "id"))
			}
			if r.Header.Get("x-access-token") != "tok" {
				t.Errorf("x-access-token = %q", r.Header.Get("x-access-token"))
			}
			json.NewEncoder(w).Encode([]model.Question{{ID: 4, Text: "Rate the lab"}})
		})
	})

	qs, err := svc.StaffQuestions(context.Background(), loggedIn(t, model.RoleStaff), 1)
	if err != nil {
		t.Fatalf("StaffQuestions: %v", err)
	}
	if len(qs) != 1 || qs[0].ID != 4 {
		t.Errorf("questions = %+v", qs)
	}
}

func TestStudentQuestions(t *testing.T) {
	svc := newService(t, func(r chi.Router) {
		r.Get("/api/questions/department/{id}/year/{year}", func(w http.ResponseWriter, r *http.Request) {
			if chi.URLParam(r, "id") != "2" || chi.URLParam(r, "year") != "3" {
				t.Errorf("path = %s", r.URL.Path)
			}
			w.Write([]byte(`[]`))
		})
	})

	qs, err := svc.StudentQuestions(context.Background(), loggedIn(t, model.RoleStudent), 2, 3)
	if err != nil {
		t.Fatalf("StudentQuestions: %v", err)
	}
	if qs == nil || len(qs) != 0 {
		t.Errorf("questions = %#v, want empty non-nil", qs)
	}
}

func TestListFailures(t *testing.T) {
	tests := []struct {
		name    string
		store   *session.MemoryStore
		status  int
		wantErr error
		wantMsg string
	}{
		{"not logged in", session.NewMemoryStore(), 200, ErrNotLoggedIn, ""},
		{"forbidden", nil, 403, ErrForbidden, ""},
		{"server error", nil, 500, nil, MsgFetchFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newService(t, func(r chi.Router) {
				r.Get("/api/questions/department/{id}/staff", func(w http.ResponseWriter, r *http.Request) {
					w.WriteHeader(tt.status)
					w.Write([]byte(`[]`))
				})
			})
			st := tt.store
			if st == nil {
				st = loggedIn(t, model.RoleStaff)
			}

			_, err := svc.StaffQuestions(context.Background(), st, 1)
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
			if tt.wantMsg != "" && Message(err) != tt.wantMsg {
				t.Errorf("message = %q, want %q", Message(err), tt.wantMsg)
			}
		})
	}
}

func TestSubmit(t *testing.T) {
	var got model.FeedbackSubmission
	calls := 0
	svc := newService(t, func(r chi.Router) {
		r.Post("/api/feedback/submit", func(w http.ResponseWriter, r *http.Request) {
			calls++
			json.NewDecoder(r.Body).Decode(&got)
			w.WriteHeader(http.StatusOK)
		})
	})

	if err := svc.Submit(context.Background(), loggedIn(t, model.RoleStudent), 7, 4, "clear slides"); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if calls != 1 || got.QuestionID != 7 || got.Rating != 4 || got.Notes != "clear slides" {
		t.Errorf("submission = %+v (calls %d)", got, calls)
	}
}

func TestSubmitValidation(t *testing.T) {
	tests := []struct {
		name       string
		questionID int64
		rating     int
		wantMsg    string
	}{
		{"no question", 0, 3, MsgNoQuestion},
		{"no rating", 1, 0, MsgNoRating},
		{"rating too high", 1, 6, MsgInvalidRating},
		{"negative rating", 1, -1, MsgInvalidRating},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			svc := newService(t, func(r chi.Router) {
				r.Post("/api/feedback/submit", func(w http.ResponseWriter, r *http.Request) { calls++ })
			})
			err := svc.Submit(context.Background(), loggedIn(t, model.RoleStudent), tt.questionID, tt.rating, "")
			if Message(err) != tt.wantMsg {
				t.Errorf("message = %q, want %q", Message(err), tt.wantMsg)
			}
			if calls != 0 {
				t.Error("invalid submission reached the backend")
			}
		})
	}
}

func TestSubmitBackendFailure(t *testing.T) {
	svc := newService(t, func(r chi.Router) {
		r.Post("/api/feedback/submit", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"message":"already answered"}`))
		})
	})

	err := svc.Submit(context.Background(), loggedIn(t, model.RoleStaff), 1, 5, "")
	if Message(err) != MsgSubmitFailed {
		t.Errorf("message = %q", Message(err))
	}
	if api.StatusCode(err) != http.StatusBadRequest {
		t.Errorf("status = %d", api.StatusCode(err))
	}
}
