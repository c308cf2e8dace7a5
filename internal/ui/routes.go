package ui

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/me/ccfeedback/pkg/model"
)

// RegisterRoutes registers all UI routes on the given router.
func (ui *UI) RegisterRoutes(r chi.Router) {
	// Public routes.
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
	})
	r.Get("/login", ui.HandleLogin)
	r.Post("/login", ui.HandleLoginPost)
	r.Get("/logout", ui.HandleLogout)

	// One protected subtree per role.
	r.Route(model.RoleStudent.Route(), func(r chi.Router) {
		r.Use(ui.RequireRole(model.RoleStudent))
		r.Get("/", ui.HandleStudentDashboard)
		r.Post("/feedback", ui.HandleFeedbackSubmit)
	})

	r.Route(model.RoleStaff.Route(), func(r chi.Router) {
		r.Use(ui.RequireRole(model.RoleStaff))
		r.Get("/", ui.HandleStaffDashboard)
		r.Post("/feedback", ui.HandleFeedbackSubmit)
	})

	r.Route(model.RoleAcademicDirector.Route(), func(r chi.Router) {
		r.Use(ui.RequireRole(model.RoleAcademicDirector))
		r.Get("/", ui.HandleAcademicDirectorDashboard)
		r.Post("/questions", ui.HandleQuestionsSend)
		r.Post("/questions/draft", ui.HandleDraftAdd)
		r.Post("/questions/draft/{id}", ui.HandleDraftUpdate)
		r.Post("/questions/draft/{id}/delete", ui.HandleDraftDelete)
		r.Get("/report", ui.HandleReportDownload)
		r.Post("/report/share", ui.HandleReportShare)
	})

	r.Route(model.RoleExecutiveDirector.Route(), func(r chi.Router) {
		r.Use(ui.RequireRole(model.RoleExecutiveDirector))
		r.Get("/", ui.HandleExecutiveDirectorDashboard)
	})
}
