package director

import (
	"strings"

	"github.com/me/ccfeedback/pkg/model"
)

// DraftQuestion is one question in a draft, numbered within the draft.
type DraftQuestion struct {
	ID   int
	Text string
}

// Draft is the set of questions a director is preparing for one
// recipient group. A zero Draft addresses students.
type Draft struct {
	TargetRole   model.TargetRole
	DepartmentID int
	Year         int
	StaffID      int
	Questions    []DraftQuestion

	nextID int
}

// NewDraft creates an empty draft for target.
func NewDraft(target model.TargetRole, departmentID int) *Draft {
	return &Draft{TargetRole: target, DepartmentID: departmentID}
}

func (d *Draft) target() model.TargetRole {
	if d.TargetRole == "" {
		return model.TargetStudent
	}
	return d.TargetRole
}

// checkRecipient validates the recipient selection for adding questions.
func (d *Draft) checkRecipient(text string) error {
	if d.DepartmentID <= 0 || strings.TrimSpace(text) == "" {
		return actionErr(MsgRequiredFields)
	}
	switch d.target() {
	case model.TargetStudent:
		if d.Year <= 0 {
			return actionErr(MsgStudentYear)
		}
	case model.TargetStaff:
		if d.StaffID <= 0 {
			return actionErr(MsgStaffForFeedback)
		}
	default:
		return actionErr(MsgRequiredFields)
	}
	return nil
}

// Add appends a question after checking the recipient selection.
func (d *Draft) Add(text string) (DraftQuestion, error) {
	if err := d.checkRecipient(text); err != nil {
		return DraftQuestion{}, err
	}
	d.nextID++
	q := DraftQuestion{ID: d.nextID, Text: strings.TrimSpace(text)}
	d.Questions = append(d.Questions, q)
	return q, nil
}

// Update replaces the text of question id. Blank text is rejected.
func (d *Draft) Update(id int, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return actionErr(MsgRequiredFields)
	}
	for i := range d.Questions {
		if d.Questions[i].ID == id {
			d.Questions[i].Text = text
			return nil
		}
	}
	return actionErr(MsgQuestionNotInDraft)
}

// Delete removes question id and reports whether it was present.
func (d *Draft) Delete(id int) bool {
	for i, q := range d.Questions {
		if q.ID == id {
			d.Questions = append(d.Questions[:i], d.Questions[i+1:]...)
			return true
		}
	}
	return false
}

// Reset empties the draft and its recipient selection.
func (d *Draft) Reset() {
	*d = Draft{}
}

// Requests builds one backend payload per question. Students get the
// selected year; everyone else is sent year 1. Only staff drafts carry a
// staff id.
func (d *Draft) Requests() []model.QuestionRequest {
	target := d.target()
	year := 1
	if target == model.TargetStudent {
		year = d.Year
	}
	var staffID *int
	if target == model.TargetStaff {
		id := d.StaffID
		staffID = &id
	}

	out := make([]model.QuestionRequest, 0, len(d.Questions))
	for _, q := range d.Questions {
		out = append(out, model.QuestionRequest{
			Text:         q.Text,
			DepartmentID: d.DepartmentID,
			Role:         target,
			Year:         year,
			StaffID:      staffID,
		})
	}
	return out
}
