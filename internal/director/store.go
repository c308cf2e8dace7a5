package director

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/me/ccfeedback/internal/session"
	"github.com/me/ccfeedback/pkg/model"
)

// KeyDraft is the session store key holding a director's unsent draft. It
// lives next to the session keys, so logging out discards it.
const KeyDraft = "questionDraft"

type draftRecord struct {
	TargetRole   model.TargetRole `json:"targetRole,omitempty"`
	DepartmentID int              `json:"departmentId,omitempty"`
	Year         int              `json:"year,omitempty"`
	StaffID      int              `json:"staffId,omitempty"`
	Questions    []DraftQuestion  `json:"questions,omitempty"`
	NextID       int              `json:"nextId,omitempty"`
}

// LoadDraft returns the draft saved in st, or an empty one.
func LoadDraft(ctx context.Context, st session.Store) (*Draft, error) {
	raw, ok, err := st.Get(ctx, KeyDraft)
	if err != nil {
		return nil, fmt.Errorf("read draft: %w", err)
	}
	if !ok || raw == "" {
		return &Draft{}, nil
	}

	var rec draftRecord
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return nil, fmt.Errorf("parse draft: %w", err)
	}
	d := &Draft{
		TargetRole:   rec.TargetRole,
		DepartmentID: rec.DepartmentID,
		Year:         rec.Year,
		StaffID:      rec.StaffID,
		Questions:    rec.Questions,
		nextID:       rec.NextID,
	}
	for _, q := range d.Questions {
		d.nextID = max(d.nextID, q.ID)
	}
	return d, nil
}

// SaveDraft writes d to st, replacing any earlier draft.
func SaveDraft(ctx context.Context, st session.Store, d *Draft) error {
	data, err := json.Marshal(draftRecord{
		TargetRole:   d.TargetRole,
		DepartmentID: d.DepartmentID,
		Year:         d.Year,
		StaffID:      d.StaffID,
		Questions:    d.Questions,
		NextID:       d.nextID,
	})
	if err != nil {
		return fmt.Errorf("marshal draft: %w", err)
	}
	if err := st.Set(ctx, KeyDraft, string(data)); err != nil {
		return fmt.Errorf("save draft: %w", err)
	}
	return nil
}
