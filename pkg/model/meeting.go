package model

import (
	"fmt"
	"strings"
	"time"
)

// Meeting is one class committee meeting as published in the schedule.
type Meeting struct {
	ID        int    `yaml:"id" json:"id" validate:"gt=0"`
	Title     string `yaml:"title" json:"title" validate:"notblank"`
	Date      string `yaml:"date" json:"meetingDate" validate:"required,datetime=2006-01-02"`
	StartTime string `yaml:"start_time" json:"startTime" validate:"required"`
	Location  string `yaml:"location" json:"location,omitempty"`
	Minutes   string `yaml:"minutes" json:"minutes,omitempty"`
}

// meetingClocks are the accepted StartTime layouts.
var meetingClocks = []string{"3:04 PM", "15:04"}

// Start returns when m begins in loc. StartTime may use a 12-hour clock
// ("02:00 PM") or a 24-hour one ("14:00").
func (m Meeting) Start(loc *time.Location) (time.Time, error) {
	clock := strings.ToUpper(strings.TrimSpace(m.StartTime))
	for _, layout := range meetingClocks {
		if t, err := time.ParseInLocation("2006-01-02 "+layout, m.Date+" "+clock, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("meeting %d: unrecognized start %q %q", m.ID, m.Date, m.StartTime)
}

// HasMinutes reports whether minutes were recorded for m.
func (m Meeting) HasMinutes() bool {
	return strings.TrimSpace(m.Minutes) != ""
}

// Profile is what the front end knows about a logged-in user beyond the
// role. Every field is optional.
type Profile struct {
	FullName     string
	StudentID    string
	Email        string
	DepartmentID int
	Year         int
}

// Department returns the name of the profile's department, or "".
func (p Profile) Department() string {
	return DepartmentName(p.DepartmentID)
}

// Empty reports whether nothing is known.
func (p Profile) Empty() bool {
	return p == Profile{}
}
