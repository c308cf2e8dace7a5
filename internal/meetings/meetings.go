// Package meetings reads the class committee meeting schedule and splits it
// the way the student dashboard shows it: past, today and upcoming, the
// next meeting, and the minutes of meetings already held.
package meetings

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/me/ccfeedback/internal/validate"
	"github.com/me/ccfeedback/pkg/model"
)

// Schedule is a validated set of meetings ordered by start. A nil
// *Schedule has no meetings.
type Schedule struct {
	slots []Slot
	loc   *time.Location
}

// Slot is a meeting with its parsed start.
type Slot struct {
	model.Meeting
	At time.Time
}

// Groups is a schedule split around one moment.
type Groups struct {
	Past     []Slot // before today, newest first
	Today    []Slot // earliest first
	Upcoming []Slot // after today, earliest first
}

type scheduleFile struct {
	Meetings []model.Meeting `yaml:"meetings"`
}

// LoadFile reads a YAML schedule:
//
//	meetings:
//	  - id: 1
//	    title: Academic Review
//	    date: "2024-01-15"
//	    start_time: "10:00 AM"
//	    location: "101"
//	    minutes: |
//	      Attendance was discussed.
//
// An empty path yields an empty schedule. Times are read in loc, or the
// local zone when loc is nil.
func LoadFile(path string, loc *time.Location) (*Schedule, error) {
	if path == "" {
		return New(nil, loc)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schedule: %w", err)
	}
	var f scheduleFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse schedule %s: %w", path, err)
	}
	s, err := New(f.Meetings, loc)
	if err != nil {
		return nil, fmt.Errorf("schedule %s: %w", path, err)
	}
	return s, nil
}

// New validates meetings and orders them by start. Meeting ids must be
// unique.
func New(meetings []model.Meeting, loc *time.Location) (*Schedule, error) {
	if loc == nil {
		loc = time.Local
	}
	s := &Schedule{loc: loc}
	seen := make(map[int]bool, len(meetings))

	var errs []error
	for _, m := range meetings {
		if err := validate.Struct(m); err != nil {
			errs = append(errs, fmt.Errorf("meeting %d: %w", m.ID, err))
			continue
		}
		if seen[m.ID] {
			errs = append(errs, fmt.Errorf("meeting %d: duplicate id", m.ID))
			continue
		}
		seen[m.ID] = true

		start, err := m.Start(loc)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		s.slots = append(s.slots, Slot{Meeting: m, At: start})
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	sort.SliceStable(s.slots, func(i, j int) bool {
		return s.slots[i].At.Before(s.slots[j].At)
	})
	return s, nil
}

// Len returns the number of meetings.
func (s *Schedule) Len() int {
	if s == nil {
		return 0
	}
	return len(s.slots)
}

// Split sorts the meetings into past, today and upcoming relative to the
// calendar day of now in the schedule's zone.
func (s *Schedule) Split(now time.Time) Groups {
	var g Groups
	if s == nil {
		return g
	}
	today := day(now.In(s.loc))
	for _, slot := range s.slots {
		switch d := day(slot.At); {
		case d.Before(today):
			g.Past = append(g.Past, slot)
		case d.Equal(today):
			g.Today = append(g.Today, slot)
		default:
			g.Upcoming = append(g.Upcoming, slot)
		}
	}
	reverse(g.Past)
	return g
}

// Next returns the earliest meeting starting at or after now.
func (s *Schedule) Next(now time.Time) (Slot, bool) {
	if s == nil {
		return Slot{}, false
	}
	i := sort.Search(len(s.slots), func(i int) bool {
		return !s.slots[i].At.Before(now)
	})
	if i == len(s.slots) {
		return Slot{}, false
	}
	return s.slots[i], true
}

// Minutes returns the meetings that started before now and have minutes,
// newest first.
func (s *Schedule) Minutes(now time.Time) []Slot {
	if s == nil {
		return nil
	}
	var out []Slot
	for _, slot := range s.slots {
		if slot.At.Before(now) && slot.HasMinutes() {
			out = append(out, slot)
		}
	}
	reverse(out)
	return out
}

// Find returns the meeting with the given id.
func (s *Schedule) Find(id int) (Slot, bool) {
	if s == nil {
		return Slot{}, false
	}
	for _, slot := range s.slots {
		if slot.ID == id {
			return slot, true
		}
	}
	return Slot{}, false
}

func day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func reverse(slots []Slot) {
	for i, j := 0, len(slots)-1; i < j; i, j = i+1, j-1 {
		slots[i], slots[j] = slots[j], slots[i]
	}
}
