package meetings

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/me/ccfeedback/pkg/model"
)

// sample is the committee schedule of one January.
var sample = []model.Meeting{
	{ID: 1, Date: "2024-01-15", StartTime: "10:00 AM", Location: "101", Title: "Academic Review", Minutes: "Attendance reviewed."},
	{ID: 2, Date: "2024-01-10", StartTime: "02:00 PM", Location: "203", Title: "Project Discussion"},
	{ID: 3, Date: "2024-01-20", StartTime: "11:30 AM", Location: "305", Title: "Current Project Review", Minutes: "Milestones agreed."},
	{ID: 4, Date: "2024-01-25", StartTime: "09:00 AM", Location: "402", Title: "Future Planning"},
	{ID: 5, Date: "2024-01-30", StartTime: "03:30 PM", Location: "105", Title: "Semester Review"},
	{ID: 6, Date: "2024-01-20", StartTime: "04:00 PM", Location: "305", Title: "Lab Follow-up"},
}

func at(t *testing.T, s string) time.Time {
	t.Helper()
	tm, err := time.ParseInLocation("2006-01-02 15:04", s, time.UTC)
	if err != nil {
		t.Fatal(err)
	}
	return tm
}

func ids(slots []Slot) []int {
	out := make([]int, len(slots))
	for i, s := range slots {
		out[i] = s.ID
	}
	return out
}

func equalIDs(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func newSample(t *testing.T) *Schedule {
	t.Helper()
	s, err := New(sample, time.UTC)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

func TestSplit(t *testing.T) {
	s := newSample(t)
	g := s.Split(at(t, "2024-01-20 13:00"))

	if got := ids(g.Past); !equalIDs(got, []int{1, 2}) {
		t.Errorf("past = %v, want newest first [1 2]", got)
	}
	if got := ids(g.Today); !equalIDs(got, []int{3, 6}) {
		t.Errorf("today = %v, want [3 6]", got)
	}
	if got := ids(g.Upcoming); !equalIDs(got, []int{4, 5}) {
		t.Errorf("upcoming = %v, want [4 5]", got)
	}
}

func TestSplitUsesScheduleZone(t *testing.T) {
	zone := time.FixedZone("UTC+5", 5*3600)
	s, err := New(sample, zone)
	if err != nil {
		t.Fatal(err)
	}
	// 21:00 UTC on the 19th is already the 20th in the schedule's zone.
	g := s.Split(at(t, "2024-01-19 21:00"))
	if got := ids(g.Today); !equalIDs(got, []int{3, 6}) {
		t.Errorf("today = %v, want [3 6]", got)
	}
}

func TestNext(t *testing.T) {
	s := newSample(t)
	tests := []struct {
		now    string
		want   int
		exists bool
	}{
		{"2024-01-01 00:00", 2, true},
		{"2024-01-20 12:00", 6, true},
		{"2024-01-20 16:00", 6, true},
		{"2024-01-20 16:01", 4, true},
		{"2024-02-01 00:00", 0, false},
	}
	for _, tt := range tests {
		got, ok := s.Next(at(t, tt.now))
		if ok != tt.exists || got.ID != tt.want {
			t.Errorf("Next(%s) = %d, %v; want %d, %v", tt.now, got.ID, ok, tt.want, tt.exists)
		}
	}
}

func TestMinutes(t *testing.T) {
	s := newSample(t)
	if got := ids(s.Minutes(at(t, "2024-01-20 12:00"))); !equalIDs(got, []int{3, 1}) {
		t.Errorf("minutes = %v, want [3 1]", got)
	}
	if got := s.Minutes(at(t, "2024-01-01 00:00")); len(got) != 0 {
		t.Errorf("minutes before any meeting = %v", ids(got))
	}
}

func TestFind(t *testing.T) {
	s := newSample(t)
	if m, ok := s.Find(4); !ok || m.Title != "Future Planning" {
		t.Errorf("Find(4) = %+v, %v", m, ok)
	}
	if _, ok := s.Find(99); ok {
		t.Error("Find(99) should miss")
	}
}

func TestNilSchedule(t *testing.T) {
	var s *Schedule
	now := time.Now()
	if s.Len() != 0 || len(s.Minutes(now)) != 0 {
		t.Error("nil schedule should be empty")
	}
	if _, ok := s.Next(now); ok {
		t.Error("nil schedule has no next meeting")
	}
	if g := s.Split(now); g.Past != nil || g.Today != nil || g.Upcoming != nil {
		t.Errorf("Split() = %+v", g)
	}
}

func TestNewRejectsBadMeetings(t *testing.T) {
	tests := []struct {
		name    string
		meeting model.Meeting
		want    string
	}{
		{"blank title", model.Meeting{ID: 1, Title: " ", Date: "2024-01-01", StartTime: "10:00"}, "title"},
		{"bad date", model.Meeting{ID: 1, Title: "T", Date: "01/02/2024", StartTime: "10:00"}, "meetingDate"},
		{"bad clock", model.Meeting{ID: 1, Title: "T", Date: "2024-01-01", StartTime: "ten"}, "unrecognized start"},
		{"no id", model.Meeting{Title: "T", Date: "2024-01-01", StartTime: "10:00"}, "id"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New([]model.Meeting{tt.meeting}, time.UTC)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("New() error = %v, want mention of %q", err, tt.want)
			}
		})
	}

	dup := []model.Meeting{sample[0], sample[0]}
	if _, err := New(dup, time.UTC); err == nil || !strings.Contains(err.Error(), "duplicate id") {
		t.Errorf("duplicate ids: %v", err)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "meetings.yaml")
	data := `meetings:
  - id: 1
    title: Academic Review
    date: "2024-01-15"
    start_time: "10:00 AM"
    location: "101"
    minutes: |
      Attendance reviewed.
  - id: 2
    title: Semester Review
    date: "2024-01-30"
    start_time: "15:30"
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	s, err := LoadFile(path, time.UTC)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if s.Len() != 2 {
		t.Fatalf("Len() = %d", s.Len())
	}
	m, _ := s.Find(1)
	if m.Location != "101" || !m.HasMinutes() || !m.At.Equal(at(t, "2024-01-15 10:00")) {
		t.Errorf("meeting 1 = %+v", m)
	}
}

func TestLoadFileErrors(t *testing.T) {
	if s, err := LoadFile("", nil); err != nil || s.Len() != 0 {
		t.Errorf("LoadFile(\"\") = %v, %v", s, err)
	}
	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"), nil); err == nil {
		t.Error("expected error for missing file")
	}

	path := filepath.Join(t.TempDir(), "bad.yaml")
	os.WriteFile(path, []byte("meetings: [id: 1"), 0o644)
	if _, err := LoadFile(path, nil); err == nil {
		t.Error("expected parse error")
	}
}
