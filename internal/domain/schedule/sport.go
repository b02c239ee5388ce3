// Package schedule models a child's sports, their classes and the
// same-day conflict analysis over those classes.
package schedule

import "time"

const (
	DefaultSportColor = "4A90E2"
	DefaultSportIcon  = "sportscourt.fill"
)

// Sport is an activity a child is enrolled in.
type Sport struct {
	ID           string     `json:"id"`
	ChildID      string     `json:"childId"`
	FamilyID     string     `json:"familyId"`
	Name         string     `json:"sportName"`
	TeamName     string     `json:"teamName,omitempty"`
	CoachName    string     `json:"coachName,omitempty"`
	CoachContact string     `json:"coachContact,omitempty"`
	SeasonStart  *time.Time `json:"seasonStart,omitempty"`
	SeasonEnd    *time.Time `json:"seasonEnd,omitempty"`
	Location     string     `json:"location,omitempty"`
	ColorHex     string     `json:"colorHex"`
	IconName     string     `json:"iconName"`
	IsActive     bool       `json:"isActive"`
	CreatedAt    time.Time  `json:"createdAt"`
}

// InSeason reports whether at falls within the season bounds that are set.
func (s Sport) InSeason(at time.Time) bool {
	if s.SeasonStart != nil && at.Before(*s.SeasonStart) {
		return false
	}
	if s.SeasonEnd != nil && at.After(*s.SeasonEnd) {
		return false
	}
	return true
}

type sportStyle struct {
	color string
	icon  string
}

var catalog = map[string]sportStyle{
	"Soccer":       {"7ED321", "soccerball"},
	"Basketball":   {"F5A623", "basketball.fill"},
	"Swimming":     {"4A90E2", "figure.pool.swim"},
	"Baseball":     {"E74C3C", "baseball.fill"},
	"Football":     {"8B4513", "football.fill"},
	"Tennis":       {"9B59B6", "tennis.racket"},
	"Volleyball":   {"3498DB", "volleyball.fill"},
	"Hockey":       {"2C3E50", "hockey.puck.fill"},
	"Golf":         {"27AE60", "figure.golf"},
	"Gymnastics":   {"E91E63", "figure.gymnastics"},
	"Track":        {"FF5722", "figure.run"},
	"Dance":        {"9C27B0", "figure.dance"},
	"Martial Arts": {"795548", "figure.martial.arts"},
	"Cycling":      {"607D8B", "bicycle"},
	"Other":        {DefaultSportColor, DefaultSportIcon},
}

// StyleFor returns the display color and icon for a sport name,
// falling back to the defaults for names outside the catalog.
func StyleFor(name string) (colorHex, icon string) {
	if st, ok := catalog[name]; ok {
		return st.color, st.icon
	}
	return DefaultSportColor, DefaultSportIcon
}

// ApplyDefaults fills an empty color or icon from the catalog.
func (s *Sport) ApplyDefaults() {
	color, icon := StyleFor(s.Name)
	if s.ColorHex == "" {
		s.ColorHex = color
	}
	if s.IconName == "" {
		s.IconName = icon
	}
}

// Clone returns a copy that shares no pointers with s.
func (s Sport) Clone() Sport {
	if s.SeasonStart != nil {
		t := *s.SeasonStart
		s.SeasonStart = &t
	}
	if s.SeasonEnd != nil {
		t := *s.SeasonEnd
		s.SeasonEnd = &t
	}
	return s
}
