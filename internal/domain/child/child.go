// Package child models a tracked child. Points and level are owned by the
// store's award pipeline; everything else is profile data.
package child

import (
	"slices"
	"time"

	"github.com/champtrack/champtrack-hub/pkg/timeutil"
)

// Gender selects the branch of the metabolic rate formula.
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	GenderOther  Gender = "other"
)

// DisplayName returns the label shown to users.
func (g Gender) DisplayName() string {
	switch g {
	case GenderMale:
		return "Male"
	case GenderFemale:
		return "Female"
	case GenderOther:
		return "Other"
	default:
		return string(g)
	}
}

// Child is owned by a family and owns sports, classes, meals, goals,
// achievements and one nutrition target.
type Child struct {
	ID                string    `json:"id"`
	FamilyID          string    `json:"familyId"`
	FirstName         string    `json:"firstName"`
	LastName          string    `json:"lastName"`
	DateOfBirth       time.Time `json:"dateOfBirth"`
	Gender            Gender    `json:"gender"`
	WeightKg          float64   `json:"weight"`
	HeightCm          float64   `json:"height"`
	PhotoURL          string    `json:"photoURL,omitempty"`
	Allergies         []string  `json:"allergies"`
	MedicalConditions []string  `json:"medicalConditions"`
	EmergencyContact  string    `json:"emergencyContact,omitempty"`
	SchoolGrade       string    `json:"schoolGrade,omitempty"`
	TotalPoints       int       `json:"totalPoints"`
	CurrentLevel      int       `json:"currentLevel"`
	CreatedAt         time.Time `json:"createdAt"`
}

// FullName joins first and last name.
func (c Child) FullName() string {
	if c.LastName == "" {
		return c.FirstName
	}
	return c.FirstName + " " + c.LastName
}

// AgeAt returns the child's age in whole years at now.
func (c Child) AgeAt(now time.Time) int {
	return timeutil.YearsBetween(c.DateOfBirth, now)
}

// Clone returns a copy that shares no slices with c.
func (c Child) Clone() Child {
	c.Allergies = slices.Clone(c.Allergies)
	c.MedicalConditions = slices.Clone(c.MedicalConditions)
	return c
}
