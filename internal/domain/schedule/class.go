package schedule

import (
	"slices"
	"time"
)

// DefaultDurationMinutes applies when a class is added without a duration.
const DefaultDurationMinutes = 60

// ClassType determines the points a completed class is worth.
type ClassType string

const (
	ClassPractice   ClassType = "practice"
	ClassGame       ClassType = "game"
	ClassTournament ClassType = "tournament"
	ClassTraining   ClassType = "training"
)

// Points returns the award for completing a class of this type.
func (t ClassType) Points() int {
	switch t {
	case ClassPractice:
		return 10
	case ClassGame:
		return 20
	case ClassTournament:
		return 30
	case ClassTraining:
		return 15
	default:
		return 0
	}
}

func (t ClassType) DisplayName() string {
	switch t {
	case ClassPractice:
		return "Practice"
	case ClassGame:
		return "Game"
	case ClassTournament:
		return "Tournament"
	case ClassTraining:
		return "Training"
	default:
		return string(t)
	}
}

// ClassStatus is the lifecycle of a class. Completion is one-way.
type ClassStatus string

const (
	StatusScheduled ClassStatus = "scheduled"
	StatusCompleted ClassStatus = "completed"
	StatusCancelled ClassStatus = "cancelled"
)

// Recurrence describes how often a class repeats.
type Recurrence string

const (
	RecurNone     Recurrence = "none"
	RecurWeekly   Recurrence = "weekly"
	RecurBiweekly Recurrence = "biweekly"
	RecurMonthly  Recurrence = "monthly"
)

// Location is where a class takes place.
type Location struct {
	Name      string   `json:"name"`
	Address   string   `json:"address,omitempty"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
}

// AssignmentStatus summarises transportation coverage for a class.
type AssignmentStatus string

const (
	FullyAssigned     AssignmentStatus = "fully_assigned"
	PartiallyAssigned AssignmentStatus = "partially_assigned"
	Unassigned        AssignmentStatus = "unassigned"
)

// Class is one scheduled session of a sport.
type Class struct {
	ID              string      `json:"id"`
	SportID         string      `json:"sportId"`
	ChildID         string      `json:"childId"`
	FamilyID        string      `json:"familyId"`
	Type            ClassType   `json:"type"`
	StartsAt        time.Time   `json:"dateTime"`
	DurationMinutes int         `json:"duration"`
	Location        *Location   `json:"location,omitempty"`
	Recurring       Recurrence  `json:"recurringFrequency"`
	RecurringUntil  *time.Time  `json:"recurringUntil,omitempty"`
	DropoffAssignee *string     `json:"dropoffAssignedTo,omitempty"`
	PickupAssignee  *string     `json:"pickupAssignedTo,omitempty"`
	Notes           string      `json:"notes,omitempty"`
	EquipmentNeeded []string    `json:"equipmentNeeded"`
	Status          ClassStatus `json:"status"`
	CreatedAt       time.Time   `json:"createdAt"`
}

// EndTime is the start plus the duration.
func (c Class) EndTime() time.Time {
	return c.StartsAt.Add(time.Duration(c.DurationMinutes) * time.Minute)
}

// AssignmentStatus reports how many of dropoff and pickup have an adult.
func (c Class) AssignmentStatus() AssignmentStatus {
	switch {
	case c.DropoffAssignee != nil && c.PickupAssignee != nil:
		return FullyAssigned
	case c.DropoffAssignee != nil || c.PickupAssignee != nil:
		return PartiallyAssigned
	default:
		return Unassigned
	}
}

// Drivers returns the distinct adults assigned to the class.
func (c Class) Drivers() []string {
	var out []string
	if c.DropoffAssignee != nil {
		out = append(out, *c.DropoffAssignee)
	}
	if c.PickupAssignee != nil && !slices.Contains(out, *c.PickupAssignee) {
		out = append(out, *c.PickupAssignee)
	}
	return out
}

// ApplyDefaults fills zero-valued duration, recurrence and status.
func (c *Class) ApplyDefaults() {
	if c.DurationMinutes <= 0 {
		c.DurationMinutes = DefaultDurationMinutes
	}
	if c.Recurring == "" {
		c.Recurring = RecurNone
	}
	if c.Status == "" {
		c.Status = StatusScheduled
	}
}

// Clone returns a deep copy of c.
func (c Class) Clone() Class {
	if c.Location != nil {
		loc := *c.Location
		c.Location = &loc
	}
	if c.RecurringUntil != nil {
		t := *c.RecurringUntil
		c.RecurringUntil = &t
	}
	c.DropoffAssignee = cloneString(c.DropoffAssignee)
	c.PickupAssignee = cloneString(c.PickupAssignee)
	c.EquipmentNeeded = slices.Clone(c.EquipmentNeeded)
	return c
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
