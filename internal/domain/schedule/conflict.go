package schedule

import (
	"fmt"
	"sort"
	"time"

	"github.com/champtrack/champtrack-hub/pkg/timeutil"
)

// ConflictType identifies the kind of scheduling problem.
type ConflictType string

const (
	ChildDoubleBooked        ConflictType = "child_double_booked"
	ParentDoubleBooked       ConflictType = "parent_double_booked"
	UnassignedTransportation ConflictType = "unassigned_transportation"
)

// Conflict is a problem found on one calendar day.
type Conflict struct {
	Type        ConflictType `json:"type"`
	Description string       `json:"description"`
	ClassIDs    []string     `json:"classIds"`
}

// DetectOption adjusts conflict detection.
type DetectOption func(*detectOptions)

type detectOptions struct {
	parentChecks bool
}

// WithoutParentChecks disables the adult double-booking check.
func WithoutParentChecks() DetectOption {
	return func(o *detectOptions) { o.parentChecks = false }
}

// DetectConflicts analyses the classes that start on day's calendar date in loc.
// names resolves a child id to a display name and may return "" when unknown.
// Classes of every status are considered. Only adjacent pairs in start order are
// compared, so a chain of overlaps yields one conflict per link.
func DetectConflicts(classes []Class, day time.Time, loc *time.Location, names func(childID string) string, opts ...DetectOption) []Conflict {
	o := detectOptions{parentChecks: true}
	for _, opt := range opts {
		opt(&o)
	}

	var dayClasses []Class
	for _, c := range classes {
		if timeutil.IsSameDay(c.StartsAt, day, loc) {
			dayClasses = append(dayClasses, c)
		}
	}
	if len(dayClasses) == 0 {
		return nil
	}

	var conflicts []Conflict

	byChild := groupBy(dayClasses, func(c Class) []string { return []string{c.ChildID} })
	for _, childID := range sortedKeys(byChild) {
		group := byChild[childID]
		for i := 0; i+1 < len(group); i++ {
			a, b := group[i], group[i+1]
			if a.EndTime().After(b.StartsAt) {
				conflicts = append(conflicts, Conflict{
					Type:        ChildDoubleBooked,
					Description: childDescription(names, childID),
					ClassIDs:    []string{a.ID, b.ID},
				})
			}
		}
	}

	if o.parentChecks {
		byAdult := groupBy(dayClasses, Class.Drivers)
		for _, adult := range sortedKeys(byAdult) {
			group := byAdult[adult]
			for i := 0; i+1 < len(group); i++ {
				a, b := group[i], group[i+1]
				if a.ChildID != b.ChildID && a.EndTime().After(b.StartsAt) {
					conflicts = append(conflicts, Conflict{
						Type:        ParentDoubleBooked,
						Description: fmt.Sprintf("%s is assigned to overlapping activities", adult),
						ClassIDs:    []string{a.ID, b.ID},
					})
				}
			}
		}
	}

	for _, c := range dayClasses {
		if c.AssignmentStatus() == Unassigned {
			conflicts = append(conflicts, Conflict{
				Type:        UnassignedTransportation,
				Description: "Transportation not assigned",
				ClassIDs:    []string{c.ID},
			})
		}
	}

	return conflicts
}

func childDescription(names func(string) string, childID string) string {
	name := ""
	if names != nil {
		name = names(childID)
	}
	if name == "" {
		name = "Child"
	}
	return name + " has overlapping activities"
}

// groupBy buckets classes under every key returned by keys, each bucket
// sorted by start time.
func groupBy(classes []Class, keys func(Class) []string) map[string][]Class {
	out := make(map[string][]Class)
	for _, c := range classes {
		for _, k := range keys(c) {
			out[k] = append(out[k], c)
		}
	}
	for _, group := range out {
		sort.SliceStable(group, func(i, j int) bool {
			return group[i].StartsAt.Before(group[j].StartsAt)
		})
	}
	return out
}

func sortedKeys(m map[string][]Class) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
