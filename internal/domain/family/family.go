// Package family models the tenant that groups children and adult members.
package family

import (
	"slices"
	"time"
)

// Family is the top-level tenant. Members holds user ids, Children holds child ids.
type Family struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedBy string    `json:"createdBy"`
	Members   []string  `json:"members"`
	Children  []string  `json:"children"`
	CreatedAt time.Time `json:"createdAt"`
}

// HasChild reports whether childID is registered with the family.
func (f Family) HasChild(childID string) bool {
	return slices.Contains(f.Children, childID)
}

// HasMember reports whether userID is an adult member of the family.
func (f Family) HasMember(userID string) bool {
	return slices.Contains(f.Members, userID)
}

// Clone returns a copy that shares no slices with f.
func (f Family) Clone() Family {
	f.Members = slices.Clone(f.Members)
	f.Children = slices.Clone(f.Children)
	return f
}

// Role is a user's relation to the family.
type Role string

const (
	RoleParent   Role = "parent"
	RoleChild    Role = "child"
	RoleObserver Role = "observer"
)

// DisplayName returns the label shown to users.
func (r Role) DisplayName() string {
	switch r {
	case RoleParent:
		return "Parent"
	case RoleChild:
		return "Child"
	case RoleObserver:
		return "Observer"
	default:
		return string(r)
	}
}

// User is an account holder. Authentication happens elsewhere; this is profile data.
type User struct {
	ID                      string                  `json:"id"`
	Email                   string                  `json:"email"`
	DisplayName             string                  `json:"displayName"`
	Role                    Role                    `json:"role"`
	FamilyID                string                  `json:"familyId,omitempty"`
	PhotoURL                string                  `json:"photoURL,omitempty"`
	NotificationPreferences NotificationPreferences `json:"notificationPreferences"`
	CreatedAt               time.Time               `json:"createdAt"`
	LastLoginAt             time.Time               `json:"lastLoginAt"`
}

// NotificationPreferences controls which reminders a user receives.
type NotificationPreferences struct {
	PushEnabled           bool `json:"pushEnabled"`
	EmailEnabled          bool `json:"emailEnabled"`
	SMSEnabled            bool `json:"smsEnabled"`
	ScheduleReminders     bool `json:"scheduleReminders"`
	NutritionReminders    bool `json:"nutritionReminders"`
	AchievementAlerts     bool `json:"achievementAlerts"`
	ReminderMinutesBefore int  `json:"reminderMinutesBefore"`
	QuietHoursStart       *int `json:"quietHoursStart,omitempty"`
	QuietHoursEnd         *int `json:"quietHoursEnd,omitempty"`
}

// DefaultNotificationPreferences enables everything except SMS, 30 minutes ahead.
func DefaultNotificationPreferences() NotificationPreferences {
	return NotificationPreferences{
		PushEnabled:           true,
		EmailEnabled:          true,
		ScheduleReminders:     true,
		NutritionReminders:    true,
		AchievementAlerts:     true,
		ReminderMinutesBefore: 30,
	}
}

// InQuietHours reports whether hour (0-23) falls in the quiet window.
// Windows may wrap midnight, e.g. 22 to 7.
func (p NotificationPreferences) InQuietHours(hour int) bool {
	if p.QuietHoursStart == nil || p.QuietHoursEnd == nil {
		return false
	}
	start, end := *p.QuietHoursStart, *p.QuietHoursEnd
	if start == end {
		return false
	}
	if start < end {
		return hour >= start && hour < end
	}
	return hour >= start || hour < end
}
