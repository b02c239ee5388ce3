package shared

import (
	"encoding/json"
	"time"
)

// EventType represents the type of domain event.
type EventType string

// Domain event types. Each event represents something significant that
// happened to a family's records.
const (
	// Family events
	EventChildAdded   EventType = "family.child_added"
	EventChildRemoved EventType = "family.child_removed"

	// Progress events
	EventPointsAwarded       EventType = "progress.points_awarded"
	EventLevelUp             EventType = "progress.level_up"
	EventAchievementUnlocked EventType = "progress.achievement_unlocked"
	EventGoalCompleted       EventType = "progress.goal_completed"
	EventClassCompleted      EventType = "schedule.class_completed"
	EventNutritionGoalMet    EventType = "nutrition.daily_goal_met"

	// System events
	EventPersistenceFailed EventType = "system.persistence_failed"
	EventSnapshotApplied   EventType = "system.snapshot_applied"
)

// Event is the base interface for all domain events.
type Event interface {
	// EventType returns the type of the event.
	EventType() EventType

	// OccurredAt returns when the event occurred.
	OccurredAt() time.Time

	// AggregateID returns the ID of the aggregate that produced this event.
	AggregateID() string

	// Payload returns the event data as a map for serialization.
	Payload() map[string]interface{}
}

// BaseEvent provides common event functionality.
type BaseEvent struct {
	Type          EventType `json:"type"`
	Timestamp     time.Time `json:"timestamp"`
	AggregateId   string    `json:"aggregate_id"`
	Version       int       `json:"version"`
	CorrelationID string    `json:"correlation_id,omitempty"`
}

// EventType implements Event interface.
func (e BaseEvent) EventType() EventType {
	return e.Type
}

// OccurredAt implements Event interface.
func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// AggregateID implements Event interface.
func (e BaseEvent) AggregateID() string {
	return e.AggregateId
}

// NewBaseEvent creates a new base event stamped at the given instant.
func NewBaseEvent(eventType EventType, aggregateID string, at time.Time) BaseEvent {
	return BaseEvent{
		Type:        eventType,
		Timestamp:   at,
		AggregateId: aggregateID,
		Version:     1,
	}
}

// WithCorrelationID sets the correlation ID for tracing.
func (e BaseEvent) WithCorrelationID(id string) BaseEvent {
	e.CorrelationID = id
	return e
}

// ═══════════════════════════════════════════════════════════════════════════
// Family Events
// ═══════════════════════════════════════════════════════════════════════════

// ChildAddedEvent is emitted when a child joins a family.
type ChildAddedEvent struct {
	BaseEvent
	FamilyID  string `json:"family_id"`
	FirstName string `json:"first_name"`
}

// Payload implements Event interface.
func (e ChildAddedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"family_id":  e.FamilyID,
		"first_name": e.FirstName,
	}
}

func NewChildAddedEvent(childID, familyID, firstName string, at time.Time) ChildAddedEvent {
	return ChildAddedEvent{
		BaseEvent: NewBaseEvent(EventChildAdded, childID, at),
		FamilyID:  familyID,
		FirstName: firstName,
	}
}

// ChildRemovedEvent is emitted after a child and everything it owns is deleted.
type ChildRemovedEvent struct {
	BaseEvent
	FamilyID string `json:"family_id"`
	Removed  int    `json:"removed"`
}

// Payload implements Event interface.
func (e ChildRemovedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"family_id": e.FamilyID,
		"removed":   e.Removed,
	}
}

func NewChildRemovedEvent(childID, familyID string, removed int, at time.Time) ChildRemovedEvent {
	return ChildRemovedEvent{
		BaseEvent: NewBaseEvent(EventChildRemoved, childID, at),
		FamilyID:  familyID,
		Removed:   removed,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Progress Events
// ═══════════════════════════════════════════════════════════════════════════

// PointsAwardedEvent is emitted when points are added to a child's total.
type PointsAwardedEvent struct {
	BaseEvent
	Amount   int    `json:"amount"`
	NewTotal int    `json:"new_total"`
	Source   string `json:"source"`
}

// Payload implements Event interface.
func (e PointsAwardedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"amount":    e.Amount,
		"new_total": e.NewTotal,
		"source":    e.Source,
	}
}

func NewPointsAwardedEvent(childID string, amount, newTotal int, source string, at time.Time) PointsAwardedEvent {
	return PointsAwardedEvent{
		BaseEvent: NewBaseEvent(EventPointsAwarded, childID, at),
		Amount:    amount,
		NewTotal:  newTotal,
		Source:    source,
	}
}

// LevelUpEvent is emitted when a child's level changes.
type LevelUpEvent struct {
	BaseEvent
	OldLevel int    `json:"old_level"`
	NewLevel int    `json:"new_level"`
	Title    string `json:"title"`
}

// Payload implements Event interface.
func (e LevelUpEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"old_level": e.OldLevel,
		"new_level": e.NewLevel,
		"title":     e.Title,
	}
}

func NewLevelUpEvent(childID string, oldLevel, newLevel int, title string, at time.Time) LevelUpEvent {
	return LevelUpEvent{
		BaseEvent: NewBaseEvent(EventLevelUp, childID, at),
		OldLevel:  oldLevel,
		NewLevel:  newLevel,
		Title:     title,
	}
}

// AchievementUnlockedEvent is emitted once per achievement.
type AchievementUnlockedEvent struct {
	BaseEvent
	AchievementID string `json:"achievement_id"`
	Title         string `json:"title"`
	Points        int    `json:"points"`
}

// Payload implements Event interface.
func (e AchievementUnlockedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"achievement_id": e.AchievementID,
		"title":          e.Title,
		"points":         e.Points,
	}
}

func NewAchievementUnlockedEvent(childID, achievementID, title string, points int, at time.Time) AchievementUnlockedEvent {
	return AchievementUnlockedEvent{
		BaseEvent:     NewBaseEvent(EventAchievementUnlocked, childID, at),
		AchievementID: achievementID,
		Title:         title,
		Points:        points,
	}
}

// GoalCompletedEvent is emitted when a goal transitions to completed.
type GoalCompletedEvent struct {
	BaseEvent
	GoalID string `json:"goal_id"`
	Points int    `json:"points"`
}

// Payload implements Event interface.
func (e GoalCompletedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"goal_id": e.GoalID,
		"points":  e.Points,
	}
}

func NewGoalCompletedEvent(childID, goalID string, points int, at time.Time) GoalCompletedEvent {
	return GoalCompletedEvent{
		BaseEvent: NewBaseEvent(EventGoalCompleted, childID, at),
		GoalID:    goalID,
		Points:    points,
	}
}

// ClassCompletedEvent is emitted when a scheduled class is marked complete.
type ClassCompletedEvent struct {
	BaseEvent
	ClassID   string `json:"class_id"`
	ClassType string `json:"class_type"`
	Points    int    `json:"points"`
}

// Payload implements Event interface.
func (e ClassCompletedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"class_id":   e.ClassID,
		"class_type": e.ClassType,
		"points":     e.Points,
	}
}

func NewClassCompletedEvent(childID, classID, classType string, points int, at time.Time) ClassCompletedEvent {
	return ClassCompletedEvent{
		BaseEvent: NewBaseEvent(EventClassCompleted, childID, at),
		ClassID:   classID,
		ClassType: classType,
		Points:    points,
	}
}

// NutritionGoalMetEvent is emitted when a day's meals reach the bonus threshold.
type NutritionGoalMetEvent struct {
	BaseEvent
	Day      string  `json:"day"`
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
}

// Payload implements Event interface.
func (e NutritionGoalMetEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"day":      e.Day,
		"calories": e.Calories,
		"protein":  e.Protein,
	}
}

func NewNutritionGoalMetEvent(childID, day string, calories, protein float64, at time.Time) NutritionGoalMetEvent {
	return NutritionGoalMetEvent{
		BaseEvent: NewBaseEvent(EventNutritionGoalMet, childID, at),
		Day:       day,
		Calories:  calories,
		Protein:   protein,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// System Events
// ═══════════════════════════════════════════════════════════════════════════

// PersistenceFailedEvent is emitted when a queued write is given up on.
type PersistenceFailedEvent struct {
	BaseEvent
	Collection string `json:"collection"`
	Operation  string `json:"operation"`
	Error      string `json:"error"`
	Attempts   int    `json:"attempts"`
}

// Payload implements Event interface.
func (e PersistenceFailedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"collection": e.Collection,
		"operation":  e.Operation,
		"error":      e.Error,
		"attempts":   e.Attempts,
	}
}

func NewPersistenceFailedEvent(entityID, collection, operation, errMsg string, attempts int, at time.Time) PersistenceFailedEvent {
	return PersistenceFailedEvent{
		BaseEvent:  NewBaseEvent(EventPersistenceFailed, entityID, at),
		Collection: collection,
		Operation:  operation,
		Error:      errMsg,
		Attempts:   attempts,
	}
}

// SnapshotAppliedEvent is emitted when a remote family snapshot replaces local records.
type SnapshotAppliedEvent struct {
	BaseEvent
	Documents int `json:"documents"`
}

// Payload implements Event interface.
func (e SnapshotAppliedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"documents": e.Documents,
	}
}

func NewSnapshotAppliedEvent(familyID string, documents int, at time.Time) SnapshotAppliedEvent {
	return SnapshotAppliedEvent{
		BaseEvent: NewBaseEvent(EventSnapshotApplied, familyID, at),
		Documents: documents,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Event Envelope (for serialization and transport)
// ═══════════════════════════════════════════════════════════════════════════

// EventEnvelope wraps an event for transport/storage.
type EventEnvelope struct {
	ID            string          `json:"id"`
	Type          EventType       `json:"type"`
	AggregateID   string          `json:"aggregate_id"`
	Timestamp     time.Time       `json:"timestamp"`
	Version       int             `json:"version"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	Payload       json.RawMessage `json:"payload"`
}

// EventHandler is a function that handles an event.
type EventHandler func(event Event) error

// EventPublisher defines the interface for publishing events.
type EventPublisher interface {
	// Publish sends an event to subscribers.
	Publish(event Event) error
}

// EventSubscriber defines the interface for subscribing to events.
type EventSubscriber interface {
	// Subscribe registers a handler for an event type.
	Subscribe(eventType EventType, handler EventHandler) error

	// SubscribeAll registers a handler for all events.
	SubscribeAll(handler EventHandler) error
}

// EventBus combines publishing and subscribing.
type EventBus interface {
	EventPublisher
	EventSubscriber
}
