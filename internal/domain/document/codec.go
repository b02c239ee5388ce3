package document

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/champtrack/champtrack-hub/internal/domain/child"
	"github.com/champtrack/champtrack-hub/internal/domain/family"
	"github.com/champtrack/champtrack-hub/internal/domain/gamification"
	"github.com/champtrack/champtrack-hub/internal/domain/goal"
	"github.com/champtrack/champtrack-hub/internal/domain/nutrition"
	"github.com/champtrack/champtrack-hub/internal/domain/schedule"
	"github.com/champtrack/champtrack-hub/internal/domain/shared"
)

// Snapshot is every record of one family.
type Snapshot struct {
	Family       *family.Family             `json:"family"`
	Children     []child.Child              `json:"children"`
	Sports       []schedule.Sport           `json:"sports"`
	Classes      []schedule.Class           `json:"classes"`
	Meals        []nutrition.Meal           `json:"meals"`
	Goals        []goal.Goal                `json:"goals"`
	Achievements []gamification.Achievement `json:"achievements"`
	Targets      []nutrition.Target         `json:"nutritionTargets"`
}

// Len counts the records in the snapshot.
func (s Snapshot) Len() int {
	n := len(s.Children) + len(s.Sports) + len(s.Classes) + len(s.Meals) +
		len(s.Goals) + len(s.Achievements) + len(s.Targets)
	if s.Family != nil {
		n++
	}
	return n
}

// RefFor returns the ref an entity is stored under. Nutrition targets are
// keyed by child id since a child has exactly one.
func RefFor(familyID string, entity any) (Ref, error) {
	var c Collection
	var id string
	switch e := entity.(type) {
	case family.Family:
		c, id = Families, e.ID
	case child.Child:
		c, id = Children, e.ID
	case schedule.Sport:
		c, id = Sports, e.ID
	case schedule.Class:
		c, id = Classes, e.ID
	case nutrition.Meal:
		c, id = Meals, e.ID
	case goal.Goal:
		c, id = Goals, e.ID
	case gamification.Achievement:
		c, id = Achievements, e.ID
	case nutrition.Target:
		c, id = NutritionTargets, e.ChildID
	default:
		return Ref{}, shared.WrapError("document", "Encode", shared.ErrInvalidInput,
			fmt.Sprintf("unsupported entity %T", entity), shared.ErrUnknownCollection)
	}
	ref := Ref{Collection: c, ID: id, FamilyID: familyID}
	return ref, ref.Validate()
}

// Encode converts an entity into a document. Times encode as RFC 3339.
func Encode(familyID string, entity any, at time.Time) (Document, error) {
	ref, err := RefFor(familyID, entity)
	if err != nil {
		return Document{}, err
	}
	body, err := json.Marshal(entity)
	if err != nil {
		return Document{}, fmt.Errorf("encode %s: %w", ref, err)
	}
	return Document{Ref: ref, Body: body, UpdatedAt: at}, nil
}

// EncodeSnapshot converts every record of s, family first.
func EncodeSnapshot(familyID string, s Snapshot, at time.Time) ([]Document, error) {
	entities := make([]any, 0, s.Len())
	if s.Family != nil {
		entities = append(entities, *s.Family)
	}
	for _, v := range s.Children {
		entities = append(entities, v)
	}
	for _, v := range s.Sports {
		entities = append(entities, v)
	}
	for _, v := range s.Classes {
		entities = append(entities, v)
	}
	for _, v := range s.Meals {
		entities = append(entities, v)
	}
	for _, v := range s.Goals {
		entities = append(entities, v)
	}
	for _, v := range s.Achievements {
		entities = append(entities, v)
	}
	for _, v := range s.Targets {
		entities = append(entities, v)
	}

	docs := make([]Document, 0, len(entities))
	for _, e := range entities {
		doc, err := Encode(familyID, e, at)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// DecodeSnapshot rebuilds a family's records. Documents of other families
// are skipped.
func DecodeSnapshot(familyID string, docs []Document) (Snapshot, error) {
	var s Snapshot
	for _, d := range docs {
		if d.FamilyID != familyID {
			continue
		}
		var err error
		switch d.Collection {
		case Families:
			var f family.Family
			if err = json.Unmarshal(d.Body, &f); err == nil {
				s.Family = &f
			}
		case Children:
			s.Children, err = appendDecoded(s.Children, d.Body)
		case Sports:
			s.Sports, err = appendDecoded(s.Sports, d.Body)
		case Classes:
			s.Classes, err = appendDecoded(s.Classes, d.Body)
		case Meals:
			s.Meals, err = appendDecoded(s.Meals, d.Body)
		case Goals:
			s.Goals, err = appendDecoded(s.Goals, d.Body)
		case Achievements:
			s.Achievements, err = appendDecoded(s.Achievements, d.Body)
		case NutritionTargets:
			s.Targets, err = appendDecoded(s.Targets, d.Body)
		default:
			return Snapshot{}, shared.WrapError("document", "Decode", shared.ErrInvalidInput, string(d.Collection), shared.ErrUnknownCollection)
		}
		if err != nil {
			return Snapshot{}, fmt.Errorf("decode %s: %w", d.Ref, err)
		}
	}
	return s, nil
}

func appendDecoded[T any](dst []T, body json.RawMessage) ([]T, error) {
	var v T
	if err := json.Unmarshal(body, &v); err != nil {
		return dst, err
	}
	return append(dst, v), nil
}
