// Package document defines the persistence port: entities travel to and from
// storage as JSON documents grouped by family.
package document

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/champtrack/champtrack-hub/internal/domain/shared"
)

// Collection names a kind of document.
type Collection string

const (
	Families         Collection = "families"
	Children         Collection = "children"
	Sports           Collection = "sports"
	Classes          Collection = "classes"
	Meals            Collection = "meals"
	Goals            Collection = "goals"
	Achievements     Collection = "achievements"
	NutritionTargets Collection = "nutritionTargets"
)

// Collections lists every collection in dependency order.
func Collections() []Collection {
	return []Collection{Families, Children, Sports, Classes, Meals, Goals, Achievements, NutritionTargets}
}

// Valid reports whether c is a known collection.
func (c Collection) Valid() bool {
	for _, known := range Collections() {
		if c == known {
			return true
		}
	}
	return false
}

// Sort orders docs by collection dependency order, then by id.
func Sort(docs []Document) {
	rank := make(map[Collection]int)
	for i, c := range Collections() {
		rank[c] = i
	}
	sort.SliceStable(docs, func(i, j int) bool {
		ri, rj := rank[docs[i].Collection], rank[docs[j].Collection]
		if ri != rj {
			return ri < rj
		}
		return docs[i].ID < docs[j].ID
	})
}

// Ref addresses one document.
type Ref struct {
	Collection Collection `json:"collection"`
	ID         string     `json:"id"`
	FamilyID   string     `json:"familyId"`
}

func (r Ref) String() string {
	return fmt.Sprintf("%s/%s", r.Collection, r.ID)
}

// Validate checks that the ref can be stored.
func (r Ref) Validate() error {
	if !r.Collection.Valid() {
		return shared.WrapError("document", "Validate", shared.ErrInvalidInput, string(r.Collection), shared.ErrUnknownCollection)
	}
	if r.ID == "" {
		return shared.ErrMissingDocumentID
	}
	if r.FamilyID == "" {
		return shared.ErrMissingFamilyID
	}
	return nil
}

// Document is a stored entity body.
type Document struct {
	Ref
	Body      json.RawMessage `json:"body"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// Adapter writes documents. Update merges top-level fields into the stored
// body; a nil value stores null. Update of a missing document returns an
// error matching shared.ErrNotFound.
type Adapter interface {
	Save(ctx context.Context, doc Document) error
	Update(ctx context.Context, ref Ref, fields map[string]any) error
	Delete(ctx context.Context, ref Ref) error
}

// Loader reads every document of a family.
type Loader interface {
	LoadFamily(ctx context.Context, familyID string) ([]Document, error)
}

// Subscriber delivers full family snapshots whenever they change. The channel
// is closed when ctx is done.
type Subscriber interface {
	Subscribe(ctx context.Context, familyID string) (<-chan []Document, error)
}

// Store is a durable document backend.
type Store interface {
	Adapter
	Loader
}

// MergePatch applies fields onto a JSON object body.
func MergePatch(body json.RawMessage, fields map[string]any) (json.RawMessage, error) {
	obj := map[string]json.RawMessage{}
	if len(body) > 0 {
		if err := json.Unmarshal(body, &obj); err != nil {
			return nil, fmt.Errorf("decode body: %w", err)
		}
	}
	for k, v := range fields {
		raw, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("encode field %q: %w", k, err)
		}
		obj[k] = raw
	}
	out, err := json.Marshal(obj)
	if err != nil {
		return nil, fmt.Errorf("encode body: %w", err)
	}
	return out, nil
}
