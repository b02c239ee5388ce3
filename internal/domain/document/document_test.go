package document

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/champtrack/champtrack-hub/internal/domain/child"
	"github.com/champtrack/champtrack-hub/internal/domain/family"
	"github.com/champtrack/champtrack-hub/internal/domain/nutrition"
	"github.com/champtrack/champtrack-hub/internal/domain/schedule"
	"github.com/champtrack/champtrack-hub/internal/domain/shared"
)

var at = time.Date(2026, 10, 15, 9, 30, 0, 0, time.UTC)

func TestRefFor(t *testing.T) {
	ref, err := RefFor("fam-1", child.Child{ID: "c-1"})
	require.NoError(t, err)
	assert.Equal(t, Ref{Collection: Children, ID: "c-1", FamilyID: "fam-1"}, ref)

	ref, err = RefFor("fam-1", nutrition.Target{ID: "t-9", ChildID: "c-1"})
	require.NoError(t, err)
	assert.Equal(t, "nutritionTargets/c-1", ref.String())

	_, err = RefFor("fam-1", struct{}{})
	assert.ErrorIs(t, err, shared.ErrUnknownCollection)
	assert.True(t, shared.IsValidation(err))

	_, err = RefFor("fam-1", child.Child{})
	assert.ErrorIs(t, err, shared.ErrMissingDocumentID)

	_, err = RefFor("", child.Child{ID: "c-1"})
	assert.ErrorIs(t, err, shared.ErrMissingFamilyID)
}

func TestEncode_DatesAreRFC3339(t *testing.T) {
	class := schedule.Class{ID: "cl-1", ChildID: "c-1", StartsAt: at, Type: schedule.ClassGame}

	doc, err := Encode("fam-1", class, at)
	require.NoError(t, err)
	assert.Equal(t, Classes, doc.Collection)
	assert.Equal(t, at, doc.UpdatedAt)

	var body map[string]any
	require.NoError(t, json.Unmarshal(doc.Body, &body))
	assert.Equal(t, "2026-10-15T09:30:00Z", body["dateTime"])
	assert.Equal(t, "game", body["type"])
}

func TestSnapshot_RoundTrip(t *testing.T) {
	fam := family.Family{ID: "fam-1", Name: "Smith Family", Children: []string{"c-1"}, CreatedAt: at}
	in := Snapshot{
		Family:   &fam,
		Children: []child.Child{{ID: "c-1", FamilyID: "fam-1", FirstName: "Emma", DateOfBirth: at.AddDate(-12, 0, 0), CreatedAt: at}},
		Classes:  []schedule.Class{{ID: "cl-1", ChildID: "c-1", FamilyID: "fam-1", StartsAt: at, DurationMinutes: 90, CreatedAt: at}},
		Targets:  []nutrition.Target{{ID: "t-1", ChildID: "c-1", Calories: 2000, IsAutoCalculated: true, Date: at, UpdatedAt: at}},
	}

	docs, err := EncodeSnapshot("fam-1", in, at)
	require.NoError(t, err)
	require.Len(t, docs, 4)
	assert.Equal(t, Families, docs[0].Collection)

	out, err := DecodeSnapshot("fam-1", docs)
	require.NoError(t, err)
	assert.Equal(t, in.Family, out.Family)
	assert.Equal(t, in.Children, out.Children)
	assert.Equal(t, in.Classes, out.Classes)
	assert.Equal(t, in.Targets, out.Targets)
	assert.Equal(t, 4, out.Len())
}

func TestDecodeSnapshot_SkipsOtherFamilies(t *testing.T) {
	doc, err := Encode("fam-2", child.Child{ID: "c-2"}, at)
	require.NoError(t, err)

	out, err := DecodeSnapshot("fam-1", []Document{doc})
	require.NoError(t, err)
	assert.Zero(t, out.Len())
}

func TestDecodeSnapshot_Errors(t *testing.T) {
	_, err := DecodeSnapshot("fam-1", []Document{{Ref: Ref{Collection: "pets", ID: "p", FamilyID: "fam-1"}, Body: []byte(`{}`)}})
	assert.ErrorIs(t, err, shared.ErrUnknownCollection)

	_, err = DecodeSnapshot("fam-1", []Document{{Ref: Ref{Collection: Children, ID: "c", FamilyID: "fam-1"}, Body: []byte(`{`)}})
	assert.Error(t, err)
}

func TestMergePatch(t *testing.T) {
	body := json.RawMessage(`{"id":"cl-1","status":"scheduled","pickupAssignedTo":"Dad"}`)

	out, err := MergePatch(body, map[string]any{"status": "completed", "pickupAssignedTo": nil})
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"cl-1","status":"completed","pickupAssignedTo":null}`, string(out))

	out, err = MergePatch(nil, map[string]any{"totalPoints": 30})
	require.NoError(t, err)
	assert.JSONEq(t, `{"totalPoints":30}`, string(out))

	_, err = MergePatch(json.RawMessage(`[1]`), map[string]any{"a": 1})
	assert.Error(t, err)
}

func TestCollection_Valid(t *testing.T) {
	for _, c := range Collections() {
		assert.True(t, c.Valid(), c)
	}
	assert.False(t, Collection("users").Valid())
}
