package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/champtrack/champtrack-hub/config"
	"github.com/champtrack/champtrack-hub/internal/application/store"
	"github.com/champtrack/champtrack-hub/internal/domain/schedule"
	"github.com/champtrack/champtrack-hub/internal/interface/http/handlers"
	"github.com/champtrack/champtrack-hub/pkg/timeutil"
)

var now = time.Date(2026, 10, 14, 9, 30, 0, 0, time.UTC)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *APIError       `json:"error"`
}

func newTestServer(t *testing.T, health handlers.HealthChecker) (*Server, store.Demo) {
	t.Helper()
	clock := timeutil.FixedClock(now)
	st := store.New(store.WithClock(clock), store.WithLocation(time.UTC))
	demo := st.SeedDemo()
	srv := NewServer(config.HTTPConfig{}, Dependencies{
		Store:    st,
		Health:   health,
		Location: time.UTC,
		Clock:    clock,
	})
	return srv, demo
}

func get(t *testing.T, srv *Server, path string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return rec, env
}

func TestServer_Health(t *testing.T) {
	checker := handlers.NewCompositeHealthChecker("test")
	checker.AddCheck("ok", func(context.Context) error { return nil })
	srv, _ := newTestServer(t, checker)

	rec, env := get(t, srv, "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, env.Success)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	checker.AddCheck("database", func(context.Context) error { return errors.New("connection refused") })
	rec, env = get(t, srv, "/health")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	var status handlers.HealthStatus
	require.NoError(t, json.Unmarshal(env.Data, &status))
	assert.Equal(t, "Some checks failed: database", status.Message)

	rec, env = get(t, srv, "/ready")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "not_ready", env.Error.Code)

	rec, _ = get(t, srv, "/live")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestServer_Family(t *testing.T) {
	srv, demo := newTestServer(t, nil)

	rec, env := get(t, srv, "/api/v1/family")
	require.Equal(t, http.StatusOK, rec.Code)
	var snap struct {
		Family struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		} `json:"family"`
		Children []json.RawMessage `json:"children"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &snap))
	assert.Equal(t, demo.FamilyID, snap.Family.ID)
	assert.Equal(t, "Smith Family", snap.Family.Name)
	assert.Len(t, snap.Children, 2)
}

func TestServer_FamilyMissing(t *testing.T) {
	srv := NewServer(config.HTTPConfig{}, Dependencies{Store: store.New()})
	rec, env := get(t, srv, "/api/v1/family")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.False(t, env.Success)
}

func TestServer_ChildAndLevel(t *testing.T) {
	srv, demo := newTestServer(t, nil)

	rec, env := get(t, srv, "/api/v1/children/"+demo.EmmaID+"/level")
	require.Equal(t, http.StatusOK, rec.Code)
	var level store.LevelInfo
	require.NoError(t, json.Unmarshal(env.Data, &level))
	assert.Equal(t, 375, level.Points)
	assert.Equal(t, 3, level.Level)

	rec, env = get(t, srv, "/api/v1/children/"+demo.JakeID)
	require.Equal(t, http.StatusOK, rec.Code)
	var view struct {
		Child struct {
			FirstName string `json:"firstName"`
		} `json:"child"`
		Level store.LevelInfo `json:"level"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &view))
	assert.Equal(t, "Jake", view.Child.FirstName)
	assert.Equal(t, 180, view.Level.Points)

	rec, _ = get(t, srv, "/api/v1/children/nobody")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServer_Nutrition(t *testing.T) {
	srv, demo := newTestServer(t, nil)

	rec, env := get(t, srv, "/api/v1/children/"+demo.EmmaID+"/nutrition")
	require.Equal(t, http.StatusOK, rec.Code)
	var view NutritionView
	require.NoError(t, json.Unmarshal(env.Data, &view))
	assert.Equal(t, "2026-10-14", view.Date)
	assert.InDelta(t, 355, view.Totals.Calories, 0.001)
	assert.NotNil(t, view.Target)
	assert.NotEmpty(t, view.Meals)

	rec, env = get(t, srv, "/api/v1/children/"+demo.EmmaID+"/nutrition?date=2026-10-20")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(env.Data, &view))
	assert.Zero(t, view.Totals.Calories)

	rec, env = get(t, srv, "/api/v1/children/"+demo.EmmaID+"/nutrition?date=14.10.2026")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_date", env.Error.Code)
}

func TestServer_Schedule(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	rec, env := get(t, srv, "/api/v1/classes/upcoming?limit=2")
	require.Equal(t, http.StatusOK, rec.Code)
	var classes []schedule.Class
	require.NoError(t, json.Unmarshal(env.Data, &classes))
	assert.Len(t, classes, 2)

	rec, env = get(t, srv, "/api/v1/classes/upcoming?limit=0")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(env.Data, &classes))
	assert.Empty(t, classes)

	rec, _ = get(t, srv, "/api/v1/classes/upcoming?limit=-1")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, env = get(t, srv, "/api/v1/conflicts?date=2026-10-17")
	require.Equal(t, http.StatusOK, rec.Code)
	var view ConflictsView
	require.NoError(t, json.Unmarshal(env.Data, &view))
	assert.Equal(t, "2026-10-17", view.Date)
	assert.NotEmpty(t, view.Classes)
	var types []schedule.ConflictType
	for _, c := range view.Conflicts {
		types = append(types, c.Type)
	}
	assert.Contains(t, types, schedule.UnassignedTransportation)
}

func TestServer_RecoversFromPanic(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	h := srv.recoveryMiddleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
