package http

import (
	"net/http"

	"github.com/champtrack/champtrack-hub/internal/application/store"
	"github.com/champtrack/champtrack-hub/internal/domain/child"
	"github.com/champtrack/champtrack-hub/internal/domain/gamification"
	"github.com/champtrack/champtrack-hub/internal/domain/nutrition"
	"github.com/champtrack/champtrack-hub/internal/domain/schedule"
	"github.com/champtrack/champtrack-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// HEALTH
// ══════════════════════════════════════════════════════════════════════════════

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := s.deps.Health.Check(r.Context())
	code := http.StatusOK
	if !status.Healthy {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, status)
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	status := s.deps.Health.Check(r.Context())
	if !status.Ready {
		writeError(w, http.StatusServiceUnavailable, "not_ready", status.Message)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Server) handleLive(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "alive"})
}

// ══════════════════════════════════════════════════════════════════════════════
// FAMILY AND CHILDREN
// ══════════════════════════════════════════════════════════════════════════════

func (s *Server) handleFamily(w http.ResponseWriter, _ *http.Request) {
	if _, ok := s.deps.Store.Family(); !ok {
		writeError(w, http.StatusNotFound, "not_found", "no family loaded")
		return
	}
	writeJSON(w, http.StatusOK, s.deps.Store.Snapshot())
}

// ChildView is a child with its level and unlocked achievements.
type ChildView struct {
	Child        child.Child                `json:"child"`
	Level        store.LevelInfo            `json:"level"`
	Achievements []gamification.Achievement `json:"achievements"`
}

func (s *Server) handleChild(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	c, ok := s.deps.Store.GetChild(id)
	if !ok {
		writeError(w, http.StatusNotFound, "not_found", "child "+id+" not found")
		return
	}
	level, _ := s.deps.Store.Level(id)
	writeJSON(w, http.StatusOK, ChildView{
		Child:        c,
		Level:        level,
		Achievements: s.deps.Store.GetUnlockedAchievements(id),
	})
}

func (s *Server) handleLevel(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	level, ok := s.deps.Store.Level(id)
	if !ok {
		writeError(w, http.StatusNotFound, "not_found", "child "+id+" not found")
		return
	}
	writeJSON(w, http.StatusOK, level)
}

// NutritionView is one child's intake for a day against the target.
type NutritionView struct {
	ChildID string            `json:"childId"`
	Date    string            `json:"date"`
	Totals  nutrition.Macros  `json:"totals"`
	Target  *nutrition.Target `json:"target,omitempty"`
	Meals   []nutrition.Meal  `json:"meals"`
}

func (s *Server) handleNutrition(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, ok := s.deps.Store.GetChild(id); !ok {
		writeError(w, http.StatusNotFound, "not_found", "child "+id+" not found")
		return
	}
	date, err := s.dateParam(r, "date")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_date", "date must be YYYY-MM-DD")
		return
	}

	view := NutritionView{
		ChildID: id,
		Date:    timeutil.DayKey(date, s.deps.Location),
		Totals:  s.deps.Store.GetDailyNutrition(id, date),
		Meals:   s.deps.Store.GetMeals(id, date),
	}
	if t, ok := s.deps.Store.GetNutritionTarget(id); ok {
		view.Target = &t
	}
	writeJSON(w, http.StatusOK, view)
}

// ══════════════════════════════════════════════════════════════════════════════
// SCHEDULE
// ══════════════════════════════════════════════════════════════════════════════

func (s *Server) handleUpcoming(w http.ResponseWriter, r *http.Request) {
	limit, err := intParam(r, "limit", 10, 100)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_limit", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, s.deps.Store.GetUpcomingClasses(limit))
}

// ConflictsView lists a day's classes and the conflicts among them.
type ConflictsView struct {
	Date      string              `json:"date"`
	Classes   []schedule.Class    `json:"classes"`
	Conflicts []schedule.Conflict `json:"conflicts"`
}

func (s *Server) handleConflicts(w http.ResponseWriter, r *http.Request) {
	date, err := s.dateParam(r, "date")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_date", "date must be YYYY-MM-DD")
		return
	}
	conflicts := s.deps.Store.DetectConflicts(date)
	if conflicts == nil {
		conflicts = []schedule.Conflict{}
	}
	writeJSON(w, http.StatusOK, ConflictsView{
		Date:      timeutil.DayKey(date, s.deps.Location),
		Classes:   s.deps.Store.GetClassesForDate(date),
		Conflicts: conflicts,
	})
}
