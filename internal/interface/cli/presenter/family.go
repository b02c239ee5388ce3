// Package presenter renders store state for the terminal.
package presenter

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/champtrack/champtrack-hub/internal/application/store"
	"github.com/champtrack/champtrack-hub/internal/domain/child"
	"github.com/champtrack/champtrack-hub/internal/domain/document"
	"github.com/champtrack/champtrack-hub/internal/domain/family"
	"github.com/champtrack/champtrack-hub/internal/domain/gamification"
	"github.com/champtrack/champtrack-hub/internal/domain/goal"
	"github.com/champtrack/champtrack-hub/internal/domain/nutrition"
	"github.com/champtrack/champtrack-hub/internal/domain/schedule"
	"github.com/champtrack/champtrack-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// STYLES
// ══════════════════════════════════════════════════════════════════════════════

var (
	colorTitle   = lipgloss.Color("#2CD7C7")
	colorHeading = lipgloss.Color("#20B9B4")
	colorMuted   = lipgloss.Color("#6C7A89")
	colorWarning = lipgloss.Color("#F4D03F")
	colorGood    = lipgloss.Color("#7ED321")
)

// Styles are the lipgloss styles used by the presenter.
type Styles struct {
	Title   lipgloss.Style
	Heading lipgloss.Style
	Muted   lipgloss.Style
	Warning lipgloss.Style
	Good    lipgloss.Style

	// Colored paints a class line in its sport's color.
	Colored bool
}

func DefaultStyles() Styles {
	return Styles{
		Title:   lipgloss.NewStyle().Bold(true).Foreground(colorTitle),
		Heading: lipgloss.NewStyle().Bold(true).Foreground(colorHeading),
		Muted:   lipgloss.NewStyle().Foreground(colorMuted),
		Warning: lipgloss.NewStyle().Foreground(colorWarning),
		Good:    lipgloss.NewStyle().Foreground(colorGood),
		Colored: true,
	}
}

// PlainStyles render text unchanged.
func PlainStyles() Styles {
	plain := lipgloss.NewStyle()
	return Styles{Title: plain, Heading: plain, Muted: plain, Warning: plain, Good: plain}
}

// ══════════════════════════════════════════════════════════════════════════════
// VIEWS
// ══════════════════════════════════════════════════════════════════════════════

// FamilyView is everything the overview shows.
type FamilyView struct {
	Family    family.Family
	Children  []ChildView
	Upcoming  []ClassLine
	Conflicts []DayConflicts
}

// ChildView is one child's card.
type ChildView struct {
	Child    child.Child
	Level    store.LevelInfo
	Today    nutrition.Macros
	Target   *nutrition.Target
	Goals    []goal.Goal
	Unlocked []gamification.Achievement
}

// ClassLine is an upcoming class with its sport resolved.
type ClassLine struct {
	Class     schedule.Class
	ChildName string
	Sport     string
	ColorHex  string
}

// DayConflicts groups the conflicts of one calendar day.
type DayConflicts struct {
	Day       string
	Conflicts []schedule.Conflict
}

// BuildFamilyView reads the store. days is how many calendar days, starting
// with now's, are checked for conflicts. ok is false when the store holds no
// family.
func BuildFamilyView(st *store.Store, now time.Time, loc *time.Location, days, upcoming int) (view FamilyView, ok bool) {
	f, ok := st.Family()
	if !ok {
		return FamilyView{}, false
	}
	view.Family = f

	sports := make(map[string]schedule.Sport)
	names := make(map[string]string)
	for _, c := range st.Children() {
		names[c.ID] = c.FirstName
		for _, sp := range st.GetSports(c.ID) {
			sports[sp.ID] = sp
		}

		cv := ChildView{
			Child:    c,
			Today:    st.GetDailyNutrition(c.ID, now),
			Goals:    st.GetActiveGoals(c.ID),
			Unlocked: st.GetUnlockedAchievements(c.ID),
		}
		cv.Level, _ = st.Level(c.ID)
		if t, ok := st.GetNutritionTarget(c.ID); ok {
			cv.Target = &t
		}
		view.Children = append(view.Children, cv)
	}

	for _, c := range st.GetUpcomingClasses(upcoming) {
		sp := sports[c.SportID]
		view.Upcoming = append(view.Upcoming, ClassLine{
			Class:     c,
			ChildName: names[c.ChildID],
			Sport:     sp.Name,
			ColorHex:  sp.ColorHex,
		})
	}

	today := timeutil.StartOfDay(now, loc)
	for i := 0; i < days; i++ {
		day := today.AddDate(0, 0, i)
		if cs := st.DetectConflicts(day); len(cs) > 0 {
			view.Conflicts = append(view.Conflicts, DayConflicts{Day: timeutil.DayKey(day, loc), Conflicts: cs})
		}
	}
	return view, true
}

// ══════════════════════════════════════════════════════════════════════════════
// PRESENTER
// ══════════════════════════════════════════════════════════════════════════════

// Presenter writes views as text.
type Presenter struct {
	styles Styles
	loc    *time.Location
}

func New(styles Styles, loc *time.Location) *Presenter {
	if loc == nil {
		loc = time.UTC
	}
	return &Presenter{styles: styles, loc: loc}
}

// RenderFamily writes the family overview.
func (p *Presenter) RenderFamily(w io.Writer, v FamilyView) error {
	var sb strings.Builder
	s := p.styles

	sb.WriteString(s.Title.Render(v.Family.Name))
	sb.WriteString(s.Muted.Render(fmt.Sprintf("  (%d children, %d members)", len(v.Children), len(v.Family.Members))))
	sb.WriteString("\n\n")

	for _, c := range v.Children {
		p.writeChild(&sb, c)
		sb.WriteString("\n")
	}

	sb.WriteString(s.Heading.Render("Upcoming classes"))
	sb.WriteString("\n")
	if len(v.Upcoming) == 0 {
		sb.WriteString(s.Muted.Render("  nothing scheduled"))
		sb.WriteString("\n")
	}
	for _, l := range v.Upcoming {
		line := fmt.Sprintf("  %s  %-8s %-10s %s (%d min)",
			l.Class.StartsAt.In(p.loc).Format("Mon Jan 2 15:04"),
			l.ChildName, l.Sport, l.Class.Type, l.Class.DurationMinutes)
		if st := l.Class.AssignmentStatus(); st != schedule.FullyAssigned {
			line += " " + s.Warning.Render("["+string(st)+"]")
		}
		if s.Colored && l.ColorHex != "" {
			line = lipgloss.NewStyle().Foreground(lipgloss.Color("#" + l.ColorHex)).Render(line)
		}
		sb.WriteString(line)
		sb.WriteString("\n")
	}
	sb.WriteString("\n")

	sb.WriteString(s.Heading.Render("Conflicts"))
	sb.WriteString("\n")
	if len(v.Conflicts) == 0 {
		sb.WriteString(s.Good.Render("  no conflicts"))
		sb.WriteString("\n")
	}
	for _, d := range v.Conflicts {
		for _, c := range d.Conflicts {
			sb.WriteString(s.Warning.Render(fmt.Sprintf("  %s  %s: %s", d.Day, c.Type, c.Description)))
			sb.WriteString("\n")
		}
	}

	_, err := io.WriteString(w, sb.String())
	return err
}

func (p *Presenter) writeChild(sb *strings.Builder, c ChildView) {
	s := p.styles
	sb.WriteString(s.Heading.Render(c.Child.FullName()))
	sb.WriteString(fmt.Sprintf("  Level %d %s, %d pts", c.Level.Level, c.Level.Title, c.Level.Points))
	if c.Level.PointsToNextLevel > 0 {
		sb.WriteString(s.Muted.Render(fmt.Sprintf(" (%d to next level)", c.Level.PointsToNextLevel)))
	}
	sb.WriteString("\n")

	if c.Target != nil {
		sb.WriteString(fmt.Sprintf("  Nutrition today: %.0f / %.0f kcal, %.0f / %.0f g protein\n",
			c.Today.Calories, c.Target.Calories, c.Today.Protein, c.Target.Protein))
	}
	for _, g := range c.Goals {
		sb.WriteString(fmt.Sprintf("  Goal %-20s %3.0f%%  %g/%g %s\n",
			g.Title, g.ProgressPercentage(), g.CurrentValue, g.TargetValue, g.Unit))
	}
	if len(c.Unlocked) > 0 {
		titles := make([]string, len(c.Unlocked))
		for i, a := range c.Unlocked {
			titles[i] = a.Title
		}
		sb.WriteString("  Achievements: ")
		sb.WriteString(s.Good.Render(strings.Join(titles, ", ")))
		sb.WriteString("\n")
	}
}

// RenderCounts writes per-collection document counts in dependency order.
func (p *Presenter) RenderCounts(w io.Writer, familyID string, counts map[document.Collection]int) error {
	var sb strings.Builder
	sb.WriteString(p.styles.Title.Render("Family " + familyID))
	sb.WriteString("\n")

	total := 0
	for _, coll := range document.Collections() {
		n := counts[coll]
		total += n
		sb.WriteString(fmt.Sprintf("  %-17s %d\n", coll, n))
	}
	var extra []string
	for coll := range counts {
		if !coll.Valid() {
			extra = append(extra, string(coll))
		}
	}
	sort.Strings(extra)
	for _, coll := range extra {
		sb.WriteString(p.styles.Warning.Render(fmt.Sprintf("  %-17s %d (unknown)", coll, counts[document.Collection(coll)])))
		sb.WriteString("\n")
	}
	sb.WriteString(p.styles.Muted.Render(fmt.Sprintf("  total %d", total)))
	sb.WriteString("\n")

	_, err := io.WriteString(w, sb.String())
	return err
}

// CountSnapshot counts the records of a decoded snapshot per collection.
func CountSnapshot(s document.Snapshot) map[document.Collection]int {
	counts := map[document.Collection]int{
		document.Children:         len(s.Children),
		document.Sports:           len(s.Sports),
		document.Classes:          len(s.Classes),
		document.Meals:            len(s.Meals),
		document.Goals:            len(s.Goals),
		document.Achievements:     len(s.Achievements),
		document.NutritionTargets: len(s.Targets),
	}
	if s.Family != nil {
		counts[document.Families] = 1
	}
	return counts
}
