// Package gamification holds the level curve, the achievement catalog and
// the trigger rules that unlock achievements automatically.
package gamification

// levelThresholds[i] is the point total needed to reach level i+1.
var levelThresholds = [...]int{
	0, 100, 250, 500, 800, 1200, 1700, 2300, 3000, 3800,
	4700, 5700, 6800, 8000, 9300, 10700, 12200, 13800, 15500, 17300,
}

// ExtendedLevelStep is the point gap between levels past the table.
const ExtendedLevelStep = 2000

// LevelCurve maps point totals to levels. The zero value is not usable;
// build one with NewLevelCurve.
type LevelCurve struct {
	thresholds []int
	extended   bool
}

// CurveOption configures a LevelCurve.
type CurveOption func(*LevelCurve)

// WithExtrapolation lets levels continue past the table, one per ExtendedLevelStep points.
func WithExtrapolation() CurveOption {
	return func(c *LevelCurve) { c.extended = true }
}

// NewLevelCurve returns the standard curve, capped at level 20 unless extended.
func NewLevelCurve(opts ...CurveOption) LevelCurve {
	c := LevelCurve{thresholds: levelThresholds[:]}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// Extended reports whether the curve continues past the table.
func (c LevelCurve) Extended() bool { return c.extended }

// MaxLevel returns the highest reachable level, or 0 when unbounded.
func (c LevelCurve) MaxLevel() int {
	if c.extended {
		return 0
	}
	return len(c.thresholds)
}

// LevelFor returns the highest level whose threshold points meets.
// Totals below 100, including negative ones, are level 1.
func (c LevelCurve) LevelFor(points int) int {
	level := 1
	for i, t := range c.thresholds {
		if points >= t {
			level = i + 1
		}
	}
	last := c.thresholds[len(c.thresholds)-1]
	if c.extended && points >= last+ExtendedLevelStep {
		level += (points - last) / ExtendedLevelStep
	}
	return level
}

// Threshold returns the points needed for level. ok is false for levels
// below 1 or above the cap.
func (c LevelCurve) Threshold(level int) (points int, ok bool) {
	n := len(c.thresholds)
	switch {
	case level < 1:
		return 0, false
	case level <= n:
		return c.thresholds[level-1], true
	case c.extended:
		return c.thresholds[n-1] + (level-n)*ExtendedLevelStep, true
	default:
		return 0, false
	}
}

// PointsToNextLevel returns how many more points reach the next level.
// A capped curve returns 0 at the top level.
func (c LevelCurve) PointsToNextLevel(points int) int {
	next, ok := c.Threshold(c.LevelFor(points) + 1)
	if !ok {
		return 0
	}
	return max(0, next-points)
}

// LevelTitle names a level band.
func LevelTitle(level int) string {
	switch {
	case level <= 5:
		return "Rookie"
	case level <= 10:
		return "Rising Star"
	case level <= 20:
		return "Champion"
	default:
		return "Legend"
	}
}
