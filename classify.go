package tap

import "regexp"

// lineShape is the closed set of top-level TAP line shapes a line can
// match, generalized from the teacher's single-version-14 classifier to
// the full TAP grammar: arbitrary version numbers, arbitrary plan start
// ids, and test points with directives.
type lineShape int

const (
	shapeNone lineShape = iota
	shapeTestPoint
	shapePragma
	shapeBailout
	shapeVersion
	shapePlan
)

var (
	testPointRe = regexp.MustCompile(`^(not )?ok\b`)
	pragmaRe    = regexp.MustCompile(`^pragma ([+-])([a-z]+)$`)
	bailoutRe   = regexp.MustCompile(`(?i)^bail out!(.*)$`)
	versionRe   = regexp.MustCompile(`(?i)^TAP version ([0-9]+)$`)
	planRe      = regexp.MustCompile(`^([0-9]+)\.\.([0-9]+)(?:\s+#\s*(.*))?$`)
)

// classifyLine matches a de-indented line (no leading whitespace, no
// trailing newline) against the fixed set of top-level TAP shapes. A line
// matches at most one shape; the shapes are syntactically disjoint so
// match order does not matter.
func classifyLine(line string) lineShape {
	switch {
	case testPointRe.MatchString(line):
		return shapeTestPoint
	case pragmaRe.MatchString(line):
		return shapePragma
	case bailoutRe.MatchString(line):
		return shapeBailout
	case versionRe.MatchString(line):
		return shapeVersion
	case planRe.MatchString(line):
		return shapePlan
	default:
		return shapeNone
	}
}
