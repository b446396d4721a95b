package tap

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// parseTestPointLine splits a classified test-point line into its
// negation flag, raw numeric id text (empty if absent), and the
// remaining text after the id and any "- "/" - " separator. Kept as a
// manual scan, like the teacher's parseTestPoint, rather than one
// combined regex, so the escape handling in splitUnescapedHash stays
// auditable alongside it.
func parseTestPointLine(line string) (negated bool, idStr string, rest string) {
	s := line
	switch {
	case strings.HasPrefix(s, "not ok"):
		negated = true
		s = s[len("not ok"):]
	case strings.HasPrefix(s, "ok"):
		s = s[len("ok"):]
	}
	s = strings.TrimLeft(s, " \t")

	i := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	idStr = s[:i]
	s = s[i:]

	switch {
	case strings.HasPrefix(s, " - "):
		s = s[3:]
	case strings.HasPrefix(s, "- "):
		s = s[2:]
	case strings.HasPrefix(s, " "):
		s = s[1:]
	}
	rest = s
	return
}

// splitUnescapedHash finds the first '#' in s that is not escaped: a '#'
// is a directive separator iff it is preceded by an even number of
// backslashes (including zero). An explicit scanner, not a single regex,
// since the escape rule is subtle enough to want auditing on its own.
func splitUnescapedHash(s string) (before, after string, found bool) {
	for i := 0; i < len(s); i++ {
		if s[i] != '#' {
			continue
		}
		n := 0
		for j := i - 1; j >= 0 && s[j] == '\\'; j-- {
			n++
		}
		if n%2 == 0 {
			return s[:i], s[i+1:], true
		}
	}
	return s, "", false
}

// unescapeName resolves the two escape sequences a test-point
// description honors: "\#" and "\\".
func unescapeName(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) {
			next := s[i+1]
			if next == '#' || next == '\\' {
				b.WriteByte(next)
				i++
				continue
			}
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

var todoSkipRe = regexp.MustCompile(`(?i)^(todo|skip)\b(.*)$`)

// parseTimeDirective matches "time=<number><ms|s>", rounding a seconds
// value to millisecond resolution by scaling to microseconds, rounding,
// then dividing by 10^3 — integer arithmetic keeps the result
// deterministic across platforms rather than drifting in floating point.
func parseTimeDirective(s string) (ms float64, ok bool) {
	lower := strings.ToLower(s)
	if !strings.HasPrefix(lower, "time=") {
		return 0, false
	}
	value := s[len("time="):]
	lowerValue := strings.ToLower(value)
	switch {
	case strings.HasSuffix(lowerValue, "ms"):
		v, err := strconv.ParseFloat(strings.TrimSpace(value[:len(value)-2]), 64)
		if err != nil {
			return 0, false
		}
		return v, true
	case strings.HasSuffix(lowerValue, "s"):
		v, err := strconv.ParseFloat(strings.TrimSpace(value[:len(value)-1]), 64)
		if err != nil {
			return 0, false
		}
		micros := int64(math.Round(v * 1_000_000))
		return float64(micros) / 1000.0, true
	default:
		return 0, false
	}
}

// parseTestPointBody splits the post-id remainder of a test-point line
// into its description and, when present, a recognized directive
// (time=, TODO, or SKIP). An unrecognized trailing "# ..." is not a
// directive at all — it is folded back into the description.
func parseTestPointBody(rest string) (name string, hasTodo bool, todo string, hasSkip bool, skip string, hasTime bool, timeMS float64) {
	desc, tail, hasHash := splitUnescapedHash(rest)
	if !hasHash {
		name = unescapeName(strings.TrimSpace(desc))
		return
	}

	trimmedTail := strings.TrimSpace(tail)
	if v, okTime := parseTimeDirective(trimmedTail); okTime {
		hasTime = true
		timeMS = v
		name = unescapeName(strings.TrimSpace(desc))
		return
	}
	if m := todoSkipRe.FindStringSubmatch(trimmedTail); m != nil {
		reason := strings.TrimSpace(m[2])
		switch strings.ToLower(m[1]) {
		case "todo":
			hasTodo = true
			todo = reason
		case "skip":
			hasSkip = true
			skip = reason
		}
		name = unescapeName(strings.TrimSpace(desc))
		return
	}

	name = unescapeName(strings.TrimSpace(desc + "#" + tail))
	return
}

// parsePlanLine extracts the start/end ids and optional trailing comment
// from an already-classified plan line.
func parsePlanLine(line string) (start, end int, comment string) {
	m := planRe.FindStringSubmatch(line)
	start, _ = strconv.Atoi(m[1])
	end, _ = strconv.Atoi(m[2])
	comment = strings.TrimSpace(m[3])
	return
}

// parseBailoutReason extracts the free-text reason from an already
// classified "Bail out!" line.
func parseBailoutReason(line string) string {
	m := bailoutRe.FindStringSubmatch(line)
	return strings.TrimSpace(m[1])
}

// parsePragmaLine extracts the sign and name from an already classified
// pragma line.
func parsePragmaLine(line string) (name string, enabled bool) {
	m := pragmaRe.FindStringSubmatch(line)
	return m[2], m[1] == "+"
}

// parseVersionLine extracts the version number from an already classified
// version line.
func parseVersionLine(line string) int {
	m := versionRe.FindStringSubmatch(line)
	v, _ := strconv.Atoi(m[1])
	return v
}
