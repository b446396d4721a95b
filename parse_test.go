package tap

import "testing"

func TestParseTestPointLine(t *testing.T) {
	tests := []struct {
		line        string
		wantNegated bool
		wantID      string
		wantRest    string
	}{
		{"ok", false, "", ""},
		{"ok 1", false, "1", ""},
		{"ok 1 - hello", false, "1", "hello"},
		{"not ok 2 - boom", true, "2", "boom"},
		{"ok - no number", false, "", "no number"},
	}
	for _, tt := range tests {
		negated, id, rest := parseTestPointLine(tt.line)
		if negated != tt.wantNegated || id != tt.wantID || rest != tt.wantRest {
			t.Errorf("parseTestPointLine(%q) = (%v,%q,%q), want (%v,%q,%q)",
				tt.line, negated, id, rest, tt.wantNegated, tt.wantID, tt.wantRest)
		}
	}
}

func TestSplitUnescapedHash(t *testing.T) {
	tests := []struct {
		in         string
		wantBefore string
		wantAfter  string
		wantFound  bool
	}{
		{"hello # TODO later", "hello ", " TODO later", true},
		{`escaped \# not a split`, `escaped \# not a split`, "", false},
		{`double \\# is a split`, `double \\`, " is a split", true},
		{"no hash here", "no hash here", "", false},
	}
	for _, tt := range tests {
		before, after, found := splitUnescapedHash(tt.in)
		if before != tt.wantBefore || after != tt.wantAfter || found != tt.wantFound {
			t.Errorf("splitUnescapedHash(%q) = (%q,%q,%v), want (%q,%q,%v)",
				tt.in, before, after, found, tt.wantBefore, tt.wantAfter, tt.wantFound)
		}
	}
}

func TestParseTimeDirective(t *testing.T) {
	tests := []struct {
		in     string
		wantMS float64
		wantOK bool
	}{
		{"time=1.5s", 1500, true},
		{"time=250ms", 250, true},
		{"time=0.0001s", 0.1, true},
		{"TIME=2S", 2000, true},
		{"todo later", 0, false},
	}
	for _, tt := range tests {
		ms, ok := parseTimeDirective(tt.in)
		if ok != tt.wantOK || ms != tt.wantMS {
			t.Errorf("parseTimeDirective(%q) = (%v,%v), want (%v,%v)", tt.in, ms, ok, tt.wantMS, tt.wantOK)
		}
	}
}

func TestParseTestPointBody(t *testing.T) {
	tests := []struct {
		rest     string
		wantName string
		wantTodo bool
		wantSkip bool
		wantTime bool
	}{
		{"hello", "hello", false, false, false},
		{"hello # TODO not implemented", "hello", true, false, false},
		{"hello # SKIP flaky", "hello", false, true, false},
		{"hello # time=1s", "hello", false, false, true},
		{`hello \# still a name`, `hello # still a name`, false, false, false},
		{"hello # something unrecognized", "hello # something unrecognized", false, false, false},
	}
	for _, tt := range tests {
		name, hasTodo, _, hasSkip, _, hasTime, _ := parseTestPointBody(tt.rest)
		if name != tt.wantName || hasTodo != tt.wantTodo || hasSkip != tt.wantSkip || hasTime != tt.wantTime {
			t.Errorf("parseTestPointBody(%q) = (%q,%v,%v,%v), want (%q,%v,%v,%v)",
				tt.rest, name, hasTodo, hasSkip, hasTime, tt.wantName, tt.wantTodo, tt.wantSkip, tt.wantTime)
		}
	}
}

func TestParsePlanLine(t *testing.T) {
	start, end, comment := parsePlanLine("1..5 # reason")
	if start != 1 || end != 5 || comment != "reason" {
		t.Errorf("parsePlanLine = (%d,%d,%q), want (1,5,\"reason\")", start, end, comment)
	}
}

func TestParsePragmaLine(t *testing.T) {
	name, enabled := parsePragmaLine("pragma +strict")
	if name != "strict" || !enabled {
		t.Errorf("parsePragmaLine(+) = (%q,%v), want (strict,true)", name, enabled)
	}
	name, enabled = parsePragmaLine("pragma -strict")
	if name != "strict" || enabled {
		t.Errorf("parsePragmaLine(-) = (%q,%v), want (strict,false)", name, enabled)
	}
}
