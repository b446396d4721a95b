package tap

import "testing"

func TestDiagnosticBlockBreaksOnDedent(t *testing.T) {
	// The "..." terminator is missing; a later unindented line breaks the
	// block instead, which must be reassembled and emitted as extra, and
	// the breaking line must still be processed in its own right.
	input := "1..1\nnot ok 1 - boom\n  ---\n  got: 1\nok 2 - never counted\n"
	events := drain(t, input)

	var extras []string
	var asserts []*Assertion
	for _, ev := range events {
		switch ev.Type {
		case EventExtra:
			extras = append(extras, ev.Extra)
		case EventAssert:
			asserts = append(asserts, ev.Assert)
		}
	}

	if len(extras) != 1 {
		t.Fatalf("extra events = %v, want exactly 1", extras)
	}
	if extras[0] != "  ---\n  got: 1\nok 2 - never counted\n" {
		t.Errorf("extra = %q", extras[0])
	}

	// The broken assertion (boom) has no diag attached, and the breaking
	// line is reprocessed as its own test point.
	if len(asserts) != 2 {
		t.Fatalf("assert events = %d, want 2", len(asserts))
	}
	if asserts[0].Name != "boom" || asserts[0].Diag != nil {
		t.Errorf("first assert = %+v, want boom with no diag", asserts[0])
	}
	if asserts[1].Name != "never counted" {
		t.Errorf("second assert = %+v", asserts[1])
	}
}

func TestDiagnosticBlockInvalidYAMLEmittedAsExtra(t *testing.T) {
	input := "1..1\nnot ok 1 - boom\n  ---\n  [unterminated\n  ...\n"
	events := drain(t, input)

	var extra string
	var sawAssert bool
	for _, ev := range events {
		if ev.Type == EventExtra {
			extra = ev.Extra
		}
		if ev.Type == EventAssert {
			sawAssert = true
		}
	}
	if extra == "" {
		t.Fatal("expected the malformed block to be emitted as extra")
	}
	if !sawAssert {
		t.Error("the assertion itself must still be flushed even though its diagnostic failed to decode")
	}
}

func TestBlankLineInsideDiagnosticBlockExtendsIt(t *testing.T) {
	input := "1..1\nnot ok 1 - boom\n  ---\n  got: 1\n\n  want: 2\n  ...\n"
	events := drain(t, input)

	var assert *Assertion
	for _, ev := range events {
		if ev.Type == EventAssert {
			assert = ev.Assert
		}
	}
	doc, ok := assert.Diag.(map[string]any)
	if !ok {
		t.Fatalf("diag = %#v, want a decoded mapping despite the embedded blank line", assert.Diag)
	}
	if doc["got"] != 1 || doc["want"] != 2 {
		t.Errorf("diag = %+v", doc)
	}
}
