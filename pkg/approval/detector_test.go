package approval

import (
	"testing"

	"director/pkg/proto"
)

func TestClassify(t *testing.T) {
	d := DefaultDetector()

	cases := []struct {
		utterance string
		want      proto.ApprovalClass
	}{
		{"generate", proto.ApprovalExplicit},
		{"Go ahead!", proto.ApprovalExplicit},
		{"yes, generate the slides", proto.ApprovalExplicit},
		{"please proceed with the deck", proto.ApprovalExplicit},
		{"CREATE IT", proto.ApprovalExplicit},

		{"looks good", proto.ApprovalSoft},
		{"ok", proto.ApprovalSoft},
		{"Sounds good to me", proto.ApprovalSoft},
		{"thanks!", proto.ApprovalSoft},

		{"what about the third slide?", proto.ApprovalNone},
		{"can you change the title", proto.ApprovalNone},
		{"", proto.ApprovalNone},
		{"   ", proto.ApprovalNone},
	}

	for _, tc := range cases {
		t.Run(tc.utterance, func(t *testing.T) {
			got := d.Classify(tc.utterance)
			if got.Class != tc.want {
				t.Errorf("Classify(%q) = %s, want %s (matched %v)",
					tc.utterance, got.Class, tc.want, got.Matched)
			}
		})
	}
}

func TestExplicitWinsOverSoft(t *testing.T) {
	d := DefaultDetector()

	// A soft phrase co-occurring with an explicit trigger must not
	// dilute the classification.
	for _, utterance := range []string{
		"looks good, generate",
		"ok, go ahead",
		"sounds good - build it",
	} {
		got := d.Classify(utterance)
		if got.Class != proto.ApprovalExplicit {
			t.Errorf("Classify(%q) = %s, want EXPLICIT", utterance, got.Class)
		}
	}
}

func TestWordBoundaryMatching(t *testing.T) {
	d := DefaultDetector()

	// Phrases embedded in larger words are not matches.
	cases := []struct {
		utterance string
		want      proto.ApprovalClass
	}{
		{"the token expired", proto.ApprovalNone},          // "ok" inside "token"
		{"it regenerated the cache", proto.ApprovalNone},   // "generate" inside "regenerated"
		{"that is surely broken", proto.ApprovalNone},      // "sure" inside "surely", "ok" inside "broken"
		{"ok, the token expired", proto.ApprovalSoft},      // standalone "ok" still counts
		{"generate, not regenerate", proto.ApprovalExplicit},
	}

	for _, tc := range cases {
		got := d.Classify(tc.utterance)
		if got.Class != tc.want {
			t.Errorf("Classify(%q) = %s, want %s (matched %v)",
				tc.utterance, got.Class, tc.want, got.Matched)
		}
	}
}

func TestClassifyIdempotent(t *testing.T) {
	d := DefaultDetector()

	for _, utterance := range []string{"looks good, generate", "ok", "what next?"} {
		first := d.Classify(utterance)
		second := d.Classify(utterance)
		if first.Class != second.Class || len(first.Matched) != len(second.Matched) {
			t.Errorf("Classify(%q) not idempotent: %v vs %v", utterance, first, second)
		}
	}
}

func TestMatchedPhrasesRecorded(t *testing.T) {
	d := DefaultDetector()

	got := d.Classify("looks good, generate")
	if len(got.Matched) == 0 {
		t.Fatal("expected matched phrases to be recorded")
	}
	found := false
	for _, m := range got.Matched {
		if m == "generate" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected 'generate' in matched phrases, got %v", got.Matched)
	}
}

func TestCustomPhraseSets(t *testing.T) {
	d := NewDetector([]string{"ship it"}, []string{"fine"})

	if got := d.Classify("ship it"); got.Class != proto.ApprovalExplicit {
		t.Errorf("custom explicit phrase not matched: %v", got)
	}
	if got := d.Classify("fine"); got.Class != proto.ApprovalSoft {
		t.Errorf("custom soft phrase not matched: %v", got)
	}
	// Built-in phrases are not implicitly included.
	if got := d.Classify("generate"); got.Class != proto.ApprovalNone {
		t.Errorf("expected NONE for phrase outside custom sets, got %v", got)
	}
}
