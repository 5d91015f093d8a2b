// Package approval classifies user utterances as explicit approval, soft
// acknowledgment, or no approval signal. The guardrail validator gates
// HIGH-tier tool invocations on an EXPLICIT classification, so this detector
// is deliberately conservative: when evidence is weak it under-approves,
// because blocking an expensive action is recoverable while running an
// unwanted one is not.
package approval

import (
	"strings"
	"unicode"

	"director/pkg/proto"
)

// defaultExplicitPhrases unambiguously authorize expensive generation.
//
//nolint:gochecknoglobals // static phrase table, cloned into each detector
var defaultExplicitPhrases = []string{
	"generate",
	"proceed",
	"go ahead",
	"create it",
	"build it",
	"make it",
	"do it",
	"yes, generate",
	"let's generate",
	"generate the slides",
	"generate the content",
}

// defaultSoftPhrases are acknowledgments that must NOT be treated as
// authorization on their own. Keeping them as a positive set prevents false
// EXPLICIT positives when a softer phrase co-occurs without a trigger.
//
//nolint:gochecknoglobals // static phrase table, cloned into each detector
var defaultSoftPhrases = []string{
	"looks good",
	"ok",
	"okay",
	"sounds good",
	"nice",
	"great",
	"sure",
	"yes",
	"yep",
	"thanks",
	"thank you",
}

// Detector performs case-insensitive phrase matching against two fixed
// phrase sets. It is immutable after construction and safe for concurrent
// use across sessions.
type Detector struct {
	explicit []string
	soft     []string
}

// NewDetector builds a detector from explicit and soft phrase lists,
// normalizing each phrase for matching. Empty phrases are dropped.
func NewDetector(explicit, soft []string) *Detector {
	return &Detector{
		explicit: normalizePhrases(explicit),
		soft:     normalizePhrases(soft),
	}
}

// DefaultDetector returns a detector with the built-in phrase sets. Guidance
// configuration can replace them via NewDetector.
func DefaultDetector() *Detector {
	return NewDetector(defaultExplicitPhrases, defaultSoftPhrases)
}

// Classify maps an utterance to an approval signal. If any explicit phrase
// is present the result is EXPLICIT regardless of co-occurring soft phrases
// ("looks good, generate" is EXPLICIT). Otherwise a soft phrase yields SOFT,
// and no match yields NONE. Classification is a pure function of the
// utterance, so classifying the same text twice gives the same result.
func (d *Detector) Classify(utterance string) proto.ApprovalSignal {
	text := normalize(utterance)
	if text == "" {
		return proto.ApprovalSignal{Class: proto.ApprovalNone}
	}

	if matched := matchPhrases(text, d.explicit); len(matched) > 0 {
		return proto.ApprovalSignal{Class: proto.ApprovalExplicit, Matched: matched}
	}
	if matched := matchPhrases(text, d.soft); len(matched) > 0 {
		return proto.ApprovalSignal{Class: proto.ApprovalSoft, Matched: matched}
	}
	return proto.ApprovalSignal{Class: proto.ApprovalNone}
}

// matchPhrases returns every phrase found in text at a word boundary.
// Substring hits inside larger words ("ok" in "token", "generate" in
// "regenerated") do not count.
func matchPhrases(text string, phrases []string) []string {
	var matched []string
	for _, phrase := range phrases {
		if containsPhrase(text, phrase) {
			matched = append(matched, phrase)
		}
	}
	return matched
}

// containsPhrase reports whether phrase occurs in text bounded by
// non-word characters (or the ends of the text) on both sides.
func containsPhrase(text, phrase string) bool {
	for start := 0; ; {
		idx := strings.Index(text[start:], phrase)
		if idx < 0 {
			return false
		}
		idx += start
		end := idx + len(phrase)

		beforeOK := idx == 0 || !isWordByte(text[idx-1])
		afterOK := end == len(text) || !isWordByte(text[end])
		if beforeOK && afterOK {
			return true
		}
		start = idx + 1
	}
}

func isWordByte(b byte) bool {
	r := rune(b)
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func normalizePhrases(phrases []string) []string {
	out := make([]string, 0, len(phrases))
	for _, p := range phrases {
		if n := normalize(p); n != "" {
			out = append(out, n)
		}
	}
	return out
}
