// Package session holds the per-session progress state passed into the
// decision engine each turn, plus the caller-side serializer that keeps at
// most one decision in flight per session.
package session

// Progress is a snapshot of what the session has accumulated so far. It is
// owned by the caller: the engine only reads it, and the caller updates the
// flags after executing the returned decision. Flags are upgraded
// monotonically under normal flow, but nothing here enforces that.
type Progress struct {
	HasTopic            bool `json:"has_topic"`
	HasAudience         bool `json:"has_audience"`
	HasDuration         bool `json:"has_duration"`
	HasPurpose          bool `json:"has_purpose"`
	HasPlan             bool `json:"has_plan"`
	HasStrawman         bool `json:"has_strawman"`
	HasExplicitApproval bool `json:"has_explicit_approval"`
	HasContent          bool `json:"has_content"`
	IsComplete          bool `json:"is_complete"`

	// Context accumulates arbitrary session facts (topic, audience,
	// duration, ...). Insertion order is irrelevant.
	Context map[string]any `json:"context,omitempty"`
}

// NewProgress returns an empty progress snapshot with an initialized
// context map.
func NewProgress() Progress {
	return Progress{Context: make(map[string]any)}
}

// Clone returns a deep copy so callers can hand the engine a snapshot that
// later flag updates cannot race with.
func (p Progress) Clone() Progress {
	cp := p
	if p.Context != nil {
		cp.Context = make(map[string]any, len(p.Context))
		for k, v := range p.Context {
			cp.Context[k] = v
		}
	}
	return cp
}

// HasIntakeBasics reports whether the discovery facts needed before
// planning are all present.
func (p Progress) HasIntakeBasics() bool {
	return p.HasTopic && p.HasAudience && p.HasDuration && p.HasPurpose
}
