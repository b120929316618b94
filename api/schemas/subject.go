package schemas

import "strings"

// SubjectKind is the reasoning engine's taxonomy of graph subjects.
type SubjectKind string

const (
	SubjectEntity  SubjectKind = "entity"
	SubjectConcept SubjectKind = "concept"
	SubjectTopic   SubjectKind = "topic"
	SubjectEvent   SubjectKind = "event"
)

// ParseSubjectKind maps a free-form string onto a SubjectKind,
// case-insensitively. The second return is false for anything outside the
// four known kinds.
func ParseSubjectKind(s string) (SubjectKind, bool) {
	switch SubjectKind(strings.ToLower(strings.TrimSpace(s))) {
	case SubjectEntity:
		return SubjectEntity, true
	case SubjectConcept:
		return SubjectConcept, true
	case SubjectTopic:
		return SubjectTopic, true
	case SubjectEvent:
		return SubjectEvent, true
	}
	return "", false
}

// HardeningSignal reports which of the three concretization dimensions a
// node has accumulated. A concept hardens into an event once all three are
// present.
type HardeningSignal struct {
	HasTime  bool `json:"has_time"`
	HasPlace bool `json:"has_place"`
	HasActor bool `json:"has_actor"`
}

// EventReady reports whether the node carries every dimension required to
// treat it as a concretized event.
func (h HardeningSignal) EventReady() bool {
	return h.HasTime && h.HasPlace && h.HasActor
}
