package subject

import (
	"strings"

	"github.com/xkilldash9x/matrix-engine/api/schemas"
)

// The classifier turns raw graph material into the engine's subject
// taxonomy, and detects when a concept has accumulated enough dimensions to
// harden into a concretized event. Both functions are pure and total: no
// error path, defensive reads of whatever shape the graph store handed us.

// metadataKindKey, when present on a node, short-circuits classification.
const metadataKindKey = "subject_kind"

// Type names that classify as concepts or events. Everything unlisted is an
// entity, the default kind.
var (
	conceptTypes = map[string]struct{}{
		"topic":    {},
		"theme":    {},
		"industry": {},
		"concept":  {},
	}
	eventTypes = map[string]struct{}{
		"event":       {},
		"ipo":         {},
		"lawsuit":     {},
		"data_breach": {},
	}
)

// Signal keys for the three hardening dimensions. actor_ids lives in
// metadata only; the rest are honored in properties and metadata alike.
var (
	timeKeys  = []string{"date", "timestamp", "year", "time_range", "date_range"}
	placeKeys = []string{"jurisdiction", "country", "location"}
	actorKeys = []string{"company", "person", "actors"}
)

const actorIDsKey = "actor_ids"

// InferKind classifies a node into one of the four subject kinds.
//
// An explicit subject_kind string in the node's metadata wins outright when
// it names a known kind (case-insensitive). Otherwise the type name decides:
// concept-ish names map to SubjectConcept, event-ish names to SubjectEvent,
// and anything else defaults to SubjectEntity.
func InferKind(typeName string, node *schemas.Node) schemas.SubjectKind {
	if node != nil {
		if override := node.Metadata.String(metadataKindKey); override != "" {
			if kind, ok := schemas.ParseSubjectKind(override); ok {
				return kind
			}
		}
	}

	lowered := strings.ToLower(typeName)
	if _, ok := conceptTypes[lowered]; ok {
		return schemas.SubjectConcept
	}
	if _, ok := eventTypes[lowered]; ok {
		return schemas.SubjectEvent
	}
	return schemas.SubjectEntity
}

// DetectHardening reports which concretization dimensions the node carries.
// Properties and metadata are both consulted; missing or oddly-typed maps
// are treated as empty.
func DetectHardening(node schemas.Node) schemas.HardeningSignal {
	return schemas.HardeningSignal{
		HasTime:  anyTruthy(timeKeys, node.Properties, node.Metadata),
		HasPlace: anyTruthy(placeKeys, node.Properties, node.Metadata),
		HasActor: hasActor(node),
	}
}

func hasActor(node schemas.Node) bool {
	if ids, ok := node.Metadata[actorIDsKey]; ok && nonEmptyList(ids) {
		return true
	}
	return anyTruthy(actorKeys, node.Properties)
}

func anyTruthy(keys []string, maps ...schemas.Properties) bool {
	for _, m := range maps {
		if m == nil {
			continue
		}
		for _, key := range keys {
			if v, ok := m[key]; ok && truthy(v) {
				return true
			}
		}
	}
	return false
}

// truthy mirrors the loose presence semantics of the graph store: empty
// strings, zero numbers, false, and empty collections all count as absent.
func truthy(v interface{}) bool {
	switch val := v.(type) {
	case nil:
		return false
	case bool:
		return val
	case string:
		return val != ""
	case int:
		return val != 0
	case int64:
		return val != 0
	case float64:
		return val != 0
	case []interface{}:
		return len(val) > 0
	case []string:
		return len(val) > 0
	case map[string]interface{}:
		return len(val) > 0
	case schemas.Properties:
		return len(val) > 0
	default:
		return true
	}
}

func nonEmptyList(v interface{}) bool {
	switch val := v.(type) {
	case []interface{}:
		return len(val) > 0
	case []string:
		return len(val) > 0
	default:
		return false
	}
}
