package schemas

import (
	"fmt"
	"strings"
)

// PriorityPhysics is the fixed priority attached to gaps produced by physics
// violations. They sit high relative to other gap sources in the wider
// platform (heuristic and operator-raised gaps score lower).
const PriorityPhysics = 80

// CognitiveGap is one unmet obligation detected on an event node: the event
// exists, but a relationship its template declares mandatory does not. Gaps
// are produced fresh on every assessment pass and are never persisted here.
type CognitiveGap struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	Intent      string `json:"intent"`
	Query       string `json:"query"`
	Priority    int    `json:"priority"`
	PassID      string `json:"pass_id,omitempty"`
}

const (
	gapPrefix  = "gap"
	gapSubject = "event"
	gapSep     = "__"
	// legacySep is the delimiter of ids minted before the double-underscore
	// scheme. Still parsed for compatibility; see ParseGapID.
	legacySep = "_"
)

// GapID builds the canonical gap identifier for an event and intent:
// gap__event__<eventID>__<intent>. The id is deterministic so repeated
// assessment passes over the same graph mint the same ids.
func GapID(eventID, intent string) string {
	return strings.Join([]string{gapPrefix, gapSubject, eventID, intent}, gapSep)
}

// ParseGapID extracts the origin event id and intent from a gap identifier.
//
// Two formats are accepted as an explicit compatibility shim: the canonical
// double-underscore form gap__event__<eventID>__<intent>, and the legacy
// single-underscore form gap_event_<eventID>_<intent> minted by earlier
// releases. The legacy parse cannot distinguish underscores inside the event
// id from delimiters, which is why the canonical form exists; legacy ids were
// only ever minted for underscore-free event ids.
func ParseGapID(id string) (eventID, intent string, err error) {
	if parts := strings.Split(id, gapSep); len(parts) >= 4 &&
		parts[0] == gapPrefix && parts[1] == gapSubject {
		return parts[2], strings.Join(parts[3:], gapSep), nil
	}
	if parts := strings.Split(id, legacySep); len(parts) >= 4 &&
		parts[0] == gapPrefix && parts[1] == gapSubject {
		return parts[2], strings.Join(parts[3:], legacySep), nil
	}
	return "", "", fmt.Errorf("unrecognized gap id %q", id)
}
