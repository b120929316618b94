package timetopology

import (
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// Resolution names one level of the time hierarchy, coarsest first.
type Resolution string

const (
	ResolutionYear      Resolution = "year"
	ResolutionMonth     Resolution = "month"
	ResolutionDay       Resolution = "day"
	ResolutionTimestamp Resolution = "timestamp"
	ResolutionUnknown   Resolution = "unknown"
)

// Kind distinguishes containers from instants.
type Kind string

const (
	KindSpan  Kind = "span"
	KindPoint Kind = "point"
)

// NodeID is a stable handle into the topology's arena. Handles never move or
// expire for the lifetime of the topology, which is what makes repeated
// GetOrCreate calls with the same value "the same node".
type NodeID int

// None is the absent-node handle (a year's parent, an invalid lookup).
const None NodeID = -1

// timeNode is an arena entry. Parent and children are indices, not pointers,
// so the parent/child web carries no ownership cycles.
type timeNode struct {
	kind       Kind
	resolution Resolution
	value      string
	tags       map[string]struct{}
	parent     NodeID
	children   []NodeID
}

// Topology is the forest of hierarchical time containers evidence attaches
// to: year > month > day > timestamp, with tags inherited downward. All state
// lives behind one mutex; a single instance is safe to share across
// goroutines.
type Topology struct {
	mu    sync.Mutex
	log   *zap.Logger
	arena []timeNode
	index map[string]NodeID
}

// New creates an empty topology.
func New(logger *zap.Logger) *Topology {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Topology{
		log:   logger.Named("time_topology"),
		index: make(map[string]NodeID),
	}
}

// GetOrCreate returns the node registered under value, creating it and its
// ancestor chain on first reference. The resolution is inferred from the
// shape of value. Retrieval is idempotent: the same value always yields the
// same handle.
func (t *Topology) GetOrCreate(value string) NodeID {
	return t.GetOrCreateWithResolution(value, InferResolution(value))
}

// GetOrCreateWithResolution is GetOrCreate with the resolution supplied by
// the caller instead of inferred.
func (t *Topology) GetOrCreateWithResolution(value string, resolution Resolution) NodeID {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.getOrCreateLocked(value, resolution)
}

func (t *Topology) getOrCreateLocked(value string, resolution Resolution) NodeID {
	if id, ok := t.index[value]; ok {
		return id
	}

	kind := KindSpan
	if resolution == ResolutionDay || resolution == ResolutionTimestamp {
		kind = KindPoint
	}

	id := NodeID(len(t.arena))
	t.arena = append(t.arena, timeNode{
		kind:       kind,
		resolution: resolution,
		value:      value,
		tags:       make(map[string]struct{}),
		parent:     None,
	})
	t.index[value] = id

	if parentVal, parentRes, ok := parentOf(value, resolution); ok {
		parentID := t.getOrCreateLocked(parentVal, parentRes)
		t.arena[id].parent = parentID
		t.arena[parentID].children = append(t.arena[parentID].children, id)
	}

	t.log.Debug("Time node created",
		zap.String("value", value),
		zap.String("resolution", string(resolution)),
		zap.Int("id", int(id)))
	return id
}

// Lookup returns the handle for an already registered value, or None.
func (t *Topology) Lookup(value string) NodeID {
	t.mu.Lock()
	defer t.mu.Unlock()
	if id, ok := t.index[value]; ok {
		return id
	}
	return None
}

// Tag attaches tags to a node. Tagging an invalid handle is a no-op.
func (t *Topology) Tag(id NodeID, tags ...string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.valid(id) {
		return
	}
	for _, tag := range tags {
		t.arena[id].tags[tag] = struct{}{}
	}
}

// Context returns the union of the node's own tags and every ancestor's
// tags, sorted lexicographically. A point created under a span tagged
// "ElectionYear" reports that tag even though it was never tagged directly.
func (t *Topology) Context(id NodeID) []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.valid(id) {
		return nil
	}

	union := make(map[string]struct{})
	for cur := id; cur != None; cur = t.arena[cur].parent {
		for tag := range t.arena[cur].tags {
			union[tag] = struct{}{}
		}
	}

	out := make([]string, 0, len(union))
	for tag := range union {
		out = append(out, tag)
	}
	sort.Strings(out)
	return out
}

// Value returns the canonical value string of a node, or "" for an invalid
// handle.
func (t *Topology) Value(id NodeID) string {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.valid(id) {
		return ""
	}
	return t.arena[id].value
}

// ResolutionOf returns a node's resolution, or ResolutionUnknown for an
// invalid handle.
func (t *Topology) ResolutionOf(id NodeID) Resolution {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.valid(id) {
		return ResolutionUnknown
	}
	return t.arena[id].resolution
}

// KindOf returns a node's kind, or "" for an invalid handle.
func (t *Topology) KindOf(id NodeID) Kind {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.valid(id) {
		return ""
	}
	return t.arena[id].kind
}

// Parent returns the node's parent handle, or None at a root.
func (t *Topology) Parent(id NodeID) NodeID {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.valid(id) {
		return None
	}
	return t.arena[id].parent
}

// Children returns the node's children in creation order.
func (t *Topology) Children(id NodeID) []NodeID {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.valid(id) {
		return nil
	}
	out := make([]NodeID, len(t.arena[id].children))
	copy(out, t.arena[id].children)
	return out
}

// Len returns the number of nodes in the topology.
func (t *Topology) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.arena)
}

func (t *Topology) valid(id NodeID) bool {
	return id >= 0 && int(id) < len(t.arena)
}

// InferResolution deduces the hierarchy level from the shape of a canonical
// value: "2024" is a year, "2024-01" a month, "2024-01-12" a day, anything
// carrying a T or a colon a timestamp.
func InferResolution(value string) Resolution {
	switch {
	case len(value) == 4 && allDigits(value):
		return ResolutionYear
	case len(value) == 7 && allDigits(value[:4]) && value[4] == '-' && allDigits(value[5:]):
		return ResolutionMonth
	case len(value) == 10 && allDigits(value[:4]) && value[4] == '-' &&
		allDigits(value[5:7]) && value[7] == '-' && allDigits(value[8:]):
		return ResolutionDay
	case strings.ContainsAny(value, "T:"):
		return ResolutionTimestamp
	default:
		return ResolutionUnknown
	}
}

// parentOf computes the canonical value and resolution of a node's parent
// deterministically from the child's value. Years and unknown values are
// roots. A value too short for its resolution's parent prefix (possible when
// the caller supplies the resolution explicitly) is also a root.
func parentOf(value string, resolution Resolution) (string, Resolution, bool) {
	switch resolution {
	case ResolutionTimestamp:
		if i := strings.IndexAny(value, "T "); i > 0 {
			return value[:i], InferResolution(value[:i]), true
		}
		if len(value) >= 10 {
			return value[:10], ResolutionDay, true
		}
		return "", ResolutionUnknown, false
	case ResolutionDay:
		if len(value) >= 7 {
			return value[:7], ResolutionMonth, true
		}
		return "", ResolutionUnknown, false
	case ResolutionMonth:
		if len(value) >= 4 {
			return value[:4], ResolutionYear, true
		}
		return "", ResolutionUnknown, false
	default:
		return "", ResolutionUnknown, false
	}
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
