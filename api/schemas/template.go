package schemas

import (
	"fmt"
	"sort"
	"strings"
)

// -- Event Template Models --
// An event template declares what a complete event of a given kind looks
// like: the relationship roles it should have filled, and the physics rules
// that fire when reality falls short of the declaration. Templates are
// loaded once at startup and never mutated.

// RoleDefinition binds a named role to the edge type that fills it.
type RoleDefinition struct {
	EdgeType RelationshipType `json:"edge_type"`
}

// ConditionKind enumerates the closed set of physics condition forms.
type ConditionKind int

const (
	// ConditionUnsupported marks a condition string outside the known
	// grammar. It never fires; the registry warns about it at load time.
	ConditionUnsupported ConditionKind = iota
	// ConditionRoleEmpty fires when no edge fills the named role.
	ConditionRoleEmpty
)

// Condition is the parsed form of a physics rule condition. Parsing happens
// once when the template catalogue loads, so malformed grammar surfaces in
// the load log instead of silently never firing during assessment.
type Condition struct {
	Kind ConditionKind
	Role string
	Raw  string
}

// ParseCondition parses the physics condition grammar. The only supported
// form is the three-token "<role> IS EMPTY".
func ParseCondition(raw string) (Condition, error) {
	fields := strings.Fields(raw)
	if len(fields) == 3 && fields[1] == "IS" && fields[2] == "EMPTY" {
		return Condition{Kind: ConditionRoleEmpty, Role: fields[0], Raw: raw}, nil
	}
	return Condition{Kind: ConditionUnsupported, Raw: raw},
		fmt.Errorf("unsupported physics condition %q", raw)
}

// PhysicsRule declares one incompleteness check on an event.
// HungerQuery is the unresolved natural-language query template emitted when
// the condition fires; {placeholders} in it name template roles.
type PhysicsRule struct {
	Condition   string `json:"condition"`
	Intent      string `json:"intent"`
	HungerQuery string `json:"hunger_query"`

	// Parsed is populated by the registry at load time.
	Parsed Condition `json:"-"`
}

// EventTemplate describes the declared shape of one event kind.
type EventTemplate struct {
	ID      string                    `json:"id"`
	Name    string                    `json:"name"`
	Roles   map[string]RoleDefinition `json:"roles"`
	Physics []PhysicsRule             `json:"physics"`
}

// RoleNames returns the template's role names in lexicographic order, so
// role matching is deterministic regardless of map iteration.
func (t *EventTemplate) RoleNames() []string {
	names := make([]string, 0, len(t.Roles))
	for name := range t.Roles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
