package assessor

import (
	"fmt"
	"sort"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xkilldash9x/matrix-engine/api/schemas"
	"github.com/xkilldash9x/matrix-engine/internal/registry"
)

// Assessor scans event nodes in a graph snapshot, matches each against its
// declared template and reports every physics violation as a typed cognitive
// gap. The scan is a pure single pass over immutable input, so one Assessor
// is safe for any number of concurrent callers.
type Assessor struct {
	log      *zap.Logger
	registry *registry.Registry
}

// New creates an Assessor backed by the given template registry.
func New(logger *zap.Logger, reg *registry.Registry) *Assessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Assessor{
		log:      logger.With(zap.String("component", "event_assessor")),
		registry: reg,
	}
}

// Assess walks every event node in the snapshot and returns the gaps its
// template physics detect. Nodes without a matching template and conditions
// outside the grammar are silent no-ops; the function never fails.
//
// Output order is deterministic: nodes by id, rules in template order.
func (a *Assessor) Assess(snap schemas.GraphSnapshot) []schemas.CognitiveGap {
	if snap == nil {
		return nil
	}

	nodes := snap.Nodes()
	edges := snap.Edges()
	passID := uuid.New().String()

	ids := make([]string, 0, len(nodes))
	for id := range nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var gaps []schemas.CognitiveGap
	for _, id := range ids {
		node := nodes[id]
		if node.Class != schemas.ClassEvent {
			continue
		}

		tmpl, ok := a.registry.ForNode(node)
		if !ok {
			a.log.Debug("Event node has no matching template, skipping",
				zap.String("node_id", node.ID), zap.String("type", node.Type))
			continue
		}

		filled := fillRoles(node.ID, tmpl, edges)
		gaps = append(gaps, a.evaluatePhysics(node, tmpl, filled, passID)...)
	}

	a.log.Info("Assessment pass complete",
		zap.String("pass_id", passID),
		zap.Int("nodes", len(nodes)),
		zap.Int("gaps", len(gaps)))
	return gaps
}

// fillRoles matches the template's roles against the edges touching the
// event. A role is filled by the first edge (in snapshot order) whose
// relationship equals the role's declared edge type.
func fillRoles(eventID string, tmpl *schemas.EventTemplate, edges []schemas.Edge) map[string]schemas.Edge {
	var candidates []schemas.Edge
	for _, edge := range edges {
		if edge.Touches(eventID) {
			candidates = append(candidates, edge)
		}
	}

	filled := make(map[string]schemas.Edge, len(tmpl.Roles))
	for _, roleName := range tmpl.RoleNames() {
		role := tmpl.Roles[roleName]
		for _, edge := range candidates {
			if edge.Relationship == role.EdgeType {
				filled[roleName] = edge
				break
			}
		}
	}
	return filled
}

// evaluatePhysics runs every physics rule against the filled-role map and
// emits one gap per firing condition.
func (a *Assessor) evaluatePhysics(node schemas.Node, tmpl *schemas.EventTemplate, filled map[string]schemas.Edge, passID string) []schemas.CognitiveGap {
	var gaps []schemas.CognitiveGap
	for _, rule := range tmpl.Physics {
		if !fires(rule.Parsed, filled) {
			continue
		}

		gap := schemas.CognitiveGap{
			ID:          schemas.GapID(node.ID, rule.Intent),
			Description: describe(node, tmpl, rule),
			Intent:      rule.Intent,
			Query:       rule.HungerQuery,
			Priority:    schemas.PriorityPhysics,
			PassID:      passID,
		}
		gaps = append(gaps, gap)

		a.log.Debug("Physics violation detected",
			zap.String("gap_id", gap.ID),
			zap.String("event_id", node.ID),
			zap.String("intent", rule.Intent))
	}
	return gaps
}

// fires evaluates a parsed condition against the filled-role map. Unsupported
// conditions never fire; the registry already warned about them at load.
func fires(cond schemas.Condition, filled map[string]schemas.Edge) bool {
	switch cond.Kind {
	case schemas.ConditionRoleEmpty:
		_, ok := filled[cond.Role]
		return !ok
	default:
		return false
	}
}

func describe(node schemas.Node, tmpl *schemas.EventTemplate, rule schemas.PhysicsRule) string {
	label := node.Label
	if label == "" {
		label = node.ID
	}
	return fmt.Sprintf("%s event %q is missing its %s relationship (%s)",
		tmpl.Name, label, rule.Parsed.Role, rule.Intent)
}
