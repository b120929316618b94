package resolver

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/xkilldash9x/matrix-engine/api/schemas"
	"github.com/xkilldash9x/matrix-engine/internal/registry"
)

// UnknownPlaceholder substitutes for any placeholder that no edge can
// resolve. The query still goes out; a search for "Unknown" simply finds
// nothing useful, which is preferable to dropping the gap.
const UnknownPlaceholder = "Unknown"

var placeholderPattern = regexp.MustCompile(`\{([A-Za-z0-9_]+)\}`)

// SearchRunner performs the actual search for a resolved query. It is
// injected by the surrounding orchestrator; cancellation and timeouts flow
// through the context. Invoked at most once per Execute call.
type SearchRunner func(ctx context.Context, query string) (interface{}, error)

// Resolver turns abstract gap queries into concrete ones by walking the
// graph, and drives the injected search callback inside a result envelope
// that never lets an error escape.
type Resolver struct {
	log      *zap.Logger
	registry *registry.Registry
}

// New creates a Resolver backed by the given template registry.
func New(logger *zap.Logger, reg *registry.Registry) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{
		log:      logger.With(zap.String("component", "gap_resolver")),
		registry: reg,
	}
}

// ResolveQuery substitutes every {placeholder} in the template with a label
// discovered by traversing the graph from the origin event. Resolution never
// fails: a placeholder nothing can fill becomes the literal "Unknown".
//
// Lookup order per placeholder: the origin's template maps the role to an
// edge type and the matching edge's far endpoint supplies the label; with no
// template available, any edge touching the origin whose relationship
// contains the placeholder name is taken as a fuzzy match.
func (r *Resolver) ResolveQuery(queryTemplate string, snap schemas.GraphSnapshot, originEventID string) string {
	matches := placeholderPattern.FindAllStringSubmatch(queryTemplate, -1)
	if len(matches) == 0 {
		return queryTemplate
	}

	var (
		nodes map[string]schemas.Node
		edges []schemas.Edge
	)
	if snap != nil {
		nodes = snap.Nodes()
		edges = snap.Edges()
	}

	// The template needs the origin node; the fuzzy fallback only needs the
	// origin id and the edge list, so an origin absent from the node map
	// (a dangling edge endpoint) still resolves through it.
	var tmpl *schemas.EventTemplate
	if origin, ok := nodes[originEventID]; ok {
		tmpl, _ = r.registry.ForNode(origin)
	}

	resolved := queryTemplate
	for _, match := range matches {
		placeholder, name := match[0], match[1]
		value := r.resolvePlaceholder(name, originEventID, tmpl, nodes, edges)
		resolved = strings.ReplaceAll(resolved, placeholder, value)
	}

	r.log.Debug("Query resolved",
		zap.String("template", queryTemplate),
		zap.String("resolved", resolved),
		zap.String("origin", originEventID))
	return resolved
}

// resolvePlaceholder finds the label to substitute for one role placeholder.
func (r *Resolver) resolvePlaceholder(name, originID string, tmpl *schemas.EventTemplate, nodes map[string]schemas.Node, edges []schemas.Edge) string {
	if tmpl != nil {
		if role, ok := tmpl.Roles[name]; ok {
			for _, edge := range edges {
				if edge.Touches(originID) && edge.Relationship == role.EdgeType {
					return endpointLabel(edge.Other(originID), nodes)
				}
			}
			return UnknownPlaceholder
		}
	}

	// No template (or the placeholder names no declared role): fall back to
	// a fuzzy relationship match.
	lowered := strings.ToLower(name)
	for _, edge := range edges {
		if edge.Touches(originID) && strings.Contains(strings.ToLower(string(edge.Relationship)), lowered) {
			return endpointLabel(edge.Other(originID), nodes)
		}
	}
	return UnknownPlaceholder
}

// endpointLabel prefers the node's label, falling back to the raw id.
func endpointLabel(id string, nodes map[string]schemas.Node) string {
	if node, ok := nodes[id]; ok && node.Label != "" {
		return node.Label
	}
	return id
}

// Execute resolves a gap's query and drives the injected search runner,
// returning a uniform result envelope. Any failure along the way, including
// a panicking runner, is caught and surfaced as an error-status result; this
// method never propagates a failure to its caller.
func (r *Resolver) Execute(ctx context.Context, gap schemas.CognitiveGap, run SearchRunner, snap schemas.GraphSnapshot) (result schemas.ExecutionResult) {
	result = schemas.ExecutionResult{
		GapID:         gap.ID,
		Status:        schemas.StatusError,
		ResolvedQuery: gap.Query, // best effort until resolution succeeds
	}

	defer func() {
		if rec := recover(); rec != nil {
			result.Status = schemas.StatusError
			result.Data = nil
			result.Error = fmt.Sprintf("panic during gap execution: %v", rec)
			r.log.Error("Recovered panic while executing gap",
				zap.String("gap_id", gap.ID), zap.Any("panic", rec))
		}
	}()

	eventID, _, err := schemas.ParseGapID(gap.ID)
	if err != nil {
		result.Error = err.Error()
		return result
	}

	result.ResolvedQuery = r.ResolveQuery(gap.Query, snap, eventID)

	if run == nil {
		result.Error = "no search runner provided"
		return result
	}

	data, err := run(ctx, result.ResolvedQuery)
	if err != nil {
		result.Error = err.Error()
		r.log.Warn("Search runner failed",
			zap.String("gap_id", gap.ID),
			zap.String("query", result.ResolvedQuery),
			zap.Error(err))
		return result
	}

	result.Status = schemas.StatusSuccess
	result.Data = data
	result.Error = ""
	r.log.Debug("Gap executed",
		zap.String("gap_id", gap.ID),
		zap.String("query", result.ResolvedQuery))
	return result
}
