package schemas

// -- Core Graph Models --
// These types mirror the knowledge graph as persisted by the indexing
// pipeline. The engine only ever reads a snapshot of them; it owns nothing.

// NodeClass partitions graph nodes at the coarsest level. The assessor only
// cares about ClassEvent; everything else passes through untouched.
type NodeClass string

const (
	ClassEntity  NodeClass = "entity"
	ClassConcept NodeClass = "concept"
	ClassTopic   NodeClass = "topic"
	ClassEvent   NodeClass = "event"
)

// RelationshipType defines the nature of the connection between nodes.
type RelationshipType string

// Properties is a generic map for storing attributes.
type Properties map[string]interface{}

// Node represents an entity, concept, topic or event in the knowledge graph.
// Class is the coarse partition; Type is the domain type ("IPO", "Company").
type Node struct {
	ID         string     `json:"id"`
	Class      NodeClass  `json:"class"`
	Type       string     `json:"type"`
	Label      string     `json:"label,omitempty"`
	Properties Properties `json:"properties,omitempty"`
	Metadata   Properties `json:"metadata,omitempty"`
}

// Edge represents a directed relationship between two nodes.
type Edge struct {
	SourceID     string           `json:"source_id"`
	TargetID     string           `json:"target_id"`
	Relationship RelationshipType `json:"relationship"`
}

// GraphSnapshot is the read-only view of the graph this engine consumes.
// Any store able to expose its nodes keyed by id plus an ordered edge list
// satisfies it; implementations must return data that will not be mutated
// for the lifetime of the assessment pass.
type GraphSnapshot interface {
	Nodes() map[string]Node
	Edges() []Edge
}

// Touches reports whether the edge has the given node as either endpoint.
func (e Edge) Touches(nodeID string) bool {
	return e.SourceID == nodeID || e.TargetID == nodeID
}

// Other returns the endpoint opposite to nodeID. If nodeID is not an
// endpoint the target is returned.
func (e Edge) Other(nodeID string) string {
	if e.SourceID == nodeID {
		return e.TargetID
	}
	return e.SourceID
}

// DeepCopy creates a true copy of the Properties map.
func (p Properties) DeepCopy() Properties {
	if p == nil {
		return nil
	}
	cp := make(Properties, len(p))
	for k, v := range p {
		cp[k] = v
	}
	return cp
}

// String returns a string property, or "" when absent or not a string.
func (p Properties) String(key string) string {
	if p == nil {
		return ""
	}
	s, _ := p[key].(string)
	return s
}
