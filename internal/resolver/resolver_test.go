package resolver

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/matrix-engine/api/schemas"
	"github.com/xkilldash9x/matrix-engine/internal/knowledgegraph"
	"github.com/xkilldash9x/matrix-engine/internal/registry"
)

const testCatalogue = `{
  "event_templates": [
    {
      "id": "tmpl_data_breach",
      "name": "DATA_BREACH",
      "roles": {
        "originator": { "edge_type": "originated" },
        "victim": { "edge_type": "breach_of" }
      },
      "physics": [
        {
          "condition": "victim IS EMPTY",
          "intent": "find_victim",
          "hunger_query": "who received money from {originator}?"
        }
      ]
    }
  ]
}`

func testRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	path := filepath.Join(t.TempDir(), "event_templates.json")
	require.NoError(t, os.WriteFile(path, []byte(testCatalogue), 0o644))
	return registry.New(zaptest.NewLogger(t), path)
}

// staticSnapshot is a hand-built snapshot for shapes the in-memory graph
// refuses to construct, like edges with dangling endpoints.
type staticSnapshot struct {
	nodes map[string]schemas.Node
	edges []schemas.Edge
}

func (s *staticSnapshot) Nodes() map[string]schemas.Node { return s.nodes }
func (s *staticSnapshot) Edges() []schemas.Edge          { return s.edges }

// breachGraph wires one breach event with an originated edge to Acme Corp.
func breachGraph(t *testing.T) schemas.GraphSnapshot {
	t.Helper()
	g := knowledgegraph.NewInMemoryGraph(zaptest.NewLogger(t))
	require.NoError(t, g.AddNode(schemas.Node{
		ID: "evt-1", Class: schemas.ClassEvent, Type: "data_breach",
	}))
	require.NoError(t, g.AddNode(schemas.Node{
		ID: "ent-acme", Class: schemas.ClassEntity, Type: "Company", Label: "Acme Corp",
	}))
	require.NoError(t, g.AddEdge(schemas.Edge{
		SourceID: "evt-1", TargetID: "ent-acme", Relationship: "originated",
	}))
	return g.Snapshot()
}

func TestResolveQuery(t *testing.T) {
	t.Parallel()
	r := New(zaptest.NewLogger(t), testRegistry(t))

	t.Run("substitutes a role placeholder via the template edge type", func(t *testing.T) {
		t.Parallel()
		got := r.ResolveQuery("who received money from {originator}?", breachGraph(t), "evt-1")
		assert.Equal(t, "who received money from Acme Corp?", got)
	})

	t.Run("returns templates without placeholders unchanged", func(t *testing.T) {
		t.Parallel()
		got := r.ResolveQuery("who was breached in 2024?", breachGraph(t), "evt-1")
		assert.Equal(t, "who was breached in 2024?", got)
	})

	t.Run("unresolvable placeholder becomes Unknown", func(t *testing.T) {
		t.Parallel()
		got := r.ResolveQuery("who is {victim}?", breachGraph(t), "evt-1")
		assert.Equal(t, "who is Unknown?", got)
	})

	t.Run("missing origin resolves everything to Unknown", func(t *testing.T) {
		t.Parallel()
		got := r.ResolveQuery("who is {originator}?", breachGraph(t), "evt-ghost")
		assert.Equal(t, "who is Unknown?", got)
	})

	t.Run("nil snapshot never panics", func(t *testing.T) {
		t.Parallel()
		got := r.ResolveQuery("who is {originator}?", nil, "evt-1")
		assert.Equal(t, "who is Unknown?", got)
	})

	t.Run("falls back to the raw id when the endpoint has no label", func(t *testing.T) {
		t.Parallel()
		g := knowledgegraph.NewInMemoryGraph(zaptest.NewLogger(t))
		require.NoError(t, g.AddNode(schemas.Node{ID: "evt-1", Class: schemas.ClassEvent, Type: "data_breach"}))
		require.NoError(t, g.AddNode(schemas.Node{ID: "ent-raw", Class: schemas.ClassEntity}))
		require.NoError(t, g.AddEdge(schemas.Edge{SourceID: "evt-1", TargetID: "ent-raw", Relationship: "originated"}))
		got := r.ResolveQuery("{originator}", g.Snapshot(), "evt-1")
		assert.Equal(t, "ent-raw", got)
	})

	t.Run("fuzzy matches relationships when no template applies", func(t *testing.T) {
		t.Parallel()
		g := knowledgegraph.NewInMemoryGraph(zaptest.NewLogger(t))
		require.NoError(t, g.AddNode(schemas.Node{ID: "evt-odd", Class: schemas.ClassEvent, Type: "UnknownKind"}))
		require.NoError(t, g.AddNode(schemas.Node{ID: "ent-b", Class: schemas.ClassEntity, Label: "Bank of Foo"}))
		require.NoError(t, g.AddEdge(schemas.Edge{SourceID: "evt-odd", TargetID: "ent-b", Relationship: "money_flows_to"}))
		got := r.ResolveQuery("where does {flows} end up?", g.Snapshot(), "evt-odd")
		assert.Equal(t, "where does Bank of Foo end up?", got)
	})

	t.Run("dangling origin id still resolves through the fuzzy fallback", func(t *testing.T) {
		t.Parallel()
		// The origin id appears only as an edge endpoint, never in the node
		// map; the fuzzy match needs nothing but the id and the edge list.
		snap := &staticSnapshot{
			nodes: map[string]schemas.Node{
				"ent-b": {ID: "ent-b", Class: schemas.ClassEntity, Label: "Bank of Foo"},
			},
			edges: []schemas.Edge{
				{SourceID: "evt-dangling", TargetID: "ent-b", Relationship: "money_flows_to"},
			},
		}
		got := r.ResolveQuery("where does {flows} end up?", snap, "evt-dangling")
		assert.Equal(t, "where does Bank of Foo end up?", got)
	})

	t.Run("repeated placeholders are all substituted", func(t *testing.T) {
		t.Parallel()
		got := r.ResolveQuery("{originator} and {originator}", breachGraph(t), "evt-1")
		assert.Equal(t, "Acme Corp and Acme Corp", got)
	})
}

func TestExecute(t *testing.T) {
	t.Parallel()
	r := New(zaptest.NewLogger(t), testRegistry(t))

	gap := schemas.CognitiveGap{
		ID:       schemas.GapID("evt-1", "find_victim"),
		Intent:   "find_victim",
		Query:    "who received money from {originator}?",
		Priority: schemas.PriorityPhysics,
	}

	t.Run("success envelope carries resolved query and data", func(t *testing.T) {
		t.Parallel()
		var seen string
		runner := func(ctx context.Context, query string) (interface{}, error) {
			seen = query
			return []string{"result-a", "result-b"}, nil
		}

		res := r.Execute(context.Background(), gap, runner, breachGraph(t))
		assert.Equal(t, schemas.StatusSuccess, res.Status)
		assert.True(t, res.OK())
		assert.Equal(t, gap.ID, res.GapID)
		assert.Equal(t, "who received money from Acme Corp?", res.ResolvedQuery)
		assert.Equal(t, "who received money from Acme Corp?", seen)
		assert.Equal(t, []string{"result-a", "result-b"}, res.Data)
		assert.Empty(t, res.Error)
	})

	t.Run("runner error becomes an error envelope", func(t *testing.T) {
		t.Parallel()
		runner := func(ctx context.Context, query string) (interface{}, error) {
			return nil, errors.New("search backend unavailable")
		}

		res := r.Execute(context.Background(), gap, runner, breachGraph(t))
		assert.Equal(t, schemas.StatusError, res.Status)
		assert.Equal(t, "search backend unavailable", res.Error)
		assert.Equal(t, "who received money from Acme Corp?", res.ResolvedQuery,
			"resolution succeeded, so the resolved query is reported")
	})

	t.Run("panicking runner never propagates", func(t *testing.T) {
		t.Parallel()
		runner := func(ctx context.Context, query string) (interface{}, error) {
			panic("runner exploded")
		}

		res := r.Execute(context.Background(), gap, runner, breachGraph(t))
		assert.Equal(t, schemas.StatusError, res.Status)
		assert.Contains(t, res.Error, "runner exploded")
		assert.Nil(t, res.Data)
	})

	t.Run("legacy gap id parses", func(t *testing.T) {
		t.Parallel()
		legacy := schemas.CognitiveGap{ID: "gap_event_evt-1_find-victim", Query: "{originator}?"}
		runner := func(ctx context.Context, query string) (interface{}, error) { return query, nil }

		res := r.Execute(context.Background(), legacy, runner, breachGraph(t))
		assert.Equal(t, schemas.StatusSuccess, res.Status)
		assert.Equal(t, "Acme Corp?", res.ResolvedQuery)
	})

	t.Run("malformed gap id is an error envelope with the raw query", func(t *testing.T) {
		t.Parallel()
		bad := schemas.CognitiveGap{ID: "not-a-gap-id", Query: "who is {victim}?"}
		runner := func(ctx context.Context, query string) (interface{}, error) {
			t.Fatal("runner must not be invoked for an unparsable gap id")
			return nil, nil
		}

		res := r.Execute(context.Background(), bad, runner, breachGraph(t))
		assert.Equal(t, schemas.StatusError, res.Status)
		assert.NotEmpty(t, res.Error)
		assert.Equal(t, "who is {victim}?", res.ResolvedQuery, "best-effort query is the unresolved one")
	})

	t.Run("nil runner is an error envelope", func(t *testing.T) {
		t.Parallel()
		res := r.Execute(context.Background(), gap, nil, breachGraph(t))
		assert.Equal(t, schemas.StatusError, res.Status)
		assert.NotEmpty(t, res.Error)
	})

	t.Run("runner honors context cancellation", func(t *testing.T) {
		t.Parallel()
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		runner := func(ctx context.Context, query string) (interface{}, error) {
			return nil, ctx.Err()
		}

		res := r.Execute(ctx, gap, runner, breachGraph(t))
		assert.Equal(t, schemas.StatusError, res.Status)
		assert.Equal(t, context.Canceled.Error(), res.Error)
	})
}
