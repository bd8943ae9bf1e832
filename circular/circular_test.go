package circular_test

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/specslim/specslim/circular"
	"github.com/specslim/specslim/references"
	"github.com/specslim/specslim/yml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func parse(t *testing.T, src string) *yaml.Node {
	t.Helper()
	var doc yaml.Node
	require.NoError(t, yaml.Unmarshal([]byte(src), &doc))
	return &doc
}

func render(t *testing.T, node *yaml.Node) string {
	t.Helper()
	data, err := yaml.Marshal(node)
	require.NoError(t, err)
	return string(data)
}

const selfCycle = `
openapi: 3.0.3
components:
  schemas:
    Node:
      type: object
      properties:
        value:
          type: string
        next:
          $ref: '#/components/schemas/Node'
`

const tieBreak = `
components:
  schemas:
    X:
      properties:
        y:
          $ref: '#/components/schemas/Y'
    Y:
      properties:
        a:
          $ref: '#/components/schemas/X'
        b:
          $ref: '#/components/schemas/X'
        c:
          type: array
          items:
            $ref: '#/components/schemas/X'
`

func TestBuildGraph_Success(t *testing.T) {
	t.Parallel()

	doc := parse(t, `
components:
  parameters:
    p:
      schema:
        $ref: '#/components/schemas/A'
  schemas:
    A:
      properties:
        b1: {$ref: '#/components/schemas/B'}
        b2: {$ref: '#/components/schemas/B'}
        p: {$ref: '#/components/parameters/p'}
        ext: {$ref: 'other.yaml#/components/schemas/B'}
    B:
      allOf:
        - $ref: '#/components/schemas/C'
    C:
      type: string
`)

	g := circular.BuildGraph(doc)
	assert.Equal(t, []string{"A", "B", "C"}, g.Nodes())
	assert.Equal(t, []string{"B"}, g.Targets("A"))
	assert.Equal(t, []string{"C"}, g.Targets("B"))
	assert.Empty(t, g.Targets("C"))
	assert.Equal(t, []string{"properties/b1", "properties/b2"}, g.Locations(circular.Edge{Source: "A", Target: "B"}))
	assert.Equal(t, []string{"allOf/0"}, g.Locations(circular.Edge{Source: "B", Target: "C"}))
	assert.Equal(t, []circular.Edge{{Source: "A", Target: "B"}, {Source: "B", Target: "C"}}, g.Edges())
}

func TestBuildGraph_NoSchemas_Success(t *testing.T) {
	t.Parallel()

	g := circular.BuildGraph(parse(t, "openapi: 3.1.0\npaths: {}\n"))
	assert.Empty(t, g.Nodes())
	assert.Empty(t, circular.DetectCycles(g))
}

func TestDetectCycles_Success(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		doc      string
		expected []circular.Cycle
	}{
		{
			name: "acyclic",
			doc: `
components:
  schemas:
    A: {properties: {b: {$ref: '#/components/schemas/B'}}}
    B: {properties: {c: {$ref: '#/components/schemas/C'}}}
    C: {type: string}
`,
			expected: nil,
		},
		{
			name: "two node cycle",
			doc: `
components:
  schemas:
    B: {properties: {a: {$ref: '#/components/schemas/A'}}}
    A: {properties: {b: {$ref: '#/components/schemas/B'}}}
`,
			expected: []circular.Cycle{{"A", "B", "A"}},
		},
		{
			name:     "self loop",
			doc:      selfCycle,
			expected: []circular.Cycle{{"Node", "Node"}},
		},
		{
			name: "rotations collapse",
			doc: `
components:
  schemas:
    A: {properties: {b: {$ref: '#/components/schemas/B'}}}
    B: {properties: {c: {$ref: '#/components/schemas/C'}}}
    C: {properties: {a: {$ref: '#/components/schemas/A'}}}
`,
			expected: []circular.Cycle{{"A", "B", "C", "A"}},
		},
		{
			name: "overlapping cycles",
			doc: `
components:
  schemas:
    A:
      properties:
        b: {$ref: '#/components/schemas/B'}
    B:
      properties:
        a: {$ref: '#/components/schemas/A'}
        c: {$ref: '#/components/schemas/C'}
    C:
      properties:
        b: {$ref: '#/components/schemas/B'}
        self: {$ref: '#/components/schemas/C'}
`,
			expected: []circular.Cycle{{"A", "B", "A"}, {"B", "C", "B"}, {"C", "C"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cycles := circular.DetectCycles(circular.BuildGraph(parse(t, tt.doc)))
			assert.Equal(t, tt.expected, cycles)
		})
	}
}

func TestDetectCycles_DenseGraph_Terminates_Success(t *testing.T) {
	t.Parallel()

	names := []string{"A", "B", "C", "D", "E", "F", "G", "H"}
	schemas := yml.CreateMapNode(nil)
	for _, source := range names {
		props := yml.CreateMapNode(nil)
		for _, target := range names {
			yml.SetMapNodeElement(props, target, yml.CreateMapNode([]*yaml.Node{
				yml.CreateStringNode("$ref"), yml.CreateStringNode(references.SchemaRef(target).String()),
			}))
		}
		yml.SetMapNodeElement(schemas, source, yml.CreateMapNode([]*yaml.Node{
			yml.CreateStringNode("properties"), props,
		}))
	}
	doc := yml.CreateMapNode([]*yaml.Node{
		yml.CreateStringNode("components"),
		yml.CreateMapNode([]*yaml.Node{yml.CreateStringNode("schemas"), schemas}),
	})

	cycles := circular.DetectCycles(circular.BuildGraph(doc))
	require.NotEmpty(t, cycles)
	for _, c := range cycles {
		assert.Equal(t, c[0], c[len(c)-1])
	}
}

func TestFindBreakingPoints_FewestReferences_Success(t *testing.T) {
	t.Parallel()

	g := circular.BuildGraph(parse(t, tieBreak))
	cycles := circular.DetectCycles(g)
	require.Equal(t, []circular.Cycle{{"X", "Y", "X"}}, cycles)

	points := circular.FindBreakingPoints(cycles, g)
	require.Len(t, points, 1)
	assert.Equal(t, circular.Edge{Source: "X", Target: "Y"}, points[0].Edge)
	assert.Equal(t, 1, points[0].ReferenceCount)
	assert.Equal(t, []string{"properties/y"}, points[0].Locations)
}

func TestFindBreakingPoints_TieGoesToFirstEdge_Success(t *testing.T) {
	t.Parallel()

	g := circular.BuildGraph(parse(t, `
components:
  schemas:
    Q: {properties: {p: {$ref: '#/components/schemas/P'}}}
    P: {properties: {q: {$ref: '#/components/schemas/Q'}}}
`))
	points := circular.FindBreakingPoints(circular.DetectCycles(g), g)
	require.Len(t, points, 1)
	assert.Equal(t, circular.Cycle{"P", "Q", "P"}, points[0].Cycle)
	assert.Equal(t, circular.Edge{Source: "P", Target: "Q"}, points[0].Edge)
}

func TestBreakCycles_SelfCycle_Success(t *testing.T) {
	t.Parallel()

	doc := parse(t, selfCycle)
	before := render(t, doc)

	g := circular.BuildGraph(doc)
	cycles := circular.DetectCycles(g)
	require.Equal(t, []circular.Cycle{{"Node", "Node"}}, cycles)

	points := circular.FindBreakingPoints(cycles, g)
	result, removed := circular.BreakCycles(doc, points)

	assert.Equal(t, []circular.RemovedReference{
		{SourceSchema: "Node", TargetSchema: "Node", Path: "properties/next"},
	}, removed)

	node := yml.GetMapValue(circular.Schemas(result), "Node")
	for _, o := range references.Scan(node) {
		name, _ := o.Ref.Schema()
		assert.NotEqual(t, "Node", name)
	}

	next := yml.GetMapValue(yml.GetMapValue(node, "properties"), "next")
	assert.True(t, yml.EqualNodes(circular.Placeholder("Node"), next))
	assert.Equal(t, "#/components/schemas/Node", yml.GetMapValue(next, circular.PlaceholderKey).Value)
	assert.Equal(t, "Circular reference to Node was removed", yml.GetMapValue(next, "description").Value)

	// the input is untouched
	assert.Equal(t, before, render(t, doc))
	assert.Empty(t, circular.DetectCycles(circular.BuildGraph(result)))
}

func TestBreakCycles_OnlyTargetedCycle_Success(t *testing.T) {
	t.Parallel()

	doc := parse(t, `
components:
  schemas:
    A: {properties: {b: {$ref: '#/components/schemas/B'}}}
    B: {properties: {a: {$ref: '#/components/schemas/A'}}}
    C: {properties: {d: {$ref: '#/components/schemas/D'}}}
    D: {properties: {c: {$ref: '#/components/schemas/C'}}}
`)

	g := circular.BuildGraph(doc)
	cycles := circular.DetectCycles(g)
	require.Len(t, cycles, 2)

	points := circular.FindBreakingPoints(cycles, g)
	result, removed := circular.BreakCycles(doc, points[:1])
	require.Len(t, removed, 1)

	after := circular.BuildGraph(result)
	assert.False(t, after.HasEdge(points[0].Edge.Source, points[0].Edge.Target))
	assert.Equal(t, []circular.Cycle{{"C", "D", "C"}}, circular.DetectCycles(after))
}

func TestBreakCycles_SkipsUnresolvable_Success(t *testing.T) {
	t.Parallel()

	doc := parse(t, `
components:
  schemas:
    A:
      properties:
        b: {$ref: '#/components/schemas/B'}
        other: {$ref: '#/components/schemas/Other'}
        list:
          - type: string
    B: {type: string}
`)

	points := []circular.BreakingPoint{{
		Cycle: circular.Cycle{"A", "B", "A"},
		Edge:  circular.Edge{Source: "A", Target: "B"},
		Locations: []string{
			"properties/missing",
			"properties/other",
			"properties/list/7",
			"properties/list/0",
			"properties/b",
		},
	}, {
		Cycle:     circular.Cycle{"Missing", "B", "Missing"},
		Edge:      circular.Edge{Source: "Missing", Target: "B"},
		Locations: []string{""},
	}}

	result, removed := circular.BreakCycles(doc, points)
	assert.Equal(t, []circular.RemovedReference{
		{SourceSchema: "A", TargetSchema: "B", Path: "properties/b"},
	}, removed)

	other := yml.GetMapValue(yml.GetMapValue(yml.GetMapValue(circular.Schemas(result), "A"), "properties"), "other")
	assert.Equal(t, "#/components/schemas/Other", yml.GetMapValue(other, "$ref").Value)
}

func TestBreakCycles_RootLocation_Success(t *testing.T) {
	t.Parallel()

	doc := parse(t, `
components:
  schemas:
    Alias:
      $ref: '#/components/schemas/Alias'
`)

	result, report, err := circular.Resolve(t.Context(), doc)
	require.NoError(t, err)
	assert.Equal(t, []circular.RemovedRefInfo{{SourceSchema: "Alias", TargetSchema: "Alias", Path: ""}}, report.RemovedReferences)
	assert.True(t, yml.EqualNodes(circular.Placeholder("Alias"), yml.GetMapValue(circular.Schemas(result), "Alias")))
}

func TestResolve_Success(t *testing.T) {
	t.Parallel()
	ctx := t.Context()

	doc := parse(t, tieBreak)
	result, report, err := circular.Resolve(ctx, doc, circular.WithUntilAcyclic(0))
	require.NoError(t, err)

	assert.Equal(t, 1, report.Passes)
	assert.Equal(t, []circular.DetectedCycle{{Cycle: "X -> Y -> X"}}, report.DetectedCycles)
	assert.Equal(t, []circular.BreakingPointInfo{{
		Cycle:          "X -> Y -> X",
		BrokenEdge:     "X -> Y",
		ReferenceCount: 1,
		Locations:      []string{"properties/y"},
	}}, report.BreakingPoints)
	assert.Empty(t, report.RemainingCycles)
	assert.Empty(t, circular.DetectCycles(circular.BuildGraph(result)))

	// Y keeps its three references to X
	assert.Equal(t, []string{"X"}, circular.BuildGraph(result).Targets("Y"))
}

func TestResolve_MergeKeyReference_Success(t *testing.T) {
	t.Parallel()

	doc := parse(t, `
components:
  schemas:
    Base: &base
      properties:
        next: {$ref: '#/components/schemas/A'}
    A:
      <<: *base
      type: object
`)
	result, report, err := circular.Resolve(t.Context(), doc)
	require.NoError(t, err)

	require.Len(t, report.BreakingPoints, 1)
	assert.Equal(t, "A -> A", report.BreakingPoints[0].BrokenEdge)
	assert.Equal(t, []string{"properties/next"}, report.BreakingPoints[0].Locations)
	assert.Equal(t, []circular.RemovedRefInfo{
		{SourceSchema: "A", TargetSchema: "A", Path: "properties/next"},
	}, report.RemovedReferences)
	assert.Empty(t, report.RemainingCycles)

	a := yml.GetMapValue(circular.Schemas(result), "A")
	next := yml.GetMapValue(yml.GetMapValue(a, "properties"), "next")
	assert.True(t, yml.EqualNodes(circular.Placeholder("A"), next))
	assert.Equal(t, []string{"A"}, circular.BuildGraph(result).Targets("Base"))
}

func TestBuildGraph_SelfReferencingAnchor_Success(t *testing.T) {
	t.Parallel()

	doc := parse(t, `
components:
  schemas:
    A: &a
      properties:
        self: *a
        b: {$ref: '#/components/schemas/B'}
    B: {type: string}
`)

	g := circular.BuildGraph(doc)
	assert.Equal(t, []string{"B"}, g.Targets("A"))
	assert.Empty(t, circular.DetectCycles(g))
}

func TestResolve_Acyclic_Success(t *testing.T) {
	t.Parallel()

	doc := parse(t, "components:\n  schemas:\n    A: {type: string}\n")
	result, report, err := circular.Resolve(t.Context(), doc)
	require.NoError(t, err)

	assert.Equal(t, 0, report.Passes)
	assert.Empty(t, report.DetectedCycles)
	assert.Equal(t, render(t, doc), render(t, result))
	assert.NotSame(t, doc, result)
}

func TestResolve_Cancelled_Error(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	_, _, err := circular.Resolve(ctx, parse(t, selfCycle))
	require.ErrorIs(t, err, context.Canceled)
}

func TestReport_Write_JSON_Success(t *testing.T) {
	t.Parallel()

	report := circular.NewReport(
		[]circular.Cycle{{"A", "B", "A"}},
		[]circular.BreakingPoint{{
			Cycle:          circular.Cycle{"A", "B", "A"},
			Edge:           circular.Edge{Source: "A", Target: "B"},
			ReferenceCount: 1,
			Locations:      []string{"properties/b"},
		}},
		[]circular.RemovedReference{{SourceSchema: "A", TargetSchema: "B", Path: "properties/b"}},
	)

	var buf bytes.Buffer
	require.NoError(t, report.Write(&buf, yml.OutputFormatJSON))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, float64(1), decoded["passes"])
	assert.Equal(t, []any{map[string]any{"cycle": "A -> B -> A"}}, decoded["detected_cycles"])
	assert.Equal(t, []any{map[string]any{
		"cycle":           "A -> B -> A",
		"broken_edge":     "A -> B",
		"reference_count": float64(1),
		"locations":       []any{"properties/b"},
	}}, decoded["breaking_points"])
	assert.Equal(t, []any{map[string]any{
		"source_schema": "A",
		"target_schema": "B",
		"path":          "properties/b",
	}}, decoded["removed_references"])
	assert.Equal(t, []any{}, decoded["remaining_cycles"])
}

func TestReport_Write_YAML_Success(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, circular.NewReport(nil, nil, nil).Write(&buf, yml.OutputFormatYAML))
	assert.Contains(t, buf.String(), "detected_cycles: []")
	assert.Contains(t, buf.String(), "passes: 0")
}

func TestStronglyConnected_Success(t *testing.T) {
	t.Parallel()

	g := circular.BuildGraph(parse(t, `
components:
  schemas:
    A: {properties: {b: {$ref: '#/components/schemas/B'}}}
    B: {properties: {a: {$ref: '#/components/schemas/A'}, c: {$ref: '#/components/schemas/C'}}}
    C: {type: string}
    D: {properties: {d: {$ref: '#/components/schemas/D'}}}
`))

	sccs := circular.StronglyConnected(g)
	assert.Equal(t, []circular.SCC{
		{Schemas: []string{"A", "B"}},
		{Schemas: []string{"D"}},
	}, sccs)
}
