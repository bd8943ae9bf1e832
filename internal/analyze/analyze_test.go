package analyze_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/specslim/specslim/internal/analyze"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

const cyclicDoc = `openapi: 3.1.0
info:
  title: Pets
  version: 2.0.0
paths: {}
components:
  schemas:
    Pet:
      type: object
      properties:
        owner:
          $ref: '#/components/schemas/Owner'
        sibling:
          $ref: '#/components/schemas/Pet'
    Owner:
      type: object
      properties:
        pets:
          type: array
          items:
            $ref: '#/components/schemas/Pet'
        favourite:
          $ref: '#/components/schemas/Pet'
    Tag:
      type: string
`

const acyclicDoc = `openapi: 3.0.3
info:
  title: Flat
  version: "1"
paths: {}
components:
  schemas:
    A:
      properties:
        b:
          $ref: '#/components/schemas/B'
    B:
      type: string
`

func parse(t *testing.T, src string) *yaml.Node {
	t.Helper()

	var node yaml.Node
	require.NoError(t, yaml.Unmarshal([]byte(src), &node))
	return &node
}

func TestAnalyze_Success(t *testing.T) {
	t.Parallel()

	r := analyze.Analyze(parse(t, cyclicDoc))

	assert.Equal(t, "Pets", r.DocumentTitle)
	assert.Equal(t, "2.0.0", r.DocumentVersion)
	assert.Equal(t, "3.1.0", r.OpenAPIVersion)
	assert.Equal(t, 3, r.TotalSchemas)
	assert.Equal(t, 3, r.TotalEdges)
	assert.Equal(t, 4, r.TotalReferences)

	require.Len(t, r.SCCs, 1)
	assert.Equal(t, []string{"Owner", "Pet"}, r.SCCs[0].Schemas)
	assert.Equal(t, 2, r.LargestSCCSize)
	assert.InDelta(t, 66.6, r.SchemasInCyclesPct, 0.1)
	assert.NotEmpty(t, r.Cycles)
	assert.Len(t, r.BreakingPoints, len(r.Cycles))

	for _, bp := range r.BreakingPoints {
		assert.True(t, r.IsBroken(bp.Edge))
	}
}

func TestAnalyze_Acyclic_Success(t *testing.T) {
	t.Parallel()

	r := analyze.Analyze(parse(t, acyclicDoc))

	assert.Equal(t, 2, r.TotalSchemas)
	assert.Equal(t, 1, r.TotalEdges)
	assert.Empty(t, r.SCCs)
	assert.Empty(t, r.Cycles)
	assert.Zero(t, r.SchemasInCyclesPct)
}

func TestWriteJSON_Success(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, analyze.WriteJSON(&buf, analyze.Analyze(parse(t, cyclicDoc))))

	var out analyze.JSONReport
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))

	assert.Equal(t, "Pets", out.Document.Title)
	assert.Equal(t, 3, out.Summary.TotalSchemas)
	assert.Equal(t, 1, out.Summary.SCCCount)
	assert.Equal(t, [][]string{{"Owner", "Pet"}}, out.SCCs)
	require.NotEmpty(t, out.Cycles)
	for _, c := range out.Cycles {
		assert.Equal(t, c.Path[0], c.Path[len(c.Path)-1])
		assert.Equal(t, len(c.Path)-1, c.Length)
		assert.Len(t, c.Locations, c.ReferenceCount)
	}
}

func TestWriteJSON_Acyclic_Success(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, analyze.WriteJSON(&buf, analyze.Analyze(parse(t, acyclicDoc))))
	assert.Contains(t, buf.String(), `"sccs": []`)
	assert.Contains(t, buf.String(), `"cycles": []`)
}

func TestWriteMermaid_Success(t *testing.T) {
	t.Parallel()

	r := analyze.Analyze(parse(t, cyclicDoc))

	out := analyze.SCCToMermaid(r, 0)
	assert.Contains(t, out, "graph LR\n")
	assert.Contains(t, out, "  Owner[Owner]\n")
	assert.Contains(t, out, "  Pet[Pet]\n")
	assert.Contains(t, out, "Owner -->|2| Pet")
	assert.NotContains(t, out, "Tag")
	assert.Contains(t, out, "-.->")

	assert.Empty(t, analyze.SCCToMermaid(r, 1))
	assert.Empty(t, analyze.SCCToMermaid(r, -1))

	var buf bytes.Buffer
	analyze.WriteMermaid(&buf, analyze.Analyze(parse(t, acyclicDoc)))
	assert.Equal(t, "%% no circular references\n", buf.String())
}

func TestWriteDOT_Success(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	analyze.WriteDOT(&buf, analyze.Analyze(parse(t, cyclicDoc)))
	out := buf.String()

	assert.Contains(t, out, "digraph schemas {")
	assert.Contains(t, out, `"Tag" [fillcolor="#d4edda"`)
	assert.Contains(t, out, `"Pet" [fillcolor="#f8d7da"`)
	assert.Contains(t, out, `"Owner" -> "Pet" [label="2"`)
	assert.Contains(t, out, "style=dashed")
	assert.Contains(t, out, "}\n")
}

func TestWrite_Success(t *testing.T) {
	t.Parallel()

	r := analyze.Analyze(parse(t, cyclicDoc))

	tests := []struct {
		format   analyze.Format
		contains string
	}{
		{format: analyze.FormatText, contains: "Schema Reference Report: Pets v2.0.0"},
		{format: "", contains: "CYCLES ("},
		{format: analyze.FormatJSON, contains: `"totalSchemas": 3`},
		{format: analyze.FormatMermaid, contains: "graph LR"},
		{format: analyze.FormatDOT, contains: "digraph schemas"},
	}

	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			require.NoError(t, analyze.Write(&buf, r, tt.format))
			assert.Contains(t, buf.String(), tt.contains)
		})
	}
}

func TestWrite_Error(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	err := analyze.Write(&buf, analyze.Analyze(parse(t, acyclicDoc)), "svg")
	require.ErrorIs(t, err, analyze.ErrUnknownFormat)
	assert.Empty(t, buf.String())
}

func TestWriteText_Acyclic_Success(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	analyze.WriteText(&buf, analyze.Analyze(parse(t, acyclicDoc)))
	assert.Contains(t, buf.String(), "No circular references.")
	assert.NotContains(t, buf.String(), "STRONGLY CONNECTED")
}
