package report

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/docgraph/internal/apperr"
	"github.com/starford/docgraph/internal/diagnostics"
	"github.com/starford/docgraph/internal/graph"
	"github.com/starford/docgraph/internal/models"
	"github.com/starford/docgraph/internal/testutil"
)

func sampleGraph(t *testing.T) *graph.Graph {
	t.Helper()
	store := testutil.Store(t, map[string]string{
		"README.md": "# Home\n[b](b.md) [a](docs/a.md)",
		"b.md":      "---\ntitle: Bee\n---\n[c](c.md)",
		"docs/a.md": "A",
		"c.md":      "C\n",
	})
	g, err := graph.NewBuilder(store, nil, nil, nil).Build(context.Background(), graph.Options{
		Entrypoints: []string{testutil.Path(store, "README.md")},
		Depth:       graph.Unbounded,
	})
	require.NoError(t, err)
	return g
}

func TestWriteLint(t *testing.T) {
	rep := diagnostics.Aggregate([]models.Diagnostic{
		{Kind: models.KindDeadLink, File: "b.md", Line: 3, Column: 5, Message: "link target x.md does not exist"},
		{Kind: models.KindOrphanFile, File: "a.md", Message: "file is not reachable from any entrypoint"},
		{Kind: models.KindDeadAnchor, File: "b.md", Line: 4, Column: 1, Message: "anchor #y not found in c.md"},
	}, diagnostics.Rules{models.RuleDeadAnchor: models.SeverityWarn})

	var buf bytes.Buffer
	require.NoError(t, WriteLint(&buf, rep, false))
	out := buf.String()

	assert.NotContains(t, out, "\x1b[")
	assert.Less(t, strings.Index(out, "a.md\n"), strings.Index(out, "b.md\n"))
	assert.Contains(t, out, "3:5  error  link target x.md does not exist")
	assert.Contains(t, out, "4:1  warn ")
	assert.Contains(t, out, "  -  error  file is not reachable")
	assert.Contains(t, out, "3 problems (2 errors, 1 warning)")
}

func TestWriteLint_Clean(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteLint(&buf, diagnostics.Aggregate(nil, nil), false))
	assert.Equal(t, "no problems found\n", buf.String())
}

func TestWriteLint_Color(t *testing.T) {
	rep := diagnostics.Aggregate([]models.Diagnostic{
		{Kind: models.KindDeadLink, File: "a.md", Line: 1, Column: 1, Message: "x"},
	}, nil)
	var buf bytes.Buffer
	require.NoError(t, WriteLint(&buf, rep, true))
	assert.Contains(t, buf.String(), "\x1b[")
}

func TestWriteJSON(t *testing.T) {
	rep := diagnostics.Aggregate([]models.Diagnostic{
		{Kind: models.KindDeadLink, File: "a.md", Line: 1, Column: 2, Message: "x", Target: "x.md"},
	}, nil)
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, rep))

	var decoded struct {
		Diagnostics []map[string]any `json:"diagnostics"`
		Errors      int              `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded.Diagnostics, 1)
	assert.Equal(t, "dead-link", decoded.Diagnostics[0]["kind"])
	assert.Equal(t, "error", decoded.Diagnostics[0]["severity"])
	assert.Equal(t, 1, decoded.Errors)
}

func TestColorMode(t *testing.T) {
	m, err := ParseColorMode("")
	require.NoError(t, err)
	assert.Equal(t, ColorAuto, m)
	_, err = ParseColorMode("sometimes")
	assert.Error(t, err)

	var buf bytes.Buffer
	assert.True(t, ColorAlways.Enabled(&buf))
	assert.False(t, ColorNever.Enabled(&buf))
	assert.False(t, ColorAuto.Enabled(&buf), "buffers are not terminals")
}

func TestFiles(t *testing.T) {
	g := sampleGraph(t)

	nodes := g.Nodes()
	Sort(nodes, SortByPath)
	var buf bytes.Buffer
	require.NoError(t, WriteFiles(&buf, nodes, false))
	assert.Equal(t, "README.md\nb.md\nc.md\ndocs/a.md\n", buf.String())

	Sort(nodes, SortByDepth)
	buf.Reset()
	require.NoError(t, WriteFiles(&buf, nodes, true))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 5)
	assert.True(t, strings.HasPrefix(lines[0], "DEPTH"))
	assert.True(t, strings.HasSuffix(lines[1], "README.md"))
	assert.True(t, strings.HasSuffix(lines[4], "c.md"))

	entries := Entries(nodes)
	assert.Equal(t, "Bee", entries[1].Title)
	assert.Equal(t, 1, entries[1].Depth)
}

func TestParseSortBy(t *testing.T) {
	s, err := ParseSortBy("depth")
	require.NoError(t, err)
	assert.Equal(t, SortByDepth, s)
	_, err = ParseSortBy("size")
	assert.Error(t, err)
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatText, f)
	f, err = ParseFormat("JSON")
	require.NoError(t, err)
	assert.Equal(t, FormatJSON, f)
	_, err = ParseFormat("xml")
	assert.ErrorIs(t, err, apperr.ErrConfiguration)
}

func TestWriteCat(t *testing.T) {
	g := sampleGraph(t)

	var buf bytes.Buffer
	require.NoError(t, WriteCat(&buf, g, CatDependency))
	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "<!-- README.md -->\n# Home\n"))
	assert.Less(t, strings.Index(out, "<!-- b.md -->"), strings.Index(out, "<!-- docs/a.md -->"))
	assert.Less(t, strings.Index(out, "<!-- docs/a.md -->"), strings.Index(out, "<!-- c.md -->"))
	assert.Contains(t, out, "<!-- docs/a.md -->\nA\n\n<!-- c.md -->\nC\n")

	buf.Reset()
	require.NoError(t, WriteCat(&buf, g, CatAlphabetical))
	out = buf.String()
	assert.Less(t, strings.Index(out, "<!-- c.md -->"), strings.Index(out, "<!-- docs/a.md -->"))

	_, err := ParseCatOrder("random")
	assert.Error(t, err)
}
