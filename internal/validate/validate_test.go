package validate

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/docgraph/internal/graph"
	"github.com/starford/docgraph/internal/ignore"
	"github.com/starford/docgraph/internal/models"
	"github.com/starford/docgraph/internal/storage"
	"github.com/starford/docgraph/internal/testutil"
)

func run(t *testing.T, files map[string]string, depth int, exclude ...string) (*storage.FS, []models.Diagnostic) {
	t.Helper()
	store := testutil.Store(t, files)
	rs := ignore.NewRuleSet()
	require.NoError(t, rs.Add(ignore.SourceConfig, exclude...))
	filter := ignore.NewFilter(store.Root(), rs)

	g, err := graph.NewBuilder(store, filter, nil, nil).Build(context.Background(), graph.Options{
		Entrypoints: []string{testutil.Path(store, "README.md")},
		Depth:       depth,
	})
	require.NoError(t, err)
	diags, err := All(g, store, filter)
	require.NoError(t, err)
	return store, diags
}

func ofKind(diags []models.Diagnostic, kind models.DiagnosticKind) []models.Diagnostic {
	var out []models.Diagnostic
	for _, d := range diags {
		if d.Kind == kind {
			out = append(out, d)
		}
	}
	return out
}

func files(diags []models.Diagnostic) []string {
	var out []string
	for _, d := range diags {
		out = append(out, d.File)
	}
	return out
}

func TestOrphans(t *testing.T) {
	_, diags := run(t, map[string]string{
		"README.md":     "[a](a.md)",
		"a.md":          "",
		"lonely.md":     "",
		"docs/lost.md":  "",
		"drafts/wip.md": "",
		"notes.txt":     "not a document",
	}, graph.Unbounded, "drafts/")

	orphans := ofKind(diags, models.KindOrphanFile)
	assert.ElementsMatch(t, []string{"docs/lost.md", "lonely.md"}, files(orphans))
	for _, d := range orphans {
		assert.Equal(t, models.RuleOrphanFiles, d.Rule)
		assert.Empty(t, d.Severity)
	}
}

func TestOrphans_LinkingRemovesOrphan(t *testing.T) {
	tree := map[string]string{
		"README.md": "",
		"guide.md":  "",
	}
	_, diags := run(t, tree, graph.Unbounded)
	assert.Len(t, ofKind(diags, models.KindOrphanFile), 1)

	tree["README.md"] = "[guide](guide.md)"
	_, diags = run(t, tree, graph.Unbounded)
	assert.Empty(t, ofKind(diags, models.KindOrphanFile))
}

func TestOrphans_NegatedPatternStaysEligible(t *testing.T) {
	_, diags := run(t, map[string]string{
		"README.md":           "",
		"drafts/wip.md":       "",
		"drafts/important.md": "",
	}, graph.Unbounded, "drafts/**", "!drafts/important.md")

	assert.Equal(t, []string{"drafts/important.md"}, files(ofKind(diags, models.KindOrphanFile)))
}

func TestOrphans_GitDirectory(t *testing.T) {
	tree := map[string]string{
		"README.md":        "",
		".git/notes.md":    "",
		".git/refs/old.md": "",
	}
	_, diags := run(t, tree, graph.Unbounded)
	assert.Empty(t, ofKind(diags, models.KindOrphanFile), ".git is excluded by default")

	_, diags = run(t, tree, graph.Unbounded, "!.git/notes.md")
	assert.Equal(t, []string{".git/notes.md"}, files(ofKind(diags, models.KindOrphanFile)))
}

func TestDepthZero_LinkedFileIsOrphanButLinkValid(t *testing.T) {
	_, diags := run(t, map[string]string{
		"README.md": "[guide](guide.md#intro)",
		"guide.md":  "# Intro\n",
	}, 0)

	assert.Equal(t, []string{"guide.md"}, files(ofKind(diags, models.KindOrphanFile)))
	assert.Empty(t, ofKind(diags, models.KindDeadLink))
	assert.Empty(t, ofKind(diags, models.KindDeadAnchor))
}

func TestDeadLink(t *testing.T) {
	_, diags := run(t, map[string]string{
		"README.md": "intro\n[gone](missing.md) and [hidden](drafts/nothere.md)\n[ok](https://example.com/x.md)",
	}, graph.Unbounded, "drafts/")

	dead := ofKind(diags, models.KindDeadLink)
	require.Len(t, dead, 2)
	assert.Equal(t, "README.md", dead[0].File)
	assert.Equal(t, 2, dead[0].Line)
	assert.Equal(t, 1, dead[0].Column)
	assert.Equal(t, "missing.md", dead[0].Target)
	assert.Equal(t, "drafts/nothere.md", dead[1].Target, "excluded targets are still checked")
}

func TestDeadLink_Image(t *testing.T) {
	_, diags := run(t, map[string]string{
		"README.md":     "![logo](img/logo.png) ![there](img/there.png)",
		"img/there.png": "png",
	}, graph.Unbounded)

	dead := ofKind(diags, models.KindDeadLink)
	require.Len(t, dead, 1)
	assert.Equal(t, "img/logo.png", dead[0].Target)
}

func TestAnchors(t *testing.T) {
	_, diags := run(t, map[string]string{
		"README.md": "## Setup\n\n[ok](#setup)\n[bad](#non-existent-section)\n[other](guide.md#install)\n[other-bad](guide.md#Install)\n[html](guide.md#custom)",
		"guide.md":  "# Guide\n## Install\n<a name=\"custom\"></a>\n",
	}, graph.Unbounded)

	anchors := ofKind(diags, models.KindDeadAnchor)
	require.Len(t, anchors, 2)
	assert.Equal(t, "non-existent-section", anchors[0].Anchor)
	assert.Equal(t, 4, anchors[0].Line)
	assert.Equal(t, "README.md", anchors[0].Target)
	assert.Equal(t, "Install", anchors[1].Anchor)
	assert.Equal(t, "guide.md", anchors[1].Target)
	assert.Contains(t, anchors[1].Message, "guide.md")
}

func TestAnchors_TargetOutsideDepthBound(t *testing.T) {
	_, diags := run(t, map[string]string{
		"README.md": "[a](a.md)",
		"a.md":      "[deep](deep.md#missing) [deep](deep.md#here)",
		"deep.md":   "## Here\n",
	}, 1)

	anchors := ofKind(diags, models.KindDeadAnchor)
	require.Len(t, anchors, 1)
	assert.Equal(t, "missing", anchors[0].Anchor)
	assert.Equal(t, []string{"deep.md"}, files(ofKind(diags, models.KindOrphanFile)))
}

func TestReadErrors(t *testing.T) {
	_, diags := run(t, map[string]string{
		"README.md": "[bin](bin.md)",
		"bin.md":    "\x00\x01",
	}, graph.Unbounded)

	readErrs := ofKind(diags, models.KindReadError)
	require.Len(t, readErrs, 1)
	assert.Equal(t, "bin.md", readErrs[0].File)
	assert.Empty(t, ofKind(diags, models.KindOrphanFile))
}
