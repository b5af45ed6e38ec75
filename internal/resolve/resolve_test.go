package resolve

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/docgraph/internal/apperr"
	"github.com/starford/docgraph/internal/testutil"
)

func TestResolve(t *testing.T) {
	t.Parallel()

	store := testutil.Store(t, map[string]string{
		"README.md":          "",
		"docs/guide.md":      "",
		"docs/api/index.md":  "",
		"docs/setup.md":      "",
		"docs/empty/keep.md": "",
		"img/logo.png":       "",
	})
	r := New(store)
	src := testutil.Path(store, "docs/guide.md")

	tests := []struct {
		name     string
		raw      string
		wantPath string
		wantFrag string
	}{
		{"sibling", "setup.md", "docs/setup.md", ""},
		{"dot prefix", "./setup.md", "docs/setup.md", ""},
		{"parent", "../README.md", "README.md", ""},
		{"extension-less", "setup", "docs/setup.md", ""},
		{"missing extension-less stays", "nope", "docs/nope", ""},
		{"missing file stays", "gone.md", "docs/gone.md", ""},
		{"fragment", "setup.md#install", "docs/setup.md", "install"},
		{"fragment only", "#intro", "docs/guide.md", "intro"},
		{"bare hash", "#", "docs/guide.md", ""},
		{"root relative", "/img/logo.png", "img/logo.png", ""},
		{"directory index", "api/", "docs/api/index.md", ""},
		{"directory without slash", "api", "docs/api/index.md", ""},
		{"directory without index", "empty/", "docs/empty", ""},
		{"query dropped", "setup.md?plain=1#x", "docs/setup.md", "x"},
		{"percent escapes", "set%75p.md", "docs/setup.md", ""},
		{"angle brackets", "<setup.md>", "docs/setup.md", ""},
		{"collapse segments", "api/../setup.md", "docs/setup.md", ""},
		{"escaped hash", `we\#ird.md`, "docs/we#ird.md", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := r.Resolve(src, tt.raw)
			require.NoError(t, err)
			assert.False(t, res.External)
			assert.Equal(t, testutil.Path(store, tt.wantPath), res.Path)
			assert.Equal(t, tt.wantFrag, res.Fragment)
		})
	}
}

func TestResolve_External(t *testing.T) {
	t.Parallel()

	store := testutil.Store(t, nil)
	r := New(store)
	for _, raw := range []string{"https://example.com/x.md", "mailto:me@example.com", "//cdn.example.com/a.js", "ftp://host/file"} {
		res, err := r.Resolve(testutil.Path(store, "a.md"), raw)
		require.NoError(t, err)
		assert.True(t, res.External, raw)
		assert.Empty(t, res.Path)
	}
}

func TestResolve_Unresolvable(t *testing.T) {
	t.Parallel()

	store := testutil.Store(t, nil)
	r := New(store)
	for _, raw := range []string{"", "   ", "<>", "bad%zzescape.md"} {
		_, err := r.Resolve(testutil.Path(store, "a.md"), raw)
		assert.True(t, errors.Is(err, apperr.ErrUnresolvableLink), "raw %q: %v", raw, err)
	}
}

func TestSplitFragment(t *testing.T) {
	t.Parallel()

	p, f := SplitFragment("a.md#b#c")
	assert.Equal(t, "a.md", p)
	assert.Equal(t, "b#c", f)

	p, f = SplitFragment(`a\#b.md`)
	assert.Equal(t, "a#b.md", p)
	assert.Empty(t, f)
}
