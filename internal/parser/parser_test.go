package parser

import (
	"strings"
	"testing"

	"github.com/starford/docgraph/internal/models"
)

func mustParse(t *testing.T, input string) *Result {
	t.Helper()
	r, err := Parse([]byte(input))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return r
}

func raws(links []models.Link) string {
	out := make([]string, len(links))
	for i, l := range links {
		out[i] = l.Raw
	}
	return strings.Join(out, ",")
}

func slugs(hs []models.Heading) string {
	out := make([]string, len(hs))
	for i, h := range hs {
		out[i] = h.Slug
	}
	return strings.Join(out, ",")
}

func TestParse_FrontmatterAndBody(t *testing.T) {
	r := mustParse(t, "---\ntitle: Hello\ntags:\n  - go\n  - docs\n---\n# Hello\nSee [next](next.md).\n")
	if r.Title != "Hello" {
		t.Errorf("title = %q, want %q", r.Title, "Hello")
	}
	if tags, ok := r.Frontmatter["tags"].([]any); !ok || len(tags) != 2 {
		t.Errorf("tags = %v", r.Frontmatter["tags"])
	}
	if r.Body != "# Hello\nSee [next](next.md).\n" {
		t.Errorf("body = %q", r.Body)
	}
	if len(r.Links) != 1 || r.Links[0].Line != 8 || r.Links[0].Column != 5 {
		t.Errorf("links = %+v, want next.md at 8:5", r.Links)
	}
}

func TestParse_NoFrontmatter(t *testing.T) {
	r := mustParse(t, "# Just a heading\nSome text.\n")
	if r.Frontmatter != nil {
		t.Errorf("expected nil frontmatter, got %v", r.Frontmatter)
	}
	if r.Title != "Just a heading" {
		t.Errorf("title = %q, want %q", r.Title, "Just a heading")
	}
}

func TestParse_InvalidYAMLFallback(t *testing.T) {
	r := mustParse(t, "---\n: invalid: yaml: {{{\n---\n# Body\n[a](a.md)\n")
	if r.Frontmatter != nil {
		t.Errorf("expected nil frontmatter on invalid YAML")
	}
	if len(r.Warnings) != 1 || !strings.Contains(r.Warnings[0].Message, "malformed front-matter") {
		t.Errorf("warnings = %v", r.Warnings)
	}
	if raws(r.Links) != "a.md" || slugs(r.Headings) != "body" {
		t.Errorf("document content lost: links=%v headings=%v", r.Links, r.Headings)
	}
}

func TestParse_UnclosedFrontmatterIsContent(t *testing.T) {
	r := mustParse(t, "---\ntitle: x\n[a](a.md)\n")
	if r.Frontmatter != nil {
		t.Errorf("frontmatter = %v", r.Frontmatter)
	}
	if raws(r.Links) != "a.md" {
		t.Errorf("links = %v", r.Links)
	}
}

func TestParse_BinaryRejected(t *testing.T) {
	if _, err := Parse([]byte("abc\x00def")); err != ErrBinary {
		t.Errorf("err = %v, want ErrBinary", err)
	}
}

func TestHeadings_DuplicateSlugsAcrossLevels(t *testing.T) {
	r := mustParse(t, "## Setup\n### Other\n# Setup\n#### Setup ##\n")
	if got := slugs(r.Headings); got != "setup,other,setup-1,setup-2" {
		t.Errorf("slugs = %s", got)
	}
	if r.Headings[2].Level != 1 || r.Headings[2].Line != 3 {
		t.Errorf("heading = %+v", r.Headings[2])
	}
}

func TestHeadings_InlineMarkupStripped(t *testing.T) {
	r := mustParse(t, "# The `go build` **command** and [links](x.md)\n## _Emphasis_ in snake_case\n")
	if r.Headings[0].Text != "The go build command and links" {
		t.Errorf("text = %q", r.Headings[0].Text)
	}
	if got := slugs(r.Headings); got != "the-go-build-command-and-links,emphasis-in-snake_case" {
		t.Errorf("slugs = %s", got)
	}
	if raws(r.Links) != "x.md" {
		t.Errorf("heading links = %v", r.Links)
	}
}

func TestHeadings_Setext(t *testing.T) {
	r := mustParse(t, "Title\n=====\n\nSection\n---\n\n---\n\n- item\n---\n")
	if got := slugs(r.Headings); got != "title,section" {
		t.Errorf("slugs = %s", got)
	}
	if r.Headings[0].Level != 1 || r.Headings[1].Level != 2 || r.Headings[1].Line != 4 {
		t.Errorf("headings = %+v", r.Headings)
	}
}

func TestHeadings_NotHeadings(t *testing.T) {
	r := mustParse(t, "#hashtag\n####### seven\n    # indented code\n")
	if len(r.Headings) != 0 {
		t.Errorf("headings = %+v", r.Headings)
	}
}

func TestCodeIsNotParsed(t *testing.T) {
	input := strings.Join([]string{
		"```md",
		"# Not a heading",
		"[not](a.md)",
		"```",
		"~~~~",
		"[still](code.md)",
		"~~~",
		"~~~~",
		"Inline `[code](c.md)` and [real](r.md).",
		"",
		"    [indented](i.md)",
		"<!-- [commented](x.md)",
		"[also](y.md) -->[after](z.md)",
	}, "\n")
	r := mustParse(t, input)
	if len(r.Headings) != 0 {
		t.Errorf("headings = %+v", r.Headings)
	}
	if got := raws(r.Links); got != "r.md,z.md" {
		t.Errorf("links = %s", got)
	}
}

func TestUnterminatedFenceWarns(t *testing.T) {
	r := mustParse(t, "text\n```\n[x](x.md)\n")
	if len(r.Links) != 0 {
		t.Errorf("links = %v", r.Links)
	}
	if len(r.Warnings) != 1 || r.Warnings[0].Line != 2 {
		t.Errorf("warnings = %v", r.Warnings)
	}
}

func TestLinks_Syntaxes(t *testing.T) {
	input := strings.Join([]string{
		"Text [a](a.md) and ![img](pic.png \"title\") and <https://example.com>.",
		"",
		"| col | [table](t.md) |",
		"| --- | --- |",
		"",
		"- list [item](l.md#frag)",
		"  1. nested [deep](<with space.md>)",
		"",
		"[![badge](badge.svg)](target.md)",
		"",
		"Mail <me@example.com> and <a href=\"html.md\">x</a> <img src=\"i.png\">",
		"",
		"[ref]: ref.md",
		"",
		"[^1]: footnote text",
		"",
		"> quoted [q](q.md)",
		"",
		"[paren](a_(b).md) and [escaped \\] bracket](e.md)",
	}, "\n")
	r := mustParse(t, input)

	want := "a.md,pic.png,https://example.com,t.md,l.md#frag,with space.md,target.md,badge.svg," +
		"mailto:me@example.com,html.md,i.png,ref.md,q.md,a_(b).md,e.md"
	if got := raws(r.Links); got != want {
		t.Errorf("links =\n%s\nwant\n%s", got, want)
	}

	kinds := map[string]models.LinkKind{}
	for _, l := range r.Links {
		kinds[l.Raw] = l.Kind
	}
	if kinds["pic.png"] != models.LinkKindImage || kinds["https://example.com"] != models.LinkKindAuto ||
		kinds["ref.md"] != models.LinkKindReference || kinds["badge.svg"] != models.LinkKindImage {
		t.Errorf("kinds = %v", kinds)
	}
}

func TestLinks_Positions(t *testing.T) {
	r := mustParse(t, "intro\n  see [x](x.md) then ![y](y.png)\n> [q](q.md)\n")
	want := [][2]int{{2, 7}, {2, 22}, {3, 3}}
	if len(r.Links) != len(want) {
		t.Fatalf("links = %+v", r.Links)
	}
	for i, w := range want {
		if r.Links[i].Line != w[0] || r.Links[i].Column != w[1] {
			t.Errorf("link %d at %d:%d, want %d:%d", i, r.Links[i].Line, r.Links[i].Column, w[0], w[1])
		}
	}
}

func TestHTMLAnchors(t *testing.T) {
	r := mustParse(t, "<a name=\"legacy\"></a>\n<div id=\"custom-id\">x</div>\n<span data-id=\"nope\"></span>\n")
	if strings.Join(r.Anchors, ",") != "legacy,custom-id" {
		t.Errorf("anchors = %v", r.Anchors)
	}
}

func TestUnterminatedLinkWarns(t *testing.T) {
	r := mustParse(t, "broken [x](x.md\n")
	if len(r.Links) != 0 || len(r.Warnings) != 1 {
		t.Errorf("links=%v warnings=%v", r.Links, r.Warnings)
	}
}

func TestDeriveTitle_FrontmatterOverH1(t *testing.T) {
	fm := map[string]any{"title": "FM Title"}
	title := deriveTitle(fm, []models.Heading{{Text: "H1 Title", Level: 1}})
	if title != "FM Title" {
		t.Errorf("title = %q, want %q", title, "FM Title")
	}
}

func TestDeriveTitle_H1Fallback(t *testing.T) {
	title := deriveTitle(nil, []models.Heading{{Text: "Sub", Level: 2}, {Text: "My Heading", Level: 1}})
	if title != "My Heading" {
		t.Errorf("title = %q, want %q", title, "My Heading")
	}
}

func TestCommentClosedMidLine(t *testing.T) {
	r := mustParse(t, "<!-- todo: rewrite\nthis section --> See [guide](guide.md).\n")
	if raws(r.Links) != "guide.md" {
		t.Fatalf("links = %+v", r.Links)
	}
	if r.Links[0].Line != 2 || r.Links[0].Column != 22 {
		t.Errorf("guide.md at %d:%d, want 2:22", r.Links[0].Line, r.Links[0].Column)
	}
	if len(r.Warnings) != 0 {
		t.Errorf("warnings = %v", r.Warnings)
	}
}

func TestCommentOnOneLine(t *testing.T) {
	r := mustParse(t, "<!-- [hidden](h.md) --> [shown](s.md) <!-- [x](x.md) --> <https://example.com>\n")
	if got := raws(r.Links); got != "s.md,https://example.com" {
		t.Errorf("links = %s", got)
	}
	if r.Links[0].Column != 25 {
		t.Errorf("s.md column = %d, want 25", r.Links[0].Column)
	}
}

func TestUnterminatedCommentWarns(t *testing.T) {
	r := mustParse(t, "# Title\n\n<!-- draft\n[x](x.md)\n")
	if len(r.Links) != 0 {
		t.Errorf("links = %v", r.Links)
	}
	if len(r.Warnings) != 1 || r.Warnings[0].Line != 3 || !strings.Contains(r.Warnings[0].Message, "comment") {
		t.Errorf("warnings = %v", r.Warnings)
	}
}

func TestReferenceUsesReportDefinitionOnce(t *testing.T) {
	input := strings.Join([]string{
		"See [the guide][guide] and [guide] again.",
		"",
		"    [guide]: not-a-definition.md",
		"",
		"[Guide]: docs/guide.md",
	}, "\n")
	r := mustParse(t, input)
	if raws(r.Links) != "docs/guide.md" {
		t.Fatalf("links = %+v", r.Links)
	}
	l := r.Links[0]
	if l.Kind != models.LinkKindReference || l.Line != 5 || l.Column != 1 {
		t.Errorf("link = %+v, want reference at 5:1", l)
	}
}

func TestEmptyLinkText(t *testing.T) {
	r := mustParse(t, "a [](empty.md) b ![](blank.png)\n")
	if got := raws(r.Links); got != "empty.md,blank.png" {
		t.Fatalf("links = %s", got)
	}
	if r.Links[0].Column != 3 || r.Links[1].Column != 18 {
		t.Errorf("columns = %d,%d", r.Links[0].Column, r.Links[1].Column)
	}
}

func TestHTMLBlockLinks(t *testing.T) {
	r := mustParse(t, "<div>\n  <a href=\"block.md\">b</a> <!-- <a href=\"no.md\"> -->\n[raw](raw.md)\n</div>\n")
	if got := raws(r.Links); got != "block.md" {
		t.Errorf("links = %s", got)
	}
}
