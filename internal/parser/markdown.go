package parser

import (
	"bytes"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	mdparser "github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"

	"github.com/starford/docgraph/internal/models"
	"github.com/starford/docgraph/internal/slug"
)

var markdown = goldmark.New(
	goldmark.WithExtensions(extension.Table, extension.Strikethrough, extension.Footnote),
)

var (
	labelRe      = regexp.MustCompile(`^ {0,3}\[([^\]^][^\]]*)\]:`)
	fenceMarkRe  = regexp.MustCompile("`{3,}|~{3,}")
	escapedRe    = regexp.MustCompile("\\\\([!-/:-@\\[-`{-~])")
	whitespaceRe = regexp.MustCompile(`\s+`)
)

// lineIndex maps byte offsets of the body to 1-based document positions.
type lineIndex struct {
	starts []int
	first  int // lines preceding the body (front-matter)
}

func newLineIndex(body []byte, first int) *lineIndex {
	starts := []int{0}
	for i, c := range body {
		if c == '\n' {
			starts = append(starts, i+1)
		}
	}
	return &lineIndex{starts: starts, first: first}
}

func (x *lineIndex) pos(off int) (int, int) {
	i := sort.Search(len(x.starts), func(i int) bool { return x.starts[i] > off }) - 1
	if i < 0 {
		i = 0
	}
	return x.first + i + 1, off - x.starts[i] + 1
}

// walker collects links, headings, and anchors from a goldmark AST.
type walker struct {
	res     *Result
	src     []byte
	base    int // offset of src within the body
	lines   *lineIndex
	slugger *slug.Slugger // nil when headings are not collected
	cursor  int

	verbatim [][2]int // code and HTML block ranges of src
}

// extract parses the Markdown body and fills res. first is the number of
// document lines that precede body.
func extract(res *Result, body []byte, first int) {
	w := &walker{res: res, src: body, lines: newLineIndex(body, first), slugger: slug.New()}
	pc := mdparser.NewContext()
	doc := markdown.Parser().Parse(text.NewReader(body), mdparser.WithContext(pc))
	_ = ast.Walk(doc, w.visit)
	w.definitions(pc.References())

	sort.SliceStable(res.Links, func(i, j int) bool {
		a, b := res.Links[i], res.Links[j]
		if a.Line != b.Line {
			return a.Line != 0 && (b.Line == 0 || a.Line < b.Line)
		}
		return a.Column < b.Column
	})
}

func (w *walker) visit(n ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	switch n := n.(type) {
	case *ast.FencedCodeBlock:
		w.fence(n)
		return ast.WalkSkipChildren, nil
	case *ast.CodeBlock:
		w.skip(n.Lines())
		return ast.WalkSkipChildren, nil
	case *ast.CodeSpan:
		if t, ok := n.LastChild().(*ast.Text); ok {
			w.cursor = t.Segment.Stop
		}
		return ast.WalkSkipChildren, nil
	case *ast.HTMLBlock:
		w.htmlBlock(n)
		return ast.WalkSkipChildren, nil
	case *ast.Heading:
		if w.slugger != nil {
			w.heading(n)
		}
	case *ast.Link:
		w.link(n, models.LinkKindInline, n.Destination)
	case *ast.Image:
		w.link(n, models.LinkKindImage, n.Destination)
	case *ast.AutoLink:
		w.autolink(n)
	case *ast.RawHTML:
		w.rawHTML(n)
	case *ast.Text:
		w.cursor = n.Segment.Start
	}
	w.unparsed(n)
	return ast.WalkContinue, nil
}

func (w *walker) pos(off int) (int, int) {
	return w.lines.pos(w.base + off)
}

func (w *walker) warn(line int, format string, args ...any) {
	w.res.Warnings = append(w.res.Warnings, Warning{Line: line, Message: fmt.Sprintf(format, args...)})
}

func (w *walker) addLink(at int, raw string, kind models.LinkKind) {
	line, col := w.pos(at)
	w.res.Links = append(w.res.Links, models.Link{Raw: raw, Kind: kind, Line: line, Column: col})
}

func (w *walker) heading(n *ast.Heading) {
	if n.Lines().Len() == 0 {
		return
	}
	line, _ := w.pos(n.Lines().At(0).Start)
	plain := plainText(n, w.src)
	w.res.Headings = append(w.res.Headings, models.Heading{
		Text:  plain,
		Slug:  w.slugger.Slug(plain),
		Level: n.Level,
		Line:  line,
	})
}

// link records an inline link or image. Reference-style uses are skipped:
// their definition is reported once where it is written.
func (w *walker) link(n ast.Node, kind models.LinkKind, dest []byte) {
	open := w.open(n)
	if open < 0 {
		return
	}
	if end := closeBracket(w.src, open); end >= 0 && (end+1 >= len(w.src) || w.src[end+1] != '(') {
		return
	}
	at := open
	if kind == models.LinkKindImage && open > 0 && w.src[open-1] == '!' {
		at--
	}
	w.addLink(at, string(dest), kind)
	w.cursor = open + 1
}

// open returns the offset of the '[' that starts link or image n, or -1.
func (w *walker) open(n ast.Node) int {
	switch c := n.FirstChild().(type) {
	case nil:
		i := bytes.Index(w.src[w.cursor:], []byte("[]"))
		if i < 0 {
			return -1
		}
		return w.cursor + i
	case *ast.Link, *ast.Image:
		inner := w.open(c)
		if _, ok := c.(*ast.Image); ok && inner > 0 {
			inner--
		}
		if inner <= 0 {
			return -1
		}
		return bytes.LastIndexByte(w.src[:inner], '[')
	default:
		t := firstText(c)
		if t == nil {
			return -1
		}
		return bytes.LastIndexByte(w.src[:t.Segment.Start], '[')
	}
}

func (w *walker) autolink(n *ast.AutoLink) {
	raw := string(n.URL(w.src))
	if n.AutoLinkType == ast.AutoLinkEmail && !strings.HasPrefix(strings.ToLower(raw), "mailto:") {
		raw = "mailto:" + raw
	}
	at := w.cursor
	if i := bytes.Index(w.src[w.cursor:], append([]byte{'<'}, n.Label(w.src)...)); i >= 0 {
		at += i
	}
	w.addLink(at, raw, models.LinkKindAuto)
	w.cursor = at + 1
}

func (w *walker) rawHTML(n *ast.RawHTML) {
	if n.Segments.Len() == 0 {
		return
	}
	first := n.Segments.At(0)
	if bytes.HasPrefix(w.src[first.Start:first.Stop], []byte("<!--")) {
		return
	}
	for i := 0; i < n.Segments.Len(); i++ {
		seg := n.Segments.At(i)
		w.html(seg.Start, string(w.src[seg.Start:seg.Stop]))
	}
}

// htmlBlock scans raw HTML lines for links and anchors. A comment block
// ends on the line holding "-->"; Markdown after it on that line is parsed.
func (w *walker) htmlBlock(n *ast.HTMLBlock) {
	lines := n.Lines()
	w.skip(lines)
	if lines.Len() == 0 {
		return
	}
	if n.HTMLBlockType != ast.HTMLBlockType2 {
		in := false
		for i := 0; i < lines.Len(); i++ {
			seg := lines.At(i)
			var line string
			line, in = blankComments(string(w.src[seg.Start:seg.Stop]), in)
			w.html(seg.Start, line)
		}
		return
	}

	last := lines.At(lines.Len() - 1)
	if n.HasClosure() {
		last = n.ClosureLine
	}
	from := last.Start
	if lines.Len() == 1 && !n.HasClosure() {
		from += bytes.Index(w.src[last.Start:last.Stop], []byte("<!--")) + 4
	}
	i := bytes.Index(w.src[from:last.Stop], []byte("-->"))
	if i < 0 {
		line, _ := w.pos(lines.At(0).Start)
		w.warn(line, "unterminated HTML comment")
		return
	}
	w.tail(from+i+3, last.Stop)
}

// tail extracts links from the rest of a line following a closed comment.
func (w *walker) tail(start, stop int) {
	seg := w.src[start:stop]
	trimmed := bytes.TrimLeft(seg, " \t")
	start += len(seg) - len(trimmed)
	trimmed = bytes.TrimRight(trimmed, " \t\r\n")
	if len(trimmed) == 0 {
		return
	}
	sub := &walker{res: w.res, src: trimmed, base: w.base + start, lines: w.lines}
	doc := markdown.Parser().Parse(text.NewReader(trimmed))
	_ = ast.Walk(doc, sub.visit)
}

func (w *walker) html(start int, line string) {
	for _, m := range htmlHrefRe.FindAllStringSubmatchIndex(line, -1) {
		w.addLink(start+m[0], line[m[2]:m[3]], models.LinkKindInline)
	}
	for _, m := range htmlSrcRe.FindAllStringSubmatchIndex(line, -1) {
		w.addLink(start+m[0], line[m[2]:m[3]], models.LinkKindImage)
	}
	for _, re := range []*regexp.Regexp{htmlNameRe, htmlIDRe} {
		for _, m := range re.FindAllStringSubmatch(line, -1) {
			w.res.Anchors = append(w.res.Anchors, m[1])
		}
	}
}

// fence warns when a fenced block runs to the end of its container
// without a closing marker.
func (w *walker) fence(n *ast.FencedCodeBlock) {
	lines := n.Lines()
	var open, end int
	switch {
	case lines.Len() > 0:
		nl := bytes.LastIndexByte(w.src[:lines.At(0).Start], '\n')
		if nl < 0 {
			return
		}
		open = bytes.LastIndexByte(w.src[:nl], '\n') + 1
		end = lines.At(lines.Len() - 1).Stop
	case n.Info != nil:
		open = bytes.LastIndexByte(w.src[:n.Info.Segment.Start], '\n') + 1
		end = n.Info.Segment.Stop
	default:
		return
	}
	w.verbatim = append(w.verbatim, [2]int{open, end})

	if end > 0 && w.src[end-1] != '\n' {
		nl := bytes.IndexByte(w.src[end:], '\n')
		if nl < 0 {
			end = len(w.src)
		} else {
			end += nl + 1
		}
	}
	next := w.src[end:]
	if nl := bytes.IndexByte(next, '\n'); nl >= 0 {
		next = next[:nl]
	}
	marker := fenceMarkRe.Find(w.src[open:end])
	_, closing := stripQuotes(string(next))
	if marker != nil && !closesFence(strings.TrimLeft(closing, " \t"), string(marker)) {
		line, _ := w.pos(open)
		w.warn(line, "unterminated code fence")
	}
}

func (w *walker) skip(lines *text.Segments) {
	if lines.Len() > 0 {
		w.verbatim = append(w.verbatim, [2]int{lines.At(0).Start, lines.At(lines.Len() - 1).Stop})
	}
}

func (w *walker) inVerbatim(off int) bool {
	for _, r := range w.verbatim {
		if off >= r[0] && off < r[1] {
			return true
		}
	}
	return false
}

// unparsed warns about link syntax that was left as plain text, such as
// "[x](x.md" with no closing parenthesis.
func (w *walker) unparsed(n ast.Node) {
	var buf []byte
	var offs []int
	flush := func() {
		for i := 0; i+1 < len(buf); i++ {
			if buf[i] == ']' && buf[i+1] == '(' && (i == 0 || buf[i-1] != '\\') {
				line, col := w.pos(offs[i])
				w.warn(line, "unterminated link destination at column %d", col)
				break
			}
		}
		buf, offs = buf[:0], offs[:0]
	}
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		t, ok := c.(*ast.Text)
		if !ok {
			flush()
			continue
		}
		for i := t.Segment.Start; i < t.Segment.Stop; i++ {
			buf = append(buf, w.src[i])
			offs = append(offs, i)
		}
		if t.SoftLineBreak() || t.HardLineBreak() {
			flush()
		}
	}
	flush()
}

// definitions reports reference definitions ("[id]: target") at the line
// where each label is first defined.
func (w *walker) definitions(refs []mdparser.Reference) {
	if len(refs) == 0 {
		return
	}
	at := map[string]int{}
	for i, start := range w.lines.starts {
		if w.inVerbatim(start) {
			continue
		}
		stop := len(w.src)
		if i+1 < len(w.lines.starts) {
			stop = w.lines.starts[i+1]
		}
		offset, content := stripQuotes(string(w.src[start:stop]))
		m := labelRe.FindStringSubmatchIndex(content)
		if m == nil {
			continue
		}
		key := normalizeLabel(content[m[2]:m[3]])
		if _, ok := at[key]; !ok {
			at[key] = start + offset + strings.IndexByte(content, '[')
		}
	}
	for _, ref := range refs {
		l := models.Link{Raw: string(ref.Destination()), Kind: models.LinkKindReference}
		if off, ok := at[normalizeLabel(string(ref.Label()))]; ok {
			l.Line, l.Column = w.pos(off)
		}
		w.res.Links = append(w.res.Links, l)
	}
}

func normalizeLabel(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

func firstText(n ast.Node) *ast.Text {
	if t, ok := n.(*ast.Text); ok {
		return t
	}
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if t := firstText(c); t != nil {
			return t
		}
	}
	return nil
}

// closeBracket returns the index of the ']' matching src[open], or -1.
func closeBracket(src []byte, open int) int {
	depth := 0
	for i := open; i < len(src); i++ {
		switch src[i] {
		case '\\':
			i++
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				return i
			}
		case '\n':
			if i+1 < len(src) && src[i+1] == '\n' {
				return -1
			}
		}
	}
	return -1
}

// plainText reduces a heading to the text a reader sees.
func plainText(n ast.Node, src []byte) string {
	var b strings.Builder
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch c := c.(type) {
		case *ast.Text:
			b.Write(c.Segment.Value(src))
			if c.SoftLineBreak() || c.HardLineBreak() {
				b.WriteByte(' ')
			}
		case *ast.String:
			b.Write(c.Value)
		case *ast.AutoLink:
			b.Write(c.Label(src))
		case *ast.RawHTML:
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	s := escapedRe.ReplaceAllString(b.String(), "$1")
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}
