package mcpserver

// RulesReference describes each diagnostic so LLM consumers can act on lint
// output without reading the source.
const RulesReference = `# docgraph Diagnostic Rules

docgraph walks the documentation tree breadth-first from the configured
entrypoints and reports three kinds of problems. Each rule's severity is
set in ` + "`" + `.docgraph.yaml` + "`" + ` under ` + "`" + `lint.rules` + "`" + ` (error, warn or off).

## orphan-file (rule ` + "`" + `orphan-files` + "`" + `)

A document under the root that no entrypoint reaches within the depth
bound. Files matched by exclude patterns are never reported.

Fix: link the document from a reachable page, exclude it, or delete it.

## dead-link

A relative link or image whose target does not exist, or cannot be
resolved inside the root. External URLs (` + "`" + `https:` + "`" + `, ` + "`" + `mailto:` + "`" + `, ...)
are never checked.

Fix: correct the path. Paths are relative to the linking file; a leading
` + "`" + `/` + "`" + ` is relative to the root.

## dead-anchor

A link whose ` + "`" + `#fragment` + "`" + ` matches no heading slug or explicit anchor in
the target document. Matching is case-sensitive. Heading slugs are
lowercased, punctuation is dropped, spaces become ` + "`" + `-` + "`" + ` and duplicates get
a ` + "`" + `-1` + "`" + `, ` + "`" + `-2` + "`" + ` suffix.

Fix: use the slug of an existing heading, or add ` + "`" + `<a name="..."></a>` + "`" + `.

## read-error

A reachable document could not be read or is not valid text. Always an
error.

## Exit codes

- 0: no errors
- 1: at least one error-severity finding
- 2: configuration error (bad pattern, missing entrypoint, invalid config)
`
