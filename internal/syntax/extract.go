package syntax

import (
	"context"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
	tsgrammar "github.com/smacker/go-tree-sitter/typescript/typescript"

	"github.com/jzeiders/graphql-intel/pkg/documents"
)

// ExtractConfig controls what the extractor recognizes in a host file. It
// is one of the engine's tracked configuration inputs (§6.B); changing it
// only invalidates extraction/parse queries for host files, never schema
// queries.
type ExtractConfig struct {
	// TagIdentifiers are the tagged-template function names recognized as
	// GraphQL, e.g. "gql", "graphql".
	TagIdentifiers []string `yaml:"tagIdentifiers"`
	// MagicComment is the marker text a plain comment must contain,
	// immediately before a template literal, to mark it as GraphQL.
	MagicComment string `yaml:"magicComment"`
	// ImportModules are recognized importable module names for raw
	// ".graphql" imports; extraction only reports imports from a
	// statically-resolvable relative or recognized path.
	ImportModules []string `yaml:"importModules"`
	AllowGlobal   bool     `yaml:"allowGlobal"`
}

// DefaultExtractConfig matches the common graphql-tag / babel-plugin
// conventions.
func DefaultExtractConfig() ExtractConfig {
	return ExtractConfig{
		TagIdentifiers: []string{"gql", "graphql"},
		MagicComment:   "GraphQL",
	}
}

// FragmentInterpolation is a `${name}` substitution inside an extracted
// block, recorded (not re-parsed) as an implicit fragment-spread
// dependency per §4.2 and Design Note "Cross-file fragment interpolation".
type FragmentInterpolation struct {
	Name          string
	OffsetInBlock int
}

// RawImport is a statically-resolved `import X from "./y.graphql"`
// reference. Resolving it to an actual FileId is a workspace-level
// concern; extraction only records the lexical fact.
type RawImport struct {
	LocalName        string
	ModulePath       string
	RangeInHost      [2]int
	Unresolvable     bool
}

// Block is one extracted GraphQL template literal.
type Block struct {
	Source         string
	RangeInHost    [2]int // byte offsets of the GraphQL content in the host file, excluding quote/backtick delimiters
	LineOffset     int
	Interpolations []FragmentInterpolation
	// Hash is a content hash of Source. No query reads it: internal/hir
	// re-parses every block of a host file whenever that file's text
	// changes.
	Hash string
}

// ExtractDiagnostic is an extraction-kind diagnostic (§4.2, "Extraction
// failure policy"): a failure to process one block never discards the
// rest of the file.
type ExtractDiagnostic struct {
	Message string
	Offset  int
}

// ExtractResult bundles every block and raw import the extractor located
// in a host file, plus any extraction diagnostics.
type ExtractResult struct {
	Blocks      []Block
	RawImports  []RawImport
	Diagnostics []ExtractDiagnostic
}

// EffectiveInterpolation is one block's FragmentInterpolation relocated
// into EffectiveSource's own coordinate space, so a caller walking the
// parsed effective document doesn't need to know about block boundaries
// to decide which definition an interpolation falls inside.
type EffectiveInterpolation struct {
	Name   string
	Offset int
}

// EffectiveInterpolations relocates every block's FragmentInterpolation
// into the coordinate space EffectiveSource returns, mirroring that
// method's own separator/block-length bookkeeping exactly so the two stay
// consistent with each other.
func (r ExtractResult) EffectiveInterpolations() []EffectiveInterpolation {
	var out []EffectiveInterpolation
	pos := 0
	for i, b := range r.Blocks {
		if i > 0 {
			pos++ // the synthetic '\n' separator EffectiveSource inserts
		}
		for _, interp := range b.Interpolations {
			out = append(out, EffectiveInterpolation{Name: interp.Name, Offset: pos + interp.OffsetInBlock})
		}
		pos += len(b.Source)
	}
	return out
}

// EffectiveSource concatenates every block's GraphQL source with a
// newline separator, matching §3's "effective GraphQL text is the
// concatenation (with synthetic separators) of its blocks". It returns
// the synthetic text plus, for each byte in it, the corresponding host
// byte offset (-1 for the synthetic separator bytes themselves).
func (r ExtractResult) EffectiveSource() (string, []int) {
	var sb strings.Builder
	var offsets []int
	for i, b := range r.Blocks {
		if i > 0 {
			sb.WriteByte('\n')
			offsets = append(offsets, -1)
		}
		sb.WriteString(b.Source)
		hostStart := b.RangeInHost[0]
		for j := range b.Source {
			offsets = append(offsets, hostStart+j)
		}
	}
	return sb.String(), offsets
}

// Extract locates GraphQL template literals in a TypeScript/JavaScript
// host file. language selects the tree-sitter grammar.
func Extract(language Language, text string, cfg ExtractConfig) ExtractResult {
	lang := grammarFor(language)
	if lang == nil {
		return ExtractResult{Diagnostics: []ExtractDiagnostic{{Message: "no extraction grammar for language", Offset: 0}}}
	}

	parser := sitter.NewParser()
	parser.SetLanguage(lang)
	content := []byte(text)
	tree, err := parser.ParseCtx(context.Background(), nil, content)
	if err != nil {
		return ExtractResult{Diagnostics: []ExtractDiagnostic{{Message: "extraction parse failed: " + err.Error(), Offset: 0}}}
	}
	defer tree.Close()

	w := &extractWalker{content: content, cfg: cfg}
	w.walk(tree.RootNode())
	return ExtractResult{Blocks: w.blocks, RawImports: w.imports, Diagnostics: w.diagnostics}
}

func grammarFor(language Language) *sitter.Language {
	switch language {
	case LanguageTypeScript:
		return tsgrammar.GetLanguage()
	case LanguageJavaScript:
		return javascript.GetLanguage()
	default:
		return nil
	}
}

type extractWalker struct {
	content     []byte
	cfg         ExtractConfig
	blocks      []Block
	imports     []RawImport
	diagnostics []ExtractDiagnostic
}

func (w *extractWalker) text(n *sitter.Node) string {
	return string(w.content[n.StartByte():n.EndByte()])
}

func (w *extractWalker) walk(n *sitter.Node) {
	if n == nil {
		return
	}

	switch n.Type() {
	case "tagged_template_expression":
		w.handleTaggedTemplate(n)
	case "template_string":
		if n.Parent() == nil || n.Parent().Type() != "tagged_template_expression" {
			w.handleMagicCommentTemplate(n)
		}
	case "import_statement":
		w.handleImport(n)
	}

	for i := 0; i < int(n.ChildCount()); i++ {
		w.walk(n.Child(i))
	}
}

func (w *extractWalker) handleTaggedTemplate(n *sitter.Node) {
	var tagNode, templateNode *sitter.Node
	for i := 0; i < int(n.ChildCount()); i++ {
		c := n.Child(i)
		switch c.Type() {
		case "identifier":
			if tagNode == nil {
				tagNode = c
			}
		case "template_string":
			templateNode = c
		}
	}
	if tagNode == nil || templateNode == nil {
		return
	}
	tag := w.text(tagNode)
	if !containsString(w.cfg.TagIdentifiers, tag) {
		return
	}
	w.appendBlock(templateNode)
}

func (w *extractWalker) handleMagicCommentTemplate(n *sitter.Node) {
	marker := w.cfg.MagicComment
	if marker == "" {
		return
	}
	prev := n.PrevSibling()
	for prev != nil {
		if prev.Type() == "comment" {
			if strings.Contains(w.text(prev), marker) {
				w.appendBlock(n)
			}
			return
		}
		if !isTrivial(prev.Type()) {
			return
		}
		prev = prev.PrevSibling()
	}
}

func isTrivial(nodeType string) bool {
	return nodeType == ";" || nodeType == ","
}

func (w *extractWalker) handleImport(n *sitter.Node) {
	var source *sitter.Node
	var localName string
	for i := 0; i < int(n.ChildCount()); i++ {
		c := n.Child(i)
		switch c.Type() {
		case "string":
			source = c
		case "import_clause":
			localName = w.firstIdentifierText(c)
		}
	}
	if source == nil {
		return
	}
	path := strings.Trim(w.text(source), `"'`)
	if !strings.HasSuffix(path, ".graphql") && !strings.HasSuffix(path, ".gql") {
		return
	}
	resolvable := strings.HasPrefix(path, "./") || strings.HasPrefix(path, "../") || containsString(w.cfg.ImportModules, path)
	w.imports = append(w.imports, RawImport{
		LocalName:    localName,
		ModulePath:   path,
		RangeInHost:  [2]int{int(n.StartByte()), int(n.EndByte())},
		Unresolvable: !resolvable,
	})
}

func (w *extractWalker) firstIdentifierText(n *sitter.Node) string {
	if n.Type() == "identifier" {
		return w.text(n)
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		if name := w.firstIdentifierText(n.Child(i)); name != "" {
			return name
		}
	}
	return ""
}

// appendBlock strips the surrounding backticks, elides every
// `${...}` substitution (recorded, not re-parsed, per §4.2), and records
// the resulting block.
func (w *extractWalker) appendBlock(templateNode *sitter.Node) {
	start := int(templateNode.StartByte()) + 1
	end := int(templateNode.EndByte()) - 1
	if end < start {
		w.diagnostics = append(w.diagnostics, ExtractDiagnostic{Message: "empty template literal", Offset: int(templateNode.StartByte())})
		return
	}
	raw := string(w.content[start:end])

	var sb strings.Builder
	var interpolations []FragmentInterpolation
	cursor := start
	for i := 0; i < int(templateNode.ChildCount()); i++ {
		c := templateNode.Child(i)
		if c.Type() != "template_substitution" {
			continue
		}
		subStart, subEnd := int(c.StartByte()), int(c.EndByte())
		if subStart < cursor {
			continue
		}
		sb.Write(w.content[cursor:subStart])
		if name := w.substitutionIdentifier(c); name != "" {
			interpolations = append(interpolations, FragmentInterpolation{
				Name:          name,
				OffsetInBlock: sb.Len(),
			})
		}
		cursor = subEnd
	}
	sb.Write(w.content[cursor:end])

	_ = raw // raw text is superseded by sb's elided form; kept for diagnostics context only.
	source := sb.String()
	w.blocks = append(w.blocks, Block{
		Source:         source,
		RangeInHost:    [2]int{start, end},
		Interpolations: interpolations,
		Hash:           documents.ComputeDocumentHash(source),
	})
}

func (w *extractWalker) substitutionIdentifier(sub *sitter.Node) string {
	for i := 0; i < int(sub.ChildCount()); i++ {
		c := sub.Child(i)
		if c.Type() == "identifier" {
			return w.text(c)
		}
	}
	return ""
}

func containsString(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
