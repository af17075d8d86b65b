package lsp

import (
	"encoding/json"
	"sort"
	"strings"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/mna/gib/lang/ast"
	"github.com/mna/gib/lang/check"
	"github.com/mna/gib/lang/decl"
	"github.com/mna/gib/lang/ir"
	"github.com/mna/gib/lang/token"
)

var tokenTypeLegend = []string{"variable", "type", "function", "keyword", "number", "string"}

type position struct {
	Line int `json:"line"`
	Char int `json:"character"`
}

type lspRange struct {
	Start position `json:"start"`
	End   position `json:"end"`
}

type docPositionParams struct {
	TextDocument struct {
		URI string `json:"uri"`
	} `json:"textDocument"`
	Position position `json:"position"`
}

// docAt decodes the common textDocument/position parameter shape and
// resolves it to the open document and the token.Pos under the cursor.
func (s *Server) docAt(params json.RawMessage) (*document, token.Pos, bool) {
	var p docPositionParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, token.NoPos, false
	}
	doc, ok := s.docs[p.TextDocument.URI]
	if !ok || doc.tokFile == nil {
		return nil, token.NoPos, false
	}
	off, ok := offsetAt(doc.text, p.Position)
	if !ok {
		return nil, token.NoPos, false
	}
	return doc, doc.tokFile.Pos(off), true
}

// offsetAt converts a 0-based LSP line/character to a byte offset.
func offsetAt(text string, p position) (int, bool) {
	off := 0
	for line := 0; line < p.Line; line++ {
		nl := strings.IndexByte(text[off:], '\n')
		if nl < 0 {
			return 0, false
		}
		off += nl + 1
	}
	off += p.Char
	if off > len(text) {
		return 0, false
	}
	return off, true
}

func (s *Server) posToPosition(doc *document, p token.Pos) position {
	if doc.tokFile == nil {
		return position{}
	}
	pos := doc.tokFile.Position(p)
	return position{Line: pos.Line - 1, Char: pos.Col - 1}
}

func (s *Server) spanToRange(doc *document, sp token.Span) lspRange {
	if sp.Start == token.NoPos || doc.tokFile == nil {
		return lspRange{}
	}
	return lspRange{Start: s.posToPosition(doc, sp.Start), End: s.posToPosition(doc, sp.End)}
}

func (s *Server) hover(params json.RawMessage) interface{} {
	doc, pos, ok := s.docAt(params)
	if !ok || doc.irFile == nil {
		return nil
	}
	n := doc.irFile.AtOffset(pos)
	if n == nil {
		return nil
	}
	text, ok := n.Hover()
	if !ok {
		return nil
	}
	start, end := n.Span()
	return map[string]interface{}{
		"contents": map[string]interface{}{"kind": "plaintext", "value": text},
		"range":    s.spanToRange(doc, token.Span{Start: start, End: end}),
	}
}

func (s *Server) definition(params json.RawMessage) interface{} {
	doc, pos, ok := s.docAt(params)
	if !ok || doc.irFile == nil {
		return nil
	}
	file, span, ok := doc.irFile.Goto(pos)
	if !ok {
		return nil
	}
	// single-document server: only targets inside the open buffer resolve
	if file != doc.scope.Name {
		return nil
	}
	return map[string]interface{}{
		"uri":   doc.uri,
		"range": s.spanToRange(doc, span),
	}
}

func (s *Server) documentSymbol(params json.RawMessage) interface{} {
	var p struct {
		TextDocument struct {
			URI string `json:"uri"`
		} `json:"textDocument"`
	}
	json.Unmarshal(params, &p)
	doc, ok := s.docs[p.TextDocument.URI]
	if !ok || doc.scope == nil {
		return []interface{}{}
	}
	var out []interface{}
	for _, d := range doc.scope.AST.Decls {
		name, kind := symbolOf(d)
		if name == "" {
			continue
		}
		start, end := d.Span()
		rng := s.spanToRange(doc, token.Span{Start: start, End: end})
		out = append(out, map[string]interface{}{
			"name":           name,
			"kind":           kind,
			"range":          rng,
			"selectionRange": rng,
		})
	}
	if out == nil {
		return []interface{}{}
	}
	return out
}

// symbolOf maps a top declaration to its LSP SymbolKind.
func symbolOf(d ast.TopDecl) (string, int) {
	switch d := d.(type) {
	case *ast.StructDecl:
		return d.Name, 23 // Struct
	case *ast.EnumDecl:
		return d.Name, 10 // Enum
	case *ast.TraitDecl:
		return d.Name, 11 // Interface
	case *ast.FuncDecl:
		return d.Name, 12 // Function
	case *ast.ModDecl:
		return d.Name, 2 // Module
	default:
		return "", 0
	}
}

// semanticTokens encodes the IR's token stream in the LSP delta format:
// five uints per token (deltaLine, deltaStart, length, type, modifiers).
func (s *Server) semanticTokens(params json.RawMessage) interface{} {
	var p struct {
		TextDocument struct {
			URI string `json:"uri"`
		} `json:"textDocument"`
	}
	json.Unmarshal(params, &p)
	doc, ok := s.docs[p.TextDocument.URI]
	if !ok || doc.irFile == nil || doc.tokFile == nil {
		return map[string]interface{}{"data": []uint32{}}
	}

	var toks []ir.SemanticToken
	doc.irFile.Root.Tokens(&toks)
	sort.SliceStable(toks, func(i, j int) bool { return toks[i].Span.Start < toks[j].Span.Start })

	data := make([]uint32, 0, len(toks)*5)
	prevLine, prevCol := 0, 0
	for _, tok := range toks {
		pos := doc.tokFile.Position(tok.Span.Start)
		line, col := pos.Line-1, pos.Col-1
		length := int(tok.Span.End - tok.Span.Start)
		if length <= 0 {
			continue
		}
		deltaLine := line - prevLine
		deltaStart := col
		if deltaLine == 0 {
			deltaStart = col - prevCol
		}
		if deltaLine < 0 || deltaStart < 0 {
			continue
		}
		data = append(data, uint32(deltaLine), uint32(deltaStart), uint32(length), uint32(tok.Kind), 0)
		prevLine, prevCol = line, col
	}
	return map[string]interface{}{"data": data}
}

// completion offers every name visible at the cursor: the innermost
// enclosing block's captured scope (locals and generics, via the
// checker's visibility predicate over the IR snapshot), the document's
// declarations, and the std prelude.
func (s *Server) completion(params json.RawMessage) interface{} {
	doc, pos, ok := s.docAt(params)
	if !ok || doc.proj == nil {
		return []interface{}{}
	}
	names := map[string]int{}
	if snap := scopeAt(doc, pos); snap != nil {
		for name := range snap.Vars {
			if check.IsVisible(*snap, name) {
				names[name] = 6 // Variable
			}
		}
		for name := range snap.Generics {
			if check.IsVisible(*snap, name) {
				names[name] = 25 // TypeParameter
			}
		}
	}
	for _, d := range doc.proj.Store.All() {
		if d.Name == "" {
			continue
		}
		kind := 22 // Struct
		switch d.Kind {
		case decl.KindFunction:
			kind = 3 // Function
		case decl.KindModule:
			kind = 9 // Module
		case decl.KindTrait:
			kind = 8 // Interface
		case decl.KindMember:
			kind = 20 // EnumMember
		}
		names[d.Name] = kind
	}
	keys := maps.Keys(names)
	slices.Sort(keys)
	items := make([]interface{}, 0, len(keys))
	for _, name := range keys {
		items = append(items, map[string]interface{}{"label": name, "kind": names[name]})
	}
	return items
}

// scopeAt returns the innermost block scope snapshot containing pos, or
// nil when the cursor is outside every checked block.
func scopeAt(doc *document, pos token.Pos) *check.Snapshot {
	if doc.irFile == nil {
		return nil
	}
	var found *check.Snapshot
	var walk func(n *ir.Node)
	walk = func(n *ir.Node) {
		if n == nil {
			return
		}
		start, end := n.Span()
		if pos < start || pos > end {
			return
		}
		if n.Scope != nil {
			found = n.Scope
		}
		for _, k := range n.Kids {
			walk(k)
		}
	}
	walk(doc.irFile.Root)
	return found
}

// formatting normalizes trailing whitespace and the final newline,
// returned as a whole-document edit.
func (s *Server) formatting(params json.RawMessage) interface{} {
	var p struct {
		TextDocument struct {
			URI string `json:"uri"`
		} `json:"textDocument"`
	}
	json.Unmarshal(params, &p)
	doc, ok := s.docs[p.TextDocument.URI]
	if !ok {
		return []interface{}{}
	}
	formatted := Format(doc.text)
	if formatted == doc.text {
		return []interface{}{}
	}
	lines := strings.Count(doc.text, "\n") + 1
	return []interface{}{map[string]interface{}{
		"range":   lspRange{Start: position{0, 0}, End: position{Line: lines, Char: 0}},
		"newText": formatted,
	}}
}

// Format is the minimal formatter shared with the fmt CLI command: it
// trims trailing whitespace on every line and guarantees exactly one
// final newline.
func Format(text string) string {
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimRight(l, " \t\r")
	}
	out := strings.Join(lines, "\n")
	out = strings.TrimRight(out, "\n") + "\n"
	return out
}
