// Package lsp implements the stdio language server: JSON-RPC 2.0 with
// Content-Length framing, re-running the resolve/check pipeline on each
// open document and answering cursor queries from the typed IR so hover,
// definition and completion never re-run the checker (spec.md §4.D).
package lsp

import (
	"bufio"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"io"
	"path"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/mna/gib/lang/check"
	"github.com/mna/gib/lang/diag"
	"github.com/mna/gib/lang/ir"
	"github.com/mna/gib/lang/resolver"
	"github.com/mna/gib/lang/source"
	"github.com/mna/gib/lang/token"
)

// Server is one language-server session over a stdio pair.
type Server struct {
	in  *bufio.Reader
	out io.Writer
	log *zap.Logger

	mu    sync.Mutex // guards out
	docs  map[string]*document
	db    *check.Database
	diags map[int][]*diag.Diagnostic // check diagnostics per content identity
}

// document is one open buffer and its latest analysis.
type document struct {
	uri  string
	text string

	proj    *resolver.Project
	irFile  *ir.File
	tokFile *token.File
	scope   *resolver.ParsedFile
	errs    *diag.List
}

// NewServer builds a Server reading requests from in and writing
// responses to out.
func NewServer(in io.Reader, out io.Writer, log *zap.Logger) *Server {
	db, _ := check.NewDatabase(64)
	return &Server{
		in: bufio.NewReader(in), out: out, log: log,
		docs: map[string]*document{}, db: db, diags: map[int][]*diag.Diagnostic{},
	}
}

// Serve processes requests until EOF or an `exit` notification.
func (s *Server) Serve() error {
	for {
		msg, err := s.read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if done := s.dispatch(msg); done {
			return nil
		}
	}
}

type rpcMessage struct {
	JSONRPC string           `json:"jsonrpc"`
	ID      *json.RawMessage `json:"id,omitempty"`
	Method  string           `json:"method,omitempty"`
	Params  json.RawMessage  `json:"params,omitempty"`
}

func (s *Server) read() (*rpcMessage, error) {
	length := -1
	for {
		line, err := s.in.ReadString('\n')
		if err != nil {
			return nil, err
		}
		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			break
		}
		if v, ok := strings.CutPrefix(line, "Content-Length: "); ok {
			fmt.Sscanf(v, "%d", &length)
		}
	}
	if length < 0 {
		return nil, fmt.Errorf("lsp: missing Content-Length header")
	}
	buf := make([]byte, length)
	if _, err := io.ReadFull(s.in, buf); err != nil {
		return nil, err
	}
	var msg rpcMessage
	if err := json.Unmarshal(buf, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

func (s *Server) write(v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		s.log.Error("marshal response", zap.Error(err))
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintf(s.out, "Content-Length: %d\r\n\r\n%s", len(data), data)
}

func (s *Server) reply(id *json.RawMessage, result interface{}) {
	if id == nil {
		return
	}
	s.write(map[string]interface{}{"jsonrpc": "2.0", "id": id, "result": result})
}

func (s *Server) notify(method string, params interface{}) {
	s.write(map[string]interface{}{"jsonrpc": "2.0", "method": method, "params": params})
}

func (s *Server) dispatch(msg *rpcMessage) (done bool) {
	s.log.Debug("request", zap.String("method", msg.Method))
	switch msg.Method {
	case "initialize":
		s.reply(msg.ID, map[string]interface{}{
			"capabilities": map[string]interface{}{
				"textDocumentSync":           1, // full
				"hoverProvider":              true,
				"definitionProvider":         true,
				"documentSymbolProvider":     true,
				"completionProvider":         map[string]interface{}{},
				"documentFormattingProvider": true,
				"semanticTokensProvider": map[string]interface{}{
					"legend": map[string]interface{}{
						"tokenTypes":     tokenTypeLegend,
						"tokenModifiers": []string{},
					},
					"full": true,
				},
			},
		})
	case "initialized", "$/cancelRequest":
		// nothing to do
	case "shutdown":
		s.reply(msg.ID, nil)
	case "exit":
		return true
	case "textDocument/didOpen":
		var p struct {
			TextDocument struct {
				URI  string `json:"uri"`
				Text string `json:"text"`
			} `json:"textDocument"`
		}
		json.Unmarshal(msg.Params, &p)
		s.open(p.TextDocument.URI, p.TextDocument.Text)
	case "textDocument/didChange":
		var p struct {
			TextDocument struct {
				URI string `json:"uri"`
			} `json:"textDocument"`
			ContentChanges []struct {
				Text string `json:"text"`
			} `json:"contentChanges"`
		}
		json.Unmarshal(msg.Params, &p)
		if len(p.ContentChanges) > 0 {
			s.open(p.TextDocument.URI, p.ContentChanges[len(p.ContentChanges)-1].Text)
		}
	case "textDocument/didClose":
		var p struct {
			TextDocument struct {
				URI string `json:"uri"`
			} `json:"textDocument"`
		}
		json.Unmarshal(msg.Params, &p)
		delete(s.docs, p.TextDocument.URI)
	case "textDocument/hover":
		s.reply(msg.ID, s.hover(msg.Params))
	case "textDocument/definition":
		s.reply(msg.ID, s.definition(msg.Params))
	case "textDocument/documentSymbol":
		s.reply(msg.ID, s.documentSymbol(msg.Params))
	case "textDocument/semanticTokens/full":
		s.reply(msg.ID, s.semanticTokens(msg.Params))
	case "textDocument/completion":
		s.reply(msg.ID, s.completion(msg.Params))
	case "textDocument/formatting":
		s.reply(msg.ID, s.formatting(msg.Params))
	default:
		s.reply(msg.ID, nil)
	}
	return false
}

// open (re)analyzes a document and pushes its diagnostics. Analysis is
// memoized by content identity: an unchanged buffer re-opened (or a
// change that round-trips back) hits the check cache.
func (s *Server) open(uri, text string) {
	if prev, ok := s.docs[uri]; ok && prev.text == text {
		s.publishDiagnostics(prev)
		return
	}
	doc := &document{uri: uri, text: text}
	name := path.Base(uri)
	if !strings.HasSuffix(name, ".gib") {
		name += ".gib"
	}

	errs := &diag.List{}
	root := source.Single(name, []byte(text))
	proj := resolver.Resolve(root, errs)

	// memoized by content identity (spec.md §1 "cache by file identity"):
	// re-opening unchanged content, or an edit that round-trips back,
	// skips the whole re-check.
	fileID := contentID(name, text)
	var results []*check.CheckResult
	if cached, ok := s.db.Get(fileID); ok {
		results = []*check.CheckResult{cached}
		for _, d := range s.diags[fileID] {
			errs.Add(d)
		}
	} else {
		var checkErrs *diag.List
		_, checkErrs, results = check.CheckProject(proj)
		for _, d := range checkErrs.Items() {
			errs.Add(d)
		}
		if len(results) > 0 {
			s.db.Put(fileID, results[0])
			s.diags[fileID] = checkErrs.Items()
		}
	}

	doc.proj = proj
	doc.errs = errs
	if len(proj.Files) > 0 {
		pf := proj.Files[0]
		doc.scope = pf
		var funcs []*check.FuncResult
		for _, res := range results {
			funcs = append(funcs, res.Funcs...)
		}
		doc.irFile = ir.Build(proj.Store, pf, funcs)
		start, _ := pf.AST.Span()
		doc.tokFile = proj.Fset.File(start)
		if doc.tokFile == nil {
			doc.tokFile = proj.Fset.FileByID(0)
		}
	}
	s.docs[uri] = doc
	s.publishDiagnostics(doc)
}

func contentID(uri, text string) int {
	h := fnv.New64a()
	h.Write([]byte(uri))
	h.Write([]byte{0})
	h.Write([]byte(text))
	return int(h.Sum64())
}

func (s *Server) publishDiagnostics(doc *document) {
	diags := []interface{}{}
	for _, d := range doc.errs.Items() {
		rng := s.spanToRange(doc, d.Span)
		diags = append(diags, map[string]interface{}{
			"range":    rng,
			"severity": 1,
			"message":  d.Error(),
		})
	}
	s.notify("textDocument/publishDiagnostics", map[string]interface{}{
		"uri":         doc.uri,
		"diagnostics": diags,
	})
}
