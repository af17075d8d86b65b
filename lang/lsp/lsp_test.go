package lsp

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestFormatTrimsTrailingWhitespaceAndFinalNewline(t *testing.T) {
	require.Equal(t, "a\nb\n", Format("a  \nb\t"))
	require.Equal(t, "a\n", Format("a\n\n\n"))
	require.Equal(t, "a\n", Format("a"))
}

func TestOffsetAt(t *testing.T) {
	text := "ab\ncde\nf"
	off, ok := offsetAt(text, position{Line: 0, Char: 1})
	require.True(t, ok)
	require.Equal(t, 1, off)

	off, ok = offsetAt(text, position{Line: 1, Char: 2})
	require.True(t, ok)
	require.Equal(t, 5, off)

	_, ok = offsetAt(text, position{Line: 9, Char: 0})
	require.False(t, ok)
}

// frame encodes one client request in the JSON-RPC stdio framing.
func frame(t *testing.T, id int, method string, params interface{}) string {
	t.Helper()
	msg := map[string]interface{}{"jsonrpc": "2.0", "method": method}
	if id > 0 {
		msg["id"] = id
	}
	if params != nil {
		msg["params"] = params
	}
	data, err := json.Marshal(msg)
	require.NoError(t, err)
	return fmt.Sprintf("Content-Length: %d\r\n\r\n%s", len(data), data)
}

func TestServeHoverOverTypedExpression(t *testing.T) {
	src := "fn main() {\n\tlet x = 41 + 1\n}\n"
	var in strings.Builder
	in.WriteString(frame(t, 1, "initialize", nil))
	in.WriteString(frame(t, 0, "textDocument/didOpen", map[string]interface{}{
		"textDocument": map[string]interface{}{"uri": "file:///main.gib", "text": src},
	}))
	// hover over the `41` literal on line 1 (0-based)
	in.WriteString(frame(t, 2, "textDocument/hover", map[string]interface{}{
		"textDocument": map[string]interface{}{"uri": "file:///main.gib"},
		"position":     map[string]interface{}{"line": 1, "character": 9},
	}))
	in.WriteString(frame(t, 3, "shutdown", nil))
	in.WriteString(frame(t, 0, "exit", nil))

	var out bytes.Buffer
	srv := NewServer(strings.NewReader(in.String()), &out, zap.NewNop())
	require.NoError(t, srv.Serve())

	require.Contains(t, out.String(), "publishDiagnostics")
	require.Contains(t, out.String(), "Int")
}

func TestServePublishesDiagnosticsForBrokenDocument(t *testing.T) {
	src := "fn main() {\n\tlet x: Int = \"s\"\n}\n"
	var in strings.Builder
	in.WriteString(frame(t, 1, "initialize", nil))
	in.WriteString(frame(t, 0, "textDocument/didOpen", map[string]interface{}{
		"textDocument": map[string]interface{}{"uri": "file:///bad.gib", "text": src},
	}))
	in.WriteString(frame(t, 0, "exit", nil))

	var out bytes.Buffer
	srv := NewServer(strings.NewReader(in.String()), &out, zap.NewNop())
	require.NoError(t, srv.Serve())

	require.Contains(t, out.String(), "type mismatch")
}
