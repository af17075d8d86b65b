package dap

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mna/gib/lang/bytecode"
)

func frame(t *testing.T, seq int, command string, args interface{}) string {
	t.Helper()
	msg := map[string]interface{}{"seq": seq, "type": "request", "command": command}
	if args != nil {
		msg["arguments"] = args
	}
	data, err := json.Marshal(msg)
	require.NoError(t, err)
	return fmt.Sprintf("Content-Length: %d\r\n\r\n%s", len(data), data)
}

func TestServeSetBreakpointsMintsStableIDs(t *testing.T) {
	var in strings.Builder
	in.WriteString(frame(t, 1, "initialize", nil))
	in.WriteString(frame(t, 2, "setBreakpoints", map[string]interface{}{
		"source":      map[string]interface{}{"path": "/tmp/main.gib"},
		"breakpoints": []interface{}{map[string]interface{}{"line": 2}, map[string]interface{}{"line": 5}},
	}))
	in.WriteString(frame(t, 3, "threads", nil))
	in.WriteString(frame(t, 4, "evaluate", map[string]interface{}{"expression": "42"}))
	in.WriteString(frame(t, 5, "disconnect", nil))

	var out bytes.Buffer
	a := New(&bytecode.Program{}, 0, strings.NewReader(in.String()), &out, zap.NewNop())
	require.NoError(t, a.Serve(context.Background()))

	require.Contains(t, out.String(), `"initialized"`)
	require.Contains(t, out.String(), `"verified":true`)
	require.Contains(t, out.String(), `"name":"main"`)
	require.Contains(t, out.String(), `"result":"42"`)

	require.Len(t, a.breakpoints, 2)
	require.NotEqual(t, a.breakpoints[0].ID, a.breakpoints[1].ID)
	require.Equal(t, "main.gib", a.breakpoints[0].File)
}
