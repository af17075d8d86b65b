// Package dap implements the stdio debug adapter: DAP-framed JSON
// messages driving a paused/stepped run of the virtual machine.
// Breakpoints are matched against the bytecode's source marks, so the
// adapter needs nothing from the front-end beyond file and line.
package dap

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mna/gib/lang/bytecode"
	"github.com/mna/gib/lang/machine"
)

// breakpoint is one verified source breakpoint, identified by the uuid
// handed back to the client.
type breakpoint struct {
	ID   string
	File string
	Line int
}

// Adapter is one debug session over a stdio pair.
type Adapter struct {
	in  *bufio.Reader
	out io.Writer
	log *zap.Logger

	prog  *bytecode.Program
	entry uint32
	vm    *machine.Machine

	mu          sync.Mutex // guards out and breakpoints
	seq         int
	breakpoints []breakpoint

	resume   chan string // "continue" | "next"
	stepping bool
	runErr   chan error
}

// New builds an Adapter for prog, to be launched at entry.
func New(prog *bytecode.Program, entry uint32, in io.Reader, out io.Writer, log *zap.Logger) *Adapter {
	return &Adapter{
		in: bufio.NewReader(in), out: out, log: log,
		prog: prog, entry: entry,
		resume: make(chan string), runErr: make(chan error, 1),
	}
}

type request struct {
	Seq       int             `json:"seq"`
	Type      string          `json:"type"`
	Command   string          `json:"command"`
	Arguments json.RawMessage `json:"arguments"`
}

// Serve processes requests until disconnect or EOF.
func (a *Adapter) Serve(ctx context.Context) error {
	for {
		req, err := a.read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if done := a.dispatch(ctx, req); done {
			return nil
		}
	}
}

func (a *Adapter) read() (*request, error) {
	length := -1
	for {
		line, err := a.in.ReadString('\n')
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
		return nil, fmt.Errorf("dap: missing Content-Length header")
	}
	buf := make([]byte, length)
	if _, err := io.ReadFull(a.in, buf); err != nil {
		return nil, err
	}
	var req request
	if err := json.Unmarshal(buf, &req); err != nil {
		return nil, err
	}
	return &req, nil
}

func (a *Adapter) write(v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		a.log.Error("marshal dap message", zap.Error(err))
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	fmt.Fprintf(a.out, "Content-Length: %d\r\n\r\n%s", len(data), data)
}

func (a *Adapter) respond(req *request, body interface{}) {
	a.seq++
	a.write(map[string]interface{}{
		"seq": a.seq, "type": "response", "request_seq": req.Seq,
		"command": req.Command, "success": true, "body": body,
	})
}

func (a *Adapter) event(name string, body interface{}) {
	a.seq++
	a.write(map[string]interface{}{"seq": a.seq, "type": "event", "event": name, "body": body})
}

func (a *Adapter) dispatch(ctx context.Context, req *request) (done bool) {
	a.log.Debug("dap request", zap.String("command", req.Command))
	switch req.Command {
	case "initialize":
		a.respond(req, map[string]interface{}{
			"supportsConfigurationDoneRequest": true,
			"supportsEvaluateForHovers":        false,
		})
		a.event("initialized", nil)

	case "setBreakpoints":
		var args struct {
			Source struct {
				Path string `json:"path"`
			} `json:"source"`
			Breakpoints []struct {
				Line int `json:"line"`
			} `json:"breakpoints"`
		}
		json.Unmarshal(req.Arguments, &args)
		a.mu.Lock()
		a.breakpoints = a.breakpoints[:0]
		var out []interface{}
		for _, b := range args.Breakpoints {
			bp := breakpoint{ID: uuid.NewString(), File: path.Base(args.Source.Path), Line: b.Line}
			a.breakpoints = append(a.breakpoints, bp)
			out = append(out, map[string]interface{}{"id": bp.ID, "verified": true, "line": bp.Line})
		}
		a.mu.Unlock()
		a.respond(req, map[string]interface{}{"breakpoints": out})

	case "configurationDone":
		a.respond(req, nil)

	case "launch":
		a.respond(req, nil)
		a.launch(ctx)

	case "threads":
		a.respond(req, map[string]interface{}{
			"threads": []interface{}{map[string]interface{}{"id": 1, "name": "main"}},
		})

	case "stackTrace":
		a.respond(req, map[string]interface{}{"stackFrames": a.stackFrames(), "totalFrames": len(a.stackFrames())})

	case "continue":
		a.respond(req, map[string]interface{}{"allThreadsContinued": true})
		a.signal("continue")

	case "next":
		a.respond(req, nil)
		a.signal("next")

	case "pause":
		if a.vm != nil {
			a.vm.Pause()
		}
		a.respond(req, nil)
		a.event("stopped", map[string]interface{}{"reason": "pause", "threadId": 1})

	case "evaluate":
		var args struct {
			Expression string `json:"expression"`
		}
		json.Unmarshal(req.Arguments, &args)
		a.respond(req, map[string]interface{}{"result": a.evaluate(args.Expression), "variablesReference": 0})

	case "disconnect":
		a.respond(req, nil)
		a.signal("continue")
		return true

	default:
		a.respond(req, nil)
	}
	return false
}

func (a *Adapter) signal(mode string) {
	select {
	case a.resume <- mode:
	default:
	}
}

// launch starts the VM on its own goroutine; the step hook blocks it on
// breakpoint hits (and after every instruction while single-stepping)
// until the client sends continue/next.
func (a *Adapter) launch(ctx context.Context) {
	a.vm = machine.New(a.prog, machine.WithLogger(a.log))
	a.vm.StepHook = func(funcID uint32, index int) {
		stop := a.stepping
		reason := "step"
		if !stop && a.hitBreakpoint(funcID, index) {
			stop, reason = true, "breakpoint"
		}
		if !stop {
			return
		}
		a.stepping = false
		a.event("stopped", map[string]interface{}{"reason": reason, "threadId": 1})
		mode := <-a.resume
		if mode == "next" {
			a.stepping = true
		}
	}
	go func() {
		_, err := a.vm.Run(ctx, a.entry)
		a.runErr <- err
		code := 0
		if err != nil {
			code = 1
			a.event("output", map[string]interface{}{"category": "stderr", "output": err.Error() + "\n"})
		}
		a.event("exited", map[string]interface{}{"exitCode": code})
		a.event("terminated", nil)
	}()
}

func (a *Adapter) hitBreakpoint(funcID uint32, index int) bool {
	fn, ok := a.vm.FuncByID(funcID)
	if !ok {
		return false
	}
	var line uint16
	for _, m := range fn.Marks {
		if int(m.InstrIndex) == index {
			line = m.Line
		}
	}
	if line == 0 {
		return false
	}
	file := path.Base(a.vm.FileName(fn.FileID))
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, bp := range a.breakpoints {
		if bp.File == file && bp.Line == int(line) {
			return true
		}
	}
	return false
}

func (a *Adapter) stackFrames() []interface{} {
	if a.vm == nil {
		return []interface{}{}
	}
	frames := a.vm.Frames()
	out := make([]interface{}, 0, len(frames))
	// DAP wants innermost first
	for i := len(frames) - 1; i >= 0; i-- {
		fr := frames[i]
		fn, _ := a.vm.FuncByID(fr.FuncID)
		name := fmt.Sprintf("func %d", fr.FuncID)
		file := ""
		if fn != nil {
			name = fn.Name
			file = a.vm.FileName(fn.FileID)
		}
		line, col, _ := fr.Position()
		out = append(out, map[string]interface{}{
			"id": i, "name": name,
			"source": map[string]interface{}{"path": file},
			"line":   int(line), "column": int(col),
		})
	}
	return out
}

// evaluate is the limited expression evaluator spec.md §6 allows: literal
// ints, quoted strings, and the `steps`-style machine introspection are
// out of scope of checked code, so anything else reports as unsupported.
func (a *Adapter) evaluate(expr string) string {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return ""
	}
	if strings.HasPrefix(expr, `"`) && strings.HasSuffix(expr, `"`) && len(expr) >= 2 {
		return expr[1 : len(expr)-1]
	}
	var n int64
	if _, err := fmt.Sscanf(expr, "%d", &n); err == nil {
		return fmt.Sprintf("%d", n)
	}
	return "<unsupported expression>"
}
