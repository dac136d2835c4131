// Package pipeline implements the line-framed JSON-RPC pass-through between
// an MCP client (stdin/stdout of this process) and a spawned server child.
//
// Message shapes are grounded on runbookmcp's stdio<->HTTP proxy
// (internal/server/proxy.go): the same "peek the id, then decide
// request/notification" idiom, using mcp.RequestId so both string and
// numeric ids round-trip correctly instead of a hand-rolled union. The
// pipeline never constructs or interprets a payload beyond its envelope —
// bytes are always forwarded verbatim, never re-marshaled.
package pipeline

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
)

// envelope is the minimal shape peeked from each line to drive registry
// bookkeeping and traffic logging, without ever re-marshaling the line.
type envelope struct {
	ID     mcp.RequestId   `json:"id,omitempty"`
	Method string          `json:"method,omitempty"`
	Params json.RawMessage `json:"params,omitempty"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  json.RawMessage `json:"error,omitempty"`
}

// maxLineSize bounds a single JSON-RPC line; generous for typical MCP tool
// payloads while still catching a genuinely malformed unbounded stream.
const maxLineSize = 16 * 1024 * 1024

// Pipeline pumps line-delimited JSON-RPC between a client and a child.
type Pipeline struct {
	ClientIn  io.Reader
	ClientOut io.Writer
	ChildIn   io.Writer
	ChildOut  io.Reader

	LogTraffic bool
	Logger     *slog.Logger

	mu       sync.Mutex
	pending  map[string]bool
}

// Run starts both forwarding directions and blocks until both sides have
// closed their read ends. When the client's input ends, ChildIn is closed
// (if it is an io.Closer) so the child sees EOF too. Outstanding registry
// entries are discarded on return, per spec.md §4.7.
func (p *Pipeline) Run() error {
	p.pending = make(map[string]bool)

	var wg sync.WaitGroup

	wg.Add(2)

	var clientToChildErr, childToClientErr error

	go func() {
		defer wg.Done()

		clientToChildErr = p.forward(p.ClientIn, p.ChildIn, "request")

		if closer, ok := p.ChildIn.(io.Closer); ok {
			_ = closer.Close()
		}
	}()

	go func() {
		defer wg.Done()

		childToClientErr = p.forward(p.ChildOut, p.ClientOut, "response")
	}()

	wg.Wait()

	if clientToChildErr != nil {
		return clientToChildErr
	}

	return childToClientErr
}

// forward copies line-by-line from src to dst, performing registry
// bookkeeping and traffic logging by direction without altering bytes.
func (p *Pipeline) forward(src io.Reader, dst io.Writer, direction string) error {
	scanner := bufio.NewScanner(src)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	for scanner.Scan() {
		line := scanner.Bytes()

		p.bookkeep(line, direction)

		_, err := dst.Write(append(append([]byte(nil), line...), '\n'))
		if err != nil {
			return fmt.Errorf("pipeline: writing %s: %w", direction, err)
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("pipeline: reading %s: %w", direction, err)
	}

	return nil
}

func (p *Pipeline) bookkeep(line []byte, direction string) {
	var env envelope

	if err := json.Unmarshal(line, &env); err != nil {
		// Malformed JSON is forwarded unchanged above; no bookkeeping possible.
		return
	}

	hasID := !env.ID.IsNil()
	id := env.ID.String()

	switch direction {
	case "request":
		if hasID {
			p.mu.Lock()
			p.pending[id] = true
			p.mu.Unlock()
		}

		if p.LogTraffic && p.Logger != nil {
			p.Logger.Debug("mcp traffic",
				slog.String("direction", "request"),
				slog.String("method", env.Method),
				slog.String("id", id),
				slog.Bool("paramsPresent", len(env.Params) > 0),
			)
		}
	case "response":
		if hasID {
			p.mu.Lock()
			delete(p.pending, id)
			p.mu.Unlock()
		}

		if p.LogTraffic && p.Logger != nil {
			p.Logger.Debug("mcp traffic",
				slog.String("direction", "response"),
				slog.String("id", id),
				slog.Bool("hasResult", len(env.Result) > 0),
				slog.Bool("hasError", len(env.Error) > 0),
			)
		}
	}
}
