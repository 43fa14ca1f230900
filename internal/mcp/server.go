package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"tradeScope/internal/model"
	"tradeScope/internal/storage"
	"tradeScope/internal/tools"
)

const maxLineBytes = 1 << 20

// Toolset is the tool catalog the server dispatches into.
type Toolset interface {
	Definitions() []tools.Definition
	Call(ctx context.Context, name string, args map[string]any) (string, error)
}

// Server answers tools/list and tools/call requests and records every tool
// invocation to the audit sink.
type Server struct {
	tools  Toolset
	store  storage.Storage
	logger *zap.Logger
	now    func() time.Time
}

// NewServer builds a server. A nil store disables auditing.
func NewServer(toolset Toolset, store storage.Storage, logger *zap.Logger) *Server {
	if store == nil {
		store = storage.Discard{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{tools: toolset, store: store, logger: logger, now: time.Now}
}

// Serve reads newline-delimited JSON-RPC requests from r and writes one
// response line per request to w. Returns when r is exhausted or the
// context is cancelled.
func (s *Server) Serve(ctx context.Context, r io.Reader, w io.Writer) error {
	lines := make(chan []byte)
	errc := make(chan error, 1)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(r)
		scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
		for scanner.Scan() {
			line := make([]byte, len(scanner.Bytes()))
			copy(line, scanner.Bytes())
			select {
			case lines <- line:
			case <-ctx.Done():
				return
			}
		}
		errc <- scanner.Err()
	}()

	writer := bufio.NewWriter(w)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-errc:
					if err != nil {
						return fmt.Errorf("read request: %w", err)
					}
				default:
				}
				return nil
			}
			if len(line) == 0 {
				continue
			}
			resp := s.handleLine(ctx, line)
			if err := writeResponse(writer, resp); err != nil {
				return err
			}
		}
	}
}

func (s *Server) handleLine(ctx context.Context, line []byte) Response {
	var req Request
	if err := json.Unmarshal(line, &req); err != nil {
		return failure(nil, CodeParseError, "parse error")
	}
	return s.HandleRequest(ctx, req)
}

// HandleRequest dispatches one request.
func (s *Server) HandleRequest(ctx context.Context, req Request) Response {
	switch req.Method {
	case "tools/list":
		return success(req.ID, s.listTools())
	case "tools/call":
		return s.callTool(ctx, req)
	}
	return failure(req.ID, CodeMethodNotFound, fmt.Sprintf("unknown method: %s", req.Method))
}

func (s *Server) listTools() any {
	defs := s.tools.Definitions()
	catalog := make([]Tool, 0, len(defs))
	for _, def := range defs {
		catalog = append(catalog, Tool{
			Name:        def.Name,
			Description: def.Description,
			InputSchema: def.InputSchema,
		})
	}
	return struct {
		Tools []Tool `json:"tools"`
	}{Tools: catalog}
}

func (s *Server) callTool(ctx context.Context, req Request) Response {
	if len(req.Params) == 0 {
		return failure(req.ID, CodeInvalidParams, "missing params")
	}
	var call ToolCall
	if err := json.Unmarshal(req.Params, &call); err != nil {
		return failure(req.ID, CodeInvalidParams, "invalid params")
	}
	if call.Name == "" {
		return failure(req.ID, CodeInvalidParams, "tool name is required")
	}

	start := s.now()
	text, err := s.tools.Call(ctx, call.Name, call.Arguments)
	s.audit(ctx, call, s.now().Sub(start), err)

	if err != nil {
		s.logger.Error("tool call failed",
			zap.String("tool", call.Name),
			zap.Error(err),
		)
		if errors.Is(err, tools.ErrUnknownTool) || errors.Is(err, tools.ErrInvalidArguments) {
			return failure(req.ID, CodeInvalidParams, err.Error())
		}
		return failure(req.ID, CodeInternalError, fmt.Sprintf("tool call failed: %s", err))
	}

	return success(req.ID, ToolResult{
		Content: []Content{{Type: "text", Text: text}},
	})
}

// audit best-effort records the invocation; sink failures are logged and
// never surfaced to the caller.
func (s *Server) audit(ctx context.Context, call ToolCall, elapsed time.Duration, callErr error) {
	record := model.ToolRecord{
		Tool:       call.Name,
		DurationMS: elapsed.Milliseconds(),
		Timestamp:  s.now().Unix(),
	}
	if args, err := json.Marshal(call.Arguments); err == nil {
		record.Arguments = args
	}
	if callErr != nil {
		record.IsError = true
		record.Error = callErr.Error()
	}
	if err := s.store.PutToolRecords(ctx, []model.ToolRecord{record}); err != nil {
		s.logger.Warn("audit write failed", zap.String("tool", call.Name), zap.Error(err))
	}
}

func writeResponse(w *bufio.Writer, resp Response) error {
	payload, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("encode response: %w", err)
	}
	if _, err := w.Write(payload); err != nil {
		return fmt.Errorf("write response: %w", err)
	}
	if err := w.WriteByte('\n'); err != nil {
		return fmt.Errorf("write newline: %w", err)
	}
	return w.Flush()
}
