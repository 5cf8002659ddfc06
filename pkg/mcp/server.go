package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/darkcaves/dragonites/pkg/logging"
	"github.com/darkcaves/dragonites/pkg/models"
)

const maxLineSize = 1024 * 1024

// Dex is the creature lookup surface the tools call into.
type Dex interface {
	Resolve(ctx context.Context, id int, ttl time.Duration) (models.CreatureRecord, error)
	Search(ctx context.Context, query string) ([]models.CreatureRecord, error)
	List(ctx context.Context, q models.ListQuery) (models.ListResult, error)
	ConvertByID(ctx context.Context, id, level int) (models.StatBlock, error)
	Initialize(ctx context.Context, generation int) (models.BulkSummary, error)
	Stats(ctx context.Context) (models.CacheStats, error)
	ClearAll(ctx context.Context) error
	ClearExpired(ctx context.Context) (int64, error)
}

// Server speaks line-delimited JSON-RPC 2.0 over a pair of streams.
type Server struct {
	dex     Dex
	logger  *slog.Logger
	version string
}

func New(dex Dex, logger *slog.Logger, version string) *Server {
	return &Server{dex: dex, logger: logger, version: version}
}

// Run reads requests from r line by line and writes responses to w.
// It blocks until r is exhausted or ctx is cancelled.
func (s *Server) Run(ctx context.Context, r io.Reader, w io.Writer) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, maxLineSize), maxLineSize)

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}

		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var req Request
		if err := json.Unmarshal(line, &req); err != nil {
			s.writeResponse(w, errorResponse(nil, CodeParseError, "parse error"))
			continue
		}

		if resp := s.dispatch(ctx, &req); resp != nil {
			s.writeResponse(w, resp)
		}
	}
	return scanner.Err()
}

func (s *Server) dispatch(ctx context.Context, req *Request) *Response {
	if req.JSONRPC != jsonRPCVersion {
		return errorResponse(req.ID, CodeInvalidRequest, "jsonrpc must be 2.0")
	}
	switch req.Method {
	case "initialize":
		return resultResponse(req.ID, InitializeResult{
			ProtocolVersion: protocolVersion,
			ServerInfo:      ServerInfo{Name: "dragonites", Version: s.version},
			Capabilities:    map[string]any{"tools": map[string]any{}},
		})
	case "notifications/initialized":
		return nil
	case "ping":
		return resultResponse(req.ID, map[string]any{})
	case "tools/list":
		return resultResponse(req.ID, ToolsListResult{Tools: allTools})
	case "tools/call":
		return s.handleToolsCall(ctx, req)
	default:
		return errorResponse(req.ID, CodeMethodNotFound, fmt.Sprintf("unknown method: %s", req.Method))
	}
}

func (s *Server) handleToolsCall(ctx context.Context, req *Request) *Response {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return errorResponse(req.ID, CodeInvalidParams, "invalid params")
	}

	handler, ok := toolHandlers[params.Name]
	if !ok {
		return resultResponse(req.ID, errorResult(fmt.Sprintf("unknown tool: %s", params.Name)))
	}

	logging.Debug(s.logger, "tool call", "tool", params.Name)
	return resultResponse(req.ID, handler(ctx, s, params.Arguments))
}

func (s *Server) writeResponse(w io.Writer, resp *Response) {
	data, err := json.Marshal(resp)
	if err != nil {
		logging.Error(s.logger, "mcp marshal failed", err)
		return
	}
	data = append(data, '\n')
	if _, err := w.Write(data); err != nil {
		logging.Error(s.logger, "mcp write failed", err)
	}
}
