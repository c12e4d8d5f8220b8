package registry

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/opaline/shopassist/pkg/jsonrpc"
)

// JSON-RPC method names understood by the dispatcher.
const (
	methodToolsList = "tools/list"
	methodToolsCall = "tools/call"
)

// redactedError is the message surfaced for collaborator failures. The real
// cause is logged, never returned to the caller.
const redactedError = "internal error"

// Dispatcher resolves JSON-RPC requests against a registry. It is stateless
// per call and safe for concurrent use.
type Dispatcher struct {
	reg *Registry
	log *slog.Logger
}

// NewDispatcher creates a dispatcher over reg. A nil logger defaults to
// slog.Default().
func NewDispatcher(reg *Registry, log *slog.Logger) *Dispatcher {
	if log == nil {
		log = slog.Default()
	}
	return &Dispatcher{reg: reg, log: log}
}

// listResult is the tools/list result shape.
type listResult struct {
	Tools []Descriptor `json:"tools"`
}

// callParams is the tools/call params shape.
type callParams struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

// Dispatch resolves one request into exactly one response carrying the same
// id. It never panics: handler panics are recovered and surfaced as internal
// errors.
func (d *Dispatcher) Dispatch(ctx context.Context, req jsonrpc.Request) jsonrpc.Response {
	if req.JSONRPC != jsonrpc.Version {
		return jsonrpc.NewError(req.ID, jsonrpc.CodeInvalidRequest, "unsupported jsonrpc version")
	}

	switch req.Method {
	case methodToolsList:
		return jsonrpc.NewResult(req.ID, listResult{Tools: d.reg.List()})
	case methodToolsCall:
		return d.dispatchCall(ctx, req)
	default:
		return jsonrpc.NewError(req.ID, jsonrpc.CodeMethodNotFound, "method not found: "+req.Method)
	}
}

// dispatchCall handles tools/call: registry lookup, handler invocation and
// error classification.
func (d *Dispatcher) dispatchCall(ctx context.Context, req jsonrpc.Request) jsonrpc.Response {
	var params callParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return jsonrpc.NewError(req.ID, jsonrpc.CodeInvalidParams, "malformed params: expected {name, arguments}")
	}
	if params.Name == "" {
		return jsonrpc.NewError(req.ID, jsonrpc.CodeInvalidParams, `invalid field "name": tool name is required`)
	}

	tool, ok := d.reg.Get(params.Name)
	if !ok {
		return jsonrpc.NewError(req.ID, jsonrpc.CodeMethodNotFound, "Unknown tool: "+params.Name)
	}

	result, err := d.invoke(ctx, tool, params.Arguments)
	if err != nil {
		return d.errorResponse(req.ID, tool.Name, err)
	}
	return jsonrpc.NewResult(req.ID, result)
}

// invoke runs the handler with panic recovery.
func (d *Dispatcher) invoke(ctx context.Context, tool Tool, args json.RawMessage) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			d.log.Error("tool handler panicked", "tool", tool.Name, "panic", r)
			err = errors.New(redactedError)
		}
	}()
	return tool.Handler(ctx, args)
}

// errorResponse classifies a handler error into the JSON-RPC taxonomy.
// Validation failures keep their message; everything else is a collaborator
// failure and is redacted.
func (d *Dispatcher) errorResponse(id json.RawMessage, toolName string, err error) jsonrpc.Response {
	var paramErr *ParamError
	if errors.As(err, &paramErr) {
		return jsonrpc.NewError(id, jsonrpc.CodeInvalidParams, paramErr.Error())
	}

	d.log.Error("tool call failed", "tool", toolName, "error", err)
	return jsonrpc.NewError(id, jsonrpc.CodeInternalError, redactedError)
}
