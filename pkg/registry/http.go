package registry

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/opaline/shopassist/pkg/jsonrpc"
)

// maxBodyBytes bounds the accepted request body size.
const maxBodyBytes = 1 << 20

// HTTPHandler serves the JSON-RPC endpoint. Tool-level failures are reported
// in the JSON-RPC error object with HTTP 200; only an unparseable body gets
// HTTP 400 (with a JSON-RPC parse error body so clients still see an
// envelope).
func (d *Dispatcher) HTTPHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
		if err != nil {
			writeResponse(w, http.StatusBadRequest, jsonrpc.NewError(nil, jsonrpc.CodeParseError, "reading request body"))
			return
		}

		var req jsonrpc.Request
		if err := json.Unmarshal(body, &req); err != nil {
			writeResponse(w, http.StatusBadRequest, jsonrpc.NewError(nil, jsonrpc.CodeParseError, "parse error"))
			return
		}

		writeResponse(w, http.StatusOK, d.Dispatch(r.Context(), req))
	})
}

// ToolHandler returns an HTTP handler for a per-tool convenience route. The
// request body is taken as the tool's arguments object and dispatched as a
// tools/call with a synthesized id.
func (d *Dispatcher) ToolHandler(toolName string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		args, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
		if err != nil {
			writeResponse(w, http.StatusBadRequest, jsonrpc.NewError(nil, jsonrpc.CodeParseError, "reading request body"))
			return
		}
		if len(args) == 0 {
			args = []byte("{}")
		}

		params, err := json.Marshal(callParams{Name: toolName, Arguments: args})
		if err != nil {
			writeResponse(w, http.StatusBadRequest, jsonrpc.NewError(nil, jsonrpc.CodeParseError, "parse error"))
			return
		}

		req := jsonrpc.Request{
			JSONRPC: jsonrpc.Version,
			ID:      json.RawMessage(`"` + toolName + `"`),
			Method:  methodToolsCall,
			Params:  params,
		}
		writeResponse(w, http.StatusOK, d.Dispatch(r.Context(), req))
	})
}

// writeResponse writes a JSON-RPC response with the given HTTP status.
func writeResponse(w http.ResponseWriter, status int, resp jsonrpc.Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}
