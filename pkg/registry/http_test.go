package registry

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opaline/shopassist/pkg/jsonrpc"
)

func postJSON(t *testing.T, h http.Handler, body string) (*httptest.ResponseRecorder, jsonrpc.Response) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/mcp", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var resp jsonrpc.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return rec, resp
}

func TestHTTPHandler_ToolError_StillHTTP200(t *testing.T) {
	d := newTestDispatcher(t)

	rec, resp := postJSON(t, d.HTTPHandler(),
		`{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"nope","arguments":{}}}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, resp.Error)
	assert.Contains(t, resp.Error.Message, "Unknown tool")
}

func TestHTTPHandler_Success(t *testing.T) {
	d := newTestDispatcher(t)

	rec, resp := postJSON(t, d.HTTPHandler(),
		`{"jsonrpc":"2.0","id":"abc","method":"tools/call","params":{"name":"searchProducts","arguments":{"query":"ring"}}}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, resp.Error)
	assert.JSONEq(t, `"abc"`, string(resp.ID))
}

func TestHTTPHandler_ParseError(t *testing.T) {
	d := newTestDispatcher(t)

	rec, resp := postJSON(t, d.HTTPHandler(), `{not json`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	require.NotNil(t, resp.Error)
	assert.Equal(t, jsonrpc.CodeParseError, resp.Error.Code)
}

func TestToolHandler_DispatchesBodyAsArguments(t *testing.T) {
	d := newTestDispatcher(t)

	rec, resp := postJSON(t, d.ToolHandler("searchProducts"), `{"query":"ring"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, resp.Error)
}

func TestToolHandler_EmptyBodyBecomesEmptyObject(t *testing.T) {
	d := newTestDispatcher(t)

	rec, resp := postJSON(t, d.ToolHandler("searchProducts"), ``)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, resp.Error)
	assert.Equal(t, jsonrpc.CodeInvalidParams, resp.Error.Code)
}

func TestToolHandler_InvalidJSONBody(t *testing.T) {
	d := newTestDispatcher(t)

	rec, resp := postJSON(t, d.ToolHandler("searchProducts"), `{broken`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	require.NotNil(t, resp.Error)
	assert.Equal(t, jsonrpc.CodeParseError, resp.Error.Code)
}
