package flags

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opaline/shopassist/pkg/configstore"
	"github.com/opaline/shopassist/pkg/registry"
)

func newTestRegistry(t *testing.T, store configstore.Store) *registry.Registry {
	t.Helper()
	r := registry.New()
	New(store).RegisterTools(r)
	return r
}

func call(t *testing.T, r *registry.Registry, name, args string) (any, error) {
	t.Helper()
	tool, ok := r.Get(name)
	require.True(t, ok, "tool %s not registered", name)
	return tool.Handler(context.Background(), json.RawMessage(args))
}

func TestGetSystemPrompt(t *testing.T) {
	store := configstore.NewMemoryStore(map[string]string{
		configstore.SystemPromptKey: "You are a helpful shop assistant.",
	})
	r := newTestRegistry(t, store)

	out, err := call(t, r, promptToolName, `{}`)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"prompt": "You are a helpful shop assistant."}, out)
}

func TestGetSystemPrompt_Unset(t *testing.T) {
	r := newTestRegistry(t, configstore.NewMemoryStore(nil))

	out, err := call(t, r, promptToolName, `{}`)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"prompt": ""}, out)
}

func TestGetKVFlag(t *testing.T) {
	store := configstore.NewMemoryStore(map[string]string{"PROMO_BANNER": "on"})
	r := newTestRegistry(t, store)

	out, err := call(t, r, getToolName, `{"key":"PROMO_BANNER"}`)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"key": "PROMO_BANNER", "value": "on"}, out)
}

func TestGetKVFlag_Unknown(t *testing.T) {
	r := newTestRegistry(t, configstore.NewMemoryStore(nil))

	_, err := call(t, r, getToolName, `{"key":"MISSING"}`)
	var paramErr *registry.ParamError
	require.ErrorAs(t, err, &paramErr)
	assert.Equal(t, "key", paramErr.Field)
	assert.Contains(t, paramErr.Error(), "unknown flag")
}

func TestGetKVFlag_EmptyKey(t *testing.T) {
	r := newTestRegistry(t, configstore.NewMemoryStore(nil))

	_, err := call(t, r, getToolName, `{"key":""}`)
	var paramErr *registry.ParamError
	assert.ErrorAs(t, err, &paramErr)
}

func TestSetKVFlag(t *testing.T) {
	store := configstore.NewMemoryStore(nil)
	r := newTestRegistry(t, store)

	out, err := call(t, r, setToolName, `{"key":"PROMO_BANNER","value":"off"}`)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"key": "PROMO_BANNER", "status": "updated"}, out)

	v, err := store.Get(context.Background(), "PROMO_BANNER")
	require.NoError(t, err)
	assert.Equal(t, "off", v)
}

func TestSetKVFlag_ReadOnlyStore(t *testing.T) {
	r := newTestRegistry(t, configstore.NewFileStore(map[string]string{"A": "1"}))

	_, err := call(t, r, setToolName, `{"key":"A","value":"2"}`)
	var paramErr *registry.ParamError
	require.ErrorAs(t, err, &paramErr)
	assert.Contains(t, paramErr.Error(), "read-only")
}

func TestSetKVFlag_MissingKey(t *testing.T) {
	r := newTestRegistry(t, configstore.NewMemoryStore(nil))

	_, err := call(t, r, setToolName, `{"value":"x"}`)
	var paramErr *registry.ParamError
	require.ErrorAs(t, err, &paramErr)
	assert.Equal(t, "key", paramErr.Field)
}

func TestToolsRegistered(t *testing.T) {
	r := newTestRegistry(t, configstore.NewMemoryStore(nil))
	assert.Equal(t, 3, r.Len())

	set, ok := r.Get(setToolName)
	require.True(t, ok)
	assert.True(t, set.Mutating)
}
