package netbox

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(Config{Host: server.URL, Token: "token-1"}, zap.NewNop())
	require.NoError(t, err)
	return client
}

func TestClientRequiresCredentials(t *testing.T) {
	_, err := NewClient(Config{Host: "https://netbox.local"}, zap.NewNop())
	require.Error(t, err)

	_, err = NewClient(Config{Token: "abc"}, zap.NewNop())
	require.Error(t, err)
}

func TestDevicesPaginates(t *testing.T) {
	var tokens []string
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokens = append(tokens, r.Header.Get("Authorization"))
		require.Equal(t, "/api/dcim/devices/", r.URL.Path)

		if r.URL.Query().Get("offset") == "" {
			next := fmt.Sprintf("%s/api/dcim/devices/?limit=500&offset=500", serverURL(r))
			json.NewEncoder(w).Encode(map[string]any{
				"next":    next,
				"results": []map[string]any{{"id": float64(1), "name": "sw-01"}},
			})
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"next":    nil,
			"results": []map[string]any{{"id": float64(2), "name": "sw-02"}},
		})
	}))

	devices, err := client.Devices(context.Background(), url.Values{"name__n": []string{"null"}})
	require.NoError(t, err)
	require.Len(t, devices, 2)
	assert.Equal(t, "sw-01", devices[0].Name())
	assert.Equal(t, int64(2), devices[1].ID())
	for _, token := range tokens {
		assert.Equal(t, "Token token-1", token)
	}
}

// serverURL reconstructs the base URL the test server is reachable on, so the
// fake "next" link points back at it like a real NetBox absolute URL would.
func serverURL(r *http.Request) string {
	return "http://" + r.Host
}

func TestSetCustomFieldPatchesDevice(t *testing.T) {
	var body map[string]any
	var method, path string
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method = r.Method
		path = r.URL.Path
		json.NewDecoder(r.Body).Decode(&body)
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("{}"))
	}))

	err := client.SetCustomField(context.Background(), ContentTypeDevice, 42, "zabbix_hostid", 999)
	require.NoError(t, err)
	assert.Equal(t, http.MethodPatch, method)
	assert.Equal(t, "/api/dcim/devices/42/", path)
	fields := body["custom_fields"].(map[string]any)
	assert.Equal(t, float64(999), fields["zabbix_hostid"])
}

func TestSetCustomFieldRejectsUnknownContentType(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected")
	}))

	err := client.SetCustomField(context.Background(), "dcim.rack", 1, "zabbix_hostid", nil)
	require.Error(t, err)
}

func TestCreateJournalEntryValidatesKind(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected")
	}))

	err := client.CreateJournalEntry(context.Background(), ContentTypeDevice, 42, "celebration", "done")
	require.ErrorContains(t, err, "invalid journal kind")
}

func TestDoReturnsAPIErrorDetail(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"detail": "Invalid token."}`))
	}))

	_, err := client.Device(context.Background(), 42)
	require.ErrorContains(t, err, "Invalid token")
}
