package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/TheGoldLab/mxgram/pkg/bridge"
	"github.com/TheGoldLab/mxgram/pkg/gram"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openSocket(t *testing.T, ts *httptest.Server, local, remote string) (int, string) {
	t.Helper()
	body, _ := json.Marshal(OpenSocketRequest{Local: local, Remote: remote})
	resp := doRequest(t, ts, "POST", "/api/v1/sockets", body)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	data := readAPIResponse(t, resp).Data.(map[string]interface{})
	return int(data["id"].(float64)), data["addr"].(string)
}

func TestSockets(t *testing.T) {
	server := NewServer(gram.Default, nil, nil, ServerConfig{APIKey: testAPIKey}, nil)
	ts := httptest.NewServer(server.Router())
	t.Cleanup(ts.Close)
	t.Cleanup(func() { _ = server.Close() })

	receiver, addr := openSocket(t, ts, "127.0.0.1:0", "")
	sender, _ := openSocket(t, ts, "127.0.0.1:0", addr)
	assert.NotEqual(t, receiver, sender)

	again, _ := openSocket(t, ts, "127.0.0.1:0", addr)
	assert.Equal(t, sender, again, "same address pair reuses the socket")

	t.Run("list", func(t *testing.T) {
		resp := doRequest(t, ts, "GET", "/api/v1/sockets", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		data := readAPIResponse(t, resp).Data.(map[string]interface{})
		assert.Equal(t, 2.0, data["count"])
	})

	t.Run("send and receive", func(t *testing.T) {
		resp := doRequest(t, ts, "POST", fmt.Sprintf("/api/v1/sockets/%d/send", sender), []byte(`{"kind":"text","text":"ping"}`))
		require.Equal(t, http.StatusOK, resp.StatusCode)

		resp = doRequest(t, ts, "GET", fmt.Sprintf("/api/v1/sockets/%d/receive?timeout_ms=2000", receiver), nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var doc bridge.Document
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&doc))
		assert.Equal(t, bridge.KindText, doc.Kind)
		require.NotNil(t, doc.Text)
		assert.Equal(t, "ping", *doc.Text)

		resp = doRequest(t, ts, "GET", fmt.Sprintf("/api/v1/sockets/%d/receive?timeout_ms=10", receiver), nil)
		assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	})

	t.Run("receive without waiting", func(t *testing.T) {
		resp := doRequest(t, ts, "POST", fmt.Sprintf("/api/v1/sockets/%d/send", sender), []byte(`{"kind":"text","text":"queued"}`))
		require.Equal(t, http.StatusOK, resp.StatusCode)
		time.Sleep(100 * time.Millisecond)

		resp = doRequest(t, ts, "GET", fmt.Sprintf("/api/v1/sockets/%d/receive", receiver), nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var doc bridge.Document
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&doc))
		require.NotNil(t, doc.Text)
		assert.Equal(t, "queued", *doc.Text)
	})

	t.Run("receive-only socket cannot send", func(t *testing.T) {
		resp := doRequest(t, ts, "POST", fmt.Sprintf("/api/v1/sockets/%d/send", receiver), []byte(`{"kind":"number","data":[1]}`))
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("bad requests", func(t *testing.T) {
		resp := doRequest(t, ts, "POST", "/api/v1/sockets/abc/send", nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

		resp = doRequest(t, ts, "GET", "/api/v1/sockets/99/receive", nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)

		resp = doRequest(t, ts, "GET", fmt.Sprintf("/api/v1/sockets/%d/receive?timeout_ms=-1", receiver), nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

		resp = doRequest(t, ts, "POST", "/api/v1/sockets", []byte(`{"remote":"127.0.0.1:9"}`))
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

		resp = doRequest(t, ts, "POST", "/api/v1/sockets", []byte(`{"local":"not an address"}`))
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("close", func(t *testing.T) {
		resp := doRequest(t, ts, "DELETE", fmt.Sprintf("/api/v1/sockets/%d", sender), nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		resp = doRequest(t, ts, "DELETE", fmt.Sprintf("/api/v1/sockets/%d", sender), nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)

		resp = doRequest(t, ts, "DELETE", "/api/v1/sockets", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		data := readAPIResponse(t, resp).Data.(map[string]interface{})
		assert.Equal(t, 1.0, data["count"])
	})
}
