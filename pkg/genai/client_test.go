package genai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client := NewClient("test-key", "test-model", srv.URL, WithHTTPClient(srv.Client()))
	return client, srv
}

func TestGenerateTextReturnsCandidateText(t *testing.T) {
	client, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1beta/models/test-model:generateContent", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-goog-api-key"))

		var req generateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Contents, 1)
		assert.Equal(t, "hello", req.Contents[0].Parts[0].Text)

		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"candidates": []map[string]interface{}{
				{"content": map[string]interface{}{
					"parts": []map[string]string{{"text": "hi "}, {"text": "there"}},
				}},
			},
		})
	})

	out, err := client.GenerateText(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, "hi there", out)
}

func TestGenerateFromImageEncodesInlineData(t *testing.T) {
	client, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		var req generateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Contents[0].Parts, 2)
		data := req.Contents[0].Parts[1].InlineData
		require.NotNil(t, data)
		assert.Equal(t, "image/png", data.MIMEType)
		assert.NotEmpty(t, data.Data)

		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"candidates": []map[string]interface{}{
				{"content": map[string]interface{}{
					"parts": []map[string]string{{"text": "[]"}},
				}},
			},
		})
	})

	out, err := client.GenerateFromImage(context.Background(), "read this", "image/png", []byte{0x89, 0x50})
	require.NoError(t, err)
	assert.Equal(t, "[]", out)
}

func TestGenerateSurfacesUpstreamError(t *testing.T) {
	client, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"error": map[string]interface{}{"code": 400, "message": "API key not valid"},
		})
	})

	_, err := client.GenerateText(context.Background(), "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API key not valid")
}

func TestUnconfiguredClientRefusesCalls(t *testing.T) {
	client := NewClient("", "test-model", "")
	assert.False(t, client.Configured())

	_, err := client.GenerateText(context.Background(), "hello")
	assert.Error(t, err)
}
