package api

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vaultcoh/vault/pkg/core"
)

func TestNew(t *testing.T) {
	c := New("http://localhost:5000/", "secret123")

	assert.Equal(t, "http://localhost:5000", c.baseURL)
	assert.Equal(t, "secret123", c.apiKey)
	assert.NotNil(t, c.httpClient)
}

func TestHealthcheck(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		wantErr bool
	}{
		{"ok", http.StatusOK, false},
		{"server error", http.StatusInternalServerError, true},
		{"not found", http.StatusNotFound, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, healthcheckPath, r.URL.Path)
				w.WriteHeader(tt.status)
			}))
			defer server.Close()

			err := New(server.URL, "").Healthcheck(context.Background())
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestHealthcheck_ServerDown(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	assert.Error(t, New(url, "").Healthcheck(context.Background()))
}

func writeTestFile(t *testing.T, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, content, 0644))
	return path
}

func TestUpload_Success(t *testing.T) {
	type received struct {
		form    map[string][]string
		content []byte
	}
	got := make(chan received, 1)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, uploadPath, r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)

		if !assert.NoError(t, r.ParseMultipartForm(10<<20)) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		file, _, err := r.FormFile("file")
		if !assert.NoError(t, err) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		defer file.Close()
		content, _ := io.ReadAll(file)

		got <- received{form: r.MultipartForm.Value, content: content}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	path := writeTestFile(t, "match_1.json.gz", []byte("test content"))
	meta := core.UploadMetadata{
		Hash:            "abc123",
		MapName:         "Gazala Landing Ground",
		MatchHistoryID:  9876543210,
		DurationSeconds: 1234.5,
		Players:         []string{"alpha", "bravo"},
		Version:         10612,
	}

	require.NoError(t, New(server.URL, "mysecret").Upload(context.Background(), path, meta))

	r := <-got
	assert.Equal(t, []string{"mysecret"}, r.form["secret"])
	assert.Equal(t, []string{"match_1.json.gz"}, r.form["filename"])
	assert.Equal(t, []string{"abc123"}, r.form["hash"])
	assert.Equal(t, []string{"Gazala Landing Ground"}, r.form["mapName"])
	assert.Equal(t, []string{"9876543210"}, r.form["matchHistoryId"])
	assert.Equal(t, []string{"1234.500"}, r.form["durationSeconds"])
	assert.Equal(t, []string{"10612"}, r.form["version"])
	assert.Equal(t, []string{"alpha", "bravo"}, r.form["players"])
	assert.Equal(t, "test content", string(r.content))
}

func TestUpload_FileNotFound(t *testing.T) {
	err := New("http://localhost:5000", "secret").Upload(context.Background(), "/nonexistent/file.json.gz", core.UploadMetadata{})
	assert.ErrorContains(t, err, "failed to open file")
}

func TestUpload_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		http.Error(w, "bad secret", http.StatusForbidden)
	}))
	defer server.Close()

	path := writeTestFile(t, "test.json.gz", []byte("content"))
	err := New(server.URL, "wrong-secret").Upload(context.Background(), path, core.UploadMetadata{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
	assert.Contains(t, err.Error(), "bad secret")
}

func TestUpload_CanceledContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	path := writeTestFile(t, "test.json.gz", []byte("content"))
	assert.Error(t, New(server.URL, "").Upload(ctx, path, core.UploadMetadata{}))
}
