package drive

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
)

func TestEscapeQuery(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Proj1", "Proj1"},
		{"O'Brien", `O\'Brien`},
		{`a\b`, `a\\b`},
		{`it's\`, `it\'s\\`},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, escapeQuery(tt.in), tt.in)
	}
}

func newFakeGoogle(t *testing.T, h http.HandlerFunc) *Google {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	g, err := NewGoogle(context.Background(), "",
		option.WithEndpoint(srv.URL+"/"),
		option.WithoutAuthentication(),
		option.WithHTTPClient(srv.Client()),
	)
	require.NoError(t, err)
	return g
}

func TestGoogle_FindFolders(t *testing.T) {
	var gotQuery string
	g := newFakeGoogle(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"files":[{"id":"f1","name":"Proj'1"},{"id":"f2","name":"Proj'1"}]}`))
	})

	ids, err := g.FindFolders(context.Background(), "Proj'1", "root-id")
	require.NoError(t, err)

	assert.Equal(t, []string{"f1", "f2"}, ids)
	assert.Contains(t, gotQuery, `'root-id' in parents`)
	assert.Contains(t, gotQuery, `name = 'Proj\'1'`)
	assert.Contains(t, gotQuery, "trashed = false")
}

func TestGoogle_CreateFolder(t *testing.T) {
	var got struct {
		Name     string   `json:"name"`
		MimeType string   `json:"mimeType"`
		Parents  []string `json:"parents"`
	}
	g := newFakeGoogle(t, func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &got)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"new-folder"}`))
	})

	id, err := g.CreateFolder(context.Background(), "Proj1", "root-id")
	require.NoError(t, err)

	assert.Equal(t, "new-folder", id)
	assert.Equal(t, "Proj1", got.Name)
	assert.Equal(t, folderMIMEType, got.MimeType)
	assert.Equal(t, []string{"root-id"}, got.Parents)
}

func TestGoogle_ListError(t *testing.T) {
	g := newFakeGoogle(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"code":500,"message":"backend"}}`, http.StatusInternalServerError)
	})

	_, err := g.FindFolders(context.Background(), "Proj1", "root-id")
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "500"), err.Error())
}
