package gdrive

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"google.golang.org/api/option"

	"github.com/bryanwahyu/automaton-organizer/internal/domain/files"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorded struct {
	method string
	path   string
	query  map[string][]string
	body   map[string]any
}

type fakeDrive struct {
	mu       sync.Mutex
	requests []recorded
	handle   func(w http.ResponseWriter, r recorded)
}

func (f *fakeDrive) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rec := recorded{method: r.Method, path: r.URL.Path, query: r.URL.Query()}
	if b, _ := io.ReadAll(r.Body); len(b) > 0 {
		_ = json.Unmarshal(b, &rec.body)
	}
	f.mu.Lock()
	f.requests = append(f.requests, rec)
	f.mu.Unlock()
	w.Header().Set("Content-Type", "application/json")
	f.handle(w, rec)
}

func (f *fakeDrive) last() recorded {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[len(f.requests)-1]
}

func newStore(t *testing.T, handle func(w http.ResponseWriter, r recorded)) (*Store, *fakeDrive) {
	t.Helper()
	fake := &fakeDrive{handle: handle}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	s, err := New(context.Background(), "", false,
		option.WithEndpoint(srv.URL+"/"),
		option.WithHTTPClient(srv.Client()),
	)
	require.NoError(t, err)
	return s, fake
}

func TestListFiles_PagesAndFilters(t *testing.T) {
	s, fake := newStore(t, func(w http.ResponseWriter, r recorded) {
		if r.query["pageToken"] == nil {
			w.Write([]byte(`{"nextPageToken":"next","files":[{"id":"1","name":"notes.txt","mimeType":"text/plain","parents":["src"],"size":"12"}]}`))
			return
		}
		w.Write([]byte(`{"files":[{"id":"2","name":"scan.pdf","mimeType":"application/pdf","parents":["src"]}]}`))
	})

	got, err := s.ListFiles(context.Background(), "src")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, files.File{ID: "1", Name: "notes.txt", MediaType: "text/plain", Parents: []string{"src"}, Size: 12}, got[0])
	assert.Equal(t, "scan.pdf", got[1].Name)

	q := fake.last().query["q"][0]
	assert.Contains(t, q, "'src' in parents")
	assert.Contains(t, q, "trashed = false")
	assert.Contains(t, q, "mimeType != '"+files.MediaFolder+"'")
	assert.Equal(t, "next", fake.last().query["pageToken"][0])
}

func TestFindFolder(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		s, fake := newStore(t, func(w http.ResponseWriter, r recorded) {
			w.Write([]byte(`{"files":[{"id":"fold-1","name":"Mom's Recipes"}]}`))
		})

		got, err := s.FindFolder(context.Background(), "root", "Mom's Recipes")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, files.Folder{ID: "fold-1", Name: "Mom's Recipes", ParentID: "root"}, *got)
		assert.Contains(t, fake.last().query["q"][0], `name = 'Mom\'s Recipes'`)
	})

	t.Run("absent", func(t *testing.T) {
		s, _ := newStore(t, func(w http.ResponseWriter, r recorded) {
			w.Write([]byte(`{"files":[]}`))
		})

		got, err := s.FindFolder(context.Background(), "root", "Nope")
		require.NoError(t, err)
		assert.Nil(t, got)
	})
}

func TestCreateFolder(t *testing.T) {
	s, fake := newStore(t, func(w http.ResponseWriter, r recorded) {
		w.Write([]byte(`{"id":"new-1","name":"Personal"}`))
	})

	got, err := s.CreateFolder(context.Background(), "root", "Personal")
	require.NoError(t, err)
	assert.Equal(t, files.Folder{ID: "new-1", Name: "Personal", ParentID: "root"}, got)

	req := fake.last()
	assert.Equal(t, http.MethodPost, req.method)
	assert.Equal(t, files.MediaFolder, req.body["mimeType"])
	assert.Equal(t, []any{"root"}, req.body["parents"])
}

func TestReadContent_Limited(t *testing.T) {
	s, fake := newStore(t, func(w http.ResponseWriter, r recorded) {
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte("\ufeffHello doc"))
	})

	got, err := s.ReadDocumentText(context.Background(), files.File{ID: "d1"})
	require.NoError(t, err)
	assert.Equal(t, "Hello doc", got)
	assert.True(t, strings.HasSuffix(fake.last().path, "/files/d1/export"))
	assert.Equal(t, "text/plain", fake.last().query["mimeType"][0])
}

func TestCopy_AsDocument(t *testing.T) {
	s, fake := newStore(t, func(w http.ResponseWriter, r recorded) {
		w.Write([]byte(`{"id":"tmp-1","name":"[organizer-ocr] scan.pdf","mimeType":"application/vnd.google-apps.document","parents":["src"]}`))
	})

	got, err := s.Copy(context.Background(), files.File{ID: "f1"}, "[organizer-ocr] scan.pdf", files.MediaRichDocument)
	require.NoError(t, err)
	assert.Equal(t, "tmp-1", got.ID)

	req := fake.last()
	assert.True(t, strings.HasSuffix(req.path, "/files/f1/copy"))
	assert.Equal(t, files.MediaRichDocument, req.body["mimeType"])
}

func TestTrash(t *testing.T) {
	s, fake := newStore(t, func(w http.ResponseWriter, r recorded) {
		w.Write([]byte(`{"id":"tmp-1"}`))
	})

	require.NoError(t, s.Trash(context.Background(), files.File{ID: "tmp-1"}))
	req := fake.last()
	assert.Equal(t, http.MethodPatch, req.method)
	assert.Equal(t, true, req.body["trashed"])
}

func TestRenameAndMove(t *testing.T) {
	s, fake := newStore(t, func(w http.ResponseWriter, r recorded) {
		name := "Grocery Shopping List"
		parents := `["src"]`
		if r.query["addParents"] != nil {
			parents = `["cat-1"]`
		}
		w.Write([]byte(`{"id":"f1","name":"` + name + `","mimeType":"text/plain","parents":` + parents + `}`))
	})
	ctx := context.Background()

	renamed, err := s.Rename(ctx, files.File{ID: "f1", Parents: []string{"src"}}, "Grocery Shopping List")
	require.NoError(t, err)
	assert.Equal(t, "Grocery Shopping List", fake.last().body["name"])

	moved, err := s.Move(ctx, renamed, files.Folder{ID: "cat-1"})
	require.NoError(t, err)
	assert.Equal(t, []string{"cat-1"}, moved.Parents)

	req := fake.last()
	assert.Equal(t, "cat-1", req.query["addParents"][0])
	assert.Equal(t, "src", req.query["removeParents"][0])
}

func TestNotFoundMapsToSentinel(t *testing.T) {
	s, _ := newStore(t, func(w http.ResponseWriter, r recorded) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":{"code":404,"message":"File not found: f9."}}`))
	})

	_, err := s.Rename(context.Background(), files.File{ID: "f9"}, "x")
	assert.ErrorIs(t, err, files.ErrNotFound)
}

func TestQuote(t *testing.T) {
	assert.Equal(t, `Mom\'s \\ Recipes`, quote(`Mom's \ Recipes`))
}
