// mock_store.go - in-memory files.Store for testing
package testutil

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/bryanwahyu/automaton-organizer/internal/domain/files"
)

// MockStore implements files.Store in memory. Folders and files share one id space.
type MockStore struct {
	mu      sync.Mutex
	seq     int
	files   map[string]*files.File
	content map[string][]byte
	docText map[string]string
	folders map[string]*files.Folder
	trashed map[string]int
	calls   []string

	// Hooks let tests inject failures per call; a nil hook means success.
	ReadErr   func(f files.File) error
	CopyErr   func(f files.File) error
	DocErr    func(f files.File) error
	RenameErr func(f files.File) error
	MoveErr   func(f files.File) error
	// ConvertText is the text the "server-side import" produces for a copied file.
	ConvertText func(f files.File) string
}

func NewMockStore() *MockStore {
	return &MockStore{
		files:   make(map[string]*files.File),
		content: make(map[string][]byte),
		docText: make(map[string]string),
		folders: make(map[string]*files.Folder),
		trashed: make(map[string]int),
	}
}

func (m *MockStore) nextID(prefix string) string {
	m.seq++
	return fmt.Sprintf("%s-%d", prefix, m.seq)
}

// AddFolder registers a folder under parentID and returns it.
func (m *MockStore) AddFolder(parentID, name string) files.Folder {
	m.mu.Lock()
	defer m.mu.Unlock()
	f := &files.Folder{ID: m.nextID("folder"), Name: name, ParentID: parentID}
	m.folders[f.ID] = f
	return *f
}

// AddFile stores a file with raw content under folderID.
func (m *MockStore) AddFile(folderID, name, mediaType string, data []byte) files.File {
	m.mu.Lock()
	defer m.mu.Unlock()
	f := &files.File{ID: m.nextID("file"), Name: name, MediaType: mediaType, Parents: []string{folderID}, Size: int64(len(data))}
	m.files[f.ID] = f
	m.content[f.ID] = data
	return *f
}

// AddDocument stores a rich document whose body text is text.
func (m *MockStore) AddDocument(folderID, name, text string) files.File {
	f := m.AddFile(folderID, name, files.MediaRichDocument, nil)
	m.mu.Lock()
	m.docText[f.ID] = text
	m.mu.Unlock()
	return f
}

// Get returns the current state of a file (ok=false once trashed or unknown).
func (m *MockStore) Get(id string) (files.File, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.files[id]
	if !ok {
		return files.File{}, false
	}
	return *f, true
}

// FoldersNamed returns all folders with that name under parentID.
func (m *MockStore) FoldersNamed(parentID, name string) []files.Folder {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []files.Folder
	for _, f := range m.folders {
		if f.ParentID == parentID && f.Name == name {
			out = append(out, *f)
		}
	}
	return out
}

// TrashCount reports how many times id was trashed.
func (m *MockStore) TrashCount(id string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.trashed[id]
}

// Calls returns the ordered list of method names invoked.
func (m *MockStore) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.calls)
}

// Mutations counts calls that change store state.
func (m *MockStore) Mutations() int {
	n := 0
	for _, c := range m.Calls() {
		switch c {
		case "CreateFolder", "Copy", "Trash", "Rename", "Move":
			n++
		}
	}
	return n
}

func (m *MockStore) record(call string) {
	m.calls = append(m.calls, call)
}

func (m *MockStore) ListFiles(ctx context.Context, folderID string) ([]files.File, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("ListFiles")
	var out []files.File
	for _, f := range m.files {
		if slices.Contains(f.Parents, folderID) {
			out = append(out, *f)
		}
	}
	slices.SortFunc(out, func(a, b files.File) int { return idOrder(a.ID) - idOrder(b.ID) })
	return out, nil
}

func idOrder(id string) int {
	n, _ := strconv.Atoi(id[strings.LastIndexByte(id, '-')+1:])
	return n
}

func (m *MockStore) FindFolder(ctx context.Context, parentID, name string) (*files.Folder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("FindFolder")
	for _, f := range m.folders {
		if f.ParentID == parentID && f.Name == name {
			out := *f
			return &out, nil
		}
	}
	return nil, nil
}

func (m *MockStore) CreateFolder(ctx context.Context, parentID, name string) (files.Folder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("CreateFolder")
	f := &files.Folder{ID: m.nextID("folder"), Name: name, ParentID: parentID}
	m.folders[f.ID] = f
	return *f, nil
}

func (m *MockStore) ReadContent(ctx context.Context, f files.File, limit int64) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("ReadContent")
	if m.ReadErr != nil {
		if err := m.ReadErr(f); err != nil {
			return nil, err
		}
	}
	data, ok := m.content[f.ID]
	if !ok {
		return nil, files.ErrNotFound
	}
	if limit > 0 && int64(len(data)) > limit {
		data = data[:limit]
	}
	return slices.Clone(data), nil
}

func (m *MockStore) ReadDocumentText(ctx context.Context, f files.File) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("ReadDocumentText")
	if m.DocErr != nil {
		if err := m.DocErr(f); err != nil {
			return "", err
		}
	}
	text, ok := m.docText[f.ID]
	if !ok {
		return "", files.ErrNotFound
	}
	return text, nil
}

func (m *MockStore) Copy(ctx context.Context, f files.File, name, mediaType string) (files.File, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("Copy")
	if m.CopyErr != nil {
		if err := m.CopyErr(f); err != nil {
			return files.File{}, err
		}
	}
	src, ok := m.files[f.ID]
	if !ok {
		return files.File{}, files.ErrNotFound
	}
	cp := &files.File{ID: m.nextID("file"), Name: name, MediaType: mediaType, Parents: slices.Clone(src.Parents)}
	m.files[cp.ID] = cp
	if m.ConvertText != nil {
		m.docText[cp.ID] = m.ConvertText(*src)
	} else {
		m.docText[cp.ID] = string(m.content[f.ID])
	}
	return *cp, nil
}

func (m *MockStore) Trash(ctx context.Context, f files.File) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("Trash")
	m.trashed[f.ID]++
	delete(m.files, f.ID)
	return nil
}

func (m *MockStore) Rename(ctx context.Context, f files.File, name string) (files.File, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("Rename")
	if m.RenameErr != nil {
		if err := m.RenameErr(f); err != nil {
			return files.File{}, err
		}
	}
	cur, ok := m.files[f.ID]
	if !ok {
		return files.File{}, files.ErrNotFound
	}
	cur.Name = name
	return *cur, nil
}

func (m *MockStore) Move(ctx context.Context, f files.File, dest files.Folder) (files.File, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("Move")
	if m.MoveErr != nil {
		if err := m.MoveErr(f); err != nil {
			return files.File{}, err
		}
	}
	cur, ok := m.files[f.ID]
	if !ok {
		return files.File{}, files.ErrNotFound
	}
	cur.Parents = []string{dest.ID}
	return *cur, nil
}
