package organize

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	appai "github.com/bryanwahyu/automaton-organizer/internal/application/ai"
	"github.com/bryanwahyu/automaton-organizer/internal/application/extract"
	"github.com/bryanwahyu/automaton-organizer/internal/domain/ai"
	"github.com/bryanwahyu/automaton-organizer/internal/domain/files"
	"github.com/bryanwahyu/automaton-organizer/internal/domain/journal"
	"github.com/bryanwahyu/automaton-organizer/internal/infra/ai/prompt"
	"github.com/bryanwahyu/automaton-organizer/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const src = "src-root"

type fakeSleeper struct {
	calls []time.Duration
	err   error
}

func (s *fakeSleeper) Sleep(ctx context.Context, d time.Duration) error {
	s.calls = append(s.calls, d)
	return s.err
}

type memRecorder struct {
	mu      sync.Mutex
	runs    []journal.Run
	entries []journal.Entry
}

func (m *memRecorder) RecordRun(_ context.Context, r *journal.Run) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs = append(m.runs, *r)
}

func (m *memRecorder) RecordEntry(_ context.Context, e *journal.Entry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, *e)
}

type harness struct {
	store   *testutil.MockStore
	ai      *testutil.MockAI
	sleeper *fakeSleeper
	rec     *memRecorder
	org     *Organizer
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		store:   testutil.NewMockStore(),
		ai:      &testutil.MockAI{Models: testutil.GeminiCatalog()},
		sleeper: &fakeSleeper{},
		rec:     &memRecorder{},
	}
	h.org = &Organizer{
		Store:     h.store,
		Selector:  appai.NewSelector(h.ai, "gemini"),
		Analyzer:  appai.NewService(h.ai, prompt.New()),
		Extractor: extract.New(h.store),
		Journal:   h.rec,
		Sleeper:   h.sleeper,
		Config:    Config{SourceID: src, Delay: DefaultDelay},
	}
	return h
}

// replyByContent answers with a proposal chosen by a substring of the excerpt.
func replyByContent(rules map[string]string) func(ai.GenerateRequest) (string, error) {
	return func(req ai.GenerateRequest) (string, error) {
		body := req.Parts[len(req.Parts)-1]
		for needle, reply := range rules {
			if strings.Contains(body, needle) {
				return reply, nil
			}
		}
		return "no idea", nil
	}
}

func TestRun_MovesAndRenames(t *testing.T) {
	h := newHarness(t)
	h.ai.Reply = "FILENAME: Grocery Shopping List\nCATEGORY: Personal"
	f := h.store.AddFile(src, "notes.txt", files.MediaPlainText, []byte("eggs, milk, bread"))

	sum, err := h.org.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, sum.Moved)
	assert.Equal(t, "models/gemini-1.5-flash", sum.Model)

	personal := h.store.FoldersNamed(src, "Personal")
	require.Len(t, personal, 1)

	got, ok := h.store.Get(f.ID)
	require.True(t, ok)
	assert.Equal(t, "Grocery Shopping List", got.Name)
	assert.Equal(t, []string{personal[0].ID}, got.Parents)

	left, _ := h.store.ListFiles(context.Background(), src)
	assert.Empty(t, left)
	assert.Empty(t, h.sleeper.calls, "no pause after the last file")
}

func TestRun_KeepsExtensionForConvertedFiles(t *testing.T) {
	h := newHarness(t)
	h.ai.Reply = "FILENAME: Electricity Invoice March\nCATEGORY: Invoices"
	h.store.ConvertText = func(files.File) string { return "Invoice" }
	pdf := h.store.AddFile(src, "scan001.pdf", files.MediaPDF, nil)
	img := h.store.AddFile(src, "IMG_1.jpeg", "image/jpeg", nil)

	_, err := h.org.Run(context.Background())
	require.NoError(t, err)

	got, _ := h.store.Get(pdf.ID)
	assert.Equal(t, "Electricity Invoice March.pdf", got.Name)
	got, _ = h.store.Get(img.ID)
	assert.Equal(t, "Electricity Invoice March.jpeg", got.Name)
}

func TestRun_TempCopiesTrashedExactlyOnce(t *testing.T) {
	h := newHarness(t)
	h.ai.Reply = "FILENAME: Scan\nCATEGORY: Scans"
	h.store.AddFile(src, "a.pdf", files.MediaPDF, nil)
	h.store.AddFile(src, "b.docx", files.MediaWordDocument, nil)

	_, err := h.org.Run(context.Background())
	require.NoError(t, err)

	var copies, trashes int
	for _, c := range h.store.Calls() {
		switch c {
		case "Copy":
			copies++
		case "Trash":
			trashes++
		}
	}
	assert.Equal(t, 2, copies)
	assert.Equal(t, 2, trashes)
}

func TestRun_ReusesExistingFolder(t *testing.T) {
	h := newHarness(t)
	h.ai.Reply = "FILENAME: Something\nCATEGORY: Recipes"
	existing := h.store.AddFolder(src, "Recipes")
	h.store.AddFile(src, "a.txt", files.MediaPlainText, []byte("pancakes"))
	h.store.AddFile(src, "b.txt", files.MediaPlainText, []byte("waffles"))

	sum, err := h.org.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, sum.Moved)
	assert.NotContains(t, h.store.Calls(), "CreateFolder")
	assert.Len(t, h.store.FoldersNamed(src, "Recipes"), 1)
	for _, o := range sum.Outcomes {
		assert.Equal(t, existing.ID, o.FolderID)
	}
}

func TestRun_CreatesFolderOncePerCategory(t *testing.T) {
	h := newHarness(t)
	h.ai.Reply = "FILENAME: Something\nCATEGORY: Recipes"
	h.store.AddFile(src, "a.txt", files.MediaPlainText, []byte("pancakes"))
	h.store.AddFile(src, "b.txt", files.MediaPlainText, []byte("waffles"))

	_, err := h.org.Run(context.Background())
	require.NoError(t, err)
	assert.Len(t, h.store.FoldersNamed(src, "Recipes"), 1)
}

func TestRun_SeparateDestination(t *testing.T) {
	h := newHarness(t)
	h.ai.Reply = "FILENAME: Report\nCATEGORY: Reports"
	h.org.Config.DestID = "dest-root"
	h.store.AddFile(src, "r.txt", files.MediaPlainText, []byte("q4"))

	_, err := h.org.Run(context.Background())
	require.NoError(t, err)
	assert.Len(t, h.store.FoldersNamed("dest-root", "Reports"), 1)
	assert.Empty(t, h.store.FoldersNamed(src, "Reports"))
}

func TestRun_SecondRunIsNoOp(t *testing.T) {
	h := newHarness(t)
	h.ai.Reply = "FILENAME: Grocery Shopping List\nCATEGORY: Personal"
	h.store.AddFile(src, "notes.txt", files.MediaPlainText, []byte("eggs"))

	_, err := h.org.Run(context.Background())
	require.NoError(t, err)
	mutations := h.store.Mutations()
	generated := len(h.ai.Requests())

	sum, err := h.org.Run(context.Background())
	require.NoError(t, err)

	assert.Zero(t, sum.Listed)
	assert.Equal(t, mutations, h.store.Mutations())
	assert.Equal(t, generated, len(h.ai.Requests()))
	assert.Equal(t, 1, h.ai.ListCalls(), "model is cached on the selector")
}

func TestRun_FailuresAreIsolated(t *testing.T) {
	h := newHarness(t)
	h.ai.Respond = replyByContent(map[string]string{
		"alpha": "FILENAME: Alpha\nCATEGORY: Letters",
		"gamma": "FILENAME: Gamma\nCATEGORY: Letters",
		"delta": "FILENAME: Delta\nCATEGORY: Letters",
	})
	a := h.store.AddFile(src, "a.txt", files.MediaPlainText, []byte("alpha"))
	b := h.store.AddFile(src, "b.txt", files.MediaPlainText, []byte("beta"))
	c := h.store.AddFile(src, "c.txt", files.MediaPlainText, []byte("gamma"))
	d := h.store.AddFile(src, "d.txt", files.MediaPlainText, []byte("delta"))
	h.store.RenameErr = func(f files.File) error {
		if f.ID == c.ID {
			return errors.New("rate limit exceeded")
		}
		return nil
	}

	sum, err := h.org.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, sum.Moved)
	assert.Equal(t, 1, sum.Skipped)
	assert.Equal(t, 1, sum.Failed)

	byID := map[string]Outcome{}
	for _, o := range sum.Outcomes {
		byID[o.File.ID] = o
	}
	assert.Equal(t, journal.StatusMoved, byID[a.ID].Status)
	assert.Equal(t, journal.StatusSkipped, byID[b.ID].Status)
	assert.Equal(t, StageAnalyze, byID[b.ID].Stage)
	assert.ErrorIs(t, byID[b.ID].Err, ai.ErrUnparsable)
	assert.Equal(t, journal.StatusFailed, byID[c.ID].Status)
	assert.Equal(t, StageRename, byID[c.ID].Stage)
	assert.Equal(t, journal.StatusMoved, byID[d.ID].Status)

	left, _ := h.store.ListFiles(context.Background(), src)
	ids := []string{}
	for _, f := range left {
		ids = append(ids, f.ID)
	}
	assert.ElementsMatch(t, []string{b.ID, c.ID}, ids, "only moved files leave the source folder")
}

func TestRun_PanicInOneFileIsRecovered(t *testing.T) {
	h := newHarness(t)
	h.ai.Respond = func(req ai.GenerateRequest) (string, error) {
		if strings.Contains(req.Parts[1], "boom") {
			panic("unexpected nil")
		}
		return "FILENAME: Fine\nCATEGORY: Misc", nil
	}
	h.store.AddFile(src, "a.txt", files.MediaPlainText, []byte("boom"))
	h.store.AddFile(src, "b.txt", files.MediaPlainText, []byte("ok"))

	sum, err := h.org.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, sum.Outcomes, 2)
	assert.Equal(t, journal.StatusFailed, sum.Outcomes[0].Status)
	assert.Equal(t, StagePanic, sum.Outcomes[0].Stage)
	assert.Equal(t, journal.StatusMoved, sum.Outcomes[1].Status)
}

type staticAnalyzer ai.Proposal

func (s staticAnalyzer) Analyze(context.Context, string, string) (ai.Proposal, error) {
	return ai.Proposal(s), nil
}

func TestRun_EmptyCategoryIsSkipped(t *testing.T) {
	h := newHarness(t)
	h.org.Analyzer = staticAnalyzer{Filename: "Name", Category: "   "}
	h.store.AddFile(src, "a.txt", files.MediaPlainText, []byte("x"))

	sum, err := h.org.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Skipped)
	assert.Zero(t, h.store.Mutations())
}

func TestRun_Pacing(t *testing.T) {
	h := newHarness(t)
	h.ai.Reply = "FILENAME: X\nCATEGORY: Y"
	h.store.AddFile(src, "a.txt", files.MediaPlainText, []byte("a"))
	h.store.AddFile(src, "b.zip", "application/zip", nil)
	h.store.AddFile(src, "c.txt", files.MediaPlainText, []byte("c"))
	h.store.AddFile(src, "d.txt", files.MediaPlainText, []byte("d"))

	sum, err := h.org.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, sum.Skipped)
	// after a and c; none after the unsupported zip, none after the last file
	assert.Equal(t, []time.Duration{DefaultDelay, DefaultDelay}, h.sleeper.calls)
}

func TestRun_UnsupportedTypeMakesNoBackendCall(t *testing.T) {
	h := newHarness(t)
	h.store.AddFile(src, "song.mp3", "audio/mpeg", nil)

	sum, err := h.org.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Skipped)
	assert.Empty(t, h.ai.Requests())
	assert.Contains(t, sum.Outcomes[0].Reason, "unsupported type audio/mpeg")
}

func TestRun_ModelSelectionFailureAborts(t *testing.T) {
	h := newHarness(t)
	h.ai.Models = nil
	h.store.AddFile(src, "a.txt", files.MediaPlainText, []byte("a"))

	_, err := h.org.Run(context.Background())
	require.ErrorIs(t, err, ai.ErrNoModelAvailable)
	assert.Empty(t, h.store.Calls())

	require.NotEmpty(t, h.rec.runs)
	assert.Equal(t, journal.RunAborted, h.rec.runs[len(h.rec.runs)-1].Status)
}

func TestRun_OrphanTempCopiesAreTrashed(t *testing.T) {
	h := newHarness(t)
	h.ai.Reply = "FILENAME: X\nCATEGORY: Y"
	orphan := h.store.AddDocument(src, extract.DefaultTempPrefix+"old.pdf", "leftover")
	h.store.AddFile(src, "a.txt", files.MediaPlainText, []byte("a"))

	sum, err := h.org.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, sum.Orphans)
	assert.Equal(t, 1, sum.Moved)
	assert.Equal(t, 1, h.store.TrashCount(orphan.ID))
	assert.Len(t, h.ai.Requests(), 1)
}

func TestRun_DryRunMutatesNothing(t *testing.T) {
	h := newHarness(t)
	h.ai.Reply = "FILENAME: X\nCATEGORY: Y"
	h.org.Config.DryRun = true
	h.store.AddDocument(src, extract.DefaultTempPrefix+"old.pdf", "leftover")
	h.store.AddFile(src, "a.txt", files.MediaPlainText, []byte("a"))

	sum, err := h.org.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, sum.Planned)
	assert.Equal(t, "X", sum.Outcomes[0].FinalName)
	assert.Zero(t, h.store.Mutations())
}

func TestRun_MaxFiles(t *testing.T) {
	h := newHarness(t)
	h.ai.Reply = "FILENAME: X\nCATEGORY: Y"
	h.org.Config.MaxFiles = 2
	for _, n := range []string{"a.txt", "b.txt", "c.txt"} {
		h.store.AddFile(src, n, files.MediaPlainText, []byte(n))
	}

	sum, err := h.org.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, sum.Listed)
	assert.Equal(t, 2, sum.Moved)
	assert.False(t, sum.Interrupted)
}

func TestRun_BudgetExpiryStopsGracefully(t *testing.T) {
	h := newHarness(t)
	h.ai.Reply = "FILENAME: X\nCATEGORY: Y"
	h.org.Sleeper = nil // real timer
	h.org.Config.Delay = time.Hour
	h.org.Config.MaxDuration = 50 * time.Millisecond
	h.store.AddFile(src, "a.txt", files.MediaPlainText, []byte("a"))
	h.store.AddFile(src, "b.txt", files.MediaPlainText, []byte("b"))

	sum, err := h.org.Run(context.Background())
	require.NoError(t, err)

	assert.True(t, sum.Interrupted)
	assert.Equal(t, 1, sum.Moved)
	left, _ := h.store.ListFiles(context.Background(), src)
	assert.Len(t, left, 1)
	assert.Equal(t, journal.RunInterrupted, h.rec.runs[len(h.rec.runs)-1].Status)
}

func TestRun_CancelledSleepInterrupts(t *testing.T) {
	h := newHarness(t)
	h.ai.Reply = "FILENAME: X\nCATEGORY: Y"
	h.sleeper.err = context.Canceled
	h.store.AddFile(src, "a.txt", files.MediaPlainText, []byte("a"))
	h.store.AddFile(src, "b.txt", files.MediaPlainText, []byte("b"))

	sum, err := h.org.Run(context.Background())
	require.NoError(t, err)
	assert.True(t, sum.Interrupted)
	assert.Len(t, sum.Outcomes, 1)
}

func TestRun_JournalEntries(t *testing.T) {
	h := newHarness(t)
	h.ai.Reply = "FILENAME: Grocery Shopping List\nCATEGORY: Personal"
	h.store.AddFile(src, "notes.txt", files.MediaPlainText, []byte("eggs"))

	sum, err := h.org.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, h.rec.entries, 1)
	e := h.rec.entries[0]
	assert.Equal(t, sum.RunID, e.RunID)
	assert.Equal(t, "notes.txt", e.OriginalName)
	assert.Equal(t, "Grocery Shopping List", e.FinalName)
	assert.Equal(t, "Personal", e.Category)
	assert.Equal(t, journal.StatusMoved, e.Status)
	assert.NotEmpty(t, e.ID)

	last := h.rec.runs[len(h.rec.runs)-1]
	assert.Equal(t, journal.RunCompleted, last.Status)
	assert.Equal(t, 1, last.Moved)
	assert.Equal(t, "models/gemini-1.5-flash", last.Model)
}

func TestResolveFolder(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	first, err := h.org.ResolveFolder(ctx, src, "Taxes")
	require.NoError(t, err)
	second, err := h.org.ResolveFolder(ctx, src, "Taxes")
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Len(t, h.store.FoldersNamed(src, "Taxes"), 1)
}
