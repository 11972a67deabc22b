package organize

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/bryanwahyu/automaton-organizer/internal/application"
	"github.com/bryanwahyu/automaton-organizer/internal/domain/ai"
	"github.com/bryanwahyu/automaton-organizer/internal/domain/files"
	"github.com/bryanwahyu/automaton-organizer/internal/domain/journal"
)

const DefaultDelay = 5 * time.Second

// Stage names for outcomes that are not extraction skips.
const (
	StageAnalyze = "analyze"
	StageFolder  = "folder"
	StageRename  = "rename"
	StageMove    = "move"
	StagePanic   = "panic"
)

type ModelSelector interface {
	Select(ctx context.Context) (string, error)
}

type Analyzer interface {
	Analyze(ctx context.Context, model, excerpt string) (ai.Proposal, error)
}

type Extractor interface {
	Extract(ctx context.Context, f files.File) (string, error)
	IsTempCopy(f files.File) bool
}

// Recorder menerima audit trail. Implementations swallow their own errors.
type Recorder interface {
	RecordRun(ctx context.Context, r *journal.Run)
	RecordEntry(ctx context.Context, e *journal.Entry)
}

type Config struct {
	SourceID string
	// DestID is the parent of category folders; empty means SourceID.
	DestID      string
	Delay       time.Duration
	MaxDuration time.Duration
	MaxFiles    int
	DryRun      bool
}

// Organizer runs one pass over the source folder. Not safe for concurrent Run calls.
type Organizer struct {
	Store     files.Store
	Selector  ModelSelector
	Analyzer  Analyzer
	Extractor Extractor
	Journal   Recorder
	Clock     application.Clock
	Sleeper   application.Sleeper
	Config    Config
}

// Outcome is the explicit result of processing one file.
type Outcome struct {
	File      files.File
	Status    journal.Status
	Stage     string
	Reason    string
	FinalName string
	Category  string
	FolderID  string
	Err       error
}

// Summary of one Run.
type Summary struct {
	RunID       journal.RunID
	Model       string
	Listed      int
	Orphans     int
	Moved       int
	Skipped     int
	Failed      int
	Planned     int
	Interrupted bool
	Outcomes    []Outcome
}

func (s *Summary) add(o Outcome) {
	s.Outcomes = append(s.Outcomes, o)
	switch o.Status {
	case journal.StatusMoved:
		s.Moved++
	case journal.StatusSkipped:
		s.Skipped++
	case journal.StatusFailed:
		s.Failed++
	case journal.StatusPlanned:
		s.Planned++
	}
}

// Run → pilih model, snapshot folder sumber, proses file satu per satu.
// A returned error means the run aborted before any file was touched.
// Budget expiry and cancellation end the run early without error.
func (o *Organizer) Run(ctx context.Context) (Summary, error) {
	o.defaults()
	sum := Summary{RunID: journal.RunID(uuid.New().String())}
	run := &journal.Run{ID: sum.RunID, StartedAt: o.Clock.Now(), Status: journal.RunRunning}
	o.Journal.RecordRun(ctx, run)

	// budget only gates starting new files; in-flight work keeps ctx
	budget := ctx
	if o.Config.MaxDuration > 0 {
		var cancel context.CancelFunc
		budget, cancel = context.WithTimeout(ctx, o.Config.MaxDuration)
		defer cancel()
	}

	slog.Info("finding available AI models")
	model, err := o.Selector.Select(ctx)
	if err != nil {
		slog.Error("FATAL: could not find a working AI model", "error", err)
		o.finish(ctx, run, &sum, journal.RunAborted, err.Error())
		return sum, fmt.Errorf("select model: %w", err)
	}
	sum.Model = model
	run.Model = model
	slog.Info("using text model", "model", model)

	slog.Info("checking for files in source folder", "folder_id", o.Config.SourceID)
	listed, err := o.Store.ListFiles(ctx, o.Config.SourceID)
	if err != nil {
		slog.Error("FATAL: could not list source folder", "folder_id", o.Config.SourceID, "error", err)
		o.finish(ctx, run, &sum, journal.RunAborted, err.Error())
		return sum, fmt.Errorf("list source folder: %w", err)
	}
	sum.Listed = len(listed)

	pending := o.dropOrphans(ctx, listed, &sum)
	if len(pending) == 0 {
		slog.Info("no files to process in source folder")
		o.finish(ctx, run, &sum, journal.RunCompleted, "")
		return sum, nil
	}
	if o.Config.MaxFiles > 0 && len(pending) > o.Config.MaxFiles {
		slog.Info("limiting run", "pending", len(pending), "max_files", o.Config.MaxFiles)
		pending = pending[:o.Config.MaxFiles]
	}
	slog.Info("found files to process", "count", len(pending))

	for i, f := range pending {
		if budget.Err() != nil {
			sum.Interrupted = true
			break
		}

		out := o.processFile(ctx, model, f)
		sum.add(out)
		o.record(ctx, sum.RunID, model, out)

		if i == len(pending)-1 || errors.Is(out.Err, files.ErrUnsupportedType) {
			continue
		}
		if err := o.Sleeper.Sleep(budget, o.Config.Delay); err != nil {
			sum.Interrupted = true
			break
		}
	}

	if sum.Interrupted {
		done := len(sum.Outcomes)
		slog.Warn("run stopped early; re-run to continue with the remaining files",
			"processed", done, "remaining", len(pending)-done, "reason", context.Cause(budget))
		o.finish(ctx, run, &sum, journal.RunInterrupted, "stopped before all files were processed")
		return sum, nil
	}

	slog.Info("organizing process complete",
		"moved", sum.Moved, "skipped", sum.Skipped, "failed", sum.Failed, "planned", sum.Planned)
	o.finish(ctx, run, &sum, journal.RunCompleted, "")
	return sum, nil
}

// dropOrphans trashes conversion copies left behind by an interrupted run
// and returns the remaining files in listing order.
func (o *Organizer) dropOrphans(ctx context.Context, listed []files.File, sum *Summary) []files.File {
	pending := make([]files.File, 0, len(listed))
	for _, f := range listed {
		if !o.Extractor.IsTempCopy(f) {
			pending = append(pending, f)
			continue
		}
		sum.Orphans++
		if o.Config.DryRun {
			slog.Info("dry run: would remove leftover temp file", "file", f.Name, "file_id", f.ID)
			continue
		}
		if err := o.Store.Trash(ctx, f); err != nil {
			slog.Warn("could not remove leftover temp file", "file", f.Name, "file_id", f.ID, "error", err)
			continue
		}
		slog.Info("removed leftover temp file", "file", f.Name, "file_id", f.ID)
	}
	return pending
}

func (o *Organizer) processFile(ctx context.Context, model string, f files.File) (out Outcome) {
	out.File = f
	defer func() {
		if r := recover(); r != nil {
			out.Status = journal.StatusFailed
			out.Stage = StagePanic
			out.Reason = fmt.Sprint(r)
			out.Err = fmt.Errorf("panic: %v", r)
			slog.Error("error processing file", "file", f.Name, "file_id", f.ID, "stage", out.Stage, "error", out.Reason)
		}
	}()

	slog.Info("processing file", "file", f.Name, "file_id", f.ID, "mime", f.MediaType)

	excerpt, err := o.Extractor.Extract(ctx, f)
	if err != nil {
		return skipped(out, err)
	}

	proposal, err := o.Analyzer.Analyze(ctx, model, excerpt)
	if err != nil {
		return skipped(out, application.Skip(StageAnalyze, "could not get valid AI suggestion", err))
	}
	category := strings.TrimSpace(proposal.Category)
	if category == "" {
		return skipped(out, application.Skip(StageAnalyze, "AI returned an empty category", nil))
	}

	out.Category = category
	out.FinalName = strings.TrimSpace(proposal.Filename) + files.ExtensionFor(f.MediaType, f.Name)

	if o.Config.DryRun {
		out.Status = journal.StatusPlanned
		slog.Info("dry run: would move file", "file", f.Name, "category", category, "new_name", out.FinalName)
		return out
	}

	folder, err := o.ResolveFolder(ctx, o.Config.DestID, category)
	if err != nil {
		return failed(out, StageFolder, err)
	}
	out.FolderID = folder.ID

	renamed, err := o.Store.Rename(ctx, f, out.FinalName)
	if err != nil {
		return failed(out, StageRename, err)
	}
	if _, err := o.Store.Move(ctx, renamed, folder); err != nil {
		return failed(out, StageMove, err)
	}

	out.Status = journal.StatusMoved
	slog.Info("SUCCESS: moved file", "file", f.Name, "category", category, "new_name", out.FinalName)
	return out
}

// ResolveFolder returns the folder named name under parentID, creating it if absent.
func (o *Organizer) ResolveFolder(ctx context.Context, parentID, name string) (files.Folder, error) {
	existing, err := o.Store.FindFolder(ctx, parentID, name)
	if err != nil {
		return files.Folder{}, fmt.Errorf("find folder %q: %w", name, err)
	}
	if existing != nil {
		return *existing, nil
	}
	slog.Info("creating folder", "name", name, "parent_id", parentID)
	created, err := o.Store.CreateFolder(ctx, parentID, name)
	if err != nil {
		return files.Folder{}, fmt.Errorf("create folder %q: %w", name, err)
	}
	return created, nil
}

func skipped(out Outcome, err error) Outcome {
	out.Status = journal.StatusSkipped
	out.Err = err
	var skip *application.SkipError
	if errors.As(err, &skip) {
		out.Stage = skip.Stage
		out.Reason = skip.Reason
		if skip.Err != nil {
			out.Reason += ": " + skip.Err.Error()
		}
	} else {
		out.Reason = err.Error()
	}
	slog.Warn("skipping file", "file", out.File.Name, "file_id", out.File.ID, "stage", out.Stage, "reason", out.Reason)
	return out
}

func failed(out Outcome, stage string, err error) Outcome {
	out.Status = journal.StatusFailed
	out.Stage = stage
	out.Reason = err.Error()
	out.Err = err
	slog.Error("error processing file", "file", out.File.Name, "file_id", out.File.ID, "stage", stage, "error", err)
	return out
}

func (o *Organizer) record(ctx context.Context, runID journal.RunID, model string, out Outcome) {
	o.Journal.RecordEntry(context.WithoutCancel(ctx), &journal.Entry{
		ID:           uuid.New().String(),
		RunID:        runID,
		FileID:       out.File.ID,
		OriginalName: out.File.Name,
		FinalName:    out.FinalName,
		Category:     out.Category,
		FolderID:     out.FolderID,
		MediaType:    out.File.MediaType,
		Model:        model,
		Status:       out.Status,
		Stage:        out.Stage,
		Reason:       out.Reason,
		CreatedAt:    o.Clock.Now(),
	})
}

func (o *Organizer) finish(ctx context.Context, run *journal.Run, sum *Summary, status journal.RunStatus, msg string) {
	run.FinishedAt = o.Clock.Now()
	run.Listed = sum.Listed
	run.Moved = sum.Moved
	run.Skipped = sum.Skipped
	run.Failed = sum.Failed
	run.Status = status
	run.Message = msg
	o.Journal.RecordRun(context.WithoutCancel(ctx), run)
}

func (o *Organizer) defaults() {
	if o.Config.DestID == "" {
		o.Config.DestID = o.Config.SourceID
	}
	if o.Clock == nil {
		o.Clock = application.SystemClock{}
	}
	if o.Sleeper == nil {
		o.Sleeper = application.SystemSleeper{}
	}
	if o.Journal == nil {
		o.Journal = nopRecorder{}
	}
}

type nopRecorder struct{}

func (nopRecorder) RecordRun(context.Context, *journal.Run)     {}
func (nopRecorder) RecordEntry(context.Context, *journal.Entry) {}
