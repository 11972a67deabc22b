package extract

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/bryanwahyu/automaton-organizer/internal/application"
	"github.com/bryanwahyu/automaton-organizer/internal/domain/files"
)

const (
	Stage = "extract"

	DefaultPlainTextLimit = 15000
	DefaultDocumentLimit  = 30000
	DefaultTempPrefix     = "[organizer-ocr] "

	// upper bound of UTF-8 bytes per character
	bytesPerRune = 4
	trashTimeout = 30 * time.Second
)

// Extractor turns a stored file into a bounded text excerpt.
type Extractor struct {
	store          files.Store
	PlainTextLimit int
	DocumentLimit  int
	TempPrefix     string
}

func New(store files.Store) *Extractor {
	return &Extractor{
		store:          store,
		PlainTextLimit: DefaultPlainTextLimit,
		DocumentLimit:  DefaultDocumentLimit,
		TempPrefix:     DefaultTempPrefix,
	}
}

// Extract returns the excerpt for f. Every failure is an *application.SkipError;
// unsupported media types wrap files.ErrUnsupportedType.
func (e *Extractor) Extract(ctx context.Context, f files.File) (string, error) {
	switch kind := files.Classify(f.MediaType); kind {
	case files.KindPlainText:
		return e.plainText(ctx, f)
	case files.KindRichDocument:
		return e.document(ctx, f)
	case files.KindConvertible:
		return e.viaConversion(ctx, f)
	default:
		return "", application.Skip(Stage, "unsupported type "+f.MediaType, files.ErrUnsupportedType)
	}
}

// IsTempCopy reports whether f is a conversion copy left behind by an earlier run.
func (e *Extractor) IsTempCopy(f files.File) bool {
	return e.TempPrefix != "" &&
		strings.HasPrefix(f.Name, e.TempPrefix) &&
		files.Classify(f.MediaType) == files.KindRichDocument
}

func (e *Extractor) plainText(ctx context.Context, f files.File) (string, error) {
	data, err := e.store.ReadContent(ctx, f, int64(e.PlainTextLimit)*bytesPerRune)
	if err != nil {
		return "", application.Skip(Stage, "read text content", err)
	}
	return Truncate(strings.ToValidUTF8(string(data), "�"), e.PlainTextLimit), nil
}

func (e *Extractor) document(ctx context.Context, f files.File) (string, error) {
	text, err := e.store.ReadDocumentText(ctx, f)
	if err != nil {
		return "", application.Skip(Stage, "read document", err)
	}
	return Truncate(text, e.DocumentLimit), nil
}

func (e *Extractor) viaConversion(ctx context.Context, f files.File) (string, error) {
	slog.Info("converting file to document for OCR", "file", f.Name, "file_id", f.ID)

	tmp, err := e.store.Copy(ctx, f, e.TempPrefix+f.Name, files.MediaRichDocument)
	if err != nil {
		reason := "convert to document"
		if errors.Is(err, files.ErrConversionUnsupported) {
			reason = "conversion not supported for " + f.MediaType
		}
		return "", application.Skip(Stage, reason, err)
	}
	defer e.trash(ctx, tmp)

	return e.document(ctx, tmp)
}

// trash removes a temp copy even when ctx is already cancelled.
func (e *Extractor) trash(ctx context.Context, tmp files.File) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), trashTimeout)
	defer cancel()
	if err := e.store.Trash(ctx, tmp); err != nil {
		slog.Warn("could not remove temp file", "file", tmp.Name, "file_id", tmp.ID, "error", err)
		return
	}
	slog.Debug("removed temp file", "file", tmp.Name)
}

// Truncate keeps at most n characters of s.
func Truncate(s string, n int) string {
	if n <= 0 {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}

