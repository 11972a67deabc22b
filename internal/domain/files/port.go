package files

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned when a file or folder id does not resolve.
	ErrNotFound = errors.New("file not found")
	// ErrUnsupportedType is returned when no extraction strategy exists for a media type.
	ErrUnsupportedType = errors.New("unsupported media type")
	// ErrConversionUnsupported is returned by stores that cannot import a media type into a document.
	ErrConversionUnsupported = errors.New("conversion not supported by store")
)

// Store port (interface untuk remote file store)
type Store interface {
	// ListFiles returns the non-folder children of a folder.
	ListFiles(ctx context.Context, folderID string) ([]File, error)
	// FindFolder returns nil, nil when no folder with that exact name exists under parentID.
	FindFolder(ctx context.Context, parentID, name string) (*Folder, error)
	CreateFolder(ctx context.Context, parentID, name string) (Folder, error)

	// ReadContent returns at most limit raw bytes of the file (limit <= 0 means all).
	ReadContent(ctx context.Context, f File, limit int64) ([]byte, error)
	// ReadDocumentText returns the body text of a rich document.
	ReadDocumentText(ctx context.Context, f File) (string, error)
	// Copy creates a new file from f with the given name and target media type.
	// Copying into MediaRichDocument triggers import/OCR on stores that support it.
	Copy(ctx context.Context, f File, name, mediaType string) (File, error)
	Trash(ctx context.Context, f File) error

	// Rename and Move return the updated handle; stores may assign a new id.
	Rename(ctx context.Context, f File, name string) (File, error)
	Move(ctx context.Context, f File, dest Folder) (File, error)
}
