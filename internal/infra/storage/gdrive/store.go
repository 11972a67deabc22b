package gdrive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/bryanwahyu/automaton-organizer/internal/domain/files"
)

const fileFields = "id, name, mimeType, parents, size"

var _ files.Store = (*Store)(nil)

// Store implements files.Store on Google Drive v3.
type Store struct {
	svc         *drive.Service
	sharedDrive bool
}

// New builds a Drive client. With credentialsFile empty, Application Default
// Credentials are used. Extra options (endpoint, http client) are appended last.
func New(ctx context.Context, credentialsFile string, sharedDrives bool, opts ...option.ClientOption) (*Store, error) {
	var base []option.ClientOption
	if credentialsFile != "" {
		data, err := os.ReadFile(credentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read drive credentials: %w", err)
		}
		creds, err := google.CredentialsFromJSON(ctx, data, drive.DriveScope)
		if err != nil {
			return nil, fmt.Errorf("parse drive credentials: %w", err)
		}
		base = append(base, option.WithCredentials(creds))
	}
	svc, err := drive.NewService(ctx, append(base, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("drive service: %w", err)
	}
	return &Store{svc: svc, sharedDrive: sharedDrives}, nil
}

// ListFiles pages through the non-folder, non-trashed children of folderID.
func (s *Store) ListFiles(ctx context.Context, folderID string) ([]files.File, error) {
	q := fmt.Sprintf("'%s' in parents and trashed = false and mimeType != '%s'", quote(folderID), files.MediaFolder)
	var out []files.File
	pageToken := ""
	for {
		call := s.svc.Files.List().
			Q(q).
			Fields(googleapi.Field("nextPageToken, files(" + fileFields + ")")).
			PageSize(100).
			SupportsAllDrives(s.sharedDrive).
			IncludeItemsFromAllDrives(s.sharedDrive).
			Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}
		list, err := call.Do()
		if err != nil {
			return nil, wrap("list files", err)
		}
		for _, f := range list.Files {
			out = append(out, toFile(f))
		}
		if list.NextPageToken == "" {
			return out, nil
		}
		pageToken = list.NextPageToken
	}
}

func (s *Store) FindFolder(ctx context.Context, parentID, name string) (*files.Folder, error) {
	q := fmt.Sprintf("'%s' in parents and trashed = false and mimeType = '%s' and name = '%s'",
		quote(parentID), files.MediaFolder, quote(name))
	list, err := s.svc.Files.List().
		Q(q).
		Fields("files(id, name, parents)").
		PageSize(1).
		SupportsAllDrives(s.sharedDrive).
		IncludeItemsFromAllDrives(s.sharedDrive).
		Context(ctx).
		Do()
	if err != nil {
		return nil, wrap("find folder", err)
	}
	if len(list.Files) == 0 {
		return nil, nil
	}
	return &files.Folder{ID: list.Files[0].Id, Name: list.Files[0].Name, ParentID: parentID}, nil
}

func (s *Store) CreateFolder(ctx context.Context, parentID, name string) (files.Folder, error) {
	f, err := s.svc.Files.Create(&drive.File{
		Name:     name,
		MimeType: files.MediaFolder,
		Parents:  []string{parentID},
	}).Fields("id, name").SupportsAllDrives(s.sharedDrive).Context(ctx).Do()
	if err != nil {
		return files.Folder{}, wrap("create folder", err)
	}
	return files.Folder{ID: f.Id, Name: f.Name, ParentID: parentID}, nil
}

func (s *Store) ReadContent(ctx context.Context, f files.File, limit int64) ([]byte, error) {
	resp, err := s.svc.Files.Get(f.ID).SupportsAllDrives(s.sharedDrive).Context(ctx).Download()
	if err != nil {
		return nil, wrap("download", err)
	}
	return readBody(resp, limit)
}

// ReadDocumentText exports a Google Doc as plain text.
func (s *Store) ReadDocumentText(ctx context.Context, f files.File) (string, error) {
	resp, err := s.svc.Files.Export(f.ID, "text/plain").Context(ctx).Download()
	if err != nil {
		return "", wrap("export document", err)
	}
	b, err := readBody(resp, 0)
	if err != nil {
		return "", err
	}
	// exports start with a byte order mark
	return strings.TrimPrefix(string(b), "\ufeff"), nil
}

// Copy into MediaRichDocument makes Drive import the file (OCR for images and PDFs).
func (s *Store) Copy(ctx context.Context, f files.File, name, mediaType string) (files.File, error) {
	cp, err := s.svc.Files.Copy(f.ID, &drive.File{Name: name, MimeType: mediaType}).
		Fields(fileFields).
		SupportsAllDrives(s.sharedDrive).
		Context(ctx).
		Do()
	if err != nil {
		return files.File{}, wrap("copy", err)
	}
	return toFile(cp), nil
}

func (s *Store) Trash(ctx context.Context, f files.File) error {
	_, err := s.svc.Files.Update(f.ID, &drive.File{Trashed: true}).
		Fields("id").
		SupportsAllDrives(s.sharedDrive).
		Context(ctx).
		Do()
	return wrap("trash", err)
}

func (s *Store) Rename(ctx context.Context, f files.File, name string) (files.File, error) {
	updated, err := s.svc.Files.Update(f.ID, &drive.File{Name: name}).
		Fields(fileFields).
		SupportsAllDrives(s.sharedDrive).
		Context(ctx).
		Do()
	if err != nil {
		return files.File{}, wrap("rename", err)
	}
	return toFile(updated), nil
}

// Move replaces every current parent with dest.
func (s *Store) Move(ctx context.Context, f files.File, dest files.Folder) (files.File, error) {
	parents := f.Parents
	if len(parents) == 0 {
		cur, err := s.svc.Files.Get(f.ID).Fields("parents").SupportsAllDrives(s.sharedDrive).Context(ctx).Do()
		if err != nil {
			return files.File{}, wrap("move", err)
		}
		parents = cur.Parents
	}
	updated, err := s.svc.Files.Update(f.ID, &drive.File{}).
		AddParents(dest.ID).
		RemoveParents(strings.Join(parents, ",")).
		Fields(fileFields).
		SupportsAllDrives(s.sharedDrive).
		Context(ctx).
		Do()
	if err != nil {
		return files.File{}, wrap("move", err)
	}
	return toFile(updated), nil
}

func toFile(f *drive.File) files.File {
	return files.File{ID: f.Id, Name: f.Name, MediaType: f.MimeType, Parents: f.Parents, Size: f.Size}
}

// quote escapes a value for a single-quoted Drive query literal.
func quote(s string) string {
	return strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(s)
}

func readBody(resp *http.Response, limit int64) ([]byte, error) {
	defer resp.Body.Close()
	var r io.Reader = resp.Body
	if limit > 0 {
		r = io.LimitReader(resp.Body, limit)
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return b, nil
}

func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	var gerr *googleapi.Error
	if errors.As(err, &gerr) && gerr.Code == http.StatusNotFound {
		return fmt.Errorf("drive %s: %w: %v", op, files.ErrNotFound, err)
	}
	return fmt.Errorf("drive %s: %w", op, err)
}
