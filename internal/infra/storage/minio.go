package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"path"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/bryanwahyu/automaton-organizer/internal/domain/files"
)

// TrashPrefix holds removed objects so a trash stays recoverable.
const TrashPrefix = ".trash/"

// Store implements files.Store on an S3-compatible bucket. Folders are key
// prefixes ending in "/" and file ids are object keys; "" is the bucket root.
type Store struct {
	client     *minio.Client
	bucketName string
	region     string
}

// New buat koneksi MinIO
func New(ctx context.Context, endpoint, region, bucket, accessKey, secretKey string, useSSL bool) (*Store, error) {
	cli, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
		Region: region,
	})
	if err != nil {
		return nil, err
	}

	// pastikan bucket ada
	exists, err := cli.BucketExists(ctx, bucket)
	if err != nil {
		return nil, err
	}
	if !exists {
		if err := cli.MakeBucket(ctx, bucket, minio.MakeBucketOptions{Region: region}); err != nil {
			return nil, err
		}
	}

	return &Store{client: cli, bucketName: bucket, region: region}, nil
}

// ListFiles returns the objects directly under folderID, skipping sub-prefixes
// and the folder marker itself.
func (s *Store) ListFiles(ctx context.Context, folderID string) ([]files.File, error) {
	prefix := folderPrefix(folderID)
	var out []files.File
	for obj := range s.client.ListObjects(ctx, s.bucketName, minio.ListObjectsOptions{Prefix: prefix}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("list objects: %w", obj.Err)
		}
		if obj.Key == prefix || strings.HasSuffix(obj.Key, "/") {
			continue
		}
		info, err := s.client.StatObject(ctx, s.bucketName, obj.Key, minio.StatObjectOptions{})
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", obj.Key, err)
		}
		out = append(out, files.File{
			ID:        obj.Key,
			Name:      path.Base(obj.Key),
			MediaType: mediaType(info.ContentType, obj.Key),
			Parents:   []string{prefix},
			Size:      obj.Size,
		})
	}
	return out, nil
}

// FindFolder treats a prefix as existing when it has a marker or any object under it.
func (s *Store) FindFolder(ctx context.Context, parentID, name string) (*files.Folder, error) {
	prefix := folderPrefix(parentID) + sanitize(name) + "/"
	// stop the lister goroutine once the first key is seen
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	for obj := range s.client.ListObjects(ctx, s.bucketName, minio.ListObjectsOptions{Prefix: prefix, MaxKeys: 1}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("find folder: %w", obj.Err)
		}
		return &files.Folder{ID: prefix, Name: name, ParentID: folderPrefix(parentID)}, nil
	}
	return nil, nil
}

// CreateFolder writes an empty marker object so the prefix survives while empty.
func (s *Store) CreateFolder(ctx context.Context, parentID, name string) (files.Folder, error) {
	prefix := folderPrefix(parentID) + sanitize(name) + "/"
	_, err := s.client.PutObject(ctx, s.bucketName, prefix, bytes.NewReader(nil), 0,
		minio.PutObjectOptions{ContentType: files.MediaFolder})
	if err != nil {
		return files.Folder{}, fmt.Errorf("create folder marker: %w", err)
	}
	return files.Folder{ID: prefix, Name: name, ParentID: folderPrefix(parentID)}, nil
}

func (s *Store) ReadContent(ctx context.Context, f files.File, limit int64) ([]byte, error) {
	obj, err := s.client.GetObject(ctx, s.bucketName, f.ID, minio.GetObjectOptions{})
	if err != nil {
		return nil, mapErr("get object", err)
	}
	defer obj.Close()

	var r io.Reader = obj
	if limit > 0 {
		r = io.LimitReader(obj, limit)
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, mapErr("read object", err)
	}
	return b, nil
}

// ReadDocumentText reads a rich-document object; those hold UTF-8 text.
func (s *Store) ReadDocumentText(ctx context.Context, f files.File) (string, error) {
	b, err := s.ReadContent(ctx, f, 0)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Copy next to f. Copying into MediaRichDocument extracts text locally
// (PDF and DOCX only).
func (s *Store) Copy(ctx context.Context, f files.File, name, targetType string) (files.File, error) {
	dir := parentPrefix(f.ID)
	key, err := s.freeKey(ctx, dir, sanitize(name))
	if err != nil {
		return files.File{}, err
	}

	if targetType == files.MediaRichDocument && files.Classify(f.MediaType) != files.KindRichDocument {
		data, err := s.ReadContent(ctx, f, 0)
		if err != nil {
			return files.File{}, err
		}
		text, err := ExtractText(f.MediaType, data)
		if err != nil {
			return files.File{}, err
		}
		_, err = s.client.PutObject(ctx, s.bucketName, key, strings.NewReader(text), int64(len(text)),
			minio.PutObjectOptions{ContentType: files.MediaRichDocument})
		if err != nil {
			return files.File{}, fmt.Errorf("put converted copy: %w", err)
		}
		return files.File{ID: key, Name: path.Base(key), MediaType: files.MediaRichDocument, Parents: []string{dir}, Size: int64(len(text))}, nil
	}

	if err := s.copyObject(ctx, f.ID, key, targetType); err != nil {
		return files.File{}, err
	}
	return files.File{ID: key, Name: path.Base(key), MediaType: targetType, Parents: []string{dir}, Size: f.Size}, nil
}

// Trash moves the object under TrashPrefix.
func (s *Store) Trash(ctx context.Context, f files.File) error {
	if err := s.copyObject(ctx, f.ID, TrashPrefix+f.ID, ""); err != nil {
		return err
	}
	return mapErr("remove object", s.client.RemoveObject(ctx, s.bucketName, f.ID, minio.RemoveObjectOptions{}))
}

// Rename re-keys the object in place; the returned id differs from f.ID.
func (s *Store) Rename(ctx context.Context, f files.File, name string) (files.File, error) {
	return s.relocate(ctx, f, parentPrefix(f.ID), sanitize(name))
}

func (s *Store) Move(ctx context.Context, f files.File, dest files.Folder) (files.File, error) {
	return s.relocate(ctx, f, folderPrefix(dest.ID), path.Base(f.ID))
}

func (s *Store) relocate(ctx context.Context, f files.File, dir, name string) (files.File, error) {
	if dir+name == f.ID {
		return f, nil
	}
	key, err := s.freeKey(ctx, dir, name)
	if err != nil {
		return files.File{}, err
	}
	if err := s.copyObject(ctx, f.ID, key, ""); err != nil {
		return files.File{}, err
	}
	if err := s.client.RemoveObject(ctx, s.bucketName, f.ID, minio.RemoveObjectOptions{}); err != nil {
		return files.File{}, mapErr("remove source object", err)
	}
	out := f
	out.ID = key
	out.Name = path.Base(key)
	out.Parents = []string{dir}
	return out, nil
}

// copyObject copies src to dst, replacing the content type when contentType is set.
func (s *Store) copyObject(ctx context.Context, src, dst, contentType string) error {
	dest := minio.CopyDestOptions{Bucket: s.bucketName, Object: dst}
	if contentType != "" {
		dest.ReplaceMetadata = true
		dest.UserMetadata = map[string]string{"Content-Type": contentType}
	}
	_, err := s.client.CopyObject(ctx, dest, minio.CopySrcOptions{Bucket: s.bucketName, Object: src})
	return mapErr("copy object", err)
}

// freeKey returns dir+name, or dir+"name (n).ext" when that key is taken.
func (s *Store) freeKey(ctx context.Context, dir, name string) (string, error) {
	return uniqueKey(dir, name, func(key string) (bool, error) {
		_, err := s.client.StatObject(ctx, s.bucketName, key, minio.StatObjectOptions{})
		if err == nil {
			return true, nil
		}
		if isNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("stat %s: %w", key, err)
	})
}

func uniqueKey(dir, name string, exists func(string) (bool, error)) (string, error) {
	ext := path.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	if stem == "" {
		stem, ext = name, ""
	}
	key := dir + name
	counter := 1
	for {
		taken, err := exists(key)
		if err != nil {
			return "", err
		}
		if !taken {
			return key, nil
		}
		key = fmt.Sprintf("%s%s (%d)%s", dir, stem, counter, ext)
		counter++
	}
}

// folderPrefix normalizes a folder id to "" or "a/b/".
func folderPrefix(id string) string {
	id = strings.Trim(id, "/")
	if id == "" {
		return ""
	}
	return id + "/"
}

func parentPrefix(key string) string {
	dir := path.Dir(key)
	if dir == "." || dir == "/" {
		return ""
	}
	return dir + "/"
}

// sanitize keeps a display name from escaping its prefix.
func sanitize(name string) string {
	name = strings.NewReplacer("/", "-", "\\", "-").Replace(strings.TrimSpace(name))
	if name == "" || name == "." || name == ".." {
		return "untitled"
	}
	return name
}

func mediaType(contentType, key string) string {
	if contentType != "" && contentType != "application/octet-stream" && contentType != "binary/octet-stream" {
		return contentType
	}
	if t := mime.TypeByExtension(path.Ext(key)); t != "" {
		return t
	}
	if contentType != "" {
		return contentType
	}
	return "application/octet-stream"
}

func isNotFound(err error) bool {
	code := minio.ToErrorResponse(err).Code
	return code == "NoSuchKey" || code == "NotFound"
}

func mapErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if isNotFound(err) {
		return fmt.Errorf("%s: %w: %v", op, files.ErrNotFound, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

var _ files.Store = (*Store)(nil)
