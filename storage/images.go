package storage

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	storage_go "github.com/supabase-community/storage-go"
)

var allowedImageExt = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".webp": "image/webp",
}

const MaxImageSize = 5 << 20

// ImageStore saves kos photos and returns the URL stored in kos_images.
type ImageStore interface {
	Save(ctx context.Context, fh *multipart.FileHeader, folder string) (string, error)
	Delete(ctx context.Context, url string) error
}

func checkImage(fh *multipart.FileHeader) (string, string, error) {
	ext := strings.ToLower(filepath.Ext(fh.Filename))
	contentType, ok := allowedImageExt[ext]
	if !ok {
		return "", "", fmt.Errorf("format gambar %q tidak didukung", ext)
	}
	if fh.Size > MaxImageSize {
		return "", "", fmt.Errorf("ukuran gambar %s melebihi 5 MB", fh.Filename)
	}
	return ext, contentType, nil
}

// LocalStore writes uploads under Dir, served by the router at /uploads.
type LocalStore struct {
	Dir string
}

func NewLocalStore(dir string) *LocalStore {
	return &LocalStore{Dir: dir}
}

func (s *LocalStore) Save(_ context.Context, fh *multipart.FileHeader, folder string) (string, error) {
	ext, _, err := checkImage(fh)
	if err != nil {
		return "", err
	}

	dir := filepath.Join(s.Dir, folder)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("mkdir uploads dir: %w", err)
	}

	src, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	filename := uuid.New().String() + ext
	dst, err := os.Create(filepath.Join(dir, filename))
	if err != nil {
		return "", fmt.Errorf("create file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return "", fmt.Errorf("write file: %w", err)
	}

	return "/uploads/" + filepath.ToSlash(filepath.Join(folder, filename)), nil
}

func (s *LocalStore) Delete(_ context.Context, url string) error {
	rel := strings.TrimPrefix(url, "/uploads/")
	if rel == url || strings.Contains(rel, "..") {
		return nil
	}
	err := os.Remove(filepath.Join(s.Dir, filepath.FromSlash(rel)))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// SupabaseStore uploads into a public Supabase Storage bucket.
type SupabaseStore struct {
	client *storage_go.Client
	bucket string
}

func NewSupabaseStore(supabaseURL, key, bucket string) *SupabaseStore {
	return &SupabaseStore{
		client: storage_go.NewClient(strings.TrimRight(supabaseURL, "/")+"/storage/v1", key, nil),
		bucket: bucket,
	}
}

func (s *SupabaseStore) Save(_ context.Context, fh *multipart.FileHeader, folder string) (string, error) {
	ext, contentType, err := checkImage(fh)
	if err != nil {
		return "", err
	}

	f, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer f.Close()

	objectPath := uuid.New().String() + ext
	if folder != "" {
		objectPath = folder + "/" + objectPath
	}

	upsert := true
	options := storage_go.FileOptions{
		ContentType: &contentType,
		Upsert:      &upsert,
	}
	if _, err := s.client.UploadFile(s.bucket, objectPath, f, options); err != nil {
		return "", fmt.Errorf("supabase upload: %w", err)
	}

	publicURL := s.client.GetPublicUrl(s.bucket, objectPath)
	return publicURL.SignedURL, nil
}

func (s *SupabaseStore) Delete(_ context.Context, url string) error {
	marker := "/object/public/" + s.bucket + "/"
	idx := strings.Index(url, marker)
	if idx < 0 {
		return nil
	}
	objectPath := url[idx+len(marker):]
	if _, err := s.client.RemoveFile(s.bucket, []string{objectPath}); err != nil {
		return fmt.Errorf("supabase remove: %w", err)
	}
	return nil
}
