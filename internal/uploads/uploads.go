// Package uploads stores product images and returns their public URLs.
package uploads

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/01moynul/a2z-storefront/internal/apperr"
)

// MaxSize is the largest accepted image, in bytes.
const MaxSize = 5 << 20

var allowedExt = map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".webp": true, ".gif": true}

// Store saves an uploaded file under a generated name.
type Store interface {
	Save(ctx context.Context, filename, contentType string, r io.Reader) (string, error)
}

// Validate checks the original filename and size of an upload.
func Validate(filename string, size int64) error {
	if size <= 0 {
		return apperr.Invalid("file", "file is empty")
	}
	if size > MaxSize {
		return apperr.Invalid("file", "file is larger than 5MB")
	}
	if !allowedExt[strings.ToLower(filepath.Ext(filename))] {
		return apperr.Invalid("file", "only jpg, png, webp and gif images are allowed")
	}
	return nil
}

// uniqueName keeps the extension and replaces the rest with a uuid.
func uniqueName(filename string) string {
	return uuid.New().String() + strings.ToLower(filepath.Ext(filename))
}

// Local writes files to a directory served under {baseURL}/uploads.
type Local struct {
	dir     string
	baseURL string
}

func NewLocal(dir, baseURL string) *Local {
	return &Local{dir: dir, baseURL: strings.TrimRight(baseURL, "/")}
}

func (l *Local) Dir() string { return l.dir }

func (l *Local) Save(_ context.Context, filename, _ string, r io.Reader) (string, error) {
	if err := os.MkdirAll(l.dir, 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}

	name := uniqueName(filename)
	f, err := os.Create(filepath.Join(l.dir, name))
	if err != nil {
		return "", fmt.Errorf("create file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		return "", fmt.Errorf("write file: %w", err)
	}
	return fmt.Sprintf("%s/uploads/%s", l.baseURL, name), nil
}

// Uploader is the part of *manager.Uploader used here.
type Uploader interface {
	Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

// S3 puts files into a bucket with a public-read ACL.
type S3 struct {
	uploader Uploader
	bucket   string
}

// NewS3 loads the default AWS config chain (env, shared config, IMDS).
func NewS3(ctx context.Context, bucket string) (*S3, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("error loading AWS config: %w", err)
	}
	return NewS3WithUploader(manager.NewUploader(s3.NewFromConfig(cfg)), bucket), nil
}

func NewS3WithUploader(u Uploader, bucket string) *S3 {
	return &S3{uploader: u, bucket: bucket}
}

func (s *S3) Save(ctx context.Context, filename, contentType string, r io.Reader) (string, error) {
	key := "products/" + uniqueName(filename)
	out, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        r,
		ACL:         "public-read",
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("s3 upload: %w", err)
	}
	return out.Location, nil
}
