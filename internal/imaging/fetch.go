package imaging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Getter is the subset of the S3 client used for downloads.
type S3Getter interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// FetcherConfig configures a Fetcher.
type FetcherConfig struct {
	HTTPClient *http.Client
	Timeout    time.Duration // download timeout when HTTPClient is nil
	S3         S3Getter      // built lazily from the default AWS chain when nil
	S3Region   string
	Logger     *slog.Logger
}

// Fetcher turns a local path, http(s) URL or s3:// URL into a local file.
type Fetcher struct {
	client   *http.Client
	logger   *slog.Logger
	region   string
	s3Once   sync.Once
	s3       S3Getter
	s3Err    error
	s3Preset bool
}

// NewFetcher creates a Fetcher.
func NewFetcher(cfg FetcherConfig) *Fetcher {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Fetcher{
		client:   client,
		logger:   logger,
		region:   cfg.S3Region,
		s3:       cfg.S3,
		s3Preset: cfg.S3 != nil,
	}
}

// IsHTTPURL reports whether ref is an http(s) URL.
func IsHTTPURL(ref string) bool {
	return strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://")
}

// IsS3URL reports whether ref is an s3://bucket/key URL.
func IsS3URL(ref string) bool {
	return strings.HasPrefix(ref, "s3://")
}

// Fetch returns a local path for ref, downloading remote references into dir.
func (f *Fetcher) Fetch(ctx context.Context, ref, dir string) (string, error) {
	switch {
	case IsHTTPURL(ref):
		return f.fetchHTTP(ctx, ref, dir)
	case IsS3URL(ref):
		return f.fetchS3(ctx, ref, dir)
	default:
		if _, err := os.Stat(ref); err != nil {
			if os.IsNotExist(err) {
				return "", fmt.Errorf("%w: %s", ErrNotFound, ref)
			}
			return "", fmt.Errorf("failed to stat %s: %w", ref, err)
		}
		return ref, nil
	}
}

func (f *Fetcher) fetchHTTP(ctx context.Context, ref, dir string) (string, error) {
	u, err := url.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("invalid image URL %q: %w", ref, err)
	}
	base, _ := url.PathUnescape(path.Base(u.Path))
	if base == "" || base == "/" || base == "." {
		base = "image"
	}
	ext := filepath.Ext(base)
	name := strings.TrimSuffix(base, ext)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to download %s: %w", ref, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return "", fmt.Errorf("%w: %s", ErrNotFound, ref)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("failed to download %s: status %d", ref, resp.StatusCode)
	}
	if ext == "" {
		ext = extForContentType(resp.Header.Get("Content-Type"))
	}

	local := UniquePath(filepath.Join(dir, name+ext))
	if err := writeStream(local, resp.Body); err != nil {
		return "", err
	}
	f.logger.Debug("downloaded image", "url", ref, "path", local)
	return local, nil
}

func extForContentType(ct string) string {
	mt, _, err := mime.ParseMediaType(ct)
	if err != nil {
		mt = ct
	}
	switch {
	case strings.Contains(mt, "jpeg"):
		return ".jpg"
	case strings.Contains(mt, "png"):
		return ".png"
	case strings.Contains(mt, "webp"):
		return ".webp"
	case strings.Contains(mt, "tiff"):
		return ".tif"
	case strings.Contains(mt, "pdf"):
		return ".pdf"
	default:
		return ".bin"
	}
}

func (f *Fetcher) s3Client(ctx context.Context) (S3Getter, error) {
	if f.s3Preset {
		return f.s3, nil
	}
	f.s3Once.Do(func() {
		var opts []func(*awsconfig.LoadOptions) error
		if f.region != "" {
			opts = append(opts, awsconfig.WithRegion(f.region))
		}
		cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
		if err != nil {
			f.s3Err = fmt.Errorf("failed to load AWS config: %w", err)
			return
		}
		f.s3 = s3.NewFromConfig(cfg)
	})
	return f.s3, f.s3Err
}

// ParseS3URL splits s3://bucket/key.
func ParseS3URL(ref string) (bucket, key string, err error) {
	u, err := url.Parse(ref)
	if err != nil {
		return "", "", fmt.Errorf("invalid s3 URL %q: %w", ref, err)
	}
	bucket = u.Host
	key = strings.TrimPrefix(u.Path, "/")
	if bucket == "" || key == "" {
		return "", "", fmt.Errorf("invalid s3 URL %q: bucket and key are required", ref)
	}
	return bucket, key, nil
}

func (f *Fetcher) fetchS3(ctx context.Context, ref, dir string) (string, error) {
	bucket, key, err := ParseS3URL(ref)
	if err != nil {
		return "", err
	}
	client, err := f.s3Client(ctx)
	if err != nil {
		return "", err
	}

	out, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return "", fmt.Errorf("failed to download %s: %w", ref, err)
	}
	defer out.Body.Close()

	base := path.Base(key)
	if base == "" || base == "." || base == "/" {
		base = "image"
	}
	local := UniquePath(filepath.Join(dir, base))
	if err := writeStream(local, out.Body); err != nil {
		return "", err
	}
	f.logger.Debug("downloaded image", "url", ref, "path", local)
	return local, nil
}

func writeStream(dst string, r io.Reader) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("failed to create download directory: %w", err)
	}
	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dst, err)
	}
	if _, err := io.Copy(out, r); err != nil {
		out.Close()
		return fmt.Errorf("failed to write %s: %w", dst, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", dst, err)
	}
	return nil
}
