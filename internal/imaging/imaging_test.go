package imaging

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
)

func testImage() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 3, 1))
	img.Set(0, 0, color.RGBA{R: 255, G: 255, B: 255, A: 255})
	img.Set(1, 0, color.RGBA{R: 200, G: 200, B: 200, A: 255})
	img.Set(2, 0, color.RGBA{R: 199, G: 199, B: 199, A: 255})
	return img
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func TestThreshold(t *testing.T) {
	out := Threshold(testImage(), DefaultThreshold)
	want := []uint8{255, 255, 0}
	for x, w := range want {
		if got := out.GrayAt(x, 0).Y; got != w {
			t.Errorf("pixel %d = %d, want %d", x, got, w)
		}
	}
}

func TestBinaryPath(t *testing.T) {
	if got := BinaryPath("/in/scan.page1.jpg", "/out"); got != filepath.Join("/out", "scan_binary.png") {
		t.Errorf("BinaryPath = %q", got)
	}
}

func TestBinarize(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "page.png")
	if err := os.WriteFile(src, encodePNG(t, testImage()), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	out := filepath.Join(dir, "session")
	dst, err := Binarize(src, out, DefaultThreshold)
	if err != nil {
		t.Fatalf("Binarize() error = %v", err)
	}
	if dst != filepath.Join(out, "page_binary.png") {
		t.Errorf("dst = %q", dst)
	}
	img, err := Decode(dst)
	if err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if img.Bounds().Dx() != 3 {
		t.Errorf("width = %d", img.Bounds().Dx())
	}

	t.Run("missing file", func(t *testing.T) {
		_, err := Binarize(filepath.Join(dir, "nope.png"), out, DefaultThreshold)
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("corrupt file", func(t *testing.T) {
		bad := filepath.Join(dir, "bad.png")
		os.WriteFile(bad, []byte("not an image"), 0o644)
		_, err := Binarize(bad, out, DefaultThreshold)
		if !errors.Is(err, ErrDecode) {
			t.Errorf("expected ErrDecode, got %v", err)
		}
	})
}

type fakeS3 struct {
	bucket, key string
	body        []byte
}

func (f *fakeS3) GetObject(ctx context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.bucket, f.key = *in.Bucket, *in.Key
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(f.body))}, nil
}

func TestFetch(t *testing.T) {
	ctx := context.Background()
	pngBytes := encodePNG(t, testImage())

	t.Run("local path", func(t *testing.T) {
		dir := t.TempDir()
		src := filepath.Join(dir, "a.png")
		os.WriteFile(src, pngBytes, 0o644)
		got, err := NewFetcher(FetcherConfig{}).Fetch(ctx, src, dir)
		if err != nil || got != src {
			t.Fatalf("Fetch() = %q, %v", got, err)
		}
		if _, err := NewFetcher(FetcherConfig{}).Fetch(ctx, filepath.Join(dir, "missing.png"), dir); !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("http with content type", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/missing" {
				http.NotFound(w, r)
				return
			}
			w.Header().Set("Content-Type", "image/png")
			w.Write(pngBytes)
		}))
		defer server.Close()

		dir := t.TempDir()
		f := NewFetcher(FetcherConfig{HTTPClient: server.Client()})
		got, err := f.Fetch(ctx, server.URL+"/scans/page1", dir)
		if err != nil {
			t.Fatalf("Fetch() error = %v", err)
		}
		if got != filepath.Join(dir, "page1.png") {
			t.Errorf("path = %q", got)
		}
		data, _ := os.ReadFile(got)
		if !bytes.Equal(data, pngBytes) {
			t.Error("downloaded bytes differ")
		}

		if _, err := f.Fetch(ctx, server.URL+"/missing", dir); !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("s3", func(t *testing.T) {
		fake := &fakeS3{body: pngBytes}
		dir := t.TempDir()
		got, err := NewFetcher(FetcherConfig{S3: fake}).Fetch(ctx, "s3://docs/2024/page2.png", dir)
		if err != nil {
			t.Fatalf("Fetch() error = %v", err)
		}
		if fake.bucket != "docs" || fake.key != "2024/page2.png" {
			t.Errorf("bucket/key = %q/%q", fake.bucket, fake.key)
		}
		if got != filepath.Join(dir, "page2.png") {
			t.Errorf("path = %q", got)
		}
	})

	t.Run("bad s3 url", func(t *testing.T) {
		if _, _, err := ParseS3URL("s3://bucket-only"); err == nil {
			t.Error("expected error for missing key")
		}
	})
}

func TestExtForContentType(t *testing.T) {
	tests := map[string]string{
		"image/jpeg":               ".jpg",
		"image/png; charset=utf-8": ".png",
		"image/webp":               ".webp",
		"application/octet-stream": ".bin",
		"":                         ".bin",
	}
	for ct, want := range tests {
		if got := extForContentType(ct); got != want {
			t.Errorf("extForContentType(%q) = %q, want %q", ct, got, want)
		}
	}
}

func TestNaturalLess(t *testing.T) {
	names := []string{"p_10_Im0.png", "p_2_Im0.png", "p_1_Im0.png"}
	sort.Slice(names, func(i, j int) bool { return naturalLess(names[i], names[j]) })
	want := []string{"p_1_Im0.png", "p_2_Im0.png", "p_10_Im0.png"}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("order = %v", names)
		}
	}
}

func TestNormalizerPrepare(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "scan.png")
	os.WriteFile(src, encodePNG(t, testImage()), 0o644)

	n := NewNormalizer(nil, 0, nil)
	pages, err := n.Prepare(context.Background(), src, filepath.Join(dir, "session"))
	if err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}
	if len(pages) != 1 || pages[0].Original != src {
		t.Fatalf("pages = %+v", pages)
	}
	if _, err := os.Stat(pages[0].Binary); err != nil {
		t.Errorf("binary image missing: %v", err)
	}
}

func TestNormalizerPrepareSameNames(t *testing.T) {
	dir := t.TempDir()
	session := filepath.Join(dir, "session")

	solid := func(name string, gray uint8) string {
		img := image.NewGray(image.Rect(0, 0, 1, 1))
		img.SetGray(0, 0, color.Gray{Y: gray})
		p := filepath.Join(dir, name, "page.png")
		os.MkdirAll(filepath.Dir(p), 0o755)
		os.WriteFile(p, encodePNG(t, img), 0o644)
		return p
	}
	white := solid("doc1", 255)
	black := solid("doc2", 0)

	n := NewNormalizer(nil, 0, nil)
	first, err := n.Prepare(context.Background(), white, session)
	if err != nil {
		t.Fatalf("Prepare(white) error = %v", err)
	}
	second, err := n.Prepare(context.Background(), black, session)
	if err != nil {
		t.Fatalf("Prepare(black) error = %v", err)
	}
	if first[0].Binary == second[0].Binary {
		t.Fatalf("both pages binarized to %s", first[0].Binary)
	}

	for _, tc := range []struct {
		path string
		want uint8
	}{{first[0].Binary, 255}, {second[0].Binary, 0}} {
		img, err := Decode(tc.path)
		if err != nil {
			t.Fatalf("Decode(%s) error = %v", tc.path, err)
		}
		if got := color.GrayModel.Convert(img.At(0, 0)).(color.Gray).Y; got != tc.want {
			t.Errorf("%s pixel = %d, want %d", tc.path, got, tc.want)
		}
	}
}

func TestUniquePath(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "a_binary.png")
	if got := UniquePath(p); got != p {
		t.Errorf("UniquePath(free) = %q", got)
	}
	os.WriteFile(p, nil, 0o644)
	want := filepath.Join(dir, "a_binary_2.png")
	if got := UniquePath(p); got != want {
		t.Errorf("UniquePath(taken) = %q, want %q", got, want)
	}
	os.WriteFile(want, nil, 0o644)
	if got := UniquePath(p); got != filepath.Join(dir, "a_binary_3.png") {
		t.Errorf("UniquePath(taken twice) = %q", got)
	}
}
