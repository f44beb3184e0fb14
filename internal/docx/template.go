package docx

import (
	"archive/zip"
	"bytes"
	"fmt"
	"html"
	"io"
	"os"
	"regexp"
	"strings"

	godocx "github.com/lukasjarosch/go-docx"
)

var (
	tagPattern         = regexp.MustCompile(`<[^>]*>`)
	paraEnd            = regexp.MustCompile(`</w:p>`)
	placeholderPattern = regexp.MustCompile(`\{\{\s*([^{}]+?)\s*\}\}`)
)

// Template is a .docx package with {{key}} placeholders in its body,
// headers and footers.
type Template struct {
	data []byte
	doc  *godocx.Document
}

// OpenTemplate reads a .docx file.
func OpenTemplate(path string) (*Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read template %s: %w", path, err)
	}
	return ReadTemplate(data)
}

// ReadTemplate parses .docx bytes. Double-brace tokens are rewritten to the
// single-brace form the replacer matches across split runs.
func ReadTemplate(data []byte) (*Template, error) {
	normalized, err := rewriteParts(data, func(body []byte) []byte {
		return placeholderPattern.ReplaceAll(body, []byte("{${1}}"))
	})
	if err != nil {
		return nil, err
	}
	doc, err := godocx.OpenBytes(normalized)
	if err != nil {
		return nil, fmt.Errorf("failed to open docx: %w", err)
	}
	return &Template{data: data, doc: doc}, nil
}

// textPart reports whether a package part holds fillable text.
func textPart(name string) bool {
	if name == "word/document.xml" {
		return true
	}
	if !strings.HasPrefix(name, "word/") || !strings.HasSuffix(name, ".xml") {
		return false
	}
	base := strings.TrimPrefix(name, "word/")
	return strings.HasPrefix(base, "header") || strings.HasPrefix(base, "footer")
}

// rewriteParts re-packages data with fn applied to every text part.
func rewriteParts(data []byte, fn func([]byte) []byte) ([]byte, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to open docx: %w", err)
	}
	var (
		buf   bytes.Buffer
		found bool
	)
	zw := zip.NewWriter(&buf)
	for _, f := range zr.File {
		body, err := readZipFile(f)
		if err != nil {
			return nil, err
		}
		if f.Name == "word/document.xml" {
			found = true
		}
		if textPart(f.Name) {
			body = fn(body)
		}
		w, err := zw.Create(f.Name)
		if err != nil {
			return nil, fmt.Errorf("failed to create %s: %w", f.Name, err)
		}
		if _, err := w.Write(body); err != nil {
			return nil, fmt.Errorf("failed to write %s: %w", f.Name, err)
		}
	}
	if !found {
		return nil, fmt.Errorf("docx has no word/document.xml")
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish docx: %w", err)
	}
	return buf.Bytes(), nil
}

func readZipFile(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", f.Name, err)
	}
	defer rc.Close()
	body, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", f.Name, err)
	}
	return body, nil
}

// partText returns the plain text of each text part, one line per paragraph.
func partText(data []byte) (map[string]string, []string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open docx: %w", err)
	}
	out := map[string]string{}
	var names []string
	for _, f := range zr.File {
		if !textPart(f.Name) {
			continue
		}
		body, err := readZipFile(f)
		if err != nil {
			return nil, nil, err
		}
		text := paraEnd.ReplaceAllString(string(body), "\n")
		text = html.UnescapeString(tagPattern.ReplaceAllString(text, ""))
		out[f.Name] = strings.TrimRight(text, "\n")
		names = append(names, f.Name)
	}
	return out, names, nil
}

// Placeholders lists the distinct {{key}} names in template order, body first.
func (t *Template) Placeholders() []string {
	texts, names, err := partText(t.data)
	if err != nil {
		return nil
	}
	ordered := []string{"word/document.xml"}
	for _, name := range names {
		if name != "word/document.xml" {
			ordered = append(ordered, name)
		}
	}
	seen := map[string]bool{}
	var out []string
	for _, name := range ordered {
		for _, m := range placeholderPattern.FindAllStringSubmatch(texts[name], -1) {
			if !seen[m[1]] {
				seen[m[1]] = true
				out = append(out, m[1])
			}
		}
	}
	return out
}

// Fill replaces the placeholders named in values. The first run of a
// placeholder keeps its formatting; runs holding drawings are untouched.
// Placeholders without a value stay in place.
func (t *Template) Fill(values map[string]string) error {
	m := godocx.PlaceholderMap{}
	for _, key := range t.Placeholders() {
		if v, ok := values[key]; ok {
			m[key] = v
		}
	}
	if len(m) == 0 {
		return nil
	}
	if err := t.doc.ReplaceAll(m); err != nil {
		return fmt.Errorf("failed to fill template: %w", err)
	}
	return nil
}

// Text returns the plain text of the body, one line per paragraph.
func (t *Template) Text() string {
	data, err := t.Bytes()
	if err != nil {
		return ""
	}
	texts, _, err := partText(data)
	if err != nil {
		return ""
	}
	return texts["word/document.xml"]
}

// Bytes re-packages the template.
func (t *Template) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if _, err := t.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteTo writes the package to w. Placeholders left unfilled appear in
// their single-brace form.
func (t *Template) WriteTo(w io.Writer) (int64, error) {
	var buf bytes.Buffer
	if err := t.doc.Write(&buf); err != nil {
		return 0, fmt.Errorf("failed to write docx: %w", err)
	}
	return buf.WriteTo(w)
}

// Save writes the package to path.
func (t *Template) Save(path string) error {
	data, err := t.Bytes()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
