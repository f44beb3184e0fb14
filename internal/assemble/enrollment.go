package assemble

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/kdocs/docuflow/internal/docx"
	"github.com/kdocs/docuflow/internal/doctype"
	"github.com/kdocs/docuflow/internal/tables"
)

// Flatten maps every scalar leaf of v to text under its dotted path
// ("issuer.name", "items.0"). Each leaf is also reachable by its bare key
// unless an earlier leaf already claimed that name.
func Flatten(v any) map[string]string {
	out := make(map[string]string)
	var bare []struct{ key, val string }
	var walk func(prefix string, v any)
	walk = func(prefix string, v any) {
		switch t := v.(type) {
		case map[string]any:
			keys := make([]string, 0, len(t))
			for k := range t {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				p := k
				if prefix != "" {
					p = prefix + "." + k
				}
				if isScalar(t[k]) {
					bare = append(bare, struct{ key, val string }{k, tables.CellString(t[k])})
				}
				walk(p, t[k])
			}
		case []any:
			for i, item := range t {
				walk(prefix+"."+strconv.Itoa(i), item)
			}
		default:
			if prefix != "" {
				out[prefix] = tables.CellString(t)
			}
		}
	}
	walk("", v)
	for _, b := range bare {
		if _, taken := out[b.key]; !taken {
			out[b.key] = b.val
		}
	}
	return out
}

func isScalar(v any) bool {
	switch v.(type) {
	case map[string]any, []any:
		return false
	}
	return true
}

// EnrollmentTemplatePath returns the template file to use for lang, or ""
// when neither a per-language nor a shared template exists.
func EnrollmentTemplatePath(dir string, lang doctype.Language) string {
	if dir == "" {
		return ""
	}
	for _, p := range []string{
		filepath.Join(dir, "enrollment", lang.Code()+".docx"),
		filepath.Join(dir, "enrollment.docx"),
	} {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// BuiltinEnrollmentTemplate lays out the placeholder document used when no
// template file is installed.
func BuiltinEnrollmentTemplate(lang doctype.Language) *docx.Document {
	labels := enrollmentLabels[lang]
	doc := docx.New()
	doc.AddText(labels.Title, 18, true, docx.AlignCenter)
	doc.AddSpacer()

	t := docx.NewTable(len(enrollmentFields), 2)
	t.Widths = []int{3000, 6500}
	for i, field := range enrollmentFields {
		t.Cell(i, 0).SetText(labels.Fields[i], 11, true, docx.AlignDefault)
		t.Cell(i, 1).SetText("{{"+field+"}}", 11, false, docx.AlignDefault)
	}
	doc.AddTable(t)

	doc.AddSpacer()
	doc.AddText(labels.Footer, 11, false, docx.AlignCenter)
	doc.AddSpacer()
	doc.AddText("{{dateOfIssue}}", 12, false, docx.AlignCenter)
	doc.AddText("{{issuer}}", 14, true, docx.AlignCenter)
	return doc
}

// RenderEnrollment fills the enrollment template for lang with the
// flattened document.
func RenderEnrollment(v any, lang doctype.Language, templatesDir string) (*docx.Template, error) {
	data, err := tables.Normalize(v)
	if err != nil {
		return nil, fmt.Errorf("failed to read enrollment document: %w", err)
	}

	var tpl *docx.Template
	if path := EnrollmentTemplatePath(templatesDir, lang); path != "" {
		tpl, err = docx.OpenTemplate(path)
	} else {
		var raw []byte
		raw, err = BuiltinEnrollmentTemplate(lang).Bytes()
		if err == nil {
			tpl, err = docx.ReadTemplate(raw)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load enrollment template: %w", err)
	}

	values := Flatten(data)
	// Placeholders the document does not mention render empty.
	for _, key := range tpl.Placeholders() {
		if _, ok := values[key]; !ok {
			values[key] = ""
		}
	}
	if err := tpl.Fill(values); err != nil {
		return nil, err
	}
	return tpl, nil
}
