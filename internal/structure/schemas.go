package structure

import (
	"embed"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/kdocs/docuflow/internal/doctype"
	"github.com/kdocs/docuflow/internal/providers"
)

//go:embed schemas/*.json
var schemaFS embed.FS

var (
	schemaMu sync.Mutex
	compiled = map[doctype.Type]*jsonschema.Schema{}
)

// SchemaJSON returns the raw JSON schema for a document type.
func SchemaJSON(t doctype.Type) ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("%w: %s", doctype.ErrUnsupported, t)
	}
	filename := fmt.Sprintf("schemas/%s.json", t.Slug())
	content, err := schemaFS.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema %s: %w", filename, err)
	}
	return content, nil
}

// Schema returns the compiled schema for a document type. Compiled schemas
// are cached for the life of the process.
func Schema(t doctype.Type) (*jsonschema.Schema, error) {
	schemaMu.Lock()
	defer schemaMu.Unlock()

	if s, ok := compiled[t]; ok {
		return s, nil
	}
	raw, err := SchemaJSON(t)
	if err != nil {
		return nil, err
	}
	s, err := providers.CompileSchema(t.Slug()+".json", raw)
	if err != nil {
		return nil, err
	}
	compiled[t] = s
	return s, nil
}
