package tables

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	envelopeKeys = []string{"data", "payload", "result"}
	listKeys     = []string{"items", "results", "list"}

	// concatKeys are list fields that accumulate across pages instead of
	// taking the first non-empty value.
	concatKeys = map[string]bool{
		"tables":        true,
		"remarks":       true,
		"familyMembers": true,
	}
)

// Legacy section field orders. The leading ceil(n/2) fields identify a row.
var (
	PartOfTitleFields = []string{"descriptionNo", "acceptance", "location", "buildingDetails", "causeOfRegistrationAndOtherInformation"}
	OwnerFields       = []string{"registeredOwner", "registrationNumber", "finalShare", "ownerAddress", "priorityNumber"}
)

var legacySections = []struct {
	key    string
	fields []string
}{
	{"partOfTitle", PartOfTitleFields},
	{"owner", OwnerFields},
}

// Normalize unwraps {data|payload|result} envelopes, takes {items|results|list}
// payloads as pages, and merges a list of pages into one object.
func Normalize(v any) (map[string]any, error) {
	for depth := 0; depth < 8; depth++ {
		switch t := v.(type) {
		case map[string]any:
			if inner, ok := unwrap(t); ok {
				v = inner
				continue
			}
			return t, nil
		case []any:
			return MergePages(t)
		default:
			return nil, ErrNotObject
		}
	}
	return nil, ErrNotObject
}

func unwrap(m map[string]any) (any, bool) {
	for _, k := range envelopeKeys {
		if inner, ok := m[k].(map[string]any); ok {
			return inner, true
		}
	}
	for _, k := range listKeys {
		if inner, ok := m[k].([]any); ok && len(inner) > 0 {
			return inner, true
		}
	}
	return nil, false
}

// MergePages folds per-page objects into one document. Scalars and objects
// take the first non-empty value, concatKeys lists are appended in page
// order, and legacy sections are coerced into tables first.
func MergePages(pages []any) (map[string]any, error) {
	var objs []map[string]any
	for _, p := range pages {
		m, err := Normalize(p)
		if err != nil {
			continue
		}
		objs = append(objs, CoerceLegacy(m))
	}
	if len(objs) == 0 {
		return nil, ErrNotObject
	}
	if len(objs) == 1 {
		return objs[0], nil
	}

	out := map[string]any{}
	for _, page := range objs {
		for k, v := range page {
			if concatKeys[k] {
				if items, ok := v.([]any); ok {
					existing, _ := out[k].([]any)
					out[k] = append(existing, items...)
				}
				continue
			}
			if isEmpty(out[k]) && !isEmpty(v) {
				out[k] = v
			}
		}
	}
	return out, nil
}

func isEmpty(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	case []any:
		return len(t) == 0
	case map[string]any:
		return len(t) == 0
	default:
		return false
	}
}

// CoerceLegacy rewrites the older partOfTitle/owner sections into entries
// of "tables", placed ahead of any existing tables. The input is not modified.
func CoerceLegacy(doc map[string]any) map[string]any {
	var legacy []any
	for _, s := range legacySections {
		sec, ok := doc[s.key].(map[string]any)
		if !ok {
			continue
		}
		legacy = append(legacy, TableFromValue(sec, s.fields).Value())
	}
	if legacy == nil {
		return doc
	}

	out := make(map[string]any, len(doc))
	for k, v := range doc {
		if k == "partOfTitle" || k == "owner" {
			if _, ok := v.(map[string]any); ok {
				continue
			}
		}
		out[k] = v
	}
	existing, _ := doc["tables"].([]any)
	out["tables"] = append(legacy, existing...)
	return out
}

var (
	openerSpace = regexp.MustCompile(`([【(\[「〔])\s+`)
	closerSpace = regexp.MustCompile(`\s+([】)\]」〕])`)
	bracketJoin = regexp.MustCompile(`([】」〕])\s+([(\[])`)
)

func hangulSingle(s string) bool {
	r, n := utf8.DecodeRuneInString(s)
	return n > 0 && n == len(s) && unicode.Is(unicode.Hangul, r)
}

// NormalizeHeader collapses spaced-out Hangul titles ("표 제 부" to "표제부")
// and tidies spacing inside and between brackets.
func NormalizeHeader(h string) string {
	tokens := strings.Fields(h)
	if len(tokens) == 0 {
		return ""
	}

	var merged []string
	for i := 0; i < len(tokens); i++ {
		if !hangulSingle(tokens[i]) {
			merged = append(merged, tokens[i])
			continue
		}
		j := i
		var b strings.Builder
		for j < len(tokens) && hangulSingle(tokens[j]) {
			b.WriteString(tokens[j])
			j++
		}
		merged = append(merged, b.String())
		i = j - 1
	}

	out := strings.Join(merged, " ")
	out = openerSpace.ReplaceAllString(out, "$1")
	out = closerSpace.ReplaceAllString(out, "$1")
	out = bracketJoin.ReplaceAllString(out, "$1$2")
	return out
}
