// Package doctype defines the closed sets of document types and output
// languages the service understands.
package doctype

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnsupported is returned for document type tags outside the known set.
var ErrUnsupported = errors.New("unsupported document type")

// Type identifies a supported civil document.
type Type string

const (
	// Registry is a real-estate registry extract. It is the only type that goes through OCR.
	Registry Type = "부동산등기부등본"
	// FamilyRelationship is a family-relationship certificate.
	FamilyRelationship Type = "가족관계증명서"
	// Enrollment is a school enrollment certificate.
	Enrollment Type = "재학증명서"
)

var typeAliases = map[string]Type{
	string(Registry):           Registry,
	"registry":                 Registry,
	"building_registry":        Registry,
	string(FamilyRelationship): FamilyRelationship,
	"family_relationship":      FamilyRelationship,
	"family":                   FamilyRelationship,
	string(Enrollment):         Enrollment,
	"enrollment_certificate":   Enrollment,
	"enrollment":               Enrollment,
}

// ParseType resolves a request tag to a Type.
func ParseType(tag string) (Type, error) {
	key := strings.ToLower(strings.TrimSpace(tag))
	if t, ok := typeAliases[key]; ok {
		return t, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupported, tag)
}

// Valid reports whether t is one of the known types.
func (t Type) Valid() bool {
	switch t {
	case Registry, FamilyRelationship, Enrollment:
		return true
	}
	return false
}

// NeedsOCR reports whether the type is structured from OCR geometry rather than raw images.
func (t Type) NeedsOCR() bool {
	return t == Registry
}

// Slug is an ASCII name used for file and template paths.
func (t Type) Slug() string {
	switch t {
	case Registry:
		return "registry"
	case FamilyRelationship:
		return "family"
	case Enrollment:
		return "enrollment"
	default:
		return "unknown"
	}
}

// Language is a rendering/translation target. English is the fallback.
type Language int

const (
	English Language = iota
	Japanese
	Chinese
	Vietnamese

	// LanguageCount sizes per-language lookup tables.
	LanguageCount
)

var languageAliases = map[string]Language{
	"영어":         English,
	"english":    English,
	"en":         English,
	"일본어":        Japanese,
	"japanese":   Japanese,
	"ja":         Japanese,
	"중국어":        Chinese,
	"chinese":    Chinese,
	"zh":         Chinese,
	"베트남어":       Vietnamese,
	"vietnamese": Vietnamese,
	"vi":         Vietnamese,
}

// ParseLanguage maps a request tag to a Language. Unknown tags fall back to English.
func ParseLanguage(tag string) Language {
	if l, ok := languageAliases[strings.ToLower(strings.TrimSpace(tag))]; ok {
		return l
	}
	return English
}

// String returns the English language name, which is also what the LLM is asked to translate into.
func (l Language) String() string {
	switch l {
	case Japanese:
		return "Japanese"
	case Chinese:
		return "Chinese"
	case Vietnamese:
		return "Vietnamese"
	default:
		return "English"
	}
}

// Code returns the ISO 639-1 code.
func (l Language) Code() string {
	switch l {
	case Japanese:
		return "ja"
	case Chinese:
		return "zh"
	case Vietnamese:
		return "vi"
	default:
		return "en"
	}
}
