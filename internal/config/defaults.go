package config

import (
	"sort"
)

// Entry is a single configuration key with its default value.
type Entry struct {
	Key         string `json:"key" yaml:"key"`
	Value       any    `json:"value" yaml:"value"`
	Description string `json:"description" yaml:"description"`
}

// DefaultEntries returns every configuration key with its default value.
// The Manager registers these with viper so env overrides apply to all keys.
func DefaultEntries() []Entry {
	d := DefaultConfig()
	return []Entry{
		// ===================
		// Server
		// ===================
		{Key: "server.host", Value: d.Server.Host, Description: "HTTP listen host"},
		{Key: "server.port", Value: d.Server.Port, Description: "HTTP listen port"},

		// ===================
		// OCR
		// ===================
		{Key: "ocr.invoke_url", Value: d.OCR.InvokeURL, Description: "CLOVA OCR invoke URL (uses environment variable)"},
		{Key: "ocr.secret", Value: d.OCR.Secret, Description: "CLOVA OCR shared secret (uses environment variable)"},
		{Key: "ocr.timeout_seconds", Value: d.OCR.TimeoutSeconds, Description: "HTTP timeout in seconds for OCR requests"},

		// ===================
		// LLM
		// ===================
		{Key: "llm.api_key", Value: d.LLM.APIKey, Description: "OpenAI API key (uses environment variable)"},
		{Key: "llm.base_url", Value: d.LLM.BaseURL, Description: "Override for the chat completions base URL"},
		{Key: "llm.model", Value: d.LLM.Model, Description: "Model used for structuring"},
		{Key: "llm.translate_model", Value: d.LLM.TranslateModel, Description: "Model used for translation (empty uses llm.model)"},
		{Key: "llm.timeout_seconds", Value: d.LLM.TimeoutSeconds, Description: "HTTP timeout in seconds for LLM requests (0 = none)"},

		// ===================
		// Translation
		// ===================
		{Key: "translate.max_batch_chars", Value: d.Translate.MaxBatchChars, Description: "Character budget per translation batch"},
		{Key: "translate.max_attempts", Value: d.Translate.MaxAttempts, Description: "Attempts per translation call"},
		{Key: "translate.initial_delay", Value: d.Translate.InitialDelay, Description: "First retry delay"},
		{Key: "translate.max_delay", Value: d.Translate.MaxDelay, Description: "Retry delay cap"},

		// ===================
		// Storage
		// ===================
		{Key: "storage.outputs_dir", Value: d.Storage.OutputsDir, Description: "Session JSON artifacts (empty = {home}/outputs)"},
		{Key: "storage.generated_dir", Value: d.Storage.GeneratedDir, Description: "Generated documents (empty = {home}/generated)"},
		{Key: "storage.templates_dir", Value: d.Storage.TemplatesDir, Description: "Document templates (empty = {home}/templates)"},
		{Key: "storage.keep_sessions", Value: d.Storage.KeepSessions, Description: "Keep session directories after responding"},

		// ===================
		// Inputs
		// ===================
		{Key: "download.timeout_seconds", Value: d.Download.TimeoutSeconds, Description: "HTTP timeout in seconds for image downloads"},
		{Key: "s3.region", Value: d.S3.Region, Description: "AWS region for s3:// references (empty uses the SDK default chain)"},
		{Key: "image.threshold", Value: d.Image.Threshold, Description: "Binarization threshold (0-255)"},

		{Key: "log.level", Value: d.Log.Level, Description: "Log level: debug, info, warn, error"},
	}
}

// GetDefault returns the default entry for a key, or nil.
func GetDefault(key string) *Entry {
	for _, entry := range DefaultEntries() {
		if entry.Key == key {
			return &entry
		}
	}
	return nil
}

// Keys returns all known keys sorted.
func Keys() []string {
	entries := DefaultEntries()
	keys := make([]string, 0, len(entries))
	for _, e := range entries {
		keys = append(keys, e.Key)
	}
	sort.Strings(keys)
	return keys
}
