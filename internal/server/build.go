package server

import (
	"log/slog"

	"github.com/kdocs/docuflow/internal/assemble"
	"github.com/kdocs/docuflow/internal/config"
	"github.com/kdocs/docuflow/internal/home"
	"github.com/kdocs/docuflow/internal/imaging"
	"github.com/kdocs/docuflow/internal/metrics"
	"github.com/kdocs/docuflow/internal/pipeline"
	"github.com/kdocs/docuflow/internal/providers"
	"github.com/kdocs/docuflow/internal/structure"
	"github.com/kdocs/docuflow/internal/translate"
)

// Components are the externally backed pieces of a pipeline. Nil fields
// are built from config.
type Components struct {
	LLM providers.LLMClient
	OCR providers.OCRProvider
}

// BuildPipeline wires a pipeline from configuration. An OCR provider is only
// built when an invoke URL is configured. Calls are recorded in rec when it
// is non-nil.
func BuildPipeline(cfg *config.Config, h *home.Dir, c Components, rec *metrics.Recorder, logger *slog.Logger) *pipeline.Pipeline {
	if logger == nil {
		logger = slog.Default()
	}

	llm := c.LLM
	if llm == nil {
		llm = providers.NewOpenAIClient(providers.OpenAIConfig{
			APIKey:  cfg.LLMAPIKey(),
			Model:   cfg.LLM.Model,
			Timeout: config.Seconds(cfg.LLM.TimeoutSeconds),
			BaseURL: cfg.LLM.BaseURL,
		})
	}

	ocrProvider := c.OCR
	if ocrProvider == nil {
		if url := cfg.OCRInvokeURL(); url != "" {
			ocrProvider = providers.NewClovaOCRClient(providers.ClovaOCRConfig{
				InvokeURL: url,
				Secret:    cfg.OCRSecret(),
				Timeout:   config.Seconds(cfg.OCR.TimeoutSeconds),
			})
		} else {
			logger.Warn("ocr.invoke_url is not set; registry documents cannot be processed")
		}
	}

	fetcher := imaging.NewFetcher(imaging.FetcherConfig{
		Timeout:  config.Seconds(cfg.Download.TimeoutSeconds),
		S3Region: cfg.S3.Region,
		Logger:   logger,
	})

	initial, maxDelay := cfg.Translate.Delays()
	return pipeline.New(pipeline.Config{
		Normalizer: imaging.NewNormalizer(fetcher, uint8(cfg.Image.Threshold), logger),
		OCR:        metrics.InstrumentOCR(ocrProvider, rec),
		Structurer: structure.New(structure.Config{
			LLM:    metrics.InstrumentLLM(llm, rec, metrics.StageStructure),
			Model:  cfg.LLM.Model,
			Logger: logger,
		}),
		Translator: translate.New(translate.Config{
			LLM:           metrics.InstrumentLLM(llm, rec, metrics.StageTranslate),
			Model:         cfg.TranslationModel(),
			MaxBatchChars: cfg.Translate.MaxBatchChars,
			MaxAttempts:   uint(cfg.Translate.MaxAttempts),
			InitialDelay:  initial,
			MaxDelay:      maxDelay,
			Logger:        logger,
		}),
		Assembler: assemble.New(assemble.Config{
			TemplatesDir: h.TemplatesPath(),
			Logger:       logger,
		}),
		OutputsDir:   h.OutputsPath(),
		GeneratedDir: h.GeneratedPath(),
		KeepSessions: cfg.Storage.KeepSessions,
		Logger:       logger,
	})
}

// StorageHome returns h bound to the configured storage directories.
func StorageHome(h *home.Dir, cfg *config.Config) *home.Dir {
	return h.WithStorage(cfg.Storage.OutputsDir, cfg.Storage.GeneratedDir, cfg.Storage.TemplatesDir)
}
