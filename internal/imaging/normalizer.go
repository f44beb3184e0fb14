package imaging

import (
	"context"
	"fmt"
	"log/slog"
)

// Page is one input image and its binarized copy.
type Page struct {
	Original string `json:"original_image"`
	Binary   string `json:"binary_image"`
}

// Normalizer materializes an image reference and binarizes it.
type Normalizer struct {
	fetcher   *Fetcher
	threshold uint8
	logger    *slog.Logger
}

// NewNormalizer creates a Normalizer. A zero threshold uses DefaultThreshold.
func NewNormalizer(fetcher *Fetcher, threshold uint8, logger *slog.Logger) *Normalizer {
	if threshold == 0 {
		threshold = DefaultThreshold
	}
	if logger == nil {
		logger = slog.Default()
	}
	if fetcher == nil {
		fetcher = NewFetcher(FetcherConfig{Logger: logger})
	}
	return &Normalizer{fetcher: fetcher, threshold: threshold, logger: logger}
}

// Prepare fetches ref into dir and binarizes it. A PDF yields one page per
// embedded page image; any other reference yields a single page.
func (n *Normalizer) Prepare(ctx context.Context, ref, dir string) ([]Page, error) {
	local, err := n.fetcher.Fetch(ctx, ref, dir)
	if err != nil {
		return nil, err
	}

	sources := []string{local}
	if IsPDF(local) {
		if sources, err = ExtractPDFImages(local, dir); err != nil {
			return nil, err
		}
	}

	pages := make([]Page, 0, len(sources))
	for _, src := range sources {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		bin, err := Binarize(src, dir, n.threshold)
		if err != nil {
			return nil, fmt.Errorf("failed to binarize %s: %w", src, err)
		}
		n.logger.Debug("binarized image", "source", src, "binary", bin)
		pages = append(pages, Page{Original: src, Binary: bin})
	}
	return pages, nil
}
