// Package ocr models the table-aware OCR vendor payload and reduces it to the
// compact per-cell summary that is sent to the structuring model.
package ocr

import "encoding/json"

// Response is the vendor's top-level reply for one request.
type Response struct {
	Version   string  `json:"version"`
	RequestID string  `json:"requestId"`
	Timestamp int64   `json:"timestamp"`
	Images    []Image `json:"images"`
}

// Image is the inference result for one submitted image.
type Image struct {
	UID                string              `json:"uid"`
	Name               string              `json:"name"`
	InferResult        string              `json:"inferResult"`
	Message            string              `json:"message"`
	ConvertedImageInfo *ConvertedImageInfo `json:"convertedImageInfo,omitempty"`
	Tables             []Table             `json:"tables"`
	Fields             []Field             `json:"fields"`
	Lines              []Field             `json:"lines"`
}

// ConvertedImageInfo describes the page the vendor rasterized.
type ConvertedImageInfo struct {
	Width     int  `json:"width"`
	Height    int  `json:"height"`
	PageIndex *int `json:"pageIndex,omitempty"`
}

// Table is a detected table; cells carry their own grid coordinates.
type Table struct {
	Cells           []Cell  `json:"cells"`
	InferConfidence float64 `json:"inferConfidence"`
}

// Cell is one table cell. Zero spans mean the vendor omitted them and are read as 1.
type Cell struct {
	RowIndex      int        `json:"rowIndex"`
	ColumnIndex   int        `json:"columnIndex"`
	RowSpan       int        `json:"rowSpan"`
	ColumnSpan    int        `json:"columnSpan"`
	CellTextLines []TextLine `json:"cellTextLines"`
	CellWords     []Word     `json:"cellWords"`
}

// TextLine is one visual line inside a cell. Text is nil when the vendor sent
// only word tokens; an empty string is still a line.
type TextLine struct {
	Text      *string `json:"text,omitempty"`
	CellWords []Word  `json:"cellWords"`
}

// Word is a single recognized token.
type Word struct {
	InferText       string  `json:"inferText"`
	InferConfidence float64 `json:"inferConfidence"`
}

// Field is free text found outside tables.
type Field struct {
	Name      string `json:"name"`
	InferText string `json:"inferText"`
}

// Entry is one processed page as persisted by the pipeline: the source
// reference, the binarized image, and the OCR reply.
type Entry struct {
	OriginalImage string          `json:"original_image"`
	BinaryImage   string          `json:"binary_image"`
	OCRJSONFile   string          `json:"ocr_json_file,omitempty"`
	OCRResult     json.RawMessage `json:"ocr_result,omitempty"`
}

// Parse decodes a raw vendor reply.
func Parse(raw []byte) (*Response, error) {
	var resp Response
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
