package batch

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"labelclean/internal/config"
	"labelclean/internal/engine"
	"labelclean/internal/product"
)

// Category directories under the output directory, one per routed status.
const (
	dirCleaned     = "cleaned"
	dirNeedsReview = "needs_review"
	dirIncomplete  = "incomplete"
)

// Record is one routed output record: the cleaned product plus the
// validation evidence that routed it.
type Record struct {
	SourceFile    string                    `json:"source_file"`
	Status        product.Status            `json:"status"`
	MissingFields []string                  `json:"missing_fields,omitempty"`
	Validation    product.ValidationDetails `json:"validation"`
	Product       *product.Cleaned          `json:"product"`
}

// writer routes batch results into category directories, one output file per
// batch per category.
type writer struct {
	outputDir string
	format    config.OutputFormat
}

func categoryDir(status product.Status) string {
	switch status {
	case product.StatusNeedsReview:
		return dirNeedsReview
	case product.StatusIncomplete:
		return dirIncomplete
	default:
		return dirCleaned
	}
}

// writeBatch splits the batch's product results by status and writes each
// category's records into its directory.
func (w *writer) writeBatch(batchIndex int, outcomes []engine.FileOutcome) error {
	byCategory := map[string][]Record{}
	for _, outcome := range outcomes {
		for _, res := range outcome.Results {
			dir := categoryDir(res.Status)
			byCategory[dir] = append(byCategory[dir], Record{
				SourceFile:    filepath.Base(outcome.File),
				Status:        res.Status,
				MissingFields: res.Missing,
				Validation:    res.Details,
				Product:       res.Cleaned,
			})
		}
	}

	for dir, records := range byCategory {
		if err := w.writeCategory(batchIndex, dir, records); err != nil {
			return err
		}
	}
	return nil
}

func (w *writer) writeCategory(batchIndex int, dir string, records []Record) error {
	target := filepath.Join(w.outputDir, dir)
	if err := os.MkdirAll(target, 0o755); err != nil {
		return fmt.Errorf("create category directory %q: %w", target, err)
	}

	ext := ".json"
	if w.format.MultilineRecords {
		ext = ".jsonl"
	}
	path := filepath.Join(target, fmt.Sprintf("batch_%04d%s", batchIndex+1, ext))

	var data []byte
	if w.format.MultilineRecords {
		for _, record := range records {
			line, err := json.Marshal(record)
			if err != nil {
				return fmt.Errorf("encode record: %w", err)
			}
			data = append(data, line...)
			data = append(data, '\n')
		}
	} else {
		var err error
		if w.format.PrettyPrint {
			data, err = json.MarshalIndent(records, "", "  ")
		} else {
			data, err = json.Marshal(records)
		}
		if err != nil {
			return fmt.Errorf("encode records: %w", err)
		}
		data = append(data, '\n')
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
