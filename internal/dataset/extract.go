package dataset

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"moodscope/internal/logging"
	"moodscope/internal/textnorm"
)

// Schema declares which record fields carry text and labels. The declared
// mapping is the primary contract; name-based guessing is only a fallback
// for datasets without a schema block.
type Schema struct {
	// TextField is the JSON field or CSV column holding the text.
	TextField string

	// EmotionsField is the JSON field holding a list of emotion strings.
	EmotionsField string

	// LabelColumns lists CSV columns carrying one boolean-like value per
	// emotion. Empty means "columns named after vocabulary entries".
	LabelColumns []string
}

// textFieldGuesses are tried in order when no text field is declared.
var textFieldGuesses = []string{"text", "post", "content"}

// ExtractOptions bundles the knobs for Extract and Load.
type ExtractOptions struct {
	Schema        Schema
	MinTextLength int
}

// Load reads a dataset file (JSON array or CSV, decided by extension) and
// extracts it against the vocabulary.
func Load(path string, vocab *Vocabulary, opts ExtractOptions) (*Dataset, error) {
	timer := logging.StartTimer(logging.CategoryDataset, fmt.Sprintf("Load(%s)", filepath.Base(path)))
	defer timer.Stop()

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset %s: %w", path, err)
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return extractJSON(f, vocab, opts)
	case ".csv":
		return extractCSV(f, vocab, opts)
	default:
		return nil, &DataError{Reason: fmt.Sprintf("unsupported dataset format %q (use .json or .csv)", filepath.Ext(path))}
	}
}

// extractJSON handles records shaped like the DepressionEmo dumps: an array
// of objects with a text field and an emotions list. A single object is
// accepted as a one-element array.
func extractJSON(r io.Reader, vocab *Vocabulary, opts ExtractOptions) (*Dataset, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read dataset: %w", err)
	}

	var records []map[string]any
	if err := json.Unmarshal(data, &records); err != nil {
		var single map[string]any
		if err2 := json.Unmarshal(data, &single); err2 != nil {
			return nil, &DataError{Reason: fmt.Sprintf("invalid JSON dataset: %v", err)}
		}
		records = []map[string]any{single}
	}

	ds := &Dataset{Vocabulary: vocab}
	dropped := 0
	outside := make(map[string]int)

	for _, rec := range records {
		text, ok := jsonText(rec, opts.Schema)
		if !ok || tooShort(text, opts.MinTextLength) {
			dropped++
			continue
		}

		var labels []string
		emotionsField := opts.Schema.EmotionsField
		if emotionsField == "" {
			emotionsField = "emotions"
		}
		if raw, ok := rec[emotionsField].([]any); ok {
			for _, item := range raw {
				name, ok := item.(string)
				if !ok {
					continue
				}
				canon := vocab.Normalize(name)
				if _, known := vocab.Index(canon); known {
					labels = append(labels, canon)
				} else {
					outside[canon]++
				}
			}
		}

		id, _ := rec["id"].(string)
		ds.Examples = append(ds.Examples, Example{
			ID:     id,
			Text:   textnorm.Clean(text),
			Labels: labels,
		})
	}

	logExtraction(ds, dropped, outside)
	return ds, nil
}

// jsonText pulls the text field from a JSON record, trying the declared
// field first and the documented guesses only as fallback.
func jsonText(rec map[string]any, schema Schema) (string, bool) {
	if schema.TextField != "" {
		s, ok := rec[schema.TextField].(string)
		return s, ok && s != ""
	}
	for _, field := range textFieldGuesses {
		if s, ok := rec[field].(string); ok && s != "" {
			return s, true
		}
	}
	return "", false
}

// extractCSV handles per-emotion column layouts: one text column plus one
// boolean-like column per emotion.
func extractCSV(r io.Reader, vocab *Vocabulary, opts ExtractOptions) (*Dataset, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, &DataError{Reason: fmt.Sprintf("failed to read CSV header: %v", err)}
	}

	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.ToLower(strings.TrimSpace(name))] = i
	}

	textIdx, err := csvTextColumn(col, opts.Schema)
	if err != nil {
		return nil, err
	}

	// Resolve label columns: declared list, or vocabulary-named columns.
	labelCols := make(map[int]string) // column index -> canonical label
	names := opts.Schema.LabelColumns
	if len(names) == 0 {
		names = vocab.Names()
	}
	for _, name := range names {
		canon := vocab.Normalize(name)
		if _, known := vocab.Index(canon); !known {
			continue
		}
		if i, ok := col[strings.ToLower(name)]; ok {
			labelCols[i] = canon
		} else if i, ok := col[canon]; ok {
			labelCols[i] = canon
		}
	}

	idIdx := -1
	if i, ok := col["id"]; ok {
		idIdx = i
	}

	ds := &Dataset{Vocabulary: vocab}
	dropped := 0

	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &DataError{Reason: fmt.Sprintf("failed to read CSV row: %v", err)}
		}
		if textIdx >= len(row) {
			dropped++
			continue
		}

		text := row[textIdx]
		if tooShort(text, opts.MinTextLength) {
			dropped++
			continue
		}

		var labels []string
		for i, canon := range labelCols {
			if i < len(row) && truthy(row[i]) {
				labels = append(labels, canon)
			}
		}

		id := ""
		if idIdx >= 0 && idIdx < len(row) {
			id = row[idIdx]
		}

		ds.Examples = append(ds.Examples, Example{
			ID:     id,
			Text:   textnorm.Clean(text),
			Labels: labels,
		})
	}

	logExtraction(ds, dropped, nil)
	return ds, nil
}

// csvTextColumn resolves the text column, declared schema first.
func csvTextColumn(col map[string]int, schema Schema) (int, error) {
	if schema.TextField != "" {
		if i, ok := col[strings.ToLower(schema.TextField)]; ok {
			return i, nil
		}
		return 0, &DataError{Reason: fmt.Sprintf("declared text column %q not found in CSV header", schema.TextField)}
	}
	for _, guess := range textFieldGuesses {
		if i, ok := col[guess]; ok {
			return i, nil
		}
	}
	return 0, &DataError{Reason: "no text column found (tried text, post, content)"}
}

// truthy interprets CSV cell values marking label presence.
func truthy(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "t", "yes", "y":
		return true
	case "", "0", "false", "f", "no", "n":
		return false
	}
	if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
		return f > 0
	}
	return false
}

func tooShort(text string, min int) bool {
	if min <= 0 {
		min = 10
	}
	return len([]rune(strings.TrimSpace(text))) < min
}

func logExtraction(ds *Dataset, dropped int, outside map[string]int) {
	logging.Dataset("extracted %d examples (%d dropped for short text)", len(ds.Examples), dropped)
	for name, count := range outside {
		logging.DatasetDebug("emotion %q outside vocabulary: %d occurrences kept as negatives", name, count)
	}
}
