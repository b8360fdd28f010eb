// Package transfer reads and writes the JSON files users import and export collections with.
package transfer

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/examprep/examprep/internal/validation"
)

var (
	ErrInvalidJSON     = errors.New("invalid JSON file or file is corrupted")
	ErrNotASequence    = errors.New("imported file is not a list of items")
	ErrNoValidItems    = errors.New("no valid items found in the imported file")
	ErrNothingToExport = errors.New("there is no data to export")
)

// Summary counts the items of an import file.
type Summary struct {
	Total    int `json:"total"`
	Valid    int `json:"valid"`
	Rejected int `json:"rejected"`
	// Imported is set by the collection that merged the valid items.
	Imported int `json:"imported"`
}

var itemValidator *validation.Validator

func init() {
	v, err := validation.New("json", "")
	if err != nil {
		panic(fmt.Sprintf("validation.New() > %v", err))
	}
	itemValidator = v
}

// DecodeItems parses a JSON array and keeps the items that decode into T and pass T's validate tags.
// Rejected items are skipped; only a file that is not an array, or an array whose items are all
// rejected, fails the whole import.
func DecodeItems[T any](r io.Reader) ([]T, Summary, error) {
	var document any
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, Summary{}, fmt.Errorf("io.ReadAll() > %w", err)
	}
	if err := json.Unmarshal(data, &document); err != nil {
		return nil, Summary{}, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}
	if _, ok := document.([]any); !ok {
		return nil, Summary{}, ErrNotASequence
	}

	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, Summary{}, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}

	summary := Summary{Total: len(raws)}
	items := make([]T, 0, len(raws))
	for i, raw := range raws {
		var item T
		if err := json.Unmarshal(raw, &item); err != nil {
			slog.Default().Debug("rejected imported item", "index", i, "error", err)
			summary.Rejected++
			continue
		}
		if err := itemValidator.Struct(item); err != nil {
			slog.Default().Debug("rejected imported item", "index", i, "error", err)
			summary.Rejected++
			continue
		}
		items = append(items, item)
	}
	summary.Valid = len(items)

	if summary.Valid == 0 && summary.Total > 0 {
		return nil, summary, ErrNoValidItems
	}
	return items, summary, nil
}

// ReadFile decodes the items of an import file.
func ReadFile[T any](path string) ([]T, Summary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, Summary{}, fmt.Errorf("os.Open(%s) > %w", path, err)
	}
	defer func() {
		_ = f.Close()
	}()
	return DecodeItems[T](f)
}

// Encode writes v as JSON indented by two spaces.
func Encode(w io.Writer, v any) error {
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetIndent("", "  ")
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(v); err != nil {
		return fmt.Errorf("encoder.Encode() > %w", err)
	}
	if _, err := w.Write(bytes.TrimSuffix(buf.Bytes(), []byte("\n"))); err != nil {
		return fmt.Errorf("w.Write() > %w", err)
	}
	return nil
}

// WriteFile exports items to dir/name. An empty collection is not exported.
func WriteFile[T any](dir, name string, items []T) (string, error) {
	if len(items) == 0 {
		return "", ErrNothingToExport
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("os.MkdirAll(%s) > %w", dir, err)
	}

	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("os.Create(%s) > %w", path, err)
	}
	if err := Encode(f, items); err != nil {
		_ = f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("f.Close() > %w", err)
	}
	return path, nil
}

const (
	InvalidJSONMessage     = "Error: Invalid JSON file or file is corrupted."
	NothingToExportMessage = "There is no data to export."
	ExportedMessage        = "Data exported successfully!"
	ExportFailedMessage    = "Error: Could not export data."
)

// Messages are the user-facing texts of one collection's import.
type Messages struct {
	NotASequence string
	NoValidItems string
	// Imported is a format with one %d verb for the number of imported items.
	Imported   string
	SaveFailed string
}

// ImportMessage describes the outcome of an import to the user.
func ImportMessage(m Messages, summary Summary, err error) string {
	switch {
	case err == nil:
		return fmt.Sprintf(m.Imported, summary.Imported)
	case errors.Is(err, ErrInvalidJSON):
		return InvalidJSONMessage
	case errors.Is(err, ErrNotASequence):
		return m.NotASequence
	case errors.Is(err, ErrNoValidItems):
		return m.NoValidItems
	}
	return m.SaveFailed
}

// ExportMessage describes the outcome of an export to the user.
func ExportMessage(err error) string {
	switch {
	case err == nil:
		return ExportedMessage
	case errors.Is(err, ErrNothingToExport):
		return NothingToExportMessage
	}
	return ExportFailedMessage
}
