// Package output renders listings either as indexed record blocks on
// stdout or as a CSV file.
package output

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
)

// ErrNoFilename means csv output was requested without --filename.
var ErrNoFilename = errors.New("csv output requires a filename")

// ErrFileExists means the target file would be overwritten.
var ErrFileExists = errors.New("output file already exists")

// Renderable is anything that can be shown as a record block or a CSV
// row.
type Renderable interface {
	fmt.Stringer
	CSVHeader() []string
	CSVRecord() []string
}

// WriteRecords prints items as indexed blocks.
func WriteRecords(w io.Writer, items []Renderable) {
	for i, item := range items {
		fmt.Fprintf(w, "---- [%d] ----\n%s\n\n", i, item)
	}
}

// WriteCSV writes items to a new file at path, refusing to overwrite.
func WriteCSV(path string, items []Renderable) error {
	if path == "" {
		return ErrNoFilename
	}
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%w: %s", ErrFileExists, path)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	for i, item := range items {
		if i == 0 {
			if err := w.Write(item.CSVHeader()); err != nil {
				return err
			}
		}
		if err := w.Write(item.CSVRecord()); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// Handle dispatches on the --output flag value.
func Handle(outputType, filename string, items []Renderable) error {
	switch outputType {
	case "csv":
		return WriteCSV(filename, items)
	case "record", "":
		WriteRecords(os.Stdout, items)
		return nil
	}
	return fmt.Errorf("unknown output type %q (expected record or csv)", outputType)
}
