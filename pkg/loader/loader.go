// Package loader parses the tab-separated rating export into fixed-width
// Records, reporting one error per malformed row instead of silently
// skipping it.
package loader

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"ratingdb/pkg/storage"
)

const expectedColumns = 3

// LoadTSV reads tconst/averageRating/numVotes rows from r, assigning each
// successfully parsed row a sequential record id starting at 1. A header
// row beginning with "tconst\t" is skipped if present. Malformed rows are
// reported individually and do not stop the scan.
func LoadTSV(r io.Reader) ([]storage.Record, []error) {
	scanner := bufio.NewScanner(r)
	var records []storage.Record
	var errs []error

	lineNo := 0
	first := true
	var nextID uint32 = 1

	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		if first {
			first = false
			if strings.HasPrefix(line, "tconst\t") {
				continue
			}
		}

		fields := strings.Split(line, "\t")
		if len(fields) < expectedColumns {
			errs = append(errs, fmt.Errorf("line %d: %w: expected %d columns, got %d",
				lineNo, storage.ErrMalformedInput, expectedColumns, len(fields)))
			continue
		}

		rating, err := strconv.ParseFloat(strings.TrimSpace(fields[1]), 32)
		if err != nil {
			errs = append(errs, fmt.Errorf("line %d: %w: averageRating: %v", lineNo, storage.ErrMalformedInput, err))
			continue
		}
		votes, err := strconv.ParseUint(strings.TrimSpace(fields[2]), 10, 32)
		if err != nil {
			errs = append(errs, fmt.Errorf("line %d: %w: numVotes: %v", lineNo, storage.ErrMalformedInput, err))
			continue
		}

		records = append(records, storage.NewRecord(nextID, strings.TrimSpace(fields[0]), float32(rating), uint32(votes)))
		nextID++
	}
	if err := scanner.Err(); err != nil {
		errs = append(errs, fmt.Errorf("line %d: %w", lineNo, err))
	}

	return records, errs
}
