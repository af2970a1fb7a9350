package internal

import (
	"encoding/csv"
	"fmt"
	"os"
	"sort"
)

// MatchType tells whether the keyword hit the file name or the
// extracted contents.
type MatchType string

const (
	MatchFilename MatchType = "Filename"
	MatchContent  MatchType = "Content"
)

// MatchRecord is one row of the final report. Never mutated after
// creation; a file produces at most one record per match type.
type MatchRecord struct {
	FullPath     string
	FileName     string
	Extension    string
	MatchType    MatchType
	Sample       string
	LastModified string
}

var reportHeader = []string{"FullPath", "FileName", "Extension", "MatchType", "Sample", "LastModified"}

// WriteReport sorts records by path and match type, then overwrites
// path with the full CSV report. Repeat runs over an unchanged tree
// produce byte-identical output. This is the only fatal error of a
// run.
func WriteReport(path string, records []MatchRecord) error {
	sort.Slice(records, func(i, j int) bool {
		if records[i].FullPath != records[j].FullPath {
			return records[i].FullPath < records[j].FullPath
		}
		return records[i].MatchType < records[j].MatchType
	})

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report %s: %w", path, err)
	}
	w := csv.NewWriter(f)
	if err := w.Write(reportHeader); err != nil {
		_ = f.Close()
		return fmt.Errorf("write report header: %w", err)
	}
	for _, r := range records {
		row := []string{r.FullPath, r.FileName, r.Extension, string(r.MatchType), r.Sample, r.LastModified}
		if err := w.Write(row); err != nil {
			_ = f.Close()
			return fmt.Errorf("write report row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		_ = f.Close()
		return fmt.Errorf("flush report: %w", err)
	}
	return f.Close()
}
