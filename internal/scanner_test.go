package internal

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
)

func runScan(t *testing.T, cfg ScanConfig, ex *Extractor) []MatchRecord {
	t.Helper()
	cfg.Prepare()
	m, err := NewKeywordMatcher(cfg.Keywords)
	if err != nil {
		t.Fatal(err)
	}
	if ex == nil {
		ex = &Extractor{MaxSize: cfg.MaxFileSize}
	}
	var stats AppStats
	stats.Start()
	recs, err := NewCredScanner().Scan(context.Background(), cfg, m, ex, &stats)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	return recs
}

func recordsFor(recs []MatchRecord, name string) []MatchRecord {
	var out []MatchRecord
	for _, r := range recs {
		if r.FileName == name {
			out = append(out, r)
		}
	}
	return out
}

func TestScan_FilenameShortCircuitAndContent(t *testing.T) {
	dir := t.TempDir()
	// old_password.txt: name matches, content does too - only a Filename
	// record may come out of it.
	if err := os.WriteFile(filepath.Join(dir, "old_password.txt"), []byte("pwd=legacy\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("shopping list\nmy pwd is hunter2\n"), 0644); err != nil {
		t.Fatal(err)
	}

	recs := runScan(t, ScanConfig{
		Roots:       []string{dir},
		Output:      "r.csv",
		ScanContent: true,
		MaxFileSize: 1 << 20,
	}, nil)

	if len(recs) != 2 {
		t.Fatalf("expected 2 records, got %d: %+v", len(recs), recs)
	}

	old := recordsFor(recs, "old_password.txt")
	if len(old) != 1 || old[0].MatchType != MatchFilename {
		t.Fatalf("old_password.txt must yield exactly one Filename record: %+v", old)
	}
	if old[0].Sample != "" {
		t.Fatalf("filename records carry no sample: %+v", old[0])
	}

	notes := recordsFor(recs, "notes.txt")
	if len(notes) != 1 || notes[0].MatchType != MatchContent {
		t.Fatalf("notes.txt must yield exactly one Content record: %+v", notes)
	}
	if notes[0].Sample != "my pwd is hunter2" {
		t.Fatalf("unexpected sample: %q", notes[0].Sample)
	}
	if notes[0].Extension != ".txt" || notes[0].LastModified == "" {
		t.Fatalf("record metadata incomplete: %+v", notes[0])
	}
}

func TestScan_AllowListFiltersFiles(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "secret_password.bin"), []byte("pwd=x\n"), 0644); err != nil {
		t.Fatal(err)
	}

	recs := runScan(t, ScanConfig{
		Roots:       []string{dir},
		Output:      "r.csv",
		ScanContent: true,
	}, nil)
	if len(recs) != 0 {
		t.Fatalf("bin file must never appear in the report: %+v", recs)
	}
}

func TestScan_MaxSizeSkipsContentOnly(t *testing.T) {
	dir := t.TempDir()
	big := bytes.Repeat([]byte("my pwd is hunter2\n"), 100)
	// name does not match, content does, but the file is over the cap
	if err := os.WriteFile(filepath.Join(dir, "data.txt"), big, 0644); err != nil {
		t.Fatal(err)
	}
	// name matches and is over the cap: filename matching still applies
	if err := os.WriteFile(filepath.Join(dir, "passwords.txt"), big, 0644); err != nil {
		t.Fatal(err)
	}

	recs := runScan(t, ScanConfig{
		Roots:       []string{dir},
		Output:      "r.csv",
		ScanContent: true,
		MaxFileSize: 64,
	}, nil)

	if len(recordsFor(recs, "data.txt")) != 0 {
		t.Fatal("oversized file must not produce a Content record")
	}
	pw := recordsFor(recs, "passwords.txt")
	if len(pw) != 1 || pw[0].MatchType != MatchFilename {
		t.Fatalf("oversized file must stay eligible for filename matching: %+v", pw)
	}
}

func TestScan_ContentDisabled(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("my pwd is hunter2\n"), 0644); err != nil {
		t.Fatal(err)
	}

	recs := runScan(t, ScanConfig{
		Roots:       []string{dir},
		Output:      "r.csv",
		ScanContent: false,
		MaxFileSize: 1 << 20,
	}, nil)
	if len(recs) != 0 {
		t.Fatalf("content matching must be off without --scan-content: %+v", recs)
	}
}

func TestScan_PDFWithoutTool(t *testing.T) {
	dir := t.TempDir()
	// "embedded text" is irrelevant: without a tool no content comes out
	if err := os.WriteFile(filepath.Join(dir, "report.pdf"), []byte("%PDF account: admin"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "passwords.pdf"), []byte("%PDF junk"), 0644); err != nil {
		t.Fatal(err)
	}

	recs := runScan(t, ScanConfig{
		Roots:       []string{dir},
		Output:      "r.csv",
		ScanContent: true,
		MaxFileSize: 1 << 20,
	}, &Extractor{MaxSize: 1 << 20}) // PDFTool empty on purpose

	if len(recordsFor(recs, "report.pdf")) != 0 {
		t.Fatal("pdf without tool must yield zero records")
	}
	pw := recordsFor(recs, "passwords.pdf")
	if len(pw) != 1 || pw[0].MatchType != MatchFilename {
		t.Fatalf("pdf without tool must still match by name: %+v", pw)
	}
}

func TestScan_IdempotentReport(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "old_password.txt"), []byte("x\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("my pwd is hunter2\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "creds_backup.csv"), []byte("a,b\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg := ScanConfig{
		Roots:       []string{dir},
		Output:      "r.csv",
		ScanContent: true,
		MaxFileSize: 1 << 20,
		Threads:     4, // parallel workers must not change the report
	}

	// reports go outside the scanned tree so the second run sees the
	// exact same files
	outDir := t.TempDir()
	out1 := filepath.Join(outDir, "run1.csv")
	out2 := filepath.Join(outDir, "run2.csv")
	if err := WriteReport(out1, runScan(t, cfg, nil)); err != nil {
		t.Fatal(err)
	}
	if err := WriteReport(out2, runScan(t, cfg, nil)); err != nil {
		t.Fatal(err)
	}

	b1, err := os.ReadFile(out1)
	if err != nil {
		t.Fatal(err)
	}
	b2, err := os.ReadFile(out2)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(b1, b2) {
		t.Fatalf("reports differ between runs:\n%s\n---\n%s", b1, b2)
	}
}

func TestScan_UnreadableDirSkipped(t *testing.T) {
	if os.Getuid() == 0 {
		t.Skip("permission checks do not apply to root")
	}
	dir := t.TempDir()
	locked := filepath.Join(dir, "locked")
	if err := os.MkdirAll(locked, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(locked, "hidden_password.txt"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "visible_password.txt"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.Chmod(locked, 0000); err != nil {
		t.Fatal(err)
	}
	defer os.Chmod(locked, 0755)

	recs := runScan(t, ScanConfig{
		Roots:  []string{dir},
		Output: "r.csv",
	}, nil)
	if len(recs) != 1 || recs[0].FileName != "visible_password.txt" {
		t.Fatalf("unreadable dir must be skipped, not fatal: %+v", recs)
	}
}
