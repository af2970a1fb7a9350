package internal

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/mholt/archives"
	"github.com/sirupsen/logrus"
)

const (
	maxOfficeParts     = 1000    // zip-bomb protect
	maxOfficePartBytes = 8 << 20 // per inflated XML part
)

// Strategy selects how searchable text is pulled out of a file.
type Strategy int

const (
	StrategyNone Strategy = iota
	StrategyPlainText
	StrategyPDFTool
	StrategyOfficeArchive
)

// Special cases only. Anything else on the allow-list is read as
// plain text.
var extStrategy = map[string]Strategy{
	".pdf":  StrategyPDFTool,
	".docx": StrategyOfficeArchive,
	".xlsx": StrategyOfficeArchive,
	".pptx": StrategyOfficeArchive,
	".doc":  StrategyNone,
	".xls":  StrategyNone,
	".ppt":  StrategyNone,
}

// StrategyForExt maps an extension to its extraction strategy.
func StrategyForExt(ext string) Strategy {
	if s, ok := extStrategy[strings.ToLower(ext)]; ok {
		return s
	}
	return StrategyPlainText
}

// Extractor turns files into searchable text. PDFTool is resolved once
// at startup; empty means PDF files get filename matching only.
type Extractor struct {
	PDFTool string
	MaxSize int64
}

// NewExtractor probes for the pdftotext binary unless an explicit path
// is given.
func NewExtractor(pdfTool string, maxSize int64) *Extractor {
	if pdfTool == "" {
		if p, err := exec.LookPath("pdftotext"); err == nil {
			pdfTool = p
		} else {
			logrus.Info("pdftotext not found, PDF files get filename matching only")
		}
	}
	return &Extractor{PDFTool: pdfTool, MaxSize: maxSize}
}

// Extract returns the searchable text of path and whether any text was
// produced. Files over MaxSize yield no text. Extraction failures are
// absorbed: the file simply yields nothing and the run continues.
func (e *Extractor) Extract(ctx context.Context, path string, size int64) (string, bool) {
	if e.MaxSize > 0 && size > e.MaxSize {
		logrus.Debugf("Skip content of %s: %d bytes over limit", path, size)
		return "", false
	}
	switch StrategyForExt(filepath.Ext(path)) {
	case StrategyPlainText:
		return e.readPlain(path)
	case StrategyPDFTool:
		return e.extractPDF(ctx, path)
	case StrategyOfficeArchive:
		return e.extractOffice(ctx, path)
	}
	return "", false
}

func (e *Extractor) readPlain(path string) (string, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		logrus.WithError(err).WithField("file", path).Debug("read file")
		return "", false
	}
	return string(data), len(data) > 0
}

// extractPDF shells out to pdftotext with a temp destination, reads the
// result and removes the temp file on all paths.
func (e *Extractor) extractPDF(ctx context.Context, path string) (string, bool) {
	if e.PDFTool == "" {
		return "", false
	}
	tmp, err := os.CreateTemp("", "credhunter-pdf-*.txt")
	if err != nil {
		logrus.WithError(err).Debug("create pdf temp file")
		return "", false
	}
	tmpPath := tmp.Name()
	_ = tmp.Close()
	defer os.Remove(tmpPath)

	cmd := exec.CommandContext(ctx, e.PDFTool, "-layout", "-q", path, tmpPath)
	if err := cmd.Run(); err != nil {
		logrus.WithError(err).WithField("file", path).Debug("pdftotext")
		return "", false
	}
	data, err := os.ReadFile(tmpPath)
	if err != nil || len(data) == 0 {
		return "", false
	}
	return string(data), true
}

// extractOffice treats docx/xlsx/pptx as zip containers and
// concatenates the text of every contained XML part. Broken parts are
// skipped; a corrupt container yields no text.
func (e *Extractor) extractOffice(ctx context.Context, path string) (string, bool) {
	f, err := os.Open(path)
	if err != nil {
		logrus.WithError(err).WithField("file", path).Debug("open office file")
		return "", false
	}
	defer f.Close()

	var buf bytes.Buffer
	parts := 0
	zip := archives.Zip{}
	err = zip.Extract(ctx, f, func(ctx context.Context, fi archives.FileInfo) error {
		if fi.IsDir() || !strings.HasSuffix(strings.ToLower(fi.NameInArchive), ".xml") {
			return nil
		}
		if parts >= maxOfficeParts {
			return errors.New("office part limit reached")
		}
		r, err := fi.Open()
		if err != nil {
			return nil
		}
		defer r.Close()
		if _, err := io.Copy(&buf, io.LimitReader(r, maxOfficePartBytes)); err != nil {
			return nil
		}
		buf.WriteByte('\n')
		parts++
		return nil
	})
	if err != nil {
		logrus.WithError(err).WithField("file", path).Debug("office extract")
		return "", false
	}
	return buf.String(), buf.Len() > 0
}
