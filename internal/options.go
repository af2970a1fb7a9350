package internal

import (
	"errors"
	"strings"
)

// DefaultExtensions is the allow-list used when --ext is not given.
// Covers the formats credentials usually end up in: plain text and
// config files, PDFs and office documents.
var DefaultExtensions = []string{
	".txt", ".csv", ".xml", ".json", ".config", ".conf", ".ini", ".log",
	".env", ".yaml", ".yml", ".pdf", ".docx", ".xlsx", ".pptx", ".doc",
	".xls", ".ppt",
}

// ScanConfig - public options from CLI. Treated as immutable once
// Prepare has run.
type ScanConfig struct {
	Roots       []string
	Output      string
	ScanContent bool
	MaxFileSize int64
	Keywords    []string
	Extensions  []string
	Threads     int
	Depth       int
	PDFTool     string
	Progress    bool

	extSet map[string]struct{}
}

// Validate checks invariants.
func (c *ScanConfig) Validate() error {
	if len(c.Roots) == 0 {
		return errors.New("at least one root directory is required")
	}
	if c.Output == "" {
		return errors.New("output path is required")
	}
	if c.MaxFileSize < 0 {
		return errors.New("max-size must not be negative")
	}
	return nil
}

// Prepare builds fast lookup structures and sensible defaults.
func (c *ScanConfig) Prepare() {
	if len(c.Keywords) == 0 {
		c.Keywords = DefaultKeywords
	}
	if len(c.Extensions) == 0 {
		c.Extensions = DefaultExtensions
	}
	c.extSet = make(map[string]struct{}, len(c.Extensions))
	for _, e := range c.Extensions {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		c.extSet[e] = struct{}{}
	}
	if c.Threads <= 0 {
		c.Threads = 1 // sequential by default
	}
}

// allowedExt - O(1) lookup against the allow-list.
func (c *ScanConfig) allowedExt(ext string) bool {
	_, ok := c.extSet[ext]
	return ok
}
