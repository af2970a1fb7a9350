package internal

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/schollz/progressbar/v3"
	"github.com/sirupsen/logrus"
)

// CredScanner walks the roots and collects keyword hits against file
// names and, optionally, file contents.
type CredScanner struct{}

func NewCredScanner() *CredScanner { return &CredScanner{} }

// Collector accumulates MatchRecords from workers.
type Collector struct {
	mu      sync.Mutex
	records []MatchRecord
}

func (c *Collector) add(r MatchRecord) {
	c.mu.Lock()
	c.records = append(c.records, r)
	c.mu.Unlock()
}

// Records returns everything accumulated so far.
func (c *Collector) Records() []MatchRecord {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.records
}

// Scan is the main pipeline: walker goroutine -> task channel -> worker
// pool -> collector. Per-file errors are absorbed and counted; the scan
// itself only fails on setup problems. Records are returned unsorted,
// WriteReport orders them.
func (s *CredScanner) Scan(ctx context.Context, cfg ScanConfig, matcher *KeywordMatcher, ex *Extractor, stats *AppStats) ([]MatchRecord, error) {
	col := &Collector{}

	var bar *progressbar.ProgressBar
	if cfg.Progress {
		bar = progressbar.Default(-1, "scanning")
	}

	fileCh := make(chan Task, 2048)
	var wg sync.WaitGroup

	pool, err := ants.NewPoolWithFunc(cfg.Threads, func(i interface{}) {
		defer wg.Done()
		if ctx.Err() != nil {
			return
		}
		t := i.(Task)
		stats.FilesProcessed.Add(1)
		if bar != nil {
			_ = bar.Add(1)
		}
		s.scanFile(ctx, t, cfg, matcher, ex, col, stats)
	})
	if err != nil {
		return nil, fmt.Errorf("pool: %w", err)
	}
	defer pool.Release()

	// walker
	walkDone := make(chan struct{})
	go func() {
		defer close(walkDone)
		defer close(fileCh)
		for _, root := range cfg.Roots {
			if ctx.Err() != nil {
				return
			}
			_ = WalkWithDepth(ctx, root, cfg.Depth, func(path string, d os.DirEntry, err error) error {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				if err != nil {
					stats.Errors.Add(1)
					logrus.WithError(err).WithField("path", path).Debug("walk error, skipping")
					return nil
				}
				if d.IsDir() || !d.Type().IsRegular() {
					return nil
				}
				ext := strings.ToLower(filepath.Ext(d.Name()))
				if !cfg.allowedExt(ext) {
					return nil
				}
				info, err := d.Info()
				if err != nil {
					stats.Errors.Add(1)
					return nil
				}
				stats.FilesFound.Add(1)
				select {
				case fileCh <- Task{path: path, info: info}:
				case <-ctx.Done():
					return ctx.Err()
				}
				return nil
			})
		}
	}()

	// periodic stats
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

loop:
	for {
		select {
		case t, ok := <-fileCh:
			if !ok {
				break loop
			}
			wg.Add(1)
			if err := pool.Invoke(t); err != nil {
				wg.Done()
				stats.Errors.Add(1)
				logrus.WithError(err).Error("submit task")
			}
		case <-ticker.C:
			logrus.Infof("Stats: found=%d processed=%d matches=%d errors=%d",
				stats.FilesFound.Load(), stats.FilesProcessed.Load(), stats.Matches.Load(), stats.Errors.Load())
		case <-ctx.Done():
			break loop
		}
	}

	wg.Wait()
	<-walkDone
	if bar != nil {
		_ = bar.Finish()
	}
	return col.Records(), nil
}

// scanFile emits at most one Filename record or one Content record per
// file. A filename hit short-circuits content matching.
func (s *CredScanner) scanFile(ctx context.Context, t Task, cfg ScanConfig, matcher *KeywordMatcher, ex *Extractor, col *Collector, stats *AppStats) {
	name := filepath.Base(t.path)
	ext := strings.ToLower(filepath.Ext(name))
	modified := t.info.ModTime().UTC().Format(time.RFC3339)

	if matcher.MatchString(name) {
		stats.Matches.Add(1)
		logrus.WithFields(logrus.Fields{"file": t.path, "type": MatchFilename}).Info("Match found")
		col.add(MatchRecord{
			FullPath:     t.path,
			FileName:     name,
			Extension:    ext,
			MatchType:    MatchFilename,
			LastModified: modified,
		})
		return
	}
	if !cfg.ScanContent {
		return
	}
	text, ok := ex.Extract(ctx, t.path, t.info.Size())
	if !ok {
		return
	}
	sample := matcher.Sample(text)
	if sample == "" {
		return
	}
	stats.Matches.Add(1)
	logrus.WithFields(logrus.Fields{"file": t.path, "type": MatchContent}).Info("Match found")
	col.add(MatchRecord{
		FullPath:     t.path,
		FileName:     name,
		Extension:    ext,
		MatchType:    MatchContent,
		Sample:       sample,
		LastModified: modified,
	})
}
