package internal

import (
	"bufio"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/sirupsen/logrus"
)

// DefaultKeywords are the credential-ish tokens searched in file names
// and contents.
var DefaultKeywords = []string{
	"password", "pw", "pwd", "account", "user", "username", "creds", "credentials",
}

const (
	sampleLimit     = 3
	sampleSeparator = " | "
)

// KeywordMatcher holds the compiled keyword alternation. Built once at
// startup and passed explicitly into the scanner.
type KeywordMatcher struct {
	re *regexp.Regexp
}

// NewKeywordMatcher compiles the keyword set into a single
// case-insensitive pattern. A keyword only counts when it is not glued
// to another letter or digit: underscores and punctuation separate, so
// "old_password.txt" matches while the "user" token does not fire
// inside "username".
func NewKeywordMatcher(keywords []string) (*KeywordMatcher, error) {
	quoted := make([]string, 0, len(keywords))
	for _, k := range keywords {
		k = strings.TrimSpace(k)
		if k == "" {
			continue
		}
		quoted = append(quoted, regexp.QuoteMeta(strings.ToLower(k)))
	}
	if len(quoted) == 0 {
		return nil, errors.New("keyword set is empty")
	}
	expr := `(?i)(?:^|[^a-z0-9])(?:` + strings.Join(quoted, "|") + `)(?:[^a-z0-9]|$)`
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("compile keyword pattern: %w", err)
	}
	logrus.Debugf("Compiled %d keywords", len(quoted))
	return &KeywordMatcher{re: re}, nil
}

// MatchString reports whether s contains any keyword.
func (m *KeywordMatcher) MatchString(s string) bool { return m.re.MatchString(s) }

// Sample walks text line by line and returns up to 3 matching lines,
// trimmed and joined with " | ". Empty result means no line matched.
func (m *KeywordMatcher) Sample(text string) string {
	if text == "" {
		return ""
	}
	var lines []string
	sc := bufio.NewScanner(strings.NewReader(text))
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for sc.Scan() {
		line := sc.Text()
		if m.re.MatchString(line) {
			lines = append(lines, strings.TrimSpace(line))
			if len(lines) == sampleLimit {
				break
			}
		}
	}
	return strings.Join(lines, sampleSeparator)
}
