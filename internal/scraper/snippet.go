package scraper

import (
	"fmt"
	"regexp"
	"strings"
	"sync"
)

// patternCache holds compiled keyword patterns. Compile failures are cached
// too so a bad pattern is reported once.
type patternCache struct {
	mu       sync.RWMutex
	patterns map[string]cachedPattern
}

type cachedPattern struct {
	re  *regexp.Regexp
	err error
}

var patterns = &patternCache{patterns: make(map[string]cachedPattern)}

// getOrCompile returns a cached compiled regex or compiles and caches a new one.
func (c *patternCache) getOrCompile(pattern string) (*regexp.Regexp, error) {
	c.mu.RLock()
	cp, ok := c.patterns[pattern]
	c.mu.RUnlock()
	if ok {
		return cp.re, cp.err
	}

	re, err := regexp.Compile(pattern)
	if err != nil {
		err = fmt.Errorf("invalid regex %q: %w", pattern, err)
	}

	c.mu.Lock()
	c.patterns[pattern] = cachedPattern{re: re, err: err}
	c.mu.Unlock()
	return re, err
}

// windowPattern matches keyword, then whitespace or colons, then a window of
// minLen..maxLen characters that stops at a newline.
func windowPattern(keyword string, minLen, maxLen int) string {
	return fmt.Sprintf(`(?i)%s[\s\p{Zs}:]+([^\n]{%d,%d})`, regexp.QuoteMeta(keyword), minLen, maxLen)
}

// sentencePattern matches the full sentence containing keyword.
func sentencePattern(keyword string) string {
	return fmt.Sprintf(`(?i)[^.]*%s[^.]*\.`, regexp.QuoteMeta(keyword))
}

// FindSnippet returns the trimmed text window that follows keyword in text.
// The match is case-insensitive; the window holds between minLen and maxLen
// characters and never crosses a newline. It reports false when nothing
// matches or the bounds cannot form a valid pattern.
func FindSnippet(text, keyword string, minLen, maxLen int) (string, bool) {
	if text == "" || keyword == "" {
		return "", false
	}
	re, err := patterns.getOrCompile(windowPattern(keyword, minLen, maxLen))
	if err != nil {
		return "", false
	}
	m := re.FindStringSubmatch(text)
	if len(m) < 2 {
		return "", false
	}
	snippet := strings.TrimSpace(m[1])
	return snippet, snippet != ""
}

// FindSentence returns the first period-terminated sentence of text that
// mentions keyword, trimmed.
func FindSentence(text, keyword string) (string, bool) {
	if text == "" || keyword == "" {
		return "", false
	}
	re, err := patterns.getOrCompile(sentencePattern(keyword))
	if err != nil {
		return "", false
	}
	m := re.FindString(text)
	if m == "" {
		return "", false
	}
	return strings.TrimSpace(m), true
}
