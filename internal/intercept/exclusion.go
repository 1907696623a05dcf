package intercept

import (
	"path/filepath"
	"strings"
)

// retryFragments mark names that are themselves the product of a prior
// suspend-and-replay cycle or an in-progress partial file. Intercepting them
// again would loop forever.
var retryFragments = []string{
	".crdownload",
	".part",
	".partial",
	".download",
	"unconfirmed",
}

// exclusionPolicy decides which acquisitions bypass interception entirely.
type exclusionPolicy struct {
	ignoredExtensions []string
}

func newExclusionPolicy(ignoredExtensions []string) exclusionPolicy {
	normalized := make([]string, 0, len(ignoredExtensions))
	for _, ext := range ignoredExtensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		normalized = append(normalized, ext)
	}
	return exclusionPolicy{ignoredExtensions: normalized}
}

// Excluded reports whether a name must skip verification. Empty names are not
// excluded; they simply have nothing to match yet.
func (p exclusionPolicy) Excluded(name string) bool {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return false
	}
	lower := strings.ToLower(trimmed)
	for _, fragment := range retryFragments {
		if strings.Contains(lower, fragment) {
			return true
		}
	}
	ext := strings.ToLower(filepath.Ext(trimmed))
	for _, ignored := range p.ignoredExtensions {
		if ext == ignored {
			return true
		}
	}
	return false
}
