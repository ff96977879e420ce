package cache

import (
	"strings"

	"github.com/quellwerk/concierge/core"
)

// historyWindow is how many trailing messages feed the fingerprint. Two
// turns of context: the same question means something different after a
// different exchange.
const historyWindow = 4

// Fingerprint derives the cache key for one request. The tenant id is the
// first component, so two tenants asking the same question can never share
// an entry. The query must already be normalized (retrieval.Normalize).
func Fingerprint(tenantID, normalizedQuery, contextDigest string) core.ID {
	return core.IDFromContent(tenantID + "\x00" + normalizedQuery + "\x00" + contextDigest)
}

// HistoryDigest condenses the trailing conversation window into a stable
// digest string for fingerprinting.
func HistoryDigest(messages []core.Message) string {
	start := len(messages) - historyWindow
	if start < 0 {
		start = 0
	}

	var b strings.Builder
	for _, msg := range messages[start:] {
		b.WriteString(strings.ToLower(strings.TrimSpace(msg.Content)))
		b.WriteByte('\x00')
	}
	return b.String()
}
