package insight

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"github.com/mingmanhk/deepticker/internal/models"
)

// Fingerprint derives a stable cache key from a request's semantic
// content: provider, insight kind, the sorted holdings set with share
// counts, and the prompt template. Any change to holdings, shares, or
// prompt yields a new fingerprint, so the cache misses on content
// change even inside the TTL window.
func Fingerprint(provider models.ProviderID, kind models.InsightKind, snapshot *models.PortfolioSnapshot, promptTemplate string) string {
	lines := make([]string, 0, len(snapshot.Positions))
	for _, p := range snapshot.Positions {
		lines = append(lines, fmt.Sprintf("%s:%s", p.Holding.Symbol, p.Holding.Shares.String()))
	}
	sort.Strings(lines)

	promptHash := sha256.Sum256([]byte(promptTemplate))

	h := sha256.New()
	h.Write([]byte(provider))
	h.Write([]byte{0})
	h.Write([]byte(kind))
	h.Write([]byte{0})
	h.Write([]byte(strings.Join(lines, "\n")))
	h.Write([]byte{0})
	h.Write(promptHash[:])

	return hex.EncodeToString(h.Sum(nil))
}
