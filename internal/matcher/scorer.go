package matcher

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"github.com/likexin0304/expense-tracker-backend/internal/entity"
)

// Contribution values per match signal. Only the strongest signal counts;
// keyword hits do not stack.
const (
	nameContribution    = 0.9
	keywordContribution = 0.8
	fuzzyContribution   = 0.6
	similarityFloor     = 0.6
)

// Scorer ranks merchants entirely in-process from a directory snapshot. It
// is the fallback when no server-side fuzzy search is available and needs
// nothing beyond FindActive.
type Scorer struct {
	dir    Directory
	logger *slog.Logger
}

func NewScorer(dir Directory, logger *slog.Logger) *Scorer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scorer{dir: dir, logger: logger}
}

func (s *Scorer) Match(ctx context.Context, text string, opts Options) ([]entity.MerchantMatch, error) {
	merchants, err := s.dir.FindActive(ctx)
	if err != nil {
		return nil, err
	}

	searchText := strings.ToLower(strings.TrimSpace(text))
	matches := make([]entity.MerchantMatch, 0, len(merchants))
	for _, m := range merchants {
		confidence, matchType := score(searchText, m)
		if confidence < opts.MinConfidence {
			continue
		}
		matches = append(matches, entity.MerchantMatch{
			Merchant:   m,
			Confidence: confidence,
			MatchType:  matchType,
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Confidence > matches[j].Confidence
	})
	if opts.MaxResults > 0 && len(matches) > opts.MaxResults {
		matches = matches[:opts.MaxResults]
	}

	s.logger.Debug("matcher.scorer.done", "candidates", len(matches), "text_len", len(searchText))
	return matches, nil
}

// score returns the merchant's match confidence and the winning signal. The
// final confidence is the strongest contribution weighted by the merchant's
// own prior reliability.
func score(searchText string, m entity.Merchant) (float64, string) {
	name := strings.ToLower(m.Name)

	var confidence float64
	matchType := "none"

	if strings.Contains(searchText, name) || strings.Contains(name, searchText) {
		confidence = nameContribution
		matchType = "name"
	}

	if confidence < keywordContribution {
		for _, keyword := range m.Keywords {
			kw := strings.ToLower(keyword)
			if kw == "" {
				continue
			}
			if strings.Contains(searchText, kw) || strings.Contains(kw, searchText) {
				confidence = keywordContribution
				matchType = "keyword"
				break
			}
		}
	}

	if confidence < fuzzyContribution && similarity(searchText, name) > similarityFloor {
		confidence = fuzzyContribution
		matchType = "fuzzy"
	}

	return confidence * m.Reliability, matchType
}
