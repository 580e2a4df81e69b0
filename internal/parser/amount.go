package parser

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// amountPatterns is ordered from most to least specific; a pattern's rank
// selects its base confidence.
var amountPatterns = []*regexp.Regexp{
	// ¥123.45
	regexp.MustCompile(`[¥￥]\s*(\d{1,3}(?:,\d{3})*(?:\.\d{2})?)`),
	// 123.45元
	regexp.MustCompile(`(\d{1,3}(?:,\d{3})*(?:\.\d{2})?)\s*元`),
	// $123.45
	regexp.MustCompile(`\$\s*(\d{1,3}(?:,\d{3})*(?:\.\d{2})?)`),
	// 123.45USD
	regexp.MustCompile(`(?i)(\d{1,3}(?:,\d{3})*(?:\.\d{2})?)\s*USD`),
	// 金额: 123.45 and similar keyword contexts
	regexp.MustCompile(`(?:金额|总计|合计|应付|实付|支付|消费)[：:\s]*(\d{1,3}(?:,\d{3})*(?:\.\d{2})?)`),
	// bare decimal with two fraction digits, last resort
	regexp.MustCompile(`(\d{1,3}(?:,\d{3})*\.\d{2})`),
}

var amountContextWords = []string{"支付", "消费", "金额"}
var currencyMarkers = []string{"¥", "￥", "元"}

// AmountExtractor finds the most plausible monetary amount in a normalized
// text.
type AmountExtractor struct {
	cfg ScoringConfig
}

func NewAmountExtractor(cfg ScoringConfig) *AmountExtractor {
	return &AmountExtractor{cfg: cfg}
}

type amountCandidate struct {
	value      float64
	confidence float64
	source     string
	rank       int
}

// Extract returns the best amount candidate, or an empty field when the text
// holds no usable amount. The returned value is always finite and within
// (0, MaxAmount).
func (e *AmountExtractor) Extract(text string) Field[float64] {
	var candidates []amountCandidate

	for rank, pattern := range amountPatterns {
		for _, m := range pattern.FindAllStringSubmatch(text, -1) {
			raw := strings.ReplaceAll(m[1], ",", "")
			value, err := strconv.ParseFloat(raw, 64)
			if err != nil || math.IsInf(value, 0) || math.IsNaN(value) {
				continue
			}
			if value <= 0 || value >= e.cfg.MaxAmount {
				continue
			}
			candidates = append(candidates, amountCandidate{
				value:      value,
				confidence: e.confidence(rank, m[0], text),
				source:     m[0],
				rank:       rank,
			})
		}
	}

	if len(candidates) == 0 {
		return Field[float64]{}
	}

	// Highest confidence wins; ties go to the more specific pattern.
	best := candidates[0]
	for _, c := range candidates[1:] {
		if c.confidence > best.confidence || (c.confidence == best.confidence && c.rank < best.rank) {
			best = c
		}
	}
	return FieldOf(best.value, best.confidence, best.source)
}

func (e *AmountExtractor) confidence(rank int, match, fullText string) float64 {
	base := e.cfg.AmountDefaultBase
	if rank < len(e.cfg.AmountBases) {
		base = e.cfg.AmountBases[rank]
	}
	confidence := base

	for _, word := range amountContextWords {
		if strings.Contains(fullText, word) {
			confidence += e.cfg.AmountContextBonus
			break
		}
	}
	for _, marker := range currencyMarkers {
		if strings.Contains(match, marker) {
			confidence += e.cfg.CurrencyBonus
			break
		}
	}

	if confidence > 1 {
		confidence = 1
	}
	return confidence
}
