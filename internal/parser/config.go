package parser

// ScoringConfig gathers every tuned constant of the recognition pipeline in
// one place so the scoring policy stays auditable. All values are hand-tuned
// heuristics carried over from production use.
type ScoringConfig struct {
	// Amount extraction.
	AmountBases        []float64 // base confidence per pattern, most specific first
	AmountDefaultBase  float64   // base for pattern ranks past the table
	AmountContextBonus float64   // text mentions paying/spending/amount
	CurrencyBonus      float64   // matched substring carries a currency marker
	MaxAmount          float64   // candidates at or above this are discarded

	// Date extraction.
	DateBase               float64 // base for the most specific pattern
	DateRankStep           float64 // subtracted per pattern rank
	AssumedYearPenalty     float64 // applied when the year is filled in
	FallbackDateConfidence float64 // confidence of the today-fallback field

	// Payment classification.
	FallbackPaymentConfidence float64

	// Aggregation weights. Amount correctness matters most downstream.
	AmountWeight   float64
	MerchantWeight float64
	DateWeight     float64
	PaymentWeight  float64
	LengthBonus    float64 // added to numerator and denominator for long texts
	LongTextLength int     // rune count above which the bonus applies

	// Message bands.
	HighBand float64
	MidBand  float64

	// Input validation.
	MinTextLength int // trimmed rune count below which input is rejected
}

// DefaultScoring returns the production scoring policy.
func DefaultScoring() ScoringConfig {
	return ScoringConfig{
		AmountBases:        []float64{0.9, 0.85, 0.8, 0.75, 0.7, 0.4},
		AmountDefaultBase:  0.3,
		AmountContextBonus: 0.1,
		CurrencyBonus:      0.1,
		MaxAmount:          1000000,

		DateBase:               0.8,
		DateRankStep:           0.1,
		AssumedYearPenalty:     0.2,
		FallbackDateConfidence: 0.1,

		FallbackPaymentConfidence: 0.1,

		AmountWeight:   0.4,
		MerchantWeight: 0.3,
		DateWeight:     0.2,
		PaymentWeight:  0.1,
		LengthBonus:    0.1,
		LongTextLength: 50,

		HighBand: 0.7,
		MidBand:  0.4,

		MinTextLength: 5,
	}
}

// Overall combines per-field confidences into one score. A nil confidence
// means the field is absent and its weight does not count against the
// denominator. The result is clamped to [0,1].
func (c ScoringConfig) Overall(amount, merchant, date, payment *float64, textLen int) float64 {
	var score, weight float64

	add := func(conf *float64, w float64) {
		if conf != nil {
			score += *conf * w
			weight += w
		}
	}
	add(amount, c.AmountWeight)
	add(merchant, c.MerchantWeight)
	add(date, c.DateWeight)
	add(payment, c.PaymentWeight)

	if textLen > c.LongTextLength {
		score += c.LengthBonus
		weight += c.LengthBonus
	}

	if weight == 0 {
		return 0
	}
	overall := score / weight
	if overall > 1 {
		return 1
	}
	if overall < 0 {
		return 0
	}
	return overall
}

// MessageFor maps an overall confidence onto the human-readable parse
// message shown to the client.
func (c ScoringConfig) MessageFor(confidence float64) string {
	switch {
	case confidence > c.HighBand:
		return "解析成功"
	case confidence > c.MidBand:
		return "部分解析成功"
	default:
		return "解析置信度较低"
	}
}
