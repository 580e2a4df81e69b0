package parser

// Field is one extracted value with its confidence and the source substring
// it was read from. A nil Value means the extractor found nothing; degenerate
// fallbacks (today's date, the generic payment method) carry a Value with a
// very low confidence instead.
type Field[T any] struct {
	Value      *T      `json:"value"`
	Confidence float64 `json:"confidence"`
	Source     string  `json:"source,omitempty"`
}

// Present reports whether the field carries a value.
func (f Field[T]) Present() bool {
	return f.Value != nil
}

// FieldOf builds a populated field.
func FieldOf[T any](v T, confidence float64, source string) Field[T] {
	return Field[T]{Value: &v, Confidence: confidence, Source: source}
}

// MerchantCandidate is a ranked directory hit as stored with the result.
type MerchantCandidate struct {
	Name       string  `json:"name"`
	Category   string  `json:"category"`
	Confidence float64 `json:"confidence"`
}

// Result is the immutable output of one pipeline run.
type Result struct {
	Amount        Field[float64] `json:"amount"`
	Date          Field[string]  `json:"date"` // YYYY-MM-DD
	Merchant      Field[string]  `json:"merchant"`
	PaymentMethod Field[string]  `json:"payment_method"`

	Category          string              `json:"category"`
	Merchants         []MerchantCandidate `json:"all_merchants"`
	OverallConfidence float64             `json:"overall_confidence"`

	OriginalText   string `json:"original_text"`
	NormalizedText string `json:"normalized_text"`

	Message  string   `json:"message"`
	Warnings []string `json:"warnings,omitempty"`
}
