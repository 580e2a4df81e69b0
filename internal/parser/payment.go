package parser

import "strings"

// PaymentFallback is the generic label returned when no known payment
// method appears in the text.
const PaymentFallback = "其他"

// paymentMethods is a fixed ordered alias table; the first keyword found
// anywhere in the text wins, with table order as the tie-break.
var paymentMethods = []struct {
	Label      string
	Keywords   []string
	Confidence float64
}{
	{"支付宝", []string{"支付宝", "Alipay"}, 0.9},
	{"微信支付", []string{"微信", "微信支付", "WeChat"}, 0.9},
	{"银行卡", []string{"银行卡", "储蓄卡", "信用卡"}, 0.8},
	{"现金", []string{"现金", "现付"}, 0.8},
	{"Apple Pay", []string{"Apple Pay", "ApplePay"}, 0.9},
	{"云闪付", []string{"云闪付"}, 0.9},
}

// PaymentClassifier maps known payment-method aliases onto canonical labels.
type PaymentClassifier struct {
	cfg ScoringConfig
}

func NewPaymentClassifier(cfg ScoringConfig) *PaymentClassifier {
	return &PaymentClassifier{cfg: cfg}
}

// Extract returns the canonical payment method for the first alias present
// in the text, or the generic fallback label at very low confidence.
func (c *PaymentClassifier) Extract(text string) Field[string] {
	for _, method := range paymentMethods {
		for _, keyword := range method.Keywords {
			if strings.Contains(text, keyword) {
				return FieldOf(method.Label, method.Confidence, keyword)
			}
		}
	}
	return FieldOf(PaymentFallback, c.cfg.FallbackPaymentConfidence, "默认")
}
