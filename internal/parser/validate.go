package parser

import (
	"fmt"
	"time"
)

// warnAmountCeiling is well under the extraction sanity bound; amounts above
// it are plausible but unusual enough to flag.
const warnAmountCeiling = 100000

// Warnings inspects a result for values a user should double-check before
// confirming: suspiciously high amounts and dates far outside the recent
// window. Warnings never fail a parse.
func Warnings(result *Result, now time.Time) []string {
	var warnings []string

	if result.Amount.Present() && *result.Amount.Value > warnAmountCeiling {
		warnings = append(warnings, "金额异常高，请确认")
	}

	if result.Date.Present() {
		if date, err := time.Parse("2006-01-02", *result.Date.Value); err == nil {
			oneYearAgo := now.AddDate(-1, 0, 0)
			oneMonthLater := now.AddDate(0, 1, 0)
			if date.Before(oneYearAgo) || date.After(oneMonthLater) {
				warnings = append(warnings, fmt.Sprintf("日期 %s 超出常见范围，请确认", *result.Date.Value))
			}
		}
	}

	if !result.Merchant.Present() {
		warnings = append(warnings, "未能识别商户信息")
	}

	return warnings
}
