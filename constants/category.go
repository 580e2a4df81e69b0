package constants

import "strings"

// Category is an expense category label. Values match what the mobile client
// and the budget tables already use, so they are stored verbatim.
type Category string

const (
	Dining        Category = "餐饮"
	Transport     Category = "交通"
	Shopping      Category = "购物"
	Entertainment Category = "娱乐"
	Utilities     Category = "生活"
	Healthcare    Category = "医疗"
	Education     Category = "教育"
	Other         Category = "其他"
)

var allCategories = []Category{
	Dining,
	Transport,
	Shopping,
	Entertainment,
	Utilities,
	Healthcare,
	Education,
	Other,
}

// categoryKeywords is the lexicon used to infer a category when no merchant
// matched. Scan order is fixed: the first category with a keyword present in
// the text wins.
var categoryKeywords = []struct {
	Category Category
	Keywords []string
}{
	{Dining, []string{"餐厅", "饭店", "咖啡", "茶", "外卖", "美食", "小吃", "火锅", "烧烤"}},
	{Transport, []string{"出租车", "地铁", "公交", "滴滴", "加油", "停车", "高速"}},
	{Shopping, []string{"超市", "商场", "淘宝", "京东", "购物", "服装", "电器"}},
	{Entertainment, []string{"电影", "游戏", "KTV", "健身", "运动"}},
	{Utilities, []string{"水费", "电费", "燃气", "物业", "话费", "宽带"}},
	{Healthcare, []string{"医院", "药店", "体检", "看病"}},
	{Education, []string{"学费", "培训", "书店", "教育"}},
}

// AsStringSlice returns every category as a string slice.
func AsStringSlice() []string {
	result := make([]string, len(allCategories))
	for i, cat := range allCategories {
		result[i] = string(cat)
	}
	return result
}

// InferCategory scans the lexicon against the text and returns the first
// category with a keyword hit, or Other when nothing matches.
func InferCategory(text string) Category {
	for _, entry := range categoryKeywords {
		for _, kw := range entry.Keywords {
			if strings.Contains(text, kw) {
				return entry.Category
			}
		}
	}
	return Other
}

// Canonicalize maps a raw label onto a known category.
func Canonicalize(input string) (Category, bool) {
	normalized := strings.TrimSpace(input)
	if normalized == "" {
		return Other, false
	}
	for _, cat := range allCategories {
		if normalized == string(cat) {
			return cat, true
		}
	}
	return Other, false
}
