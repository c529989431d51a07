package extract

import (
	"regexp"
	"strconv"
	"strings"
)

// amountPattern matches grouped numeric tokens: digits optionally grouped by
// '.' or ',' thousands separators ("7.500.000", "5,000,000", "8000000").
var amountPattern = regexp.MustCompile(`\d{1,3}(?:[.,]\d{3})+|\d+`)

// intPattern matches a bare integer token.
var intPattern = regexp.MustCompile(`\d+`)

// ExtractAmounts pulls monetary amounts out of free text in ascending order.
// A token counts as an amount when it carries grouping separators or has at
// least four digits, which keeps room counts ("3 oda") out of budget parses.
func ExtractAmounts(message string) []int64 {
	var amounts []int64
	for _, token := range amountPattern.FindAllString(message, -1) {
		grouped := strings.ContainsAny(token, ".,")
		digits := strings.NewReplacer(".", "", ",", "").Replace(token)
		if !grouped && len(digits) < 4 {
			continue
		}
		n, err := strconv.ParseInt(digits, 10, 64)
		if err != nil {
			continue
		}
		amounts = append(amounts, n)
	}

	// Ascending order so callers can take min/max from the ends.
	for i := 1; i < len(amounts); i++ {
		for j := i; j > 0 && amounts[j] < amounts[j-1]; j-- {
			amounts[j], amounts[j-1] = amounts[j-1], amounts[j]
		}
	}
	return amounts
}

// FirstInt returns the first integer token in the message.
func FirstInt(message string) (int, bool) {
	token := intPattern.FindString(message)
	if token == "" {
		return 0, false
	}
	n, err := strconv.Atoi(token)
	if err != nil {
		return 0, false
	}
	return n, true
}
