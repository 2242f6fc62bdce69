package util

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	numberPattern    = regexp.MustCompile(`(?:^|[^0-9.,])(\d{1,3}(?:[\s.,]\d{3})+|\d+(?:[.,]\d+)?)`)
	thousandsDot     = regexp.MustCompile(`^\d{1,3}(?:\.\d{3})+$`)
	thousandsComma   = regexp.MustCompile(`^\d{1,3}(?:,\d{3})+$`)
	quantityWithUnit = regexp.MustCompile(`(?i)(?:^|[^0-9.,])(\d{1,3}(?:[\s.,]\d{3})+|\d+(?:[.,]\d+)?)\s*(piezas|pzas?|pz|unidades|unds?|u|pcs|pc)\b`)
)

// ParseQuantity reads a stock quantity from a spreadsheet or backend cell
// ("3", "3 pzas", "1.000", "2,0"). Fractions are rounded; nil when no number is found.
func ParseQuantity(input string) *int {
	line := strings.ReplaceAll(input, " ", " ")

	token := ""
	if wm := quantityWithUnit.FindAllStringSubmatch(line, -1); len(wm) > 0 {
		token = strings.TrimSpace(wm[len(wm)-1][1])
	} else if nm := numberPattern.FindAllStringSubmatch(line, -1); len(nm) > 0 {
		token = strings.TrimSpace(nm[len(nm)-1][1])
	}
	if token == "" {
		return nil
	}

	parsed, err := strconv.ParseFloat(normalizeNumericToken(token), 64)
	if err != nil {
		return nil
	}
	return IntPtr(int(math.Round(parsed)))
}

func normalizeNumericToken(token string) string {
	compact := strings.ReplaceAll(token, " ", "")
	if thousandsDot.MatchString(compact) {
		return strings.ReplaceAll(compact, ".", "")
	}
	if thousandsComma.MatchString(compact) {
		return strings.ReplaceAll(compact, ",", "")
	}
	if strings.Contains(compact, ",") && !strings.Contains(compact, ".") {
		return strings.ReplaceAll(compact, ",", ".")
	}
	return compact
}

func IntPtr(v int) *int {
	return &v
}

func StringPtr(v string) *string {
	return &v
}
