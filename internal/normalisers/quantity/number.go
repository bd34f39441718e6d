// Package quantity parses Spanish-locale price and package-size text.
//
// Numbers use "." as thousands separator and "," as decimal separator,
// but plain decimal points ("1.5 l") are also accepted. Every function is
// total: unparseable text yields an undetermined result, never an error.
package quantity

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
	"golang.org/x/text/unicode/norm"
)

// numberExpr matches one locale-formatted number. Alternatives are ordered so
// that grouped thousands and comma decimals win over a bare integer prefix.
const numberExpr = `\d{1,3}(?:\.\d{3})+(?:,\d+)?|\d+,\d+|\d+\.\d+|\d+`

// Unit alternations, longest first within each group.
const (
	weightUnits = `mg|kg|kilos?|gramos?|gr|g`
	volumeUnits = `ml|cl|dl|litros?|lt|l`
	countUnits  = `uds?|unidades?|servicios?|rollos?|latas?|botellas?|bricks?|packs?`
)

var (
	numberRe   = regexp.MustCompile(numberExpr)
	groupedRe  = regexp.MustCompile(`^\d{1,3}(?:\.\d{3})+$`)
	unitNextRe = regexp.MustCompile(`^\s*(?:` + weightUnits + `|` + volumeUnits + `|` + countUnits + `)\b`)
)

// clean folds compatibility characters (NBSP, fullwidth digits), lower-cases
// and collapses whitespace.
func clean(s string) string {
	s = norm.NFKC.String(s)
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// toDecimal converts one number token to a decimal.
func toDecimal(tok string) (decimal.Decimal, bool) {
	switch {
	case strings.Contains(tok, ",") && strings.Contains(tok, "."):
		tok = strings.ReplaceAll(tok, ".", "")
		tok = strings.ReplaceAll(tok, ",", ".")
	case strings.Contains(tok, ","):
		tok = strings.ReplaceAll(tok, ",", ".")
	case groupedRe.MatchString(tok):
		tok = strings.ReplaceAll(tok, ".", "")
	}
	d, err := decimal.NewFromString(tok)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// ParsePrice extracts the most price-like number from text.
//
// A number next to a currency marker ("3,99 €", "3,99 euros", "€ 3,99") wins.
// Without a marker, the last number that is not a quantity ("1 kg",
// "2 uds") is used. Returns an invalid NullDecimal when nothing qualifies.
func ParsePrice(text string) decimal.NullDecimal {
	t := clean(text)
	if t == "" {
		return decimal.NullDecimal{}
	}

	matches := numberRe.FindAllStringIndex(t, -1)
	for _, m := range matches {
		if hasCurrencyAround(t, m[0], m[1]) {
			if d, ok := toDecimal(t[m[0]:m[1]]); ok {
				return decimal.NewNullDecimal(d)
			}
		}
	}

	for i := len(matches) - 1; i >= 0; i-- {
		m := matches[i]
		if unitNextRe.MatchString(t[m[1]:]) {
			continue
		}
		if d, ok := toDecimal(t[m[0]:m[1]]); ok {
			return decimal.NewNullDecimal(d)
		}
	}
	return decimal.NullDecimal{}
}

func hasCurrencyAround(t string, start, end int) bool {
	after := strings.TrimLeftFunc(t[end:], unicode.IsSpace)
	if strings.HasPrefix(after, "€") || strings.HasPrefix(after, "euro") || strings.HasPrefix(after, "eur ") || after == "eur" {
		return true
	}
	before := strings.TrimRightFunc(t[:start], unicode.IsSpace)
	return strings.HasSuffix(before, "€")
}
