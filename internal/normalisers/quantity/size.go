package quantity

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"

	"github.com/AlbertoRQ/Baratazo/internal/core/domain"
)

var (
	weightPairRe = regexp.MustCompile(`(` + numberExpr + `)\s*(` + weightUnits + `)\b`)
	volumePairRe = regexp.MustCompile(`(` + numberExpr + `)\s*(` + volumeUnits + `)\b`)
	countPairRe  = regexp.MustCompile(`(` + numberExpr + `)\s*(?:` + countUnits + `)\b`)
)

var (
	gramsPer = map[string]decimal.Decimal{
		"mg":     decimal.RequireFromString("0.001"),
		"g":      decimal.NewFromInt(1),
		"gr":     decimal.NewFromInt(1),
		"gramo":  decimal.NewFromInt(1),
		"gramos": decimal.NewFromInt(1),
		"kg":     decimal.NewFromInt(1000),
		"kilo":   decimal.NewFromInt(1000),
		"kilos":  decimal.NewFromInt(1000),
	}
	millilitersPer = map[string]decimal.Decimal{
		"ml":     decimal.NewFromInt(1),
		"cl":     decimal.NewFromInt(10),
		"dl":     decimal.NewFromInt(100),
		"l":      decimal.NewFromInt(1000),
		"lt":     decimal.NewFromInt(1000),
		"litro":  decimal.NewFromInt(1000),
		"litros": decimal.NewFromInt(1000),
	}
)

// ParsePackageSize reduces a package descriptor to one canonical magnitude.
//
// Precedence:
//  1. Multiplied packs ("6 x 330 ml"): the last factor's unit times the
//     product of the preceding numbers. Weight is preferred over volume
//     unless the volume pair starts later in the factor. Without a weight or volume unit, a count unit yields the product of all
//     factors as items.
//  2. Weight and volume pairs: whichever last match appears later wins. This
//     tie-break is a heuristic and can misread descriptors that mention both.
//  3. A count pair ("3 uds").
//  4. A single bare number, taken as items.
//
// Anything else is undetermined.
func ParsePackageSize(text string) domain.PackageSize {
	t := clean(text)
	if t == "" {
		return domain.PackageSize{}
	}

	if factors := splitFactors(t); len(factors) > 1 {
		return parseMultiplied(factors)
	}

	weights := weightPairRe.FindAllStringSubmatchIndex(t, -1)
	volumes := volumePairRe.FindAllStringSubmatchIndex(t, -1)
	if len(weights) > 0 || len(volumes) > 0 {
		if len(volumes) > 0 && (len(weights) == 0 || volumes[len(volumes)-1][0] > weights[len(weights)-1][0]) {
			return pairSize(t, volumes[len(volumes)-1], millilitersPer, domain.MillilitersOf)
		}
		return pairSize(t, weights[len(weights)-1], gramsPer, domain.GramsOf)
	}

	if m := countPairRe.FindStringSubmatch(t); m != nil {
		return itemsFrom(m[1])
	}

	if nums := numberRe.FindAllString(t, -1); len(nums) == 1 {
		return itemsFrom(nums[0])
	}

	return domain.PackageSize{}
}

func parseMultiplied(factors []string) domain.PackageSize {
	last := factors[len(factors)-1]

	multiplier := decimal.NewFromInt(1)
	for _, f := range factors[:len(factors)-1] {
		multiplier = multiplier.Mul(firstNumber(f))
	}

	w := weightPairRe.FindStringSubmatchIndex(last)
	v := volumePairRe.FindStringSubmatchIndex(last)
	switch {
	case v != nil && (w == nil || v[0] > w[0]):
		return scaled(submatches(last, v), millilitersPer, multiplier, domain.MillilitersOf)
	case w != nil:
		return scaled(submatches(last, w), gramsPer, multiplier, domain.GramsOf)
	}
	if countPairRe.MatchString(last) {
		total := decimal.NewFromInt(1)
		for _, f := range factors {
			total = total.Mul(firstNumber(f))
		}
		return itemsOf(total)
	}
	return domain.PackageSize{}
}

// splitFactors splits on multiplication markers that stand apart from words,
// so "6x330ml" and "2 × 1 l" split but "extra" does not.
func splitFactors(t string) []string {
	runes := []rune(t)
	var factors []string
	start := 0
	for i, r := range runes {
		if r != 'x' && r != '×' && r != '*' {
			continue
		}
		if i > 0 && unicode.IsLetter(runes[i-1]) {
			continue
		}
		if i+1 < len(runes) && unicode.IsLetter(runes[i+1]) {
			continue
		}
		factors = append(factors, strings.TrimSpace(string(runes[start:i])))
		start = i + 1
	}
	if factors == nil {
		return []string{t}
	}
	return append(factors, strings.TrimSpace(string(runes[start:])))
}

// firstNumber returns the first number in a factor, or 1 when there is none
// or it is zero.
func firstNumber(s string) decimal.Decimal {
	tok := numberRe.FindString(s)
	if tok == "" {
		return decimal.NewFromInt(1)
	}
	d, ok := toDecimal(tok)
	if !ok || d.IsZero() {
		return decimal.NewFromInt(1)
	}
	return d
}

func pairSize(t string, loc []int, table map[string]decimal.Decimal, build func(decimal.Decimal) domain.PackageSize) domain.PackageSize {
	return scaled(submatches(t, loc), table, decimal.NewFromInt(1), build)
}

// submatches expands a number and unit match index into its strings.
func submatches(t string, loc []int) []string {
	return []string{t[loc[0]:loc[1]], t[loc[2]:loc[3]], t[loc[4]:loc[5]]}
}

func scaled(m []string, table map[string]decimal.Decimal, multiplier decimal.Decimal, build func(decimal.Decimal) domain.PackageSize) domain.PackageSize {
	n, ok := toDecimal(m[1])
	if !ok {
		return domain.PackageSize{}
	}
	factor, ok := table[m[2]]
	if !ok {
		return domain.PackageSize{}
	}
	total := n.Mul(factor).Mul(multiplier)
	if !total.IsPositive() {
		return domain.PackageSize{}
	}
	return build(total)
}

func itemsFrom(tok string) domain.PackageSize {
	d, ok := toDecimal(tok)
	if !ok {
		return domain.PackageSize{}
	}
	return itemsOf(d)
}

// maxItems bounds item counts; larger numbers are codes, not counts.
var maxItems = decimal.NewFromInt(100000)

func itemsOf(d decimal.Decimal) domain.PackageSize {
	d = d.Round(0)
	if !d.IsPositive() || d.GreaterThan(maxItems) {
		return domain.PackageSize{}
	}
	return domain.ItemsOf(d.IntPart())
}
