package transform

import (
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

var numberReplacer = strings.NewReplacer(
	",", "",
	"₱", "",
	"PHP", "",
	"php", "",
	"%", "",
	" ", "",
	" ", "",
)

// ParseNumber reads a spreadsheet cell as a float. Thousands separators,
// peso marks and percent signs are ignored; anything unparseable is 0.
func ParseNumber(cell string) float64 {
	s := numberReplacer.Replace(strings.TrimSpace(cell))
	if s == "" || s == "-" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// ParseCount reads a cell as a whole count, rounding half away from zero.
// Values that do not fit in an int are 0.
func ParseCount(cell string) int {
	v := math.Round(ParseNumber(cell))
	if v >= math.MaxInt || v < math.MinInt {
		return 0
	}
	return int(v)
}

// ParseMoney reads a cell as a peso amount rounded to centavos.
func ParseMoney(cell string) float64 {
	return Round2(ParseNumber(cell))
}

// toCents converts a peso amount to whole centavos.
func toCents(v float64) int64 {
	return decimal.NewFromFloat(v).Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

func fromCents(c int64) float64 {
	return decimal.New(c, -2).InexactFloat64()
}

// apportion splits total into n parts by floor division; the remainder goes
// to the last part so the parts always sum to total.
func apportion(total int64, n int) []int64 {
	parts := make([]int64, n)
	if n == 0 {
		return parts
	}
	base := total / int64(n)
	for i := range parts {
		parts[i] = base
	}
	parts[n-1] += total - base*int64(n)
	return parts
}

func apportionCount(total, n int) []int {
	raw := apportion(int64(total), n)
	out := make([]int, n)
	for i, v := range raw {
		out[i] = int(v)
	}
	return out
}

func apportionMoney(total float64, n int) []float64 {
	raw := apportion(toCents(total), n)
	out := make([]float64, n)
	for i, c := range raw {
		out[i] = fromCents(c)
	}
	return out
}
