// Package core provides money parsing and handling utilities.
//
// This file contains the lenient amount parser used for every fee, discount
// and payment figure stored on leads, quotations and profiles. Amounts are
// kept as the free text the agents typed and only turned into decimals when
// totals are computed.
package core

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
)

// Amount is a monetary value as entered in a form ("1,200", "350.50", "").
// It decodes from JSON and BSON strings or numbers.
type Amount string

// numericPrefix matches the leading number of a string the way a browser's
// parseFloat does: optional sign, digits with an optional fraction, optional
// exponent. Anything after the match is ignored.
var numericPrefix = regexp.MustCompile(`^([+-]?)(\d*)(?:\.(\d*))?(?:[eE]([+-]?\d+))?`)

// Magnitudes a float64 cannot hold (Infinity or 0 in the browser forms) read
// as zero. The bound applies to mantissa and exponent combined, so "9e308"
// and a 400-digit integer are both out of range.
var (
	maxMagnitude = decimal.NewFromFloat(math.MaxFloat64)
	minMagnitude = decimal.NewFromFloat(math.SmallestNonzeroFloat64)
)

// maxShift bounds the exponent before it is applied.
const maxShift = 1000

// ParseAmount converts free text to a decimal, never failing.
//
// Thousands separators (commas) are removed and surrounding whitespace is
// trimmed, then the leading numeric prefix is parsed. Empty, non-numeric or
// out-of-range input yields zero.
//
// Examples:
//
//	ParseAmount("1,200")   -> 1200
//	ParseAmount(" 99.5 ")  -> 99.5
//	ParseAmount("12abc")   -> 12
//	ParseAmount("abc")     -> 0
func ParseAmount(s string) decimal.Decimal {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	if s == "" {
		return decimal.Zero
	}

	m := numericPrefix.FindStringSubmatch(s)
	if m == nil {
		return decimal.Zero
	}
	sign, intPart, fracPart, expPart := m[1], m[2], m[3], m[4]
	if intPart == "" && fracPart == "" {
		return decimal.Zero
	}
	if intPart == "" {
		intPart = "0"
	}
	if sign == "+" {
		sign = ""
	}

	lit := sign + intPart
	if fracPart != "" {
		lit += "." + fracPart
	}
	d, err := decimal.NewFromString(lit)
	if err != nil {
		return decimal.Zero
	}

	if expPart != "" {
		exp, err := strconv.Atoi(expPart)
		if err != nil || exp > maxShift || exp < -maxShift {
			return decimal.Zero
		}
		d = d.Shift(int32(exp))
	}

	// -0 collapses to 0
	if d.IsZero() {
		return decimal.Zero
	}
	if abs := d.Abs(); abs.GreaterThan(maxMagnitude) || abs.LessThan(minMagnitude) {
		return decimal.Zero
	}
	return d
}

// Decimal parses the amount leniently.
func (a Amount) Decimal() decimal.Decimal {
	return ParseAmount(string(a))
}

// String returns the raw text.
func (a Amount) String() string {
	return string(a)
}

// UnmarshalJSON accepts "1,200", 1200, or null.
func (a *Amount) UnmarshalJSON(data []byte) error {
	if len(data) == 0 || string(data) == "null" {
		*a = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*a = Amount(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		// Booleans and objects are not amounts; keep them as text so parsing yields 0.
		*a = Amount(strings.Trim(string(data), `"`))
		return nil
	}
	*a = Amount(n.String())
	return nil
}

// UnmarshalBSONValue accepts string, double, int32, int64, decimal128 and null.
func (a *Amount) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	rv := bson.RawValue{Type: t, Value: data}
	switch t {
	case bsontype.String:
		*a = Amount(rv.StringValue())
	case bsontype.Double:
		*a = Amount(strconv.FormatFloat(rv.Double(), 'f', -1, 64))
	case bsontype.Int32:
		*a = Amount(strconv.FormatInt(int64(rv.Int32()), 10))
	case bsontype.Int64:
		*a = Amount(strconv.FormatInt(rv.Int64(), 10))
	case bsontype.Decimal128:
		*a = Amount(rv.Decimal128().String())
	default:
		*a = ""
	}
	return nil
}

// FormatAmount renders a decimal with two fraction digits and thousands
// separators, e.g. 1234.5 -> "1,234.50". Negative values keep their sign.
func FormatAmount(d decimal.Decimal) string {
	neg := d.IsNegative()
	if neg {
		d = d.Neg()
	}
	s := d.StringFixed(2)
	intPart, frac := s[:len(s)-3], s[len(s)-3:]

	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	out := b.String() + frac
	if neg {
		return "-" + out
	}
	return out
}
