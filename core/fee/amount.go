package fee

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// Amount is a fixed-point money value.
// Every boundary parses with default zero: empty, malformed or non-numeric input is 0.
type Amount struct {
	d decimal.Decimal
}

var Zero = Amount{}

// grouped matches thousands separators as Format writes them, eg. 10,000.50.
var grouped = regexp.MustCompile(`^-?\d{1,3}(,\d{3})+(\.\d+)?$`)

func NewAmount(units int64) Amount {
	return Amount{decimal.NewFromInt(units)}
}

// ParseAmount parses s, falling back to zero.
// Commas are accepted only as thousands separators.
func ParseAmount(s string) Amount {
	s = strings.TrimSpace(s)
	if grouped.MatchString(s) {
		s = strings.ReplaceAll(s, ",", "")
	}
	if s == "" {
		return Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Zero
	}
	return Amount{d}
}

func (a Amount) Add(b Amount) Amount { return Amount{a.d.Add(b.d)} }

func (a Amount) Mul(n int) Amount { return Amount{a.d.Mul(decimal.NewFromInt(int64(n)))} }

func (a Amount) Cmp(b Amount) int { return a.d.Cmp(b.d) }

func (a Amount) Equal(b Amount) bool { return a.d.Equal(b.d) }

func (a Amount) GreaterThan(b Amount) bool { return a.d.GreaterThan(b.d) }

func (a Amount) IsPositive() bool { return a.d.IsPositive() }

func (a Amount) IsNegative() bool { return a.d.IsNegative() }

func (a Amount) IsZero() bool { return a.d.IsZero() }

func (a Amount) Decimal() decimal.Decimal { return a.d }

func (a Amount) String() string { return a.d.String() }

// Number is the amount as a JSON number, the way the backend expects it.
func (a Amount) Number() json.Number { return json.Number(a.d.String()) }

// Format renders the amount with two decimals and thousands separators, eg. 10,000.00.
func (a Amount) Format() string {
	s := a.d.StringFixed(2)
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	intPart, frac := s[:len(s)-3], s[len(s)-3:]

	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return sign + b.String() + frac
}

func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(`"` + a.d.String() + `"`), nil
}

// UnmarshalJSON accepts a string or a number.
func (a *Amount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if string(data) == "null" {
		*a = Zero
		return nil
	}
	*a = ParseAmount(string(bytes.Trim(data, `"`)))
	return nil
}

// Max returns the larger of a and b.
func Max(a, b Amount) Amount {
	if b.GreaterThan(a) {
		return b
	}
	return a
}

// Sum adds up amounts.
func Sum(amounts ...Amount) Amount {
	total := Zero
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total
}
