package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CurrencyPrefix is prepended to every formatted price shown to customers.
const CurrencyPrefix = "UGX."

// Money is the single representation of a price or total. Values arriving as
// formatted strings ("UGX. 2,000,000") or as numbers are converted once, when
// they are decoded, and are plain decimals from then on.
type Money struct {
	amount decimal.Decimal
}

func NewMoney(units int64) Money {
	return Money{amount: decimal.NewFromInt(units)}
}

func MoneyFromFloat(v float64) Money {
	return Money{amount: decimal.NewFromFloat(v)}
}

func MoneyFromDecimal(d decimal.Decimal) Money {
	return Money{amount: d}
}

// ParseMoney reads a price typed by a person or rendered by an older client.
// Anything before the first digit or minus sign (a currency label such as
// "UGX." or "UGX ") is dropped, then every character other than digits, '.'
// and '-' is removed. Unparsable input yields zero.
func ParseMoney(s string) Money {
	start := strings.IndexFunc(s, func(r rune) bool {
		return (r >= '0' && r <= '9') || r == '-'
	})
	if start < 0 {
		return Money{}
	}

	var b strings.Builder
	for _, r := range s[start:] {
		if (r >= '0' && r <= '9') || r == '.' || r == '-' {
			b.WriteRune(r)
		}
	}

	d, err := decimal.NewFromString(b.String())
	if err != nil {
		return Money{}
	}
	return Money{amount: d}
}

func (m Money) Add(o Money) Money {
	return Money{amount: m.amount.Add(o.amount)}
}

func (m Money) Mul(qty int) Money {
	return Money{amount: m.amount.Mul(decimal.NewFromInt(int64(qty)))}
}

func (m Money) Equal(o Money) bool {
	return m.amount.Equal(o.amount)
}

func (m Money) IsZero() bool     { return m.amount.IsZero() }
func (m Money) IsNegative() bool { return m.amount.IsNegative() }
func (m Money) IsPositive() bool { return m.amount.IsPositive() }

func (m Money) Decimal() decimal.Decimal { return m.amount }

func (m Money) Int64() int64 { return m.amount.Round(0).IntPart() }

func (m Money) Float64() float64 {
	f, _ := m.amount.Float64()
	return f
}

// String returns the plain decimal form, e.g. "2000000".
func (m Money) String() string {
	return m.amount.String()
}

// Grouped rounds to whole units and inserts thousands separators: "2,000,000".
func (m Money) Grouped() string {
	digits := m.amount.Round(0).Abs().String()
	var b strings.Builder
	if m.amount.Round(0).IsNegative() {
		b.WriteByte('-')
	}
	lead := len(digits) % 3
	if lead == 0 {
		lead = 3
	}
	b.WriteString(digits[:lead])
	for i := lead; i < len(digits); i += 3 {
		b.WriteByte(',')
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}

// Format renders the price the way the storefront displays it: "UGX.2,000,000".
func (m Money) Format() string {
	return CurrencyPrefix + m.Grouped()
}

func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.amount.String()), nil
}

func (m *Money) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*m = Money{}
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("decode money string: %w", err)
		}
		*m = ParseMoney(s)
		return nil
	}
	d, err := decimal.NewFromString(string(data))
	if err != nil {
		return fmt.Errorf("decode money number: %w", err)
	}
	m.amount = d
	return nil
}

func (m Money) MarshalBSONValue() (bsontype.Type, []byte, error) {
	d128, err := primitive.ParseDecimal128(m.amount.String())
	if err != nil {
		return 0, nil, fmt.Errorf("encode money: %w", err)
	}
	return bson.MarshalValue(d128)
}

func (m *Money) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	raw := bson.RawValue{Type: t, Value: data}
	switch t {
	case bson.TypeDecimal128:
		d128, ok := raw.Decimal128OK()
		if !ok {
			return fmt.Errorf("decode money: malformed decimal128")
		}
		bi, exp, err := d128.BigInt()
		if err != nil {
			return fmt.Errorf("decode money: %w", err)
		}
		m.amount = decimal.NewFromBigInt(bi, int32(exp))
	case bson.TypeDouble:
		f, _ := raw.DoubleOK()
		m.amount = decimal.NewFromFloat(f)
	case bson.TypeInt32:
		i, _ := raw.Int32OK()
		m.amount = decimal.NewFromInt32(i)
	case bson.TypeInt64:
		i, _ := raw.Int64OK()
		m.amount = decimal.NewFromInt(i)
	case bson.TypeString:
		s, _ := raw.StringValueOK()
		*m = ParseMoney(s)
	case bson.TypeNull, bson.TypeUndefined:
		*m = Money{}
	default:
		return fmt.Errorf("decode money: unsupported bson type %v", t)
	}
	return nil
}
