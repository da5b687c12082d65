package bidding

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Price is an optional decimal amount. It marshals as a bare JSON number,
// or null when the upstream did not send one. Non-numeric upstream text
// such as "по запросу" is kept and marshalled back as that string.
type Price struct {
	value decimal.Decimal
	valid bool
	raw   string
}

func NewPrice(d decimal.Decimal) Price {
	return Price{value: d, valid: true}
}

// PriceFromString parses a decimal string such as "1000" or "50.5".
func PriceFromString(s string) (Price, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Price{}, fmt.Errorf("parse price %q: %w", s, err)
	}
	return NewPrice(d), nil
}

func (p Price) Valid() bool {
	return p.valid
}

// Raw returns the upstream text of a price that could not be parsed.
func (p Price) Raw() string {
	return p.raw
}

func (p Price) Decimal() decimal.Decimal {
	return p.value
}

func (p Price) String() string {
	if !p.valid {
		return ""
	}
	return p.value.String()
}

func (p Price) MarshalJSON() ([]byte, error) {
	if !p.valid {
		if p.raw != "" {
			return json.Marshal(p.raw)
		}
		return []byte("null"), nil
	}
	return []byte(p.value.String()), nil
}

func (p *Price) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*p = Price{}
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if s == "" {
			*p = Price{}
			return nil
		}
		d, err := decimal.NewFromString(strings.TrimSpace(s))
		if err != nil {
			*p = Price{raw: s}
			return nil
		}
		*p = NewPrice(d)
		return nil
	}
	d, err := decimal.NewFromString(string(data))
	if err != nil {
		return fmt.Errorf("decode price %s: %w", data, err)
	}
	*p = NewPrice(d)
	return nil
}
