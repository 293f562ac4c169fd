package domain

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// Passthrough holds a feed value kept as supplied: either a number or text.
// It is used for prof_km, which the feed sends as a number on most reports and
// as free text on a few.
type Passthrough struct {
	Number *decimal.Decimal
	Text   string
}

// NumberValue wraps a numeric value.
func NumberValue(d decimal.Decimal) *Passthrough {
	return &Passthrough{Number: &d}
}

// TextValue wraps a textual value.
func TextValue(s string) *Passthrough {
	return &Passthrough{Text: s}
}

// IsNumber reports whether the value was supplied as a number.
func (p Passthrough) IsNumber() bool {
	return p.Number != nil
}

func (p Passthrough) String() string {
	if p.Number != nil {
		return p.Number.String()
	}
	return p.Text
}

// MarshalJSON writes numbers as bare JSON numbers and text as JSON strings.
func (p Passthrough) MarshalJSON() ([]byte, error) {
	if p.Number != nil {
		return []byte(p.Number.String()), nil
	}
	return json.Marshal(p.Text)
}

func (p *Passthrough) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("decode passthrough text: %w", err)
		}
		*p = Passthrough{Text: s}
		return nil
	}
	d, err := decimal.NewFromString(string(data))
	if err != nil {
		return fmt.Errorf("decode passthrough number: %w", err)
	}
	*p = Passthrough{Number: &d}
	return nil
}
