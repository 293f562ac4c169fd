package domain

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/shopspring/decimal"
)

// Normalizer maps raw feed attributes to canonical records. It is safe for
// concurrent use.
type Normalizer struct {
	clock  clockwork.Clock
	source string
	newID  func() string
}

// NewNormalizer creates a Normalizer that stamps records with the given source
// tag and the clock's current time. A nil clock uses real time and an empty
// source uses DefaultSource.
func NewNormalizer(clock clockwork.Clock, source string) *Normalizer {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if source == "" {
		source = DefaultSource
	}
	return &Normalizer{
		clock:  clock,
		source: source,
		newID:  uuid.NewString,
	}
}

// Normalize converts one attribute object into a SeismicEvent. Missing or
// malformed attributes never fail: text falls back to "", optional numbers
// are left unset.
func (n *Normalizer) Normalize(raw RawAttributes) SeismicEvent {
	code := text(raw["code"])
	if code == "" {
		code = n.newID()
	}

	return SeismicEvent{
		Code:           code,
		Reporte:        text(raw["mag"]),
		Fecha:          epochMillis(raw["fecha"]),
		Hora:           text(raw["hora"]),
		FechaEvento:    epochMillis(raw["fechaevento"]),
		Lat:            exactDecimal(raw["lat"]),
		Lon:            exactDecimal(raw["lon"]),
		ProfKM:         passthrough(raw["prof"]),
		ProfundidadCat: text(raw["profundidad"]),
		Referencia:     text(raw["ref"]),
		Intensidad:     text(raw["int_"]),
		Sentido:        text(raw["sentido"]),
		Magnitud:       exactDecimal(raw["magnitud"]),
		Departamento:   text(raw["departamento"]),
		IngresadoTS:    n.clock.Now().UnixMilli(),
		Source:         n.source,
	}
}

// NormalizeAll converts every attribute object, preserving feed order.
func (n *Normalizer) NormalizeAll(raws []RawAttributes) []SeismicEvent {
	events := make([]SeismicEvent, 0, len(raws))
	for _, raw := range raws {
		events = append(events, n.Normalize(raw))
	}
	return events
}

// text renders an attribute as a string. Null, empty, zero and false all
// count as absent and yield "".
func text(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		if x == 0 || math.IsNaN(x) || math.IsInf(x, 0) {
			return ""
		}
		return strconv.FormatFloat(x, 'f', -1, 64)
	case json.Number:
		if f, err := x.Float64(); err == nil && f == 0 {
			return ""
		}
		return x.String()
	case int:
		if x == 0 {
			return ""
		}
		return strconv.Itoa(x)
	case int64:
		if x == 0 {
			return ""
		}
		return strconv.FormatInt(x, 10)
	case bool:
		if !x {
			return ""
		}
		return strconv.FormatBool(x)
	default:
		return ""
	}
}

// epochMillis reads an epoch-millisecond timestamp. Zero and unparseable
// values are treated as absent.
func epochMillis(v any) *int64 {
	var ms int64
	switch x := v.(type) {
	case float64:
		ms = truncMillis(x)
	case json.Number:
		if i, err := x.Int64(); err == nil {
			ms = i
		} else if f, err := x.Float64(); err == nil {
			ms = truncMillis(f)
		}
	case int:
		ms = int64(x)
	case int64:
		ms = x
	case string:
		s := strings.TrimSpace(x)
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			ms = i
		} else if f, err := strconv.ParseFloat(s, 64); err == nil {
			ms = truncMillis(f)
		}
	}
	if ms == 0 {
		return nil
	}
	return &ms
}

// truncMillis drops the fraction of f. NaN, infinities and values outside the
// int64 range come back as 0 so the caller treats them as absent.
func truncMillis(f float64) int64 {
	if math.IsNaN(f) || f >= math.MaxInt64 || f <= math.MinInt64 {
		return 0
	}
	return int64(f)
}

// exactDecimal converts a numeric attribute to a decimal. Floats go through
// their shortest round-trip text so the decimal carries the digits the feed
// sent rather than the binary expansion. Zero is a valid value; null and
// unparseable text are absent.
func exactDecimal(v any) *decimal.Decimal {
	var (
		d   decimal.Decimal
		err error
	)
	switch x := v.(type) {
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return nil
		}
		d, err = decimal.NewFromString(strconv.FormatFloat(x, 'f', -1, 64))
	case json.Number:
		d, err = decimal.NewFromString(x.String())
	case int:
		d = decimal.NewFromInt(int64(x))
	case int64:
		d = decimal.NewFromInt(x)
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return nil
		}
		d, err = decimal.NewFromString(s)
	default:
		return nil
	}
	if err != nil {
		return nil
	}
	return &d
}

// passthrough keeps prof as supplied: numbers become decimals under the same
// fidelity rule as coordinates, text is kept verbatim.
func passthrough(v any) *Passthrough {
	switch x := v.(type) {
	case nil:
		return nil
	case string:
		return TextValue(x)
	case bool:
		return TextValue(strconv.FormatBool(x))
	default:
		d := exactDecimal(x)
		if d == nil {
			return nil
		}
		return NumberValue(*d)
	}
}
