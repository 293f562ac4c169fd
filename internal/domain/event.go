package domain

import (
	"github.com/shopspring/decimal"
)

// DefaultSource is the provenance tag stamped on every record from the IGP feed.
const DefaultSource = "IGP-ArcGIS"

// RawAttributes is the flat attribute object of one feed feature. Values keep
// whatever type the JSON decoder produced (string, float64, json.Number, bool, nil).
type RawAttributes map[string]any

// SeismicEvent is the canonical persisted record. Field names are the stored
// attribute names and are read by downstream consumers.
type SeismicEvent struct {
	Code           string           `json:"code"`
	Reporte        string           `json:"reporte"`
	Fecha          *int64           `json:"fecha,omitempty"` // epoch ms, local
	Hora           string           `json:"hora"`
	FechaEvento    *int64           `json:"fechaevento,omitempty"` // epoch ms, UTC
	Lat            *decimal.Decimal `json:"lat,omitempty"`
	Lon            *decimal.Decimal `json:"lon,omitempty"`
	ProfKM         *Passthrough     `json:"prof_km,omitempty"`
	ProfundidadCat string           `json:"profundidad_cat"`
	Referencia     string           `json:"referencia"`
	Intensidad     string           `json:"intensidad"`
	Sentido        string           `json:"sentido"`
	Magnitud       *decimal.Decimal `json:"magnitud,omitempty"`
	Departamento   string           `json:"departamento"`
	IngresadoTS    int64            `json:"ingresado_ts"`
	Source         string           `json:"source"`
}

// FeedQuery describes one request against the feed.
type FeedQuery struct {
	Where          string
	OutFields      []string
	OrderBy        string
	Limit          int
	ReturnGeometry bool
}

// FeedFields are the attributes requested from the IGP layer.
var FeedFields = []string{
	"objectid", "fecha", "hora", "lat", "lon", "prof", "ref", "int_", "profundidad",
	"sentido", "magnitud", "departamento", "fechaevento", "mag", "code",
}

// LatestEventsQuery returns the query for the newest limit events, newest first.
func LatestEventsQuery(limit int) FeedQuery {
	return FeedQuery{
		Where:          "1=1",
		OutFields:      FeedFields,
		OrderBy:        "fechaevento desc",
		Limit:          limit,
		ReturnGeometry: false,
	}
}
