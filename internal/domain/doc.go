// Package domain models seismic-event reports published by the Instituto
// Geofísico del Perú (IGP).
//
// # Data Source
//
// Reports come from the IGP ArcGIS REST layer that backs the public
// "Sismos Reportados" map:
//
//	https://ide.igp.gob.pe/arcgis/rest/services/monitoreocensis/SismosReportados/MapServer/0/query
//
// The feed client asks for the newest N features ordered by "fechaevento desc"
// with geometry disabled. Each feature carries a flat "attributes" object; the
// keys used here are:
//
//	code          natural event id, e.g. "2025-0745" (sometimes missing)
//	mag           report label, e.g. "IGP/CENSIS/RS 2025-0745" (not the magnitude)
//	magnitud      magnitude as a float, e.g. 4.2
//	fecha         local date, epoch milliseconds
//	fechaevento   event time, epoch milliseconds UTC
//	hora          display time, e.g. "03:14:51"
//	lat, lon      WGS-84 coordinates as floats
//	prof          depth in km (number, occasionally text)
//	profundidad   depth class: "Superficial", "Intermedio", "Profundo"
//	ref           location reference, e.g. "36 km al N de Chilca, Lima"
//	int_          perceived intensity, when reported
//	sentido       felt report, e.g. "Percibido"
//	departamento  administrative region
//
// Any key may be absent or null.
//
// # Canonical Record
//
// [Normalizer] maps one attribute object to one [SeismicEvent]. Text fields
// default to "". Optional numeric fields are pointers and are left nil when
// absent so that neither DynamoDB items nor JSON output carry null placeholders.
// Floats that must round-trip exactly (lat, lon, magnitud) are rendered to their
// shortest text form and parsed as decimals, so 12.34 is stored as "12.34" and
// never as 12.339999999999999.
//
// # Identity
//
// The IGP code is the primary key. When the feed omits it a random UUID is
// assigned instead; such events are not recognized as the same event on the
// next ingest and can accumulate duplicates.
//
// # Ranking
//
// The store has no index ordered by event time, so [TopN] ranks a bounded,
// unordered page by fechaevento (falling back to ingresado_ts) and keeps the
// first N. With more records than fit in one page the result is the top N of
// that page only.
package domain
