package dynamo

import (
	"fmt"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/couchcryptid/seismic-data-etl/internal/domain"
	"github.com/shopspring/decimal"
)

// Attribute names referenced outside the item type.
const (
	attrCode        = "code"
	attrFecha       = "fecha"
	attrFechaEvento = "fechaevento"
	attrLat         = "lat"
	attrLon         = "lon"
	attrProfKM      = "prof_km"
	attrReferencia  = "referencia"
	attrIntensidad  = "intensidad"
	attrMagnitud    = "magnitud"
)

// item is the stored shape of a SeismicEvent. Unset optional fields are left
// out of the item entirely.
type item struct {
	Code           string       `dynamodbav:"code"`
	Reporte        string       `dynamodbav:"reporte"`
	Fecha          *epochMillis `dynamodbav:"fecha,omitempty"`
	Hora           string       `dynamodbav:"hora"`
	FechaEvento    *epochMillis `dynamodbav:"fechaevento,omitempty"`
	Lat            *number      `dynamodbav:"lat,omitempty"`
	Lon            *number      `dynamodbav:"lon,omitempty"`
	ProfKM         *depth       `dynamodbav:"prof_km,omitempty"`
	ProfundidadCat string       `dynamodbav:"profundidad_cat"`
	Referencia     string       `dynamodbav:"referencia"`
	Intensidad     string       `dynamodbav:"intensidad"`
	Sentido        string       `dynamodbav:"sentido"`
	Magnitud       *number      `dynamodbav:"magnitud,omitempty"`
	Departamento   string       `dynamodbav:"departamento"`
	IngresadoTS    epochMillis  `dynamodbav:"ingresado_ts"`
	Source         string       `dynamodbav:"source"`
}

func marshalItem(e domain.SeismicEvent) (map[string]types.AttributeValue, error) {
	av, err := attributevalue.MarshalMap(item{
		Code:           e.Code,
		Reporte:        e.Reporte,
		Fecha:          (*epochMillis)(e.Fecha),
		Hora:           e.Hora,
		FechaEvento:    (*epochMillis)(e.FechaEvento),
		Lat:            (*number)(e.Lat),
		Lon:            (*number)(e.Lon),
		ProfKM:         (*depth)(e.ProfKM),
		ProfundidadCat: e.ProfundidadCat,
		Referencia:     e.Referencia,
		Intensidad:     e.Intensidad,
		Sentido:        e.Sentido,
		Magnitud:       (*number)(e.Magnitud),
		Departamento:   e.Departamento,
		IngresadoTS:    epochMillis(e.IngresadoTS),
		Source:         e.Source,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal item %s: %w", e.Code, err)
	}
	return av, nil
}

// unmarshalItem converts a stored item back to an event. Missing attributes
// stay unset; an attribute of the wrong type is an error.
func unmarshalItem(av map[string]types.AttributeValue) (domain.SeismicEvent, error) {
	var it item
	if err := attributevalue.UnmarshalMap(av, &it); err != nil {
		return domain.SeismicEvent{}, fmt.Errorf("unmarshal item: %w", err)
	}
	return domain.SeismicEvent{
		Code:           it.Code,
		Reporte:        it.Reporte,
		Fecha:          (*int64)(it.Fecha),
		Hora:           it.Hora,
		FechaEvento:    (*int64)(it.FechaEvento),
		Lat:            (*decimal.Decimal)(it.Lat),
		Lon:            (*decimal.Decimal)(it.Lon),
		ProfKM:         (*domain.Passthrough)(it.ProfKM),
		ProfundidadCat: it.ProfundidadCat,
		Referencia:     it.Referencia,
		Intensidad:     it.Intensidad,
		Sentido:        it.Sentido,
		Magnitud:       (*decimal.Decimal)(it.Magnitud),
		Departamento:   it.Departamento,
		IngresadoTS:    int64(it.IngresadoTS),
		Source:         it.Source,
	}, nil
}

// number stores a decimal as N with its exact text.
type number decimal.Decimal

func (n number) MarshalDynamoDBAttributeValue() (types.AttributeValue, error) {
	return &types.AttributeValueMemberN{Value: decimal.Decimal(n).String()}, nil
}

func (n *number) UnmarshalDynamoDBAttributeValue(av types.AttributeValue) error {
	v, ok := av.(*types.AttributeValueMemberN)
	if !ok {
		return fmt.Errorf("decimal attribute: unexpected type %T", av)
	}
	d, err := decimal.NewFromString(v.Value)
	if err != nil {
		return fmt.Errorf("decimal attribute: %w", err)
	}
	*n = number(d)
	return nil
}

// epochMillis stores a timestamp as N. Items written by other tools may carry
// a decimal point, which is truncated on read.
type epochMillis int64

func (m epochMillis) MarshalDynamoDBAttributeValue() (types.AttributeValue, error) {
	return &types.AttributeValueMemberN{Value: strconv.FormatInt(int64(m), 10)}, nil
}

func (m *epochMillis) UnmarshalDynamoDBAttributeValue(av types.AttributeValue) error {
	v, ok := av.(*types.AttributeValueMemberN)
	if !ok {
		return fmt.Errorf("timestamp attribute: unexpected type %T", av)
	}
	n, err := strconv.ParseInt(v.Value, 10, 64)
	if err != nil {
		d, derr := decimal.NewFromString(v.Value)
		if derr != nil {
			return fmt.Errorf("timestamp attribute: %w", err)
		}
		n = d.IntPart()
	}
	*m = epochMillis(n)
	return nil
}

// depth stores prof_km as N when numeric and as S otherwise.
type depth domain.Passthrough

func (p depth) MarshalDynamoDBAttributeValue() (types.AttributeValue, error) {
	if p.Number != nil {
		return &types.AttributeValueMemberN{Value: p.Number.String()}, nil
	}
	return &types.AttributeValueMemberS{Value: p.Text}, nil
}

func (p *depth) UnmarshalDynamoDBAttributeValue(av types.AttributeValue) error {
	switch v := av.(type) {
	case *types.AttributeValueMemberS:
		*p = depth(*domain.TextValue(v.Value))
	case *types.AttributeValueMemberN:
		d, err := decimal.NewFromString(v.Value)
		if err != nil {
			return fmt.Errorf("depth attribute: %w", err)
		}
		*p = depth(*domain.NumberValue(d))
	default:
		return fmt.Errorf("depth attribute: unexpected type %T", av)
	}
	return nil
}
