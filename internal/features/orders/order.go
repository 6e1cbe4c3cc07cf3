package orders

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Columns of the food-orders export that the aggregations read.
const (
	ColPlacedAt      = "Order Date and Time"
	ColOrderValue    = "Order Value"
	ColCommissionFee = "Commission Fee"
	ColDeliveryFee   = "Delivery Fee"
	ColPaymentMethod = "Payment Method"
)

// Measure names a numeric column.
type Measure string

const (
	OrderValue    Measure = ColOrderValue
	CommissionFee Measure = ColCommissionFee
	DeliveryFee   Measure = ColDeliveryFee
)

var timestampLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

var errUnknownMeasure = errors.New("not a decoded measure")

// Order is the typed view of one Row. A field that failed to decode is
// left null and described in Issues.
type Order struct {
	Line int

	PlacedAt    time.Time
	PlacedValid bool
	// Date is the raw date part of Order Date and Time, used as the daily key.
	Date string

	OrderValue    decimal.NullDecimal
	CommissionFee decimal.NullDecimal
	DeliveryFee   decimal.NullDecimal

	PaymentMethod string

	Issues []*FieldError

	row Row
}

// Decode never fails as a whole; problems land in Order.Issues.
func Decode(row Row) Order {
	o := Order{Line: row.Line, row: row}

	if raw, ok := present(row, ColPlacedAt); !ok {
		o.addIssue(ColPlacedAt, FieldMissing, raw, nil)
	} else {
		o.Date = dateKey(raw)
		if t, err := parseTimestamp(raw); err != nil {
			o.addIssue(ColPlacedAt, FieldInvalid, raw, err)
		} else {
			o.PlacedAt, o.PlacedValid = t, true
		}
	}

	o.OrderValue = o.decimalField(row, ColOrderValue)
	o.CommissionFee = o.decimalField(row, ColCommissionFee)
	o.DeliveryFee = o.decimalField(row, ColDeliveryFee)

	if raw, ok := row.Get(ColPaymentMethod); ok {
		o.PaymentMethod = strings.TrimSpace(raw)
	}
	return o
}

// DecodeAll decodes every row in dataset order.
func DecodeAll(ds *Dataset) []Order {
	out := make([]Order, 0, len(ds.Rows))
	for _, row := range ds.Rows {
		out = append(out, Decode(row))
	}
	return out
}

// Value returns the decoded measure, or the FieldError explaining why
// there is none.
func (o Order) Value(m Measure) (decimal.Decimal, *FieldError) {
	var v decimal.NullDecimal
	switch m {
	case OrderValue:
		v = o.OrderValue
	case CommissionFee:
		v = o.CommissionFee
	case DeliveryFee:
		v = o.DeliveryFee
	default:
		return decimal.Zero, &FieldError{Line: o.Line, Column: string(m), Kind: FieldInvalid, Err: errUnknownMeasure}
	}
	if v.Valid {
		return v.Decimal, nil
	}
	if fe := o.Issue(string(m)); fe != nil {
		return decimal.Zero, fe
	}
	return decimal.Zero, &FieldError{Line: o.Line, Column: string(m), Kind: FieldMissing}
}

// DateKey returns the daily bucket key, or the FieldError recorded for a
// missing or unparseable timestamp.
func (o Order) DateKey() (string, *FieldError) {
	if fe := o.Issue(ColPlacedAt); fe != nil {
		return "", fe
	}
	if !o.PlacedValid || o.Date == "" {
		return "", &FieldError{Line: o.Line, Column: ColPlacedAt, Kind: FieldMissing}
	}
	return o.Date, nil
}

// Field returns the trimmed raw text of any column of the source row.
func (o Order) Field(column string) (string, bool) {
	raw, ok := o.row.Get(column)
	return strings.TrimSpace(raw), ok
}

// Issue returns the decode problem recorded for column, if any.
func (o Order) Issue(column string) *FieldError {
	for _, fe := range o.Issues {
		if fe.Column == column {
			return fe
		}
	}
	return nil
}

func (o *Order) addIssue(column string, kind FieldErrorKind, raw string, err error) {
	o.Issues = append(o.Issues, &FieldError{Line: o.Line, Column: column, Kind: kind, Raw: raw, Err: err})
}

func (o *Order) decimalField(row Row, column string) decimal.NullDecimal {
	raw, ok := present(row, column)
	if !ok {
		// Only complain about columns the file actually has.
		if row.header != nil {
			if _, declared := row.header.index[column]; declared {
				o.addIssue(column, FieldMissing, raw, nil)
			}
		}
		return decimal.NullDecimal{}
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		o.addIssue(column, FieldInvalid, raw, err)
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: d, Valid: true}
}

// present returns the trimmed value and whether it is non-blank.
func present(row Row, column string) (string, bool) {
	raw, ok := row.Get(column)
	raw = strings.TrimSpace(raw)
	return raw, ok && raw != ""
}

// dateKey is the text before the first space or 'T'.
func dateKey(raw string) string {
	if i := strings.IndexAny(raw, " T"); i >= 0 {
		return raw[:i]
	}
	return raw
}

func parseTimestamp(raw string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised timestamp format")
}
