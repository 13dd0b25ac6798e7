package store

import (
	"database/sql/driver"
	"fmt"

	"github.com/shopspring/decimal"
)

// decimalValue is a database/sql-compatible wrapper around
// shopspring/decimal so money columns don't round-trip through float64
// on the way to and from Postgres.
type decimalValue struct {
	decimal.Decimal
}

func newDecimal(f float64) decimalValue {
	return decimalValue{decimal.NewFromFloat(f)}
}

func (d decimalValue) Value() (driver.Value, error) {
	return d.Decimal.String(), nil
}

func (d *decimalValue) Scan(value interface{}) error {
	switch v := value.(type) {
	case []byte:
		dec, err := decimal.NewFromString(string(v))
		if err != nil {
			return err
		}
		d.Decimal = dec
	case string:
		dec, err := decimal.NewFromString(v)
		if err != nil {
			return err
		}
		d.Decimal = dec
	case float64:
		d.Decimal = decimal.NewFromFloat(v)
	case int64:
		d.Decimal = decimal.NewFromInt(v)
	default:
		return fmt.Errorf("cannot scan decimal value: %v", value)
	}
	return nil
}

func (d decimalValue) Float() float64 {
	f, _ := d.Decimal.Float64()
	return f
}
