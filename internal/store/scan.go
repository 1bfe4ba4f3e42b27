package store

import (
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/mzavyalov/bankdm/internal/model"
)

// parseDecimal converts stored decimal text back to a decimal value.
func parseDecimal(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("parse amount %q: %w", s, err)
	}
	return d, nil
}

// parseDate converts stored date text back to a Date.
func parseDate(s string) (model.Date, error) {
	return model.ParseDate(s)
}

// nullDateArg converts an optional end date to a bindable value.
// nil maps to SQL NULL (open-ended interval).
func nullDateArg(d *model.Date) any {
	if d == nil {
		return nil
	}
	return d.String()
}

// scanNullDate converts a nullable date column to *model.Date.
func scanNullDate(ns sql.NullString) (*model.Date, error) {
	if !ns.Valid || ns.String == "" {
		return nil, nil
	}
	d, err := model.ParseDate(ns.String)
	if err != nil {
		return nil, err
	}
	return &d, nil
}
