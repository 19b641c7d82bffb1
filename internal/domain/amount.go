package domain

import "github.com/shopspring/decimal"

// Amount is a strictly positive monetary value.
type Amount struct {
	value decimal.Decimal
}

func NewAmount(value decimal.Decimal) (Amount, error) {
	if !ValidAmount(value) {
		return Amount{}, ErrInvalidAmount
	}
	return Amount{value: value}, nil
}

func NewAmountFromFloat(value float64) (Amount, error) {
	return NewAmount(decimal.NewFromFloat(value))
}

func ValidAmount(value decimal.Decimal) bool {
	return value.IsPositive()
}

func (a Amount) Decimal() decimal.Decimal {
	return a.value
}

func (a Amount) Equal(other Amount) bool {
	return a.value.Equal(other.value)
}

func (a Amount) String() string {
	return a.value.String()
}
