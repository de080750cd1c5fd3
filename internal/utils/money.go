package utils

import (
	"fmt"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Money conversions between the arithmetic type (shopspring decimal) and the
// storage type (BSON Decimal128). Amounts are never floats: every conversion
// round-trips through the decimal string representation.

func ToDecimal128(d decimal.Decimal) (primitive.Decimal128, error) {
	v, err := primitive.ParseDecimal128(d.String())
	if err != nil {
		return primitive.Decimal128{}, fmt.Errorf("failed to convert %s to decimal128: %w", d, err)
	}
	return v, nil
}

// MustDecimal128 is for values already validated by the caller.
func MustDecimal128(d decimal.Decimal) primitive.Decimal128 {
	v, err := ToDecimal128(d)
	if err != nil {
		panic(err)
	}
	return v
}

func FromDecimal128(v primitive.Decimal128) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(v.String())
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to parse decimal128 %s: %w", v, err)
	}
	return d, nil
}

// Decimal128Zero returns the stored representation of zero.
func Decimal128Zero() primitive.Decimal128 {
	return MustDecimal128(decimal.Zero)
}

// PercentageOf computes amount × pct / 100 exactly.
func PercentageOf(amount, pct decimal.Decimal) decimal.Decimal {
	return amount.Mul(pct).Div(decimal.NewFromInt(100))
}
