package domain

import "github.com/shopspring/decimal"

func init() {
	// The storefront reads prices as JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true
}
