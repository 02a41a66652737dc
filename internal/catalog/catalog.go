package catalog

import (
	"encoding/json"
	"fmt"
)

// PriceTable maps a product size label to its unit price in minor currency
// units. Loaded once at startup and injected; never mutated after that.
type PriceTable map[string]int64

func Default() PriceTable {
	return PriceTable{
		"4 oz":     1499,
		"16 oz":    3499,
		"1 gallon": 14900,
	}
}

// FromJSON parses a configured price table, e.g. {"4 oz": 1499, "16 oz": 3499}.
func FromJSON(raw string) (PriceTable, error) {
	var table PriceTable
	if err := json.Unmarshal([]byte(raw), &table); err != nil {
		return nil, fmt.Errorf("parse catalog prices: %w", err)
	}
	if len(table) == 0 {
		return nil, fmt.Errorf("catalog prices must not be empty")
	}
	return table, nil
}

// UnitAmount returns the unit price in minor units for a size label.
// The error names the offending size so it can surface to the caller as-is.
func (t PriceTable) UnitAmount(size string) (int64, error) {
	amount, ok := t[size]
	if !ok {
		return 0, fmt.Errorf("unsupported size: %s", size)
	}
	return amount, nil
}
