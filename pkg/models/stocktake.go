package models

import (
	"encoding/json"
	"time"
)

// StockTake is one recorded shop-floor count: the counted quantities for the
// products of one stock category, taken on one date.
type StockTake struct {
	ID              string          // Row identifier
	Date            time.Time       // When the count was taken
	Take            json.RawMessage // Counted quantities keyed by product ID
	ProductCategory string          // Stock category the count covers
}
