// internal/domain/product/stock.go
package product

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// StockUpdateFunc maps the currently stored stock value to its replacement.
//
// current is the raw value held by the store (nil when missing). ok=false means
// "do not commit". The store may call the function several times while it resolves
// conflicting writers, so it must stay free of side effects.
type StockUpdateFunc func(current any) (next int64, ok bool)

// Decrement returns the reservation update: commit current-qty when the result stays >= 0.
// A negative qty turns it into the compensating increment.
func Decrement(qty int64) StockUpdateFunc {
	return func(current any) (int64, bool) {
		cur := StockValue(current)
		next := cur - qty
		if next < 0 {
			return 0, false
		}
		return next, true
	}
}

// StockValue reads a raw stored stock value. Missing or non-numeric values count as 0.
func StockValue(v any) int64 {
	switch t := v.(type) {
	case nil:
		return 0
	case int:
		return int64(t)
	case int32:
		return int64(t)
	case int64:
		return t
	case uint32:
		return int64(t)
	case uint64:
		if t > math.MaxInt64 {
			return 0
		}
		return int64(t)
	case float32:
		return floatStock(float64(t))
	case float64:
		return floatStock(t)
	case json.Number:
		if n, err := t.Int64(); err == nil {
			return n
		}
		if f, err := t.Float64(); err == nil {
			return floatStock(f)
		}
		return 0
	case string:
		s := strings.TrimSpace(t)
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return n
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return floatStock(f)
		}
		return 0
	case *int64:
		if t == nil {
			return 0
		}
		return *t
	default:
		return 0
	}
}

func floatStock(f float64) int64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return int64(math.Trunc(f))
}
