// internal/adapters/out/record/codec.go
//
// record は RTDB / Firestore 共通のドキュメント形 (map[string]any) と domain の変換。
// フィールド名は既存データ (web クライアントが書いた products/orders) に合わせる。
package record

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	orderdom "storefront/internal/domain/order"
	productdom "storefront/internal/domain/product"
)

// TimeEncoder turns a timestamp into the store's native value.
type TimeEncoder func(time.Time) any

// Millis encodes as epoch milliseconds (RTDB).
func Millis(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.UnixMilli()
}

// Native keeps time.Time (Firestore timestamp).
func Native(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.UTC()
}

// ============================================================
// products/{id}
// ============================================================

// ProductFields encodes p without its id (the id is the key).
// stock is omitted when untracked; empty optional strings are omitted.
func ProductFields(p productdom.Product, enc TimeEncoder) map[string]any {
	m := map[string]any{
		"name":    p.Name.Primary,
		"price":   p.Price,
		"gallery": nonNilStrings(p.Gallery),
	}
	putStr(m, "name_en", p.Name.En)
	putStr(m, "desc", p.Desc.Primary)
	putStr(m, "desc_en", p.Desc.En)
	putStr(m, "descExtra", p.DescExtra.Primary)
	putStr(m, "descExtra_en", p.DescExtra.En)
	putStr(m, "imageUrl", p.ImageURL)

	if p.Stock != nil {
		m["stock"] = *p.Stock
	}
	if p.BeforeAfter != nil && !p.BeforeAfter.IsZero() {
		ba := map[string]any{}
		putStr(ba, "beforeUrl", p.BeforeAfter.BeforeURL)
		putStr(ba, "afterUrl", p.BeforeAfter.AfterURL)
		m["beforeAfter"] = ba
	}
	if v := enc(p.CreatedAt); v != nil {
		m["createdAt"] = v
	}
	if v := enc(p.UpdatedAt); v != nil {
		m["updatedAt"] = v
	}
	return m
}

// ProductFromFields decodes a product node. Missing or malformed fields fall back to zero values.
func ProductFromFields(id string, data map[string]any) productdom.Product {
	getStr := func(key string) string {
		return strings.TrimSpace(AsString(data[key]))
	}

	p := productdom.Product{
		ID:        id,
		Name:      productdom.Localized{Primary: getStr("name"), En: getStr("name_en")},
		Desc:      productdom.Localized{Primary: getStr("desc"), En: getStr("desc_en")},
		DescExtra: productdom.Localized{Primary: getStr("descExtra"), En: getStr("descExtra_en")},
		Price:     AsFloat(data["price"]),
		ImageURL:  getStr("imageUrl"),
		Gallery:   AsStrings(data["gallery"]),
	}
	if v, ok := data["stock"]; ok && v != nil {
		n := productdom.StockValue(v)
		p.Stock = &n
	}
	if ba, ok := data["beforeAfter"].(map[string]any); ok {
		b := &productdom.BeforeAfter{
			BeforeURL: strings.TrimSpace(AsString(ba["beforeUrl"])),
			AfterURL:  strings.TrimSpace(AsString(ba["afterUrl"])),
		}
		if !b.IsZero() {
			p.BeforeAfter = b
		}
	}
	p.CreatedAt, _ = AsTime(data["createdAt"])
	p.UpdatedAt, _ = AsTime(data["updatedAt"])
	return p
}

// ProductsFromTree decodes the whole products node ({id: {...}}), skipping non-object children.
func ProductsFromTree(tree map[string]any) []productdom.Product {
	out := make([]productdom.Product, 0, len(tree))
	for id, v := range tree {
		m, ok := v.(map[string]any)
		if !ok {
			continue
		}
		out = append(out, ProductFromFields(id, m))
	}
	productdom.SortCatalog(out)
	return out
}

// ============================================================
// orders/{uid}/{orderId}
// ============================================================

func OrderFields(o orderdom.Order, createdAt any) map[string]any {
	items := make([]any, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, map[string]any{
			"productId": it.ProductID,
			"name":      it.Name,
			"qty":       it.Qty,
			"price":     it.Price,
		})
	}
	addr := o.DeliveryAddress
	if addr == nil {
		addr = map[string]any{}
	}
	m := map[string]any{
		"status":          o.Status,
		"total":           o.Total,
		"items":           items,
		"deliveryAddress": addr,
	}
	if createdAt != nil {
		m["createdAt"] = createdAt
	}
	return m
}

// OrderFromFields decodes an order node. items may be a list or a keyed map (legacy).
func OrderFromFields(uid, id string, data map[string]any) orderdom.Order {
	o := orderdom.Order{
		ID:     id,
		UserID: uid,
		Status: strings.TrimSpace(AsString(data["status"])),
		Total:  AsFloat(data["total"]),
	}
	o.CreatedAt, _ = AsTime(data["createdAt"])

	for _, raw := range asList(data["items"]) {
		m, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		o.Items = append(o.Items, orderdom.OrderItem{
			ProductID: strings.TrimSpace(AsString(m["productId"])),
			Name:      AsString(m["name"]),
			Qty:       productdom.StockValue(m["qty"]),
			Price:     AsFloat(m["price"]),
		})
	}

	if addr, ok := data["deliveryAddress"].(map[string]any); ok {
		o.DeliveryAddress = addr
	} else {
		o.DeliveryAddress = map[string]any{}
	}
	return o
}

// ============================================================
// value helpers
// ============================================================

func AsString(v any) string {
	if v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	default:
		return fmt.Sprint(v)
	}
}

// AsFloat is Number(v): NaN/Inf and unparsable values become 0.
func AsFloat(v any) float64 {
	var f float64
	switch t := v.(type) {
	case nil:
		return 0
	case float64:
		f = t
	case float32:
		f = float64(t)
	case int:
		f = float64(t)
	case int32:
		f = float64(t)
	case int64:
		f = float64(t)
	case json.Number:
		f, _ = t.Float64()
	case string:
		f, _ = strconv.ParseFloat(strings.TrimSpace(t), 64)
	default:
		return 0
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

func AsStrings(v any) []string {
	out := []string{}
	switch t := v.(type) {
	case []string:
		for _, s := range t {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
	case []any:
		for _, x := range t {
			if s, ok := x.(string); ok {
				if s = strings.TrimSpace(s); s != "" {
					out = append(out, s)
				}
			}
		}
	}
	return out
}

// AsTime returns (time, ok). Numbers are epoch milliseconds.
func AsTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case nil:
		return time.Time{}, false
	case time.Time:
		if t.IsZero() {
			return time.Time{}, false
		}
		return t.UTC(), true
	case float64, int64, int, json.Number:
		ms := int64(AsFloat(t))
		if ms <= 0 {
			return time.Time{}, false
		}
		return time.UnixMilli(ms).UTC(), true
	default:
		return time.Time{}, false
	}
}

func asList(v any) []any {
	switch t := v.(type) {
	case []any:
		return t
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out := make([]any, 0, len(keys))
		for _, k := range keys {
			out = append(out, t[k])
		}
		return out
	default:
		return nil
	}
}

func putStr(m map[string]any, key, v string) {
	if v = strings.TrimSpace(v); v != "" {
		m[key] = v
	}
}

func nonNilStrings(xs []string) []string {
	if xs == nil {
		return []string{}
	}
	return xs
}
