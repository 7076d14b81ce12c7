package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderItemSummary is the frozen per-line snapshot stored on an order.
type OrderItemSummary struct {
	ProductID uuid.UUID       `json:"product_id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
	Image     string          `json:"image"`
}

// OrderItemSummaries persists as a JSON array.
type OrderItemSummaries []OrderItemSummary

func (s OrderItemSummaries) Value() (driver.Value, error) {
	if s == nil {
		return "[]", nil
	}
	return jsonValue(s)
}

func (s *OrderItemSummaries) Scan(value any) error {
	out := OrderItemSummaries{}
	if err := scanJSON(value, &out); err != nil {
		return fmt.Errorf("items summary: %w", err)
	}
	*s = out
	return nil
}

// Contains reports whether any line references productID.
func (s OrderItemSummaries) Contains(productID uuid.UUID) bool {
	for _, item := range s {
		if item.ProductID == productID {
			return true
		}
	}
	return false
}

// AddressSnapshot is the denormalized delivery address copied onto an order.
type AddressSnapshot struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Phone       string    `json:"phone"`
	AddressLine string    `json:"address_line"`
	City        string    `json:"city"`
	State       string    `json:"state"`
	Pincode     string    `json:"pincode"`
}

func (a AddressSnapshot) Value() (driver.Value, error) {
	return jsonValue(a)
}

func (a *AddressSnapshot) Scan(value any) error {
	var out AddressSnapshot
	if err := scanJSON(value, &out); err != nil {
		return fmt.Errorf("address snapshot: %w", err)
	}
	*a = out
	return nil
}

// Spec is one ordered key/value attribute of a product.
type Spec struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// ProductSpecs keeps attribute order by storing a JSON array of pairs.
type ProductSpecs []Spec

func (p ProductSpecs) Value() (driver.Value, error) {
	if p == nil {
		return "[]", nil
	}
	return jsonValue(p)
}

func (p *ProductSpecs) Scan(value any) error {
	out := ProductSpecs{}
	if err := scanJSON(value, &out); err != nil {
		return fmt.Errorf("product specs: %w", err)
	}
	*p = out
	return nil
}

// StringList persists an ordered list of strings as JSON.
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	return jsonValue(l)
}

func (l *StringList) Scan(value any) error {
	out := StringList{}
	if err := scanJSON(value, &out); err != nil {
		return fmt.Errorf("string list: %w", err)
	}
	*l = out
	return nil
}

// First returns the first entry or an empty string.
func (l StringList) First() string {
	if len(l) == 0 {
		return ""
	}
	return l[0]
}

func jsonValue(v any) (driver.Value, error) {
	buf, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	// string keeps jsonb happy under pgx's simple protocol
	return string(buf), nil
}

func scanJSON(value any, dest any) error {
	var raw []byte
	switch v := value.(type) {
	case nil:
		return nil
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("unsupported scan type %T", value)
	}
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, dest)
}
