package domain

import (
	"sort"
	"strings"
)

// CartKey identifies a cart line. The same product in two sizes is two lines.
type CartKey struct {
	ProductID string `json:"productId"`
	Size      string `json:"size"`
}

// CartLine is a single pending line item as reported by the Cart Service.
type CartLine struct {
	CartKey
	Quantity int `json:"quantity"`
}

// Cart maps (product, size) to quantity for an authenticated user.
type Cart struct {
	lines map[CartKey]int
}

func NewCart(lines []CartLine) *Cart {
	c := &Cart{lines: make(map[CartKey]int, len(lines))}
	for _, l := range lines {
		if l.Quantity > 0 {
			c.lines[l.CartKey] += l.Quantity
		}
	}
	return c
}

// Set replaces the quantity of a line; zero removes it.
func (c *Cart) Set(key CartKey, qty int) error {
	if strings.TrimSpace(key.ProductID) == "" || strings.TrimSpace(key.Size) == "" {
		return Validationf(CodeInvalidItem, "product and size are required")
	}
	if qty < 0 {
		return Validationf(CodeInvalidItem, "quantity must not be negative")
	}
	if qty == 0 {
		delete(c.lines, key)
		return nil
	}
	c.lines[key] = qty
	return nil
}

func (c *Cart) Quantity(key CartKey) int { return c.lines[key] }

func (c *Cart) Len() int { return len(c.lines) }

func (c *Cart) IsEmpty() bool { return len(c.lines) == 0 }

func (c *Cart) Clear() { clear(c.lines) }

// Lines returns the cart sorted by product then size.
func (c *Cart) Lines() []CartLine {
	out := make([]CartLine, 0, len(c.lines))
	for k, q := range c.lines {
		out = append(out, CartLine{CartKey: k, Quantity: q})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ProductID != out[j].ProductID {
			return out[i].ProductID < out[j].ProductID
		}
		return out[i].Size < out[j].Size
	})
	return out
}
