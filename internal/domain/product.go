package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Product is a catalog entry as served by the storefront API.
type Product struct {
	ID             string          `json:"_id"`
	Name           string          `json:"name"`
	Description    string          `json:"description,omitempty"`
	Price          decimal.Decimal `json:"price"`
	Image          string          `json:"image,omitempty"`
	Category       string          `json:"category,omitempty"`
	Sustainability string          `json:"sustainability,omitempty"`
}

// Matches reports whether the product's name, description or category
// contains term, ignoring case. An empty term matches everything.
func (p *Product) Matches(term string) bool {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return true
	}
	return strings.Contains(strings.ToLower(p.Name), term) ||
		strings.Contains(strings.ToLower(p.Description), term) ||
		strings.Contains(strings.ToLower(p.Category), term)
}
