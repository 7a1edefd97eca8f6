package mockapi

import (
	"github.com/shopspring/decimal"

	"github.com/utafrali/storefront/internal/domain"
)

func price(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// SeedCatalog returns the sample products installed by POST /products/seed.
func SeedCatalog() []domain.Product {
	return []domain.Product{
		{
			Name:           "Bamboo Toothbrush Set",
			Description:    "Four biodegradable bamboo toothbrushes with charcoal-infused bristles.",
			Price:          price("12.99"),
			Image:          "https://images.unsplash.com/photo-1607613009820-a29f7bb81c04",
			Category:       "Personal Care",
			Sustainability: "Compostable handle, plastic-free packaging",
		},
		{
			Name:           "Reusable Beeswax Wraps",
			Description:    "Set of three organic cotton wraps coated in beeswax, a replacement for cling film.",
			Price:          price("18.50"),
			Image:          "https://images.unsplash.com/photo-1605600659908-0ef719419d41",
			Category:       "Kitchen",
			Sustainability: "Replaces single-use plastic wrap",
		},
		{
			Name:           "Stainless Steel Water Bottle",
			Description:    "Double-walled insulated bottle that keeps drinks cold for 24 hours.",
			Price:          price("29.99"),
			Image:          "https://images.unsplash.com/photo-1602143407151-7111542de6e8",
			Category:       "Accessories",
			Sustainability: "Lifetime product, fully recyclable",
		},
		{
			Name:           "Organic Cotton Tote Bag",
			Description:    "Sturdy shopping tote woven from GOTS-certified organic cotton.",
			Price:          price("15.00"),
			Image:          "https://images.unsplash.com/photo-1591561954557-26941169b49e",
			Category:       "Accessories",
			Sustainability: "Organic cotton, fair-trade certified",
		},
		{
			Name:           "Solid Shampoo Bar",
			Description:    "Sulfate-free shampoo bar equal to three bottles of liquid shampoo.",
			Price:          price("9.95"),
			Image:          "https://images.unsplash.com/photo-1600857062241-98e5dba7f214",
			Category:       "Personal Care",
			Sustainability: "Zero-waste, no bottle",
		},
		{
			Name:           "Compostable Phone Case",
			Description:    "Plant-based phone case that breaks down in a home compost.",
			Price:          price("34.00"),
			Image:          "https://images.unsplash.com/photo-1601593346740-925612772716",
			Category:       "Electronics",
			Sustainability: "100% compostable",
		},
		{
			Name:           "Solar Power Bank",
			Description:    "10,000 mAh power bank with an integrated solar panel.",
			Price:          price("45.99"),
			Image:          "https://images.unsplash.com/photo-1620714223084-8fcacc6dfd8d",
			Category:       "Electronics",
			Sustainability: "Charges from sunlight",
		},
		{
			Name:           "Glass Food Containers",
			Description:    "Five borosilicate containers with bamboo lids.",
			Price:          price("39.90"),
			Image:          "https://images.unsplash.com/photo-1584269600464-37b1b58a9fe7",
			Category:       "Kitchen",
			Sustainability: "Plastic-free food storage",
		},
	}
}
