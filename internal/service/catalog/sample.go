package catalog

import (
	"time"

	"github.com/mamadbah2/farmer-market/internal/domain/models"
)

// sampleVegetables is the listing served in development when the store is down.
func sampleVegetables(now time.Time) []models.Vegetable {
	mk := func(id, name string, cat models.Category, price float64, qty int, unit string) models.Vegetable {
		return models.Vegetable{
			ID:        id,
			SellerID:  "sample-seller",
			Name:      name,
			Category:  cat,
			Price:     price,
			Quantity:  qty,
			Unit:      unit,
			Location:  "Pune",
			CreatedAt: now,
			UpdatedAt: now,
		}
	}
	return []models.Vegetable{
		mk("sample-1", "Tomato", models.CategoryVegetable, 40, 25, "kg"),
		mk("sample-2", "Spinach", models.CategoryVegetable, 20, 15, "bunch"),
		mk("sample-3", "Mango", models.CategoryFruit, 120, 10, "kg"),
		mk("sample-4", "Curry leaves", models.CategoryVegetable, 0, 5, "bunch"),
	}
}
