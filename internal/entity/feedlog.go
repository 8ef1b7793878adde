package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

type FoodCategory string

const (
	FoodDry   FoodCategory = "Suku charu"
	FoodGreen FoodCategory = "Lilu charu"
	FoodGrain FoodCategory = "Dhaan"
)

type FoodItem struct {
	Name     string       `json:"name"`
	Category FoodCategory `json:"category"`
}

var AllFoodItems = []FoodItem{
	{Name: "TUVER BHUSU", Category: FoodDry},
	{Name: "GHAU BHUSU", Category: FoodDry},
	{Name: "CHANA BHUSU", Category: FoodDry},
	{Name: "HUNDIYU-JUVAR", Category: FoodDry},
	{Name: "HUNDIYU-BAJARI", Category: FoodDry},
	{Name: "SHERADI KUCHA", Category: FoodDry},
	{Name: "SAILEG", Category: FoodGreen},
	{Name: "NEPIER MAKAI", Category: FoodGreen},
	{Name: "NEPIER BAJARI - JUVAR", Category: FoodGreen},
	{Name: "NEPIER BAJARI - SHERADI", Category: FoodGreen},
	{Name: "BAJARI - MAKAI", Category: FoodGreen},
	{Name: "VEGETABLE WASTE", Category: FoodGreen},
	{Name: "KAPAS KHOD", Category: FoodGrain},
	{Name: "MAKAI KHOD", Category: FoodGrain},
	{Name: "READYMADE FEED", Category: FoodGrain},
	{Name: "HOMEMADE MIX", Category: FoodGrain},
}

func KnownFood(name string) bool {
	for _, item := range AllFoodItems {
		if item.Name == name {
			return true
		}
	}
	return false
}

// FeedLog is one food entry for a cow on a day. Notes are repeated on every entry of the day.
type FeedLog struct {
	ID          string          `json:"id"`
	CowID       string          `json:"cow_id"`
	Date        string          `json:"date"`
	FoodName    string          `json:"food_name"`
	QuantityKg  decimal.Decimal `json:"quantity_kg"`
	Notes       string          `json:"notes,omitempty"`
	DateAdded   time.Time       `json:"date_added"`
	LastUpdated time.Time       `json:"last_updated"`
}

type FeedInput struct {
	FoodName   string          `json:"food_name"`
	QuantityKg decimal.Decimal `json:"quantity_kg"`
}
