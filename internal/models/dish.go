package models

import (
	"fmt"
	"time"
)

// DishCategory represents the category of a dish on the festive menu
type DishCategory string

const (
	// Dish categories
	DishCategoryAppetizer DishCategory = "appetizer"
	DishCategoryMain      DishCategory = "main"
	DishCategorySoup      DishCategory = "soup"
	DishCategoryStaple    DishCategory = "staple"
	DishCategoryDessert   DishCategory = "dessert"
)

// IngredientCategory represents the category of an ingredient
type IngredientCategory string

const (
	// Ingredient categories
	IngredientCategoryMeat      IngredientCategory = "meat"
	IngredientCategoryVegetable IngredientCategory = "vegetable"
	IngredientCategorySeafood   IngredientCategory = "seafood"
	IngredientCategoryPantry    IngredientCategory = "pantry"
	IngredientCategoryOther     IngredientCategory = "other"
)

// Ingredient represents a single ingredient of a dish. The amount is kept
// as free text ("适量", "500g") and never parsed.
type Ingredient struct {
	Item     string             `json:"item"`
	Amount   string             `json:"amount"`
	Category IngredientCategory `json:"category"`
}

// Dish represents a single dish on the menu. DisplayName carries the
// auspicious horse-year alias while OriginalName is the common name.
type Dish struct {
	ID           string       `json:"id"`
	Category     DishCategory `json:"type"`
	DisplayName  string       `json:"name"`
	OriginalName string       `json:"originalName"`
	Meaning      string       `json:"meaning"`
	Ingredients  []Ingredient `json:"ingredients"`
	Steps        []string     `json:"steps"`
	PrepTime     int          `json:"prepTime"`
	CookTime     int          `json:"cookTime"`
}

// IsDishCategoryValid checks if a dish category is valid
func IsDishCategoryValid(category string) bool {
	validCategories := map[DishCategory]bool{
		DishCategoryAppetizer: true,
		DishCategoryMain:      true,
		DishCategorySoup:      true,
		DishCategoryStaple:    true,
		DishCategoryDessert:   true,
	}
	return validCategories[DishCategory(category)]
}

// IsIngredientCategoryValid checks if an ingredient category is valid
func IsIngredientCategoryValid(category string) bool {
	validCategories := map[IngredientCategory]bool{
		IngredientCategoryMeat:      true,
		IngredientCategoryVegetable: true,
		IngredientCategorySeafood:   true,
		IngredientCategoryPantry:    true,
		IngredientCategoryOther:     true,
	}
	return validCategories[IngredientCategory(category)]
}

// ValidateDish validates a dish as delivered by the generative
// collaborator or an edit request
func ValidateDish(dish *Dish) error {
	if dish.ID == "" {
		return fmt.Errorf("dish id is required")
	}
	if !IsDishCategoryValid(string(dish.Category)) {
		return fmt.Errorf("invalid dish category: %q", dish.Category)
	}
	if dish.OriginalName == "" {
		return fmt.Errorf("dish original name is required")
	}
	if dish.PrepTime < 0 || dish.CookTime < 0 {
		return fmt.Errorf("dish prep and cook times must be non-negative")
	}
	for _, ing := range dish.Ingredients {
		if !IsIngredientCategoryValid(string(ing.Category)) {
			return fmt.Errorf("invalid ingredient category: %q", ing.Category)
		}
	}
	return nil
}

// GetTotalTime returns the total time needed to prepare the dish
func (d *Dish) GetTotalTime() time.Duration {
	return time.Duration(d.PrepTime+d.CookTime) * time.Minute
}

// HasProteinIngredient reports whether any ingredient is meat or seafood.
// Used to bucket dishes for the prep narrative, not for diet filtering.
func (d *Dish) HasProteinIngredient() bool {
	for _, ing := range d.Ingredients {
		if ing.Category == IngredientCategoryMeat || ing.Category == IngredientCategorySeafood {
			return true
		}
	}
	return false
}

// IsPlantMain reports whether the dish is a main course with no meat or
// seafood ingredient. Vacuously true for a main with an empty ingredient
// list.
func (d *Dish) IsPlantMain() bool {
	return d.Category == DishCategoryMain && !d.HasProteinIngredient()
}

// IsInCategory checks if the dish belongs to a specific category
func (d *Dish) IsInCategory(category DishCategory) bool {
	return d.Category == category
}
