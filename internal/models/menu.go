package models

import (
	"fmt"
)

// Menu represents a full generated dinner menu. Dish order is the
// generation/edit order, not the serving order.
type Menu struct {
	Dishes         []Dish `json:"dishes"`
	OverallMeaning string `json:"overallMeaning"`
}

// UserInput represents a menu generation request
type UserInput struct {
	PeopleCount     int      `json:"peopleCount"`
	Tastes          []string `json:"tastes"`
	Restrictions    string   `json:"restrictions"`
	NominatedDishes []string `json:"nominatedDishes"`
	HorseCreative   bool     `json:"horseCreative"`
}

// ValidateMenu validates a menu against the collaborator output contract:
// a non-empty dish list with valid dishes, unique ids, and a non-empty
// overall meaning. A schema-violating menu is rejected wholesale.
func ValidateMenu(menu *Menu) error {
	if len(menu.Dishes) == 0 {
		return fmt.Errorf("menu must have at least one dish")
	}
	if menu.OverallMeaning == "" {
		return fmt.Errorf("menu overall meaning is required")
	}
	seen := make(map[string]bool, len(menu.Dishes))
	for i := range menu.Dishes {
		dish := &menu.Dishes[i]
		if err := ValidateDish(dish); err != nil {
			return fmt.Errorf("dish %d: %w", i, err)
		}
		if seen[dish.ID] {
			return fmt.Errorf("duplicate dish id: %q", dish.ID)
		}
		seen[dish.ID] = true
	}
	return nil
}

// FindDish returns the dish with the given id, or nil if absent
func (m *Menu) FindDish(id string) *Dish {
	for i := range m.Dishes {
		if m.Dishes[i].ID == id {
			return &m.Dishes[i]
		}
	}
	return nil
}

// DishesInCategory returns all dishes of the given category in menu order
func (m *Menu) DishesInCategory(category DishCategory) []Dish {
	var dishes []Dish
	for _, d := range m.Dishes {
		if d.Category == category {
			dishes = append(dishes, d)
		}
	}
	return dishes
}

// Clone returns a deep copy of the menu so readers never observe a
// partially updated dish list
func (m *Menu) Clone() *Menu {
	clone := &Menu{
		Dishes:         make([]Dish, len(m.Dishes)),
		OverallMeaning: m.OverallMeaning,
	}
	for i, d := range m.Dishes {
		dish := d
		dish.Ingredients = append([]Ingredient(nil), d.Ingredients...)
		dish.Steps = append([]string(nil), d.Steps...)
		clone.Dishes[i] = dish
	}
	return clone
}
