package menu

import (
	"sync"

	"github.com/google/uuid"

	"github.com/yukiben/MaShangKaiFan-HorseYearDinnerMenu/internal/models"
	"github.com/yukiben/MaShangKaiFan-HorseYearDinnerMenu/internal/timeline"
)

// Store holds the current menu and meal time for a planning session.
// Every mutation installs a freshly built Menu value, so snapshots handed
// to readers are never torn by a concurrent edit.
type Store struct {
	mu       sync.RWMutex
	menu     *models.Menu
	mealTime timeline.MealTime
	subs     []func()
}

// NewStore creates an empty store with the given initial meal time
func NewStore(mealTime timeline.MealTime) *Store {
	return &Store{mealTime: mealTime}
}

// Subscribe registers a callback invoked after every menu or meal-time
// change. Callbacks run synchronously on the mutating call.
func (s *Store) Subscribe(fn func()) {
	s.mu.Lock()
	s.subs = append(s.subs, fn)
	s.mu.Unlock()
}

// Menu returns a deep copy of the current menu, or nil when no menu has
// been generated yet
func (s *Store) Menu() *models.Menu {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.menu == nil {
		return nil
	}
	return s.menu.Clone()
}

// HasMenu reports whether a menu exists for this session
func (s *Store) HasMenu() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.menu != nil
}

// MealTime returns the configured meal time
func (s *Store) MealTime() timeline.MealTime {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.mealTime
}

// SetMealTime parses and installs a new meal time. On a malformed value
// the previous valid meal time is retained and the parse error returned.
func (s *Store) SetMealTime(value string) error {
	mt, err := timeline.ParseMealTime(value)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.mealTime = mt
	s.mu.Unlock()
	s.notify()
	return nil
}

// SetMenu replaces the session menu wholesale, as after a regeneration
func (s *Store) SetMenu(menu *models.Menu) {
	s.mu.Lock()
	s.menu = menu.Clone()
	s.mu.Unlock()
	s.notify()
}

// UpdateDish replaces the dish with a matching id. A no-op when the id is
// absent or no menu exists; reports whether a dish was replaced.
func (s *Store) UpdateDish(id string, replacement models.Dish) bool {
	s.mu.Lock()
	if s.menu == nil || s.menu.FindDish(id) == nil {
		s.mu.Unlock()
		return false
	}
	replacement.ID = id
	next := s.menu.Clone()
	for i := range next.Dishes {
		if next.Dishes[i].ID == id {
			next.Dishes[i] = replacement
			break
		}
	}
	s.menu = next
	s.mu.Unlock()
	s.notify()
	return true
}

// DeleteDish removes the dish with a matching id. A no-op when the id is
// absent or no menu exists; reports whether a dish was removed.
func (s *Store) DeleteDish(id string) bool {
	s.mu.Lock()
	if s.menu == nil || s.menu.FindDish(id) == nil {
		s.mu.Unlock()
		return false
	}
	next := s.menu.Clone()
	dishes := next.Dishes[:0]
	for _, d := range next.Dishes {
		if d.ID != id {
			dishes = append(dishes, d)
		}
	}
	next.Dishes = dishes
	s.menu = next
	s.mu.Unlock()
	s.notify()
	return true
}

// AddDish appends a new dish with a freshly generated id, filling empty
// fields with the stock placeholder values. Returns the dish as added, or
// false when no menu exists yet.
func (s *Store) AddDish(draft models.Dish) (models.Dish, bool) {
	dish := withPlaceholderDefaults(draft)
	dish.ID = uuid.NewString()

	s.mu.Lock()
	if s.menu == nil {
		s.mu.Unlock()
		return models.Dish{}, false
	}
	next := s.menu.Clone()
	next.Dishes = append(next.Dishes, dish)
	s.menu = next
	s.mu.Unlock()
	s.notify()
	return dish, true
}

func (s *Store) notify() {
	s.mu.RLock()
	subs := make([]func(), len(s.subs))
	copy(subs, s.subs)
	s.mu.RUnlock()
	for _, fn := range subs {
		fn()
	}
}

// withPlaceholderDefaults fills unset draft fields with the defaults used
// for a hand-added dish
func withPlaceholderDefaults(draft models.Dish) models.Dish {
	dish := draft
	if dish.Category == "" || !models.IsDishCategoryValid(string(dish.Category)) {
		dish.Category = models.DishCategoryMain
	}
	if dish.DisplayName == "" {
		dish.DisplayName = "新添吉祥菜"
	}
	if dish.OriginalName == "" {
		dish.OriginalName = "新菜品"
	}
	if dish.Meaning == "" {
		dish.Meaning = "大吉大利"
	}
	if len(dish.Ingredients) == 0 {
		dish.Ingredients = []models.Ingredient{
			{Item: "主要食材", Amount: "适量", Category: models.IngredientCategoryOther},
		}
	}
	if len(dish.Steps) == 0 {
		dish.Steps = []string{"清洗食材", "下锅烹饪"}
	}
	if dish.PrepTime <= 0 {
		dish.PrepTime = 15
	}
	if dish.CookTime <= 0 {
		dish.CookTime = 20
	}
	return dish
}
