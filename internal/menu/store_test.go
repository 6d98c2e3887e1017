package menu

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yukiben/MaShangKaiFan-HorseYearDinnerMenu/internal/models"
	"github.com/yukiben/MaShangKaiFan-HorseYearDinnerMenu/internal/timeline"
)

func newStoreWithMenu(t *testing.T) *Store {
	t.Helper()
	store := NewStore(timeline.MustParseMealTime("19:30"))
	store.SetMenu(&models.Menu{
		OverallMeaning: "马年大吉",
		Dishes: []models.Dish{
			{ID: "d1", Category: models.DishCategoryMain, OriginalName: "红烧肉"},
			{ID: "d2", Category: models.DishCategorySoup, OriginalName: "冬瓜汤"},
		},
	})
	return store
}

func assertUniqueIDs(t *testing.T, m *models.Menu) {
	t.Helper()
	seen := make(map[string]bool)
	for _, d := range m.Dishes {
		assert.Falsef(t, seen[d.ID], "duplicate dish id %q", d.ID)
		seen[d.ID] = true
	}
}

func TestStoreStartsEmpty(t *testing.T) {
	store := NewStore(timeline.MustParseMealTime("19:30"))

	assert.Nil(t, store.Menu())
	assert.False(t, store.HasMenu())
	assert.Equal(t, "19:30", store.MealTime().String())

	_, ok := store.AddDish(models.Dish{})
	assert.False(t, ok, "AddDish should fail before a menu exists")
	assert.False(t, store.UpdateDish("d1", models.Dish{}))
	assert.False(t, store.DeleteDish("d1"))
}

func TestUpdateDishReplacesMatchingID(t *testing.T) {
	store := newStoreWithMenu(t)

	ok := store.UpdateDish("d1", models.Dish{
		Category:     models.DishCategoryMain,
		OriginalName: "东坡肉",
	})
	require.True(t, ok)

	updated := store.Menu().FindDish("d1")
	require.NotNil(t, updated)
	assert.Equal(t, "东坡肉", updated.OriginalName)
	assert.Equal(t, "d1", updated.ID, "replacement keeps the original id")

	assert.False(t, store.UpdateDish("missing", models.Dish{}), "absent id is a no-op")
	assert.Len(t, store.Menu().Dishes, 2)
}

func TestDeleteDishRemovesMatchingID(t *testing.T) {
	store := newStoreWithMenu(t)

	require.True(t, store.DeleteDish("d1"))
	assert.Len(t, store.Menu().Dishes, 1)
	assert.Nil(t, store.Menu().FindDish("d1"))

	assert.False(t, store.DeleteDish("d1"), "second delete is a no-op")
	assert.Len(t, store.Menu().Dishes, 1)
}

func TestAddDishFillsPlaceholdersAndKeepsIDsUnique(t *testing.T) {
	store := newStoreWithMenu(t)

	added, ok := store.AddDish(models.Dish{})
	require.True(t, ok)
	assert.NotEmpty(t, added.ID)
	assert.Equal(t, models.DishCategoryMain, added.Category)
	assert.Equal(t, "新添吉祥菜", added.DisplayName)
	assert.Equal(t, "新菜品", added.OriginalName)
	assert.Equal(t, "大吉大利", added.Meaning)
	assert.Equal(t, 15, added.PrepTime)
	assert.Equal(t, 20, added.CookTime)

	// Caller-supplied fields survive
	custom, ok := store.AddDish(models.Dish{OriginalName: "春卷", Category: models.DishCategoryAppetizer})
	require.True(t, ok)
	assert.Equal(t, "春卷", custom.OriginalName)
	assert.Equal(t, models.DishCategoryAppetizer, custom.Category)

	assertUniqueIDs(t, store.Menu())
}

func TestIDUniquenessHoldsAcrossOperationSequences(t *testing.T) {
	store := newStoreWithMenu(t)

	for i := 0; i < 5; i++ {
		_, ok := store.AddDish(models.Dish{})
		require.True(t, ok)
	}
	store.DeleteDish("d2")
	store.UpdateDish("d1", models.Dish{Category: models.DishCategoryMain, OriginalName: "改良红烧肉"})
	_, ok := store.AddDish(models.Dish{})
	require.True(t, ok)

	assertUniqueIDs(t, store.Menu())
}

func TestSnapshotsAreIsolatedFromLaterEdits(t *testing.T) {
	store := newStoreWithMenu(t)

	snapshot := store.Menu()
	store.DeleteDish("d1")
	snapshot.Dishes[0].OriginalName = "mutated"

	assert.Len(t, snapshot.Dishes, 2, "snapshot must not see the delete")
	current := store.Menu()
	assert.Len(t, current.Dishes, 1)
	assert.NotEqual(t, "mutated", current.Dishes[0].OriginalName)
}

func TestSetMealTimeRetainsPreviousOnBadInput(t *testing.T) {
	store := newStoreWithMenu(t)

	require.NoError(t, store.SetMealTime("18:00"))
	assert.Equal(t, "18:00", store.MealTime().String())

	assert.Error(t, store.SetMealTime("not-a-time"))
	assert.Equal(t, "18:00", store.MealTime().String(), "previous valid value retained")

	assert.Error(t, store.SetMealTime("24:61"))
	assert.Equal(t, "18:00", store.MealTime().String())
}

func TestSubscribersNotifiedOnEveryChange(t *testing.T) {
	store := newStoreWithMenu(t)

	var notified int
	store.Subscribe(func() { notified++ })

	store.SetMenu(&models.Menu{OverallMeaning: "x", Dishes: []models.Dish{{ID: "a"}}})
	store.AddDish(models.Dish{})
	store.UpdateDish("a", models.Dish{OriginalName: "y"})
	store.DeleteDish("a")
	require.NoError(t, store.SetMealTime("20:00"))

	assert.Equal(t, 5, notified)

	// No-op mutations do not notify
	store.DeleteDish("missing")
	store.UpdateDish("missing", models.Dish{})
	assert.Error(t, store.SetMealTime("bogus"))
	assert.Equal(t, 5, notified)
}
