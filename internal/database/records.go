package database

import (
	"database/sql/driver"
	"encoding/json"
	"errors"

	"github.com/jinzhu/gorm"

	"github.com/yukiben/MaShangKaiFan-HorseYearDinnerMenu/internal/models"
)

// StringSlice represents a slice of strings that can be stored in the database
type StringSlice []string

// Value converts the slice to a JSON string for storage
func (s StringSlice) Value() (driver.Value, error) {
	if len(s) == 0 {
		return "[]", nil
	}
	return json.Marshal(s)
}

// Scan converts the database value back to a slice
func (s *StringSlice) Scan(value interface{}) error {
	if value == nil {
		*s = StringSlice{}
		return nil
	}

	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, s)
	case string:
		return json.Unmarshal([]byte(v), s)
	default:
		return errors.New("unsupported type for StringSlice")
	}
}

// MenuRecord persists one generated menu together with the request that
// produced it, so a session's earlier menus can be recalled
type MenuRecord struct {
	gorm.Model
	PeopleCount     int
	Tastes          StringSlice `gorm:"type:text"`
	Restrictions    string
	NominatedDishes StringSlice `gorm:"type:text"`
	HorseCreative   bool
	OverallMeaning  string
	DishesJSON      string `gorm:"type:text"`
	// Transient field (ignored by GORM)
	Dishes []models.Dish `gorm:"-"`
}

// TableName sets the table name for MenuRecord
func (MenuRecord) TableName() string {
	return "menu_records"
}

// SetDishes serializes the dishes for storage
func (r *MenuRecord) SetDishes(dishes []models.Dish) error {
	data, err := json.Marshal(dishes)
	if err != nil {
		return err
	}
	r.DishesJSON = string(data)
	r.Dishes = dishes
	return nil
}

// GetDishes returns the deserialized dishes
func (r *MenuRecord) GetDishes() ([]models.Dish, error) {
	if len(r.Dishes) > 0 {
		return r.Dishes, nil
	}
	var dishes []models.Dish
	if r.DishesJSON == "" {
		return dishes, nil
	}
	if err := json.Unmarshal([]byte(r.DishesJSON), &dishes); err != nil {
		return nil, err
	}
	r.Dishes = dishes
	return dishes, nil
}

// NewMenuRecord builds a record from a generation request and its result
func NewMenuRecord(input models.UserInput, menu *models.Menu) (*MenuRecord, error) {
	record := &MenuRecord{
		PeopleCount:     input.PeopleCount,
		Tastes:          StringSlice(input.Tastes),
		Restrictions:    input.Restrictions,
		NominatedDishes: StringSlice(input.NominatedDishes),
		HorseCreative:   input.HorseCreative,
		OverallMeaning:  menu.OverallMeaning,
	}
	if err := record.SetDishes(menu.Dishes); err != nil {
		return nil, err
	}
	return record, nil
}

// History provides access to persisted menu records
type History struct {
	db *gorm.DB
}

// NewHistory creates a history store over the given database
func NewHistory(db *gorm.DB) *History {
	return &History{db: db}
}

// Save persists a generated menu with its request
func (h *History) Save(input models.UserInput, menu *models.Menu) error {
	record, err := NewMenuRecord(input, menu)
	if err != nil {
		return err
	}
	return h.db.Create(record).Error
}

// Recent returns the most recent menu records, newest first
func (h *History) Recent(limit int) ([]MenuRecord, error) {
	var records []MenuRecord
	if err := h.db.Order("created_at desc").Limit(limit).Find(&records).Error; err != nil {
		return nil, err
	}
	for i := range records {
		if _, err := records[i].GetDishes(); err != nil {
			return nil, err
		}
	}
	return records, nil
}
