package timeline

import (
	"fmt"
	"time"
)

// DefaultMealTime is the meal time used before the user configures one
const DefaultMealTime = "19:30"

// MealTime is a target time-of-day at which serving begins. It carries no
// date; the timeline anchors it to the current calendar day.
type MealTime struct {
	Hour   int
	Minute int
}

// ParseMealTime parses a "HH:MM" 24-hour time-of-day. The whole input
// must be consumed; trailing text like "19:30:45" is rejected. Callers
// are expected to keep their previous valid value when an error is
// returned.
func ParseMealTime(s string) (MealTime, error) {
	parsed, err := time.Parse("15:04", s)
	if err != nil {
		return MealTime{}, fmt.Errorf("invalid meal time %q: expected HH:MM", s)
	}
	return MealTime{Hour: parsed.Hour(), Minute: parsed.Minute()}, nil
}

// MustParseMealTime parses a meal time and panics on failure. For
// constants known to be valid.
func MustParseMealTime(s string) MealTime {
	mt, err := ParseMealTime(s)
	if err != nil {
		panic(err)
	}
	return mt
}

// String formats the meal time as "HH:MM"
func (mt MealTime) String() string {
	return fmt.Sprintf("%02d:%02d", mt.Hour, mt.Minute)
}

// OnDay anchors the meal time to the calendar day of the given reference
// time, at zero seconds
func (mt MealTime) OnDay(ref time.Time) time.Time {
	return time.Date(ref.Year(), ref.Month(), ref.Day(), mt.Hour, mt.Minute, 0, 0, ref.Location())
}
