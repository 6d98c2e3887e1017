package timeline

import (
	"fmt"
	"strings"
	"time"

	"github.com/yukiben/MaShangKaiFan-HorseYearDinnerMenu/internal/models"
)

// TaskStatus represents the temporal classification of a preparation task
// relative to the live clock
type TaskStatus string

const (
	// Task statuses
	TaskStatusPast    TaskStatus = "past"
	TaskStatusCurrent TaskStatus = "current"
	TaskStatusFuture  TaskStatus = "future"
)

// currentWindow is the proximity window around a task's scheduled time
// within which a not-yet-past task counts as current
const currentWindow = 15 * time.Minute

// PreparationTask is one derived timeline entry. Tasks are recomputed
// wholesale on every trigger and never mutated in place.
type PreparationTask struct {
	OffsetMinutes int        `json:"offsetMinutes"`
	Title         string     `json:"title"`
	Description   string     `json:"description"`
	ScheduledTime time.Time  `json:"scheduledTime"`
	DisplayTime   string     `json:"displayTime"`
	Status        TaskStatus `json:"status"`
}

// stage is one of the six canonical preparation milestones. The describe
// function synthesizes the narrative from the current menu and must
// degrade to generic phrasing on an empty or non-matching menu.
type stage struct {
	offsetMinutes int
	title         string
	describe      func(menu *models.Menu) string
}

var stages = []stage{
	{
		offsetMinutes: -240,
		title:         "食材集结与清点",
		describe: func(menu *models.Menu) string {
			return fmt.Sprintf("核对 %d 道佳肴所需：%s等。",
				len(menu.Dishes), strings.Join(firstIngredientItems(menu, 5), "、"))
		},
	},
	{
		offsetMinutes: -150,
		title:         "复杂主菜预处理",
		describe: func(menu *models.Menu) string {
			var names []string
			for _, d := range menu.Dishes {
				if d.HasProteinIngredient() {
					names = append(names, d.OriginalName)
					if len(names) == 2 {
						break
					}
				}
			}
			return fmt.Sprintf("开始处理 %s，进行焯水、腌制与慢火炖煮。", strings.Join(names, "和"))
		},
	},
	{
		offsetMinutes: -90,
		title:         "汤品与主食入锅",
		describe: func(menu *models.Menu) string {
			prefix := ""
			if staples := menu.DishesInCategory(models.DishCategoryStaple); len(staples) > 0 {
				prefix = staples[0].OriginalName + "："
			}
			return prefix + "开始蒸煮，确保此时香气渐浓。"
		},
	},
	{
		offsetMinutes: -45,
		title:         "凉菜切配与摆盘",
		describe: func(menu *models.Menu) string {
			var names []string
			for _, d := range menu.DishesInCategory(models.DishCategoryAppetizer) {
				names = append(names, d.OriginalName)
			}
			return fmt.Sprintf("精细化处理 %s，点缀马年装饰。", strings.Join(names, "、"))
		},
	},
	{
		offsetMinutes: -15,
		title:         "猛火快炒阶段",
		describe: func(menu *models.Menu) string {
			var names []string
			for _, d := range menu.Dishes {
				if d.IsPlantMain() {
					names = append(names, d.OriginalName)
				}
			}
			target := "最后热菜"
			if len(names) > 0 {
				target = strings.Join(names, "、")
			}
			return fmt.Sprintf("突击完成 %s，确保热气腾腾。", target)
		},
	},
	{
		offsetMinutes: 0,
		title:         "马到成功 · 开饭！",
		describe: func(menu *models.Menu) string {
			var names []string
			for _, d := range menu.Dishes {
				names = append(names, d.DisplayName)
				if len(names) == 2 {
					break
				}
			}
			return fmt.Sprintf("全家入座，共享 \"%s\" 等团圆美味。", strings.Join(names, "..."))
		},
	},
}

// Build derives the six-stage preparation timeline for the given menu,
// meal time and current time. Pure: identical inputs yield identical
// output, and every call recomputes all six tasks from scratch.
func Build(menu *models.Menu, mealTime MealTime, now time.Time) []PreparationTask {
	if menu == nil {
		menu = &models.Menu{}
	}
	mealTimestamp := mealTime.OnDay(now)

	tasks := make([]PreparationTask, 0, len(stages))
	for _, s := range stages {
		scheduled := mealTimestamp.Add(time.Duration(s.offsetMinutes) * time.Minute)
		tasks = append(tasks, PreparationTask{
			OffsetMinutes: s.offsetMinutes,
			Title:         s.title,
			Description:   s.describe(menu),
			ScheduledTime: scheduled,
			DisplayTime:   scheduled.Format("15:04"),
			Status:        classify(scheduled, now),
		})
	}
	return tasks
}

// classify buckets a scheduled time against now. Strict past takes
// precedence over the proximity window, so a task five minutes gone is
// past, not current.
func classify(scheduled, now time.Time) TaskStatus {
	if scheduled.Before(now) {
		return TaskStatusPast
	}
	diff := scheduled.Sub(now)
	if diff < 0 {
		diff = -diff
	}
	if diff < currentWindow {
		return TaskStatusCurrent
	}
	return TaskStatusFuture
}

// firstIngredientItems flattens ingredient names across all dishes,
// deduplicated in first-seen order, keeping at most max entries
func firstIngredientItems(menu *models.Menu, max int) []string {
	seen := make(map[string]bool)
	var items []string
	for _, d := range menu.Dishes {
		for _, ing := range d.Ingredients {
			if seen[ing.Item] {
				continue
			}
			seen[ing.Item] = true
			items = append(items, ing.Item)
			if len(items) == max {
				return items
			}
		}
	}
	return items
}
