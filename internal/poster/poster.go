package poster

import (
	"fmt"
	"strings"

	"github.com/yukiben/MaShangKaiFan-HorseYearDinnerMenu/internal/models"
)

// sections lists the poster section order with their display headings
var sections = []struct {
	category models.DishCategory
	heading  string
}{
	{models.DishCategoryAppetizer, "凉菜"},
	{models.DishCategoryMain, "热菜"},
	{models.DishCategorySoup, "汤品"},
	{models.DishCategoryStaple, "主食"},
	{models.DishCategoryDessert, "甜点"},
}

// Render produces the shareable text poster for a menu: a festive header,
// the overall meaning, and the dishes grouped by course. Categories with
// no dishes are omitted.
func Render(menu *models.Menu) string {
	var b strings.Builder
	b.WriteString("══ 马上开饭 · 丙午马年年夜饭 ══\n\n")
	if menu.OverallMeaning != "" {
		fmt.Fprintf(&b, "%s\n\n", menu.OverallMeaning)
	}

	for _, section := range sections {
		dishes := menu.DishesInCategory(section.category)
		if len(dishes) == 0 {
			continue
		}
		fmt.Fprintf(&b, "【%s】\n", section.heading)
		for _, d := range dishes {
			fmt.Fprintf(&b, "  %s（%s）", d.DisplayName, d.OriginalName)
			if d.Meaning != "" {
				fmt.Fprintf(&b, " — %s", d.Meaning)
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "共 %d 道佳肴 · 马到成功，马上开饭！\n", len(menu.Dishes))
	return b.String()
}
