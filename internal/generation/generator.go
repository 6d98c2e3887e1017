package generation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/tmc/langchaingo/llms"

	"github.com/yukiben/MaShangKaiFan-HorseYearDinnerMenu/internal/models"
)

// ErrGenerationInFlight is returned when a menu generation request
// arrives while another one is still pending. Duplicate submissions are
// blocked rather than queued or raced.
var ErrGenerationInFlight = errors.New("a menu generation request is already in flight")

// MenuGenerator asks the generative collaborator for a structured festive
// menu. A malformed or schema-violating response is rejected wholesale,
// never partially accepted.
type MenuGenerator struct {
	model     llms.LLM
	modelName string
	inFlight  atomic.Bool
}

// NewMenuGenerator creates a menu generator backed by the given model
func NewMenuGenerator(model llms.LLM, modelName string) *MenuGenerator {
	return &MenuGenerator{model: model, modelName: modelName}
}

// Generate requests a menu for the given input. Blocks concurrent
// duplicate submissions with ErrGenerationInFlight.
func (g *MenuGenerator) Generate(ctx context.Context, input models.UserInput) (*models.Menu, error) {
	if !g.inFlight.CompareAndSwap(false, true) {
		return nil, ErrGenerationInFlight
	}
	defer g.inFlight.Store(false)

	if input.PeopleCount < 1 {
		input.PeopleCount = 1
	}

	opts := []llms.CallOption{
		llms.WithJSONMode(),
		llms.WithTemperature(0.7),
	}
	if g.modelName != "" {
		opts = append(opts, llms.WithModel(g.modelName))
	}

	response, err := g.model.GenerateContent(ctx, []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeHuman, buildMenuPrompt(input)),
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("menu generation failed: %w", err)
	}
	if response == nil || len(response.Choices) == 0 {
		return nil, fmt.Errorf("empty response from generative model")
	}

	menu, err := parseMenuResponse(response.Choices[0].Content)
	if err != nil {
		return nil, fmt.Errorf("menu generation returned malformed content: %w", err)
	}
	return menu, nil
}

// buildMenuPrompt renders the festive menu prompt from the user input
func buildMenuPrompt(input models.UserInput) string {
	restrictions := input.Restrictions
	if restrictions == "" {
		restrictions = "无"
	}
	creativity := "普通吉祥菜品"
	if input.HorseCreative {
		creativity = "需要包含马年特色别名和创意"
	}

	var b strings.Builder
	b.WriteString("你是一位精通中国年夜饭文化的米其林大厨。请为2026丙午马年设计一套名为“马上开饭”的年夜饭菜单。\n\n")
	b.WriteString("需求：\n")
	fmt.Fprintf(&b, "- 用餐人数：%d人\n", input.PeopleCount)
	fmt.Fprintf(&b, "- 口味偏好：%s\n", strings.Join(input.Tastes, ", "))
	fmt.Fprintf(&b, "- 忌口：%s\n", restrictions)
	fmt.Fprintf(&b, "- 必选菜品/食材：%s\n", strings.Join(input.NominatedDishes, ", "))
	fmt.Fprintf(&b, "- 马年创意：%s\n\n", creativity)
	b.WriteString("规则：\n")
	b.WriteString("1. 根据人数生成6-12道菜（包括凉菜、热菜、汤、主食、甜点）。\n")
	b.WriteString("2. 每道菜必须有一个马年相关的吉祥别名。\n")
	b.WriteString("3. 只返回一个JSON对象，不要包含任何其他文字。结构如下：\n")
	b.WriteString(`{"dishes":[{"id":"...","type":"appetizer|main|soup|staple|dessert",` +
		`"name":"吉祥别名","originalName":"常用名","meaning":"寓意",` +
		`"ingredients":[{"item":"...","amount":"...","category":"meat|vegetable|seafood|pantry|other"}],` +
		`"steps":["..."],"prepTime":0,"cookTime":0}],"overallMeaning":"整套菜单的寓意"}`)
	return b.String()
}

// parseMenuResponse decodes and validates the model output. Models
// occasionally wrap JSON in a markdown fence even in JSON mode, so the
// fence is stripped before decoding.
func parseMenuResponse(content string) (*models.Menu, error) {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)

	var menu models.Menu
	if err := json.Unmarshal([]byte(content), &menu); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	if err := models.ValidateMenu(&menu); err != nil {
		return nil, err
	}
	return &menu, nil
}
