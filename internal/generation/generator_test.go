package generation

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"

	"github.com/yukiben/MaShangKaiFan-HorseYearDinnerMenu/internal/models"
)

// MockLLM is a mock implementation of the LLM interface
type MockLLM struct {
	mock.Mock
}

func (m *MockLLM) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	args := m.Called(ctx, prompt)
	return args.String(0), args.Error(1)
}

func (m *MockLLM) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	args := m.Called(ctx, messages)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*llms.ContentResponse), args.Error(1)
}

func textResponse(content string) *llms.ContentResponse {
	return &llms.ContentResponse{
		Choices: []*llms.ContentChoice{{Content: content}},
	}
}

const validMenuJSON = `{
	"dishes": [
		{
			"id": "d1",
			"type": "main",
			"name": "马到成功肉",
			"originalName": "红烧肉",
			"meaning": "红红火火",
			"ingredients": [{"item": "五花肉", "amount": "500g", "category": "meat"}],
			"steps": ["焯水", "慢炖"],
			"prepTime": 20,
			"cookTime": 60
		}
	],
	"overallMeaning": "马年大吉，阖家团圆"
}`

func TestGenerateParsesValidResponse(t *testing.T) {
	mockLLM := new(MockLLM)
	mockLLM.On("GenerateContent", mock.Anything, mock.Anything).Return(textResponse(validMenuJSON), nil)

	generator := NewMenuGenerator(mockLLM, "gpt-4o")
	generated, err := generator.Generate(context.Background(), models.UserInput{PeopleCount: 8})

	require.NoError(t, err)
	require.Len(t, generated.Dishes, 1)
	assert.Equal(t, "红烧肉", generated.Dishes[0].OriginalName)
	assert.Equal(t, models.DishCategoryMain, generated.Dishes[0].Category)
	assert.Equal(t, "马年大吉，阖家团圆", generated.OverallMeaning)
	mockLLM.AssertExpectations(t)
}

func TestGenerateStripsMarkdownFence(t *testing.T) {
	mockLLM := new(MockLLM)
	fenced := "```json\n" + validMenuJSON + "\n```"
	mockLLM.On("GenerateContent", mock.Anything, mock.Anything).Return(textResponse(fenced), nil)

	generator := NewMenuGenerator(mockLLM, "")
	generated, err := generator.Generate(context.Background(), models.UserInput{PeopleCount: 4})

	require.NoError(t, err)
	assert.Len(t, generated.Dishes, 1)
}

func TestGenerateRejectsMalformedResponses(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"not JSON", "抱歉，我无法生成菜单。"},
		{"empty dishes", `{"dishes": [], "overallMeaning": "x"}`},
		{"missing meaning", `{"dishes": [{"id":"d1","type":"main","originalName":"红烧肉"}], "overallMeaning": ""}`},
		{"invalid category", `{"dishes": [{"id":"d1","type":"entree","originalName":"红烧肉"}], "overallMeaning": "x"}`},
		{"duplicate ids", `{"dishes": [
			{"id":"d1","type":"main","originalName":"红烧肉"},
			{"id":"d1","type":"soup","originalName":"冬瓜汤"}
		], "overallMeaning": "x"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockLLM := new(MockLLM)
			mockLLM.On("GenerateContent", mock.Anything, mock.Anything).Return(textResponse(tt.content), nil)

			generator := NewMenuGenerator(mockLLM, "")
			generated, err := generator.Generate(context.Background(), models.UserInput{PeopleCount: 4})

			assert.Error(t, err)
			assert.Nil(t, generated, "a schema-violating response must not be partially accepted")
		})
	}
}

func TestGeneratePropagatesModelFailure(t *testing.T) {
	mockLLM := new(MockLLM)
	mockLLM.On("GenerateContent", mock.Anything, mock.Anything).Return(nil, errors.New("service unavailable"))

	generator := NewMenuGenerator(mockLLM, "")
	_, err := generator.Generate(context.Background(), models.UserInput{PeopleCount: 4})

	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrGenerationInFlight)
}

func TestGenerateBlocksConcurrentDuplicateSubmission(t *testing.T) {
	release := make(chan struct{})
	mockLLM := new(MockLLM)
	mockLLM.On("GenerateContent", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) { <-release }).
		Return(textResponse(validMenuJSON), nil)

	generator := NewMenuGenerator(mockLLM, "")

	done := make(chan error, 1)
	go func() {
		_, err := generator.Generate(context.Background(), models.UserInput{PeopleCount: 4})
		done <- err
	}()

	// Wait for the first request to occupy the generator
	require.Eventually(t, func() bool {
		return generator.inFlight.Load()
	}, time.Second, time.Millisecond)

	_, err := generator.Generate(context.Background(), models.UserInput{PeopleCount: 4})
	assert.ErrorIs(t, err, ErrGenerationInFlight)

	close(release)
	require.NoError(t, <-done)

	// The guard clears once the first request resolves
	_, err = generator.Generate(context.Background(), models.UserInput{PeopleCount: 4})
	assert.NoError(t, err)
}

func TestBuildMenuPromptReflectsInput(t *testing.T) {
	prompt := buildMenuPrompt(models.UserInput{
		PeopleCount:     8,
		Tastes:          []string{"川菜 (麻辣)", "粤菜"},
		Restrictions:    "不吃香菜",
		NominatedDishes: []string{"红烧肉"},
		HorseCreative:   true,
	})

	assert.Contains(t, prompt, "8人")
	assert.Contains(t, prompt, "川菜 (麻辣), 粤菜")
	assert.Contains(t, prompt, "不吃香菜")
	assert.Contains(t, prompt, "红烧肉")
	assert.Contains(t, prompt, "马年特色别名")

	plain := buildMenuPrompt(models.UserInput{PeopleCount: 2})
	assert.Contains(t, plain, "忌口：无")
	assert.Contains(t, plain, "普通吉祥菜品")
}

func TestGenerateClampsPeopleCount(t *testing.T) {
	mockLLM := new(MockLLM)
	mockLLM.On("GenerateContent", mock.Anything, mock.MatchedBy(func(messages []llms.MessageContent) bool {
		for _, msg := range messages {
			for _, part := range msg.Parts {
				if text, ok := part.(llms.TextContent); ok && strings.Contains(text.Text, "用餐人数：1人") {
					return true
				}
			}
		}
		return false
	})).Return(textResponse(validMenuJSON), nil)

	generator := NewMenuGenerator(mockLLM, "")
	_, err := generator.Generate(context.Background(), models.UserInput{PeopleCount: 0})

	require.NoError(t, err)
	mockLLM.AssertExpectations(t)
}
