package generation

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
)

// ImageGenerator asks the generative collaborator for a dish
// illustration. Returning no image is a normal outcome, not an error;
// the caller shows a placeholder instead.
type ImageGenerator struct {
	model     llms.LLM
	modelName string
}

// NewImageGenerator creates an image generator backed by the given model
func NewImageGenerator(model llms.LLM, modelName string) *ImageGenerator {
	return &ImageGenerator{model: model, modelName: modelName}
}

// GenerateImage requests an illustration for the dish's common name and
// returns a base64 data URI, or "" when the model returns no image part.
func (g *ImageGenerator) GenerateImage(ctx context.Context, dishName string) (string, error) {
	opts := []llms.CallOption{}
	if g.modelName != "" {
		opts = append(opts, llms.WithModel(g.modelName))
	}

	response, err := g.model.GenerateContent(ctx, []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeHuman, buildImagePrompt(dishName)),
	}, opts...)
	if err != nil {
		return "", fmt.Errorf("image generation failed: %w", err)
	}
	if response == nil || len(response.Choices) == 0 {
		return "", nil
	}

	payload := strings.TrimSpace(response.Choices[0].Content)
	if payload == "" {
		return "", nil
	}
	if strings.HasPrefix(payload, "data:image/") {
		return payload, nil
	}
	return "data:image/png;base64," + payload, nil
}

func buildImagePrompt(dishName string) string {
	return fmt.Sprintf(`A professional, high-end culinary photography style illustration of the Chinese dish "%s".
Artistic Chinese ink wash elements combined with modern food styling.
Vibrant colors, festive atmosphere.
ABSOLUTELY NO TEXT, NO LETTERS, NO NUMBERS, NO CHARACTERS, NO LOGOS, NO WATERMARKS.
The image should only contain the food and artistic background elements.
Clean composition, top-down or 45-degree angle.`, dishName)
}
