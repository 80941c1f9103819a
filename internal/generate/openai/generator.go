package openai

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	oai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"kbbot/internal/domain"
)

const (
	groundedSystem = "You are a helpful assistant. If the provided context is relevant, use it to answer. " +
		"If it's not sufficient, you may rely on your own general knowledge to answer accurately."
	genericSystem = "You are a helpful assistant answering general tech and DevOps questions."

	groundedPromptFormat = `Use the context below to answer the question. If the context contains sources (e.g., [Source: filename]), cite the most relevant one in your answer.

Context:
%s

Question: %s`
)

// Generator composes answers through the OpenAI chat completions API.
// Calls are single-shot and non-streaming; failures propagate to the caller
// rather than producing a fabricated answer.
type Generator struct {
	api     oai.Client
	model   string
	timeout time.Duration
}

// Config configures the generation client.
type Config struct {
	BaseURL   string
	APIKeyEnv string
	Model     string
	Timeout   time.Duration
}

func NewGenerator(cfg Config) (*Generator, error) {
	if cfg.APIKeyEnv == "" {
		cfg.APIKeyEnv = "OPENAI_API_KEY"
	}
	key := os.Getenv(cfg.APIKeyEnv)
	if key == "" {
		return nil, fmt.Errorf("missing API key in env %s", cfg.APIKeyEnv)
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}
	t := cfg.Timeout
	if t == 0 {
		t = 30 * time.Second
	}
	opts := []option.RequestOption{option.WithAPIKey(key)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	return &Generator{api: oai.NewClient(opts...), model: cfg.Model, timeout: t}, nil
}

// AnswerWithContext generates a grounded answer. The prompt tells the model to
// prefer the supplied context and cite the most relevant source tag.
func (g *Generator) AnswerWithContext(ctx context.Context, question, renderedContext string) (string, error) {
	prompt := strings.TrimSpace(fmt.Sprintf(groundedPromptFormat, renderedContext, question))
	return g.complete(ctx, groundedSystem, prompt)
}

// AnswerGeneric generates an answer without retrieval context and without any
// citation instruction.
func (g *Generator) AnswerGeneric(ctx context.Context, question string) (string, error) {
	return g.complete(ctx, genericSystem, question)
}

func (g *Generator) complete(ctx context.Context, system, user string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	resp, err := g.api.Chat.Completions.New(ctx, oai.ChatCompletionNewParams{
		Messages: []oai.ChatCompletionMessageParamUnion{
			oai.SystemMessage(system),
			oai.UserMessage(user),
		},
		Model: oai.ChatModel(g.model),
	})
	if err != nil {
		return "", fmt.Errorf("%w: %s", domain.ErrGeneration, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices returned", domain.ErrGeneration)
	}
	return resp.Choices[0].Message.Content, nil
}
