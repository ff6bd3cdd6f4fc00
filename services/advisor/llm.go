package advisorsvc

import (
	"context"
	"strings"

	"github.com/checkmarble/llmberjack"
	"github.com/checkmarble/llmberjack/llms/openai"
	"github.com/pkg/errors"

	"github.com/trezcool/soma/core"
	"github.com/trezcool/soma/core/recommend"
)

const providerName = "main"

type llmAdvisor struct {
	client      *llmberjack.Llmberjack
	model       string
	maxTokens   int
	temperature float64
}

var _ recommend.Advisor = (*llmAdvisor)(nil)

// NewLLMAdvisor returns an Advisor backed by an OpenAI compatible chat API.
func NewLLMAdvisor(conf core.RecommendationConfig) (recommend.Advisor, error) {
	if conf.ApiKey == "" {
		return nil, errors.New("missing recommendation API key")
	}

	opts := []openai.Opt{openai.WithApiKey(conf.ApiKey)}
	if conf.BaseUrl != "" {
		opts = append(opts, openai.WithBaseUrl(conf.BaseUrl))
	}
	provider, err := openai.New(opts...)
	if err != nil {
		return nil, errors.Wrap(err, "creating openai provider")
	}

	client, err := llmberjack.New(llmberjack.WithProvider(providerName, provider))
	if err != nil {
		return nil, errors.Wrap(err, "creating llm client")
	}
	return &llmAdvisor{
		client:      client,
		model:       conf.Model,
		maxTokens:   conf.MaxTokens,
		temperature: conf.Temperature,
	}, nil
}

func (a *llmAdvisor) Advise(ctx context.Context, instruction, prompt string) (string, error) {
	req := llmberjack.NewRequest[string]().
		WithModel(a.model).
		WithInstruction(instruction).
		WithText(llmberjack.RoleUser, prompt).
		WithTemperature(a.temperature)
	if a.maxTokens > 0 {
		req = req.WithMaxTokens(a.maxTokens)
	}

	resp, err := req.Do(ctx, a.client)
	if err != nil {
		return "", errors.Wrap(err, "requesting completion")
	}

	answer, err := resp.Get(0)
	if err != nil {
		return "", errors.Wrap(err, "reading completion")
	}
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return "", errors.New("empty completion")
	}
	return answer, nil
}
