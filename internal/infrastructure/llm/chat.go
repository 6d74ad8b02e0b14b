package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/Be1newinner/ask-guruji/internal/application/knowledge"
	"github.com/Be1newinner/ask-guruji/internal/config"
	"github.com/Be1newinner/ask-guruji/pkg/metrics"
)

// Chat 基于 EinoFactory 的回答生成客户端。
// 实现 knowledge.ChatModel。
type Chat struct {
	factory  *EinoFactory
	provider string
	model    string
}

func NewChat(factory *EinoFactory, cfg *config.LLMConfig) *Chat {
	provider := cfg.DefaultProvider
	modelName := ""
	if p, ok := cfg.Providers[provider]; ok {
		modelName = p.Model
	}
	return &Chat{
		factory:  factory,
		provider: provider,
		model:    modelName,
	}
}

// Answer 将 Prompt 发给默认 ChatModel 并返回回答文本。
func (c *Chat) Answer(ctx context.Context, prompt string, params *knowledge.GenerationParams) (string, error) {
	cm, err := c.factory.Default(ctx)
	if err != nil {
		return "", err
	}

	var opts []model.Option
	if params != nil {
		if params.Temperature != nil {
			opts = append(opts, model.WithTemperature(*params.Temperature))
		}
		if params.MaxTokens != nil {
			opts = append(opts, model.WithMaxTokens(*params.MaxTokens))
		}
	}

	start := time.Now()
	out, err := cm.Generate(ctx, []*schema.Message{schema.UserMessage(prompt)}, opts...)
	metrics.LLMCallDuration.WithLabelValues(c.provider, c.model).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.LLMCallTotal.WithLabelValues(c.provider, c.model, "error").Inc()
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	metrics.LLMCallTotal.WithLabelValues(c.provider, c.model, "ok").Inc()

	if out.ResponseMeta != nil && out.ResponseMeta.Usage != nil {
		metrics.LLMTokensUsed.WithLabelValues(c.provider, c.model, "prompt").Add(float64(out.ResponseMeta.Usage.PromptTokens))
		metrics.LLMTokensUsed.WithLabelValues(c.provider, c.model, "completion").Add(float64(out.ResponseMeta.Usage.CompletionTokens))
	}

	return out.Content, nil
}
