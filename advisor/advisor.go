// Package advisor 把库存数据与自由提问转发给托管的生成式模型。
package advisor

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/ByLCY/inventario/inventory"
)

// DefaultModel 是未配置时使用的模型。
const DefaultModel = "gemini-2.5-flash"

var (
	ErrMissingKey    = errors.New("advisor: API key is required")
	ErrEmptyQuestion = errors.New("advisor: question is empty")
	ErrQuery         = errors.New("advisor: query failed")
	ErrEmptyAnswer   = errors.New("advisor: model returned no text")
)

// Generator 执行一次文本生成调用。
type Generator interface {
	Generate(ctx context.Context, model, prompt string) (string, error)
}

// Factory 用调用方提供的凭据创建 Generator。
type Factory func(ctx context.Context, apiKey string) (Generator, error)

type genaiGenerator struct {
	client *genai.Client
}

func (g genaiGenerator) Generate(ctx context.Context, model, prompt string) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, model, genai.Text(prompt), nil)
	if err != nil {
		return "", err
	}
	return resp.Text(), nil
}

// GenAIFactory 创建基于 Gemini API 的 Generator。
func GenAIFactory(ctx context.Context, apiKey string) (Generator, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return genaiGenerator{client: client}, nil
}

// Advisor 不做重试；所有失败都返回给调用方显示。
type Advisor struct {
	model   string
	factory Factory
	logger  *zap.Logger
}

// New 创建 Advisor。factory 为 nil 时使用 GenAIFactory。
func New(model string, factory Factory, logger *zap.Logger) *Advisor {
	if model == "" {
		model = DefaultModel
	}
	if factory == nil {
		factory = GenAIFactory
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Advisor{model: model, factory: factory, logger: logger}
}

// Model 返回使用的模型名称。
func (a *Advisor) Model() string { return a.model }

// Prompt 组合发送给模型的文本。
func Prompt(contextText, question string) string {
	return fmt.Sprintf("Dados TI: %s\nPergunta: %s", contextText, question)
}

// Ask 把 contextText 与 question 一并发送给模型并返回回答。
func (a *Advisor) Ask(ctx context.Context, apiKey, contextText, question string) (string, error) {
	if strings.TrimSpace(apiKey) == "" {
		return "", ErrMissingKey
	}
	if strings.TrimSpace(question) == "" {
		return "", ErrEmptyQuestion
	}

	gen, err := a.factory(ctx, apiKey)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrQuery, err)
	}
	answer, err := gen.Generate(ctx, a.model, Prompt(contextText, question))
	if err != nil {
		a.logger.Warn("advisor query failed", zap.String("model", a.model), zap.Error(err))
		return "", fmt.Errorf("%w: %v", ErrQuery, err)
	}
	if strings.TrimSpace(answer) == "" {
		return "", ErrEmptyAnswer
	}
	return answer, nil
}

// InventoryContext 把资产表渲染为纯文本表格，作为提问上下文。
func InventoryContext(assets []inventory.Asset) string {
	t := table.NewWriter()
	t.AppendHeader(table.Row{"patrimonio", "tipo", "modelo", "ip", "sessao", "status"})
	for _, a := range assets {
		t.AppendRow(table.Row{a.Tag, a.Type, a.Model, a.IP, a.Sector, a.Status})
	}
	t.SetStyle(table.StyleDefault)
	return t.Render()
}
