package service

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"strings"
	"text/template"

	"interview_prep_backend/internal/config"
	"interview_prep_backend/internal/util"

	"github.com/sashabaranov/go-openai"
	"gopkg.in/yaml.v2"
)

//go:embed prompts/question_generator.yaml
var questionGeneratorYAML []byte

//go:embed prompts/answer_feedback.yaml
var answerFeedbackYAML []byte

type QuestionPrompt struct {
	Role       string
	Topic      string
	Difficulty float64
}

type FeedbackPrompt struct {
	Question string
	Answer   string
	Keywords []string
}

// Generator 外部 AI 服务边界：prompt 输入，文本输出
type Generator interface {
	GenerateQuestion(ctx context.Context, p QuestionPrompt) (string, error)
	GenerateFeedback(ctx context.Context, p FeedbackPrompt) (string, error)
}

type promptTemplate struct {
	SystemPrompt string `yaml:"system_prompt"`
	UserPrompt   string `yaml:"user_prompt"`

	user *template.Template
}

func parsePromptTemplate(name string, raw []byte) (*promptTemplate, error) {
	var pt promptTemplate
	if err := yaml.Unmarshal(raw, &pt); err != nil {
		return nil, fmt.Errorf("error parsing %s prompt yaml: %w", name, err)
	}
	tmpl, err := template.New(name).Funcs(template.FuncMap{"join": strings.Join}).Parse(pt.UserPrompt)
	if err != nil {
		return nil, fmt.Errorf("error parsing %s user prompt: %w", name, err)
	}
	pt.user = tmpl
	return &pt, nil
}

func (pt *promptTemplate) render(data interface{}) (string, error) {
	var buf bytes.Buffer
	if err := pt.user.Execute(&buf, data); err != nil {
		return "", err
	}
	return strings.TrimSpace(buf.String()), nil
}

// AIService 通过 OpenAI 兼容接口生成题目和反馈
type AIService struct {
	client   *openai.Client
	model    string
	question *promptTemplate
	feedback *promptTemplate
}

func NewAIService(cfg config.AIConfig) (*AIService, error) {
	question, err := parsePromptTemplate("question", questionGeneratorYAML)
	if err != nil {
		return nil, err
	}
	feedback, err := parsePromptTemplate("feedback", answerFeedbackYAML)
	if err != nil {
		return nil, err
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	model := cfg.Model
	if model == "" {
		model = openai.GPT4oMini
	}

	return &AIService{
		client:   openai.NewClientWithConfig(clientCfg),
		model:    model,
		question: question,
		feedback: feedback,
	}, nil
}

func (s *AIService) GenerateQuestion(ctx context.Context, p QuestionPrompt) (string, error) {
	user, err := s.question.render(p)
	if err != nil {
		return "", err
	}
	return s.chat(ctx, s.question.SystemPrompt, user)
}

func (s *AIService) GenerateFeedback(ctx context.Context, p FeedbackPrompt) (string, error) {
	user, err := s.feedback.render(p)
	if err != nil {
		return "", err
	}
	return s.chat(ctx, s.feedback.SystemPrompt, user)
}

func (s *AIService) chat(ctx context.Context, system, user string) (string, error) {
	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: s.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		Temperature: 0.7,
	})
	if err != nil {
		return "", fmt.Errorf("AI API error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", util.ErrEmptyAIResponse
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// MockGenerator 未配置 API Key 时使用，返回固定题库和模板化反馈
type MockGenerator struct{}

var mockQuestions = [][]string{
	{
		"Tell me about yourself and why you are interested in a %s position.",
		"Describe a time you had to learn something new quickly as a %s.",
	},
	{
		"Walk me through how you would debug a production incident as a %s.",
		"Explain a technical trade-off you made recently in your work as a %s.",
	},
	{
		"Design a system a %s would own that must serve ten million daily users. Where are the bottlenecks?",
		"As a senior %s, how would you lead a migration of a critical service with zero downtime?",
	},
}

func (MockGenerator) GenerateQuestion(_ context.Context, p QuestionPrompt) (string, error) {
	band := 0
	switch {
	case p.Difficulty >= 8:
		band = 2
	case p.Difficulty >= 4:
		band = 1
	}
	bank := mockQuestions[band]
	q := fmt.Sprintf(bank[len(p.Role+p.Topic)%len(bank)], p.Role)
	if p.Topic != "" {
		q += " Focus on " + p.Topic + "."
	}
	return q, nil
}

func (MockGenerator) GenerateFeedback(_ context.Context, p FeedbackPrompt) (string, error) {
	answer := strings.ToLower(p.Answer)
	var covered, missing []string
	for _, kw := range p.Keywords {
		if strings.Contains(answer, strings.ToLower(kw)) {
			covered = append(covered, kw)
		} else {
			missing = append(missing, kw)
		}
	}

	var sb strings.Builder
	sb.WriteString("Strengths: ")
	if len(covered) > 0 {
		sb.WriteString("you covered " + strings.Join(covered, ", ") + ".")
	} else {
		sb.WriteString("you gave a direct answer.")
	}
	sb.WriteString("\nGaps: ")
	if len(missing) > 0 {
		sb.WriteString("consider mentioning " + strings.Join(missing, ", ") + ".")
	} else {
		sb.WriteString("add a measurable result to close the story.")
	}
	sb.WriteString("\nSuggested Answer Outline: situation, task, action, result.")
	return sb.String(), nil
}

// NewGenerator 根据配置选择真实或模拟实现
func NewGenerator(cfg config.AIConfig) (Generator, error) {
	if cfg.Mock() {
		return MockGenerator{}, nil
	}
	return NewAIService(cfg)
}
