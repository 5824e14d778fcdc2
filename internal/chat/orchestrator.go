package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xavierca1/lead-crm/internal/infra/metrics"
	"github.com/xavierca1/lead-crm/internal/tools"
	"github.com/xavierca1/lead-crm/internal/usecase"
)

const (
	TypeMessage      = "message"
	TypeActionResult = "action_result"
)

const DefaultSystemPrompt = `You are a helpful CRM assistant that helps users manage their sales leads. Use the available tools to perform lead management operations.

When users ask to create, update, search, list, or delete leads, use the appropriate tool.
For creating leads, you must have both name and email.
For updating or deleting leads, you need the lead ID. If the user refers to a lead by name, search for it first.
For searching, you can use any combination of name, email, company, or stage filters.

If users ask general questions about how to use the system, respond helpfully without using tools.`

// CompletionClient is the subset of *openai.Client used here.
type CompletionClient interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

type ToolExecutor interface {
	Execute(ctx context.Context, ownerID, name, arguments string) tools.Result
}

type Settings struct {
	Model           string
	Temperature     float32
	MaxTokens       int
	Timeout         time.Duration
	ToolConcurrency int
	SystemPrompt    string
}

func DefaultSettings() Settings {
	return Settings{
		Model:           openai.GPT4o,
		Temperature:     0.3,
		MaxTokens:       1000,
		Timeout:         30 * time.Second,
		ToolConcurrency: 4,
		SystemPrompt:    DefaultSystemPrompt,
	}
}

type Turn struct {
	Role    string `json:"role" validate:"required,oneof=user assistant"`
	Content string `json:"content" validate:"required"`
}

type Input struct {
	Message             string `json:"message" validate:"required,max=4000"`
	ConversationHistory []Turn `json:"conversationHistory,omitempty" validate:"max=50,dive"`
}

func (in *Input) Normalize() {
	in.Message = strings.TrimSpace(in.Message)
	for i := range in.ConversationHistory {
		in.ConversationHistory[i].Content = strings.TrimSpace(in.ConversationHistory[i].Content)
	}
}

type Output struct {
	Type        string         `json:"type"`
	Content     string         `json:"content"`
	ToolResults []tools.Result `json:"toolResults,omitempty"`
}

// Orchestrator runs one chat turn: a model decision, the requested tool calls, and a
// final summarizing request. It holds no per-conversation state.
type Orchestrator struct {
	Client   CompletionClient
	Tools    ToolExecutor
	Settings Settings
	Logger   *zap.Logger
}

func NewOrchestrator(client CompletionClient, executor ToolExecutor, settings Settings, logger *zap.Logger) *Orchestrator {
	defaults := DefaultSettings()
	if settings.Model == "" {
		settings.Model = defaults.Model
	}
	if settings.MaxTokens <= 0 {
		settings.MaxTokens = defaults.MaxTokens
	}
	if settings.Timeout <= 0 {
		settings.Timeout = defaults.Timeout
	}
	if settings.ToolConcurrency <= 0 {
		settings.ToolConcurrency = defaults.ToolConcurrency
	}
	if settings.SystemPrompt == "" {
		settings.SystemPrompt = defaults.SystemPrompt
	}
	return &Orchestrator{Client: client, Tools: executor, Settings: settings, Logger: logger}
}

// Handle answers in.Message on behalf of callerID. It makes at most two model requests.
func (o *Orchestrator) Handle(ctx context.Context, in Input, callerID string) (*Output, error) {
	in.Normalize()
	if errs := usecase.Validate(in); len(errs) > 0 {
		metrics.RecordChatTurn("invalid")
		return nil, usecase.NewValidationError(errs)
	}

	messages := o.buildMessages(in)

	first, err := o.complete(ctx, "decision", openai.ChatCompletionRequest{
		Model:       o.Settings.Model,
		Messages:    messages,
		Tools:       tools.Registry(),
		ToolChoice:  "auto",
		Temperature: o.Settings.Temperature,
		MaxTokens:   o.Settings.MaxTokens,
	})
	if err != nil {
		metrics.RecordChatTurn("model_error")
		return nil, err
	}

	if len(first.ToolCalls) == 0 {
		content := strings.TrimSpace(first.Content)
		if content == "" {
			metrics.RecordChatTurn("model_error")
			return nil, usecase.NewModelError("model returned neither content nor tool calls", nil)
		}
		metrics.RecordChatTurn(TypeMessage)
		return &Output{Type: TypeMessage, Content: content}, nil
	}

	results := o.runTools(ctx, callerID, first.ToolCalls)

	followUp := make([]openai.ChatCompletionMessage, 0, len(messages)+1+len(results))
	followUp = append(followUp, messages...)
	followUp = append(followUp, openai.ChatCompletionMessage{
		Role:      openai.ChatMessageRoleAssistant,
		Content:   first.Content,
		ToolCalls: first.ToolCalls,
	})
	for i, call := range first.ToolCalls {
		payload, err := json.Marshal(results[i])
		if err != nil {
			payload = []byte(`{"success":false,"message":"result could not be encoded"}`)
		}
		followUp = append(followUp, openai.ChatCompletionMessage{
			Role:       openai.ChatMessageRoleTool,
			Content:    string(payload),
			ToolCallID: call.ID,
		})
	}

	final, err := o.complete(ctx, "summary", openai.ChatCompletionRequest{
		Model:       o.Settings.Model,
		Messages:    followUp,
		Temperature: o.Settings.Temperature,
		MaxTokens:   o.Settings.MaxTokens,
	})
	if err != nil {
		metrics.RecordChatTurn("model_error")
		return nil, err
	}

	content := strings.TrimSpace(final.Content)
	if content == "" {
		metrics.RecordChatTurn("model_error")
		return nil, usecase.NewModelError("model returned an empty final response", nil)
	}

	metrics.RecordChatTurn(TypeActionResult)
	return &Output{Type: TypeActionResult, Content: content, ToolResults: results}, nil
}

func (o *Orchestrator) buildMessages(in Input) []openai.ChatCompletionMessage {
	messages := make([]openai.ChatCompletionMessage, 0, len(in.ConversationHistory)+2)
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: o.Settings.SystemPrompt,
	})
	for _, turn := range in.ConversationHistory {
		messages = append(messages, openai.ChatCompletionMessage{Role: turn.Role, Content: turn.Content})
	}
	return append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: in.Message,
	})
}

// complete performs one bounded model request and returns the first choice's message.
func (o *Orchestrator) complete(ctx context.Context, round string, req openai.ChatCompletionRequest) (openai.ChatCompletionMessage, error) {
	ctx, cancel := context.WithTimeout(ctx, o.Settings.Timeout)
	defer cancel()

	start := time.Now()
	resp, err := o.Client.CreateChatCompletion(ctx, req)
	elapsed := time.Since(start).Seconds()

	if err != nil {
		metrics.RecordModelRequest(round, "error", elapsed)
		o.Logger.Error("model request failed",
			zap.String("round", round),
			zap.String("model", req.Model),
			zap.Error(err))
		return openai.ChatCompletionMessage{}, usecase.NewModelError(fmt.Sprintf("%s request failed", round), err)
	}
	if len(resp.Choices) == 0 {
		metrics.RecordModelRequest(round, "empty", elapsed)
		return openai.ChatCompletionMessage{}, usecase.NewModelError(fmt.Sprintf("%s response had no choices", round), nil)
	}

	metrics.RecordModelRequest(round, "ok", elapsed)
	o.Logger.Debug("model responded",
		zap.String("round", round),
		zap.Int("tool_calls", len(resp.Choices[0].Message.ToolCalls)),
		zap.Int("total_tokens", resp.Usage.TotalTokens))
	return resp.Choices[0].Message, nil
}

// runTools executes every call independently. results[i] always belongs to calls[i];
// one call failing or panicking never cancels the others.
func (o *Orchestrator) runTools(ctx context.Context, callerID string, calls []openai.ToolCall) []tools.Result {
	results := make([]tools.Result, len(calls))

	var g errgroup.Group
	g.SetLimit(o.Settings.ToolConcurrency)
	for i, call := range calls {
		i, call := i, call
		g.Go(func() error {
			results[i] = o.runTool(ctx, callerID, call)
			return nil
		})
	}
	_ = g.Wait()

	return results
}

func (o *Orchestrator) runTool(ctx context.Context, callerID string, call openai.ToolCall) (res tools.Result) {
	defer func() {
		if r := recover(); r != nil {
			o.Logger.Error("tool executor panicked",
				zap.String("tool", call.Function.Name),
				zap.String("call_id", call.ID),
				zap.Any("panic", r))
			res = tools.Result{Success: false, Message: "Something went wrong while running " + call.Function.Name + "."}
		}
	}()

	if call.Type != "" && call.Type != openai.ToolTypeFunction {
		return tools.Result{Success: false, Message: "Unsupported tool call type: " + string(call.Type)}
	}
	return o.Tools.Execute(ctx, callerID, call.Function.Name, call.Function.Arguments)
}
