package llm

import (
	"context"
	"strings"

	"google.golang.org/genai"
)

const toolSystemPrompt = `You are a helpful assistant for a personal task list.

IMPORTANT RULES:
1. When a user refers to a task by NAME, FIRST call "search" or "tasks" to find the task's numeric ID.
2. NEVER ask the user for an ID. Always look it up using available tools.
3. Priorities are low, medium, or high. Due dates use YYYY-MM-DD.
4. "done" toggles completion, so check a task's current state before calling it.

EXAMPLES:
- "what's left for this week" -> call week
- "mark the report task done" -> call search with "report", then call done with its ID
- "remind me to call the bank on friday, it's urgent" -> call add with priority high and the date`

// maxToolRounds bounds how many times one message may go back to the
// model with tool results
const maxToolRounds = 10

type generateFunc func(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)

type GeminiClient struct {
	client   *genai.Client
	config   *Config
	generate generateFunc
}

// NewGeminiClient creates a client for the Gemini API. An empty model
// uses DefaultConfig's model.
func NewGeminiClient(ctx context.Context, apiKey, model string) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, err
	}

	config := DefaultConfig()
	if model != "" {
		config.Model = model
	}

	return &GeminiClient{client: client, config: config, generate: client.Models.GenerateContent}, nil
}

func (g *GeminiClient) ChatWithTools(ctx context.Context, message string, history []*Message, tools []*Tool, executor ToolExecutor) (*Response, []*Message, error) {
	if strings.TrimSpace(message) == "" {
		return nil, history, ErrEmptyPrompt
	}

	config := g.config
	if config == nil {
		config = DefaultConfig()
	}

	genConfig := &genai.GenerateContentConfig{
		MaxOutputTokens: config.MaxTokens,
		Temperature:     genai.Ptr(config.Temperature),
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{Text: config.System}},
		},
	}
	if decls := toFunctionDeclarations(tools); len(decls) > 0 {
		genConfig.Tools = []*genai.Tool{
			{FunctionDeclarations: decls},
		}
	}

	// Build conversation contents from history plus new message
	contents := toContents(history)
	contents = append(contents, genai.NewContentFromText(message, genai.RoleUser))

	newHistory := append(append([]*Message{}, history...), &Message{Role: "user", Content: message})

	var usage Response

	// Tool calling loop
	for round := 0; round < maxToolRounds; round++ {
		result, err := g.generate(ctx, config.Model, contents, genConfig)
		if err != nil {
			return nil, history, err
		}

		if result.UsageMetadata != nil {
			usage.TokensUsed += int64(result.UsageMetadata.TotalTokenCount)
			usage.InputTokens += int64(result.UsageMetadata.PromptTokenCount)
			usage.OutputTokens += int64(result.UsageMetadata.CandidatesTokenCount)
		}

		if len(result.Candidates) == 0 || result.Candidates[0].Content == nil || len(result.Candidates[0].Content.Parts) == 0 {
			return nil, history, ErrNoResponse
		}

		candidate := result.Candidates[0]

		// Check for function calls
		var functionCalls []*genai.FunctionCall
		var textParts []string

		for _, part := range candidate.Content.Parts {
			if part.FunctionCall != nil {
				functionCalls = append(functionCalls, part.FunctionCall)
			}
			if part.Text != "" {
				textParts = append(textParts, part.Text)
			}
		}

		// Add model's response to the conversation
		contents = append(contents, candidate.Content)

		// If no function calls, return the text response
		if len(functionCalls) == 0 {
			text := strings.Join(textParts, "")
			newHistory = append(newHistory, &Message{Role: "model", Content: text})

			usage.Text = text
			usage.FinishReason = string(candidate.FinishReason)
			return &usage, newHistory, nil
		}

		// Execute function calls and build responses
		var functionResponses []*genai.Part
		for _, fc := range functionCalls {
			output := executor(fc.Name, fc.Args)
			functionResponses = append(functionResponses, &genai.Part{
				FunctionResponse: &genai.FunctionResponse{
					Name:     fc.Name,
					Response: map[string]any{"result": output},
				},
			})
		}

		contents = append(contents, &genai.Content{
			Role:  genai.RoleUser,
			Parts: functionResponses,
		})
	}

	return nil, history, ErrTooManyToolRounds
}

func (g *GeminiClient) Close() error {
	// The genai client has no Close method
	return nil
}

// toContents converts history to genai contents. System turns are sent
// as user turns since Gemini only accepts user and model roles.
func toContents(history []*Message) []*genai.Content {
	contents := make([]*genai.Content, 0, len(history)+1)
	for _, msg := range history {
		if msg == nil || msg.Content == "" {
			continue
		}
		switch msg.Role {
		case "model":
			contents = append(contents, genai.NewContentFromText(msg.Content, genai.RoleModel))
		default:
			contents = append(contents, genai.NewContentFromText(msg.Content, genai.RoleUser))
		}
	}
	return contents
}

func toFunctionDeclarations(tools []*Tool) []*genai.FunctionDeclaration {
	decls := make([]*genai.FunctionDeclaration, 0, len(tools))
	for _, tool := range tools {
		decl := &genai.FunctionDeclaration{
			Name:        tool.Name,
			Description: tool.Description,
		}

		if tool.Parameters != nil && len(tool.Parameters.Properties) > 0 {
			schema := &genai.Schema{
				Type:       genai.TypeObject,
				Properties: make(map[string]*genai.Schema, len(tool.Parameters.Properties)),
				Required:   tool.Parameters.Required,
			}
			for name, prop := range tool.Parameters.Properties {
				schema.Properties[name] = &genai.Schema{
					Type:        genai.TypeString,
					Description: prop.Description,
				}
			}
			decl.Parameters = schema
		}

		decls = append(decls, decl)
	}
	return decls
}
