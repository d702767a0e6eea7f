package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"tasklist/llm"
)

// sessionUsage accumulates token counts across /chat prompts
type sessionUsage struct {
	inputTokens  int64
	outputTokens int64
	prompts      int
}

// maxCommandContextEntries limits how many command context entries to keep
const maxCommandContextEntries = 10

const commandContextPrefix = "User ran:"

// AddCommandContext adds a direct command and its output to the chat history
// so the LLM has context about recent user actions.
func (s *Shell) AddCommandContext(command string, output string) {
	s.chatHistory = append(s.chatHistory, &llm.Message{
		Role:    "system",
		Content: fmt.Sprintf("%s %s\nOutput: %s", commandContextPrefix, command, output),
	})

	s.trimCommandContext()
}

// trimCommandContext drops the oldest command context entries once there
// are more than maxCommandContextEntries
func (s *Shell) trimCommandContext() {
	var contextCount int
	for _, msg := range s.chatHistory {
		if isCommandContext(msg) {
			contextCount++
		}
	}

	if contextCount <= maxCommandContextEntries {
		return
	}

	toRemove := contextCount - maxCommandContextEntries
	var newHistory []*llm.Message
	for _, msg := range s.chatHistory {
		if toRemove > 0 && isCommandContext(msg) {
			toRemove--
			continue
		}
		newHistory = append(newHistory, msg)
	}
	s.chatHistory = newHistory
}

func isCommandContext(msg *llm.Message) bool {
	return msg.Role == "system" && strings.HasPrefix(msg.Content, commandContextPrefix)
}

func init() {
	Register(&Command{
		Name:        "/clearchat",
		Description: "Clear the chat conversation history",
		Hidden:      true,
		Handler: func(s *Shell, args []string) bool {
			s.chatHistory = nil
			s.println("Chat history cleared.")
			return false
		},
	})

	Register(&Command{
		Name:        "/usage",
		Description: "Show session token usage",
		Hidden:      true,
		Handler: func(s *Shell, args []string) bool {
			if s.usage.prompts == 0 {
				s.println("No chat usage in this session yet.")
				return false
			}

			s.println("Session Usage Statistics:")
			s.printf("  Prompts:       %d\n", s.usage.prompts)
			s.printf("  Input tokens:  %d\n", s.usage.inputTokens)
			s.printf("  Output tokens: %d\n", s.usage.outputTokens)
			s.printf("  Total tokens:  %d\n", s.usage.inputTokens+s.usage.outputTokens)
			return false
		},
	})

	Register(&Command{
		Name:        "/chat",
		Description: "Chat with the AI assistant",
		Hidden:      true, // Exclude from tool generation
		Params: []Param{
			{Name: "message", Type: ParamTypeString, Description: "The message to send to the assistant", Required: true},
		},
		Handler: func(s *Shell, args []string) bool {
			if len(args) == 0 {
				s.println("Usage: /chat <message>")
				return false
			}

			if s.llmClient == nil {
				s.println("Error: assistant not available. Set the GEMINI_API_KEY environment variable.")
				return false
			}

			message := strings.Join(args, " ")
			tools := GenerateToolDefinitions()

			// Ctrl-C abandons the request instead of exiting
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()

			response, newHistory, err := s.llmClient.ChatWithTools(ctx, message, s.chatHistory, tools, s.runTool)
			if err != nil {
				if ctx.Err() != nil {
					s.println("Chat cancelled.")
					return false
				}
				s.printf("Error: %v\n", err)
				return false
			}

			s.chatHistory = newHistory

			s.println(response.Text)
			s.printUsageStats(response)
			return false
		},
	})
}

// runTool executes a command on behalf of the assistant and returns what
// it printed. Destructive commands need the user's confirmation.
func (s *Shell) runTool(name string, fnArgs map[string]any) string {
	cmd := GetByName(name)
	if cmd == nil || cmd.Hidden {
		return fmt.Sprintf("Error: unknown command: %s", name)
	}

	cmdStr := cmd.Name
	if cmdArgs := convertArgsToSlice(cmd, fnArgs); len(cmdArgs) > 0 {
		cmdStr += " " + strings.Join(cmdArgs, " ")
	}

	if s.debug {
		s.printf("[debug] tool call: %s\n", cmdStr)
	}

	if cmd.Destructive {
		if s.Confirm == nil || !s.Confirm(fmt.Sprintf("The assistant wants to run %q. Allow?", cmdStr)) {
			return "The user declined to run " + cmdStr
		}
	}

	// The list is rendered once for the user after the chat reply, not
	// into the assistant's tool output
	autoRender, changed := s.autoRender, s.changed
	s.autoRender = false
	output := s.captureOutput(func() {
		if _, err := s.Execute(cmdStr); err != nil {
			s.printf("Error: %v\n", err)
		}
	})
	s.autoRender = autoRender
	s.changed = s.changed || changed
	s.rendered = false

	if s.debug {
		s.printf("[debug] tool output: %s\n", output)
	}
	return output
}

// printUsageStats displays token usage and updates session totals
func (s *Shell) printUsageStats(response *llm.Response) {
	s.usage.inputTokens += response.InputTokens
	s.usage.outputTokens += response.OutputTokens
	s.usage.prompts++

	// Only display if we have token data
	if response.TokensUsed == 0 && response.InputTokens == 0 && response.OutputTokens == 0 {
		return
	}

	s.printf("\n[Tokens: %d in / %d out]\n", response.InputTokens, response.OutputTokens)
}

// convertArgsToSlice converts function call arguments to a string slice
// in the order of the command's parameters
func convertArgsToSlice(cmd *Command, args map[string]any) []string {
	var result []string
	for _, p := range cmd.Params {
		val, ok := args[p.Name]
		if !ok {
			continue
		}
		str := strings.TrimSpace(argString(val))
		if str == "" {
			continue
		}
		if p.Prefix != "" {
			result = append(result, p.Prefix)
		}
		result = append(result, str)
	}
	return result
}

// argString formats a decoded JSON value; numbers never use exponent form
func argString(val any) string {
	if f, ok := val.(float64); ok {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return fmt.Sprint(val)
}
