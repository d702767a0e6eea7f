package commands

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"time"

	"tasklist/llm"
	"tasklist/tasks"
)

// ParamType defines the type of a command parameter
type ParamType string

const (
	ParamTypeString ParamType = "string"
)

// Param defines a parameter for a command
type Param struct {
	Name        string
	Type        ParamType
	Description string
	Required    bool
	Prefix      string // written before the value when built from tool arguments
}

// Command represents a CLI command
type Command struct {
	Name        string
	Description string
	Handler     func(s *Shell, args []string) bool // returns true to quit
	Params      []Param                            // parameter definitions for tool generation
	Hidden      bool                               // if true, exclude from tool generation
	Destructive bool                               // if true, requires confirmation when called via tool
}

var registry = make(map[string]*Command)

// Register adds a command to the registry
func Register(cmd *Command) {
	registry[strings.ToLower(cmd.Name)] = cmd
}

// List returns all registered commands
func List() []*Command {
	cmds := make([]*Command, 0, len(registry))
	for _, cmd := range registry {
		cmds = append(cmds, cmd)
	}
	return cmds
}

// GetByName returns a command by name (with or without leading /)
func GetByName(name string) *Command {
	if !strings.HasPrefix(name, "/") {
		name = "/" + name
	}
	return registry[strings.ToLower(name)]
}

// Shell is the terminal front end for a task store. It runs commands,
// renders task lists, and re-renders the list after mutations.
type Shell struct {
	store      *tasks.TaskStore
	llmClient  llm.Client
	out        io.Writer
	now        func() time.Time
	autoRender bool
	debug      bool

	// Confirm is asked before a destructive command runs on behalf of
	// the assistant. A nil Confirm refuses.
	Confirm func(prompt string) bool

	changed     bool // the store changed since the last render
	rendered    bool // the current command already showed the full list
	chatHistory []*llm.Message
	usage       sessionUsage
}

// NewShell creates a shell writing to out and registers it as the
// store's observer
func NewShell(store *tasks.TaskStore, out io.Writer) *Shell {
	s := &Shell{
		store:      store,
		out:        out,
		now:        time.Now,
		autoRender: true,
	}
	store.SetObserver(s.tasksChanged)
	return s
}

// SetLLMClient sets the assistant used by /chat
func (s *Shell) SetLLMClient(c llm.Client) {
	s.llmClient = c
}

// SetAutoRender controls whether the full list is shown after each mutation
func (s *Shell) SetAutoRender(on bool) {
	s.autoRender = on
}

// SetOutput redirects command output
func (s *Shell) SetOutput(w io.Writer) {
	s.out = w
}

// Store returns the task store the shell drives
func (s *Shell) Store() *tasks.TaskStore {
	return s.store
}

func (s *Shell) tasksChanged([]tasks.Task) {
	s.changed = true
}

// Execute runs a command by name with arguments
func (s *Shell) Execute(input string) (bool, error) {
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return false, fmt.Errorf("empty command")
	}

	cmdName := strings.ToLower(parts[0])
	args := parts[1:]

	cmd, exists := registry[cmdName]
	if !exists {
		return false, fmt.Errorf("unknown command: %s", cmdName)
	}

	s.changed, s.rendered = false, false
	quit := cmd.Handler(s, args)

	// changed stays set so a command running this one (the assistant)
	// re-renders for the user as well
	if s.changed && s.autoRender && !s.rendered {
		s.println()
		s.renderTasks(s.store.List())
	}

	return quit, nil
}

// ExecuteWithOutput runs a command and returns its captured output
func (s *Shell) ExecuteWithOutput(input string) (quit bool, output string, err error) {
	output = s.captureOutput(func() {
		quit, err = s.Execute(input)
	})
	return quit, output, err
}

// captureOutput collects everything written by fn
func (s *Shell) captureOutput(fn func()) string {
	var buf bytes.Buffer
	old := s.out
	s.out = &buf
	defer func() { s.out = old }()

	fn()
	return strings.TrimSpace(buf.String())
}

// GenerateToolDefinitions creates Tool definitions from registered commands
func GenerateToolDefinitions() []*llm.Tool {
	var tools []*llm.Tool

	for _, cmd := range registry {
		if cmd.Hidden {
			continue
		}

		// Build properties and required arrays from Params
		properties := make(map[string]*llm.ToolProperty)
		var required []string

		for _, p := range cmd.Params {
			properties[p.Name] = &llm.ToolProperty{
				Type:        string(p.Type),
				Description: p.Description,
			}
			if p.Required {
				required = append(required, p.Name)
			}
		}

		tool := &llm.Tool{
			Name:        strings.TrimPrefix(cmd.Name, "/"),
			Description: cmd.Description,
		}

		// Only add Parameters if there are any
		if len(properties) > 0 {
			tool.Parameters = &llm.ToolParameters{
				Type:       "object",
				Properties: properties,
				Required:   required,
			}
		}

		tools = append(tools, tool)
	}

	return tools
}

func (s *Shell) printf(format string, a ...any) {
	fmt.Fprintf(s.out, format, a...)
}

func (s *Shell) println(a ...any) {
	fmt.Fprintln(s.out, a...)
}

// failed prints err and reports whether the operation was rejected. A
// persistence failure is only a warning: the change is kept in memory.
func (s *Shell) failed(err error) bool {
	if err == nil {
		return false
	}
	if tasks.IsPersistence(err) {
		s.printf("Warning: changes kept in memory only: %v\n", err)
		return false
	}
	s.printf("Error: %v\n", err)
	return true
}
