package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/chzyer/readline"

	"tasklist/commands"
	"tasklist/config"
	"tasklist/llm"
	"tasklist/storage"
	"tasklist/tasks"
)

func main() {
	log.SetFlags(0)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Error: %v", err)
	}

	backend, err := openBackend(cfg)
	if err != nil {
		log.Printf("Warning: could not open %s storage, changes will not be saved: %v", cfg.Storage, err)
		backend = storage.NewMemoryStore()
	}
	defer backend.Close()

	store := tasks.NewTaskStore(backend, tasks.WithKey(cfg.Key))
	if err := store.Load(); err != nil {
		log.Printf("Warning: starting with an empty task list: %v", err)
	}

	if err := os.MkdirAll(filepath.Dir(cfg.HistoryFile), 0700); err != nil {
		log.Printf("Warning: command history disabled: %v", err)
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "> ",
		HistoryFile:     cfg.HistoryFile,
		AutoComplete:    completer(),
		InterruptPrompt: "^C",
		EOFPrompt:       "/quit",
	})
	if err != nil {
		log.Fatalf("Error starting terminal: %v", err)
	}
	defer rl.Close()

	shell := commands.NewShell(store, rl.Stdout())
	shell.SetAutoRender(cfg.AutoRender)
	shell.Confirm = confirmer(rl)

	var hasLLM bool
	if cfg.GeminiKey != "" {
		client, err := llm.NewGeminiClient(context.Background(), cfg.GeminiKey, cfg.Model)
		if err != nil {
			log.Printf("Warning: assistant unavailable: %v", err)
		} else {
			defer client.Close()
			shell.SetLLMClient(client)
			hasLLM = true
		}
	}

	fmt.Fprintln(rl.Stdout(), "Welcome to tasklist! Type /help for available commands.")
	shell.Execute("/tasks")

	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			if line == "" {
				break
			}
			continue
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			log.Printf("Error reading input: %v", err)
			break
		}

		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}

		// Plain text goes to the assistant
		if !strings.HasPrefix(input, "/") {
			if !hasLLM {
				fmt.Fprintln(rl.Stdout(), "Commands start with /. Type /help for available commands.")
				continue
			}
			input = "/chat " + input
		}

		if runCommand(shell, rl.Stdout(), input, hasLLM) {
			break
		}
	}
}

// runCommand executes input and reports whether to quit. Output of direct
// commands is shared with the assistant as context.
func runCommand(shell *commands.Shell, out io.Writer, input string, hasLLM bool) bool {
	name := strings.ToLower(strings.Fields(input)[0])
	if !hasLLM || name == "/chat" || name == "/clearchat" {
		quit, err := shell.Execute(input)
		if err != nil {
			fmt.Fprintf(out, "Error: %v. Type /help for available commands.\n", err)
		}
		return quit
	}

	quit, output, err := shell.ExecuteWithOutput(input)
	if err != nil {
		fmt.Fprintf(out, "Error: %v. Type /help for available commands.\n", err)
		return false
	}
	if output != "" {
		fmt.Fprintln(out, output)
	}
	shell.AddCommandContext(input, output)
	return quit
}

func openBackend(cfg *config.Config) (storage.Store, error) {
	switch cfg.Storage {
	case config.StorageMemory:
		return storage.NewMemoryStore(), nil
	case config.StoragePostgres:
		return storage.OpenPostgresStore(cfg.DBURL)
	default:
		return storage.NewJSONStore(cfg.File)
	}
}

// completer offers every registered command name
func completer() *readline.PrefixCompleter {
	cmds := commands.List()
	sort.Slice(cmds, func(i, j int) bool {
		return cmds[i].Name < cmds[j].Name
	})

	items := make([]readline.PrefixCompleterInterface, 0, len(cmds))
	for _, cmd := range cmds {
		items = append(items, readline.PcItem(cmd.Name))
	}
	return readline.NewPrefixCompleter(items...)
}

// confirmer asks a yes/no question on the terminal, defaulting to no
func confirmer(rl *readline.Instance) func(string) bool {
	return func(prompt string) bool {
		rl.SetPrompt(prompt + " [y/N] ")
		defer rl.SetPrompt("> ")

		answer, err := rl.Readline()
		if err != nil {
			return false
		}
		answer = strings.ToLower(strings.TrimSpace(answer))
		return answer == "y" || answer == "yes"
	}
}
