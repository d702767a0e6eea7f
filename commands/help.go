package commands

import "sort"

func init() {
	Register(&Command{
		Name:        "/help",
		Description: "Show available commands",
		Hidden:      true,
		Handler: func(s *Shell, args []string) bool {
			s.println("Available commands:")

			cmds := List()
			sort.Slice(cmds, func(i, j int) bool {
				return cmds[i].Name < cmds[j].Name
			})

			for _, cmd := range cmds {
				s.printf("  %s\n      %s\n", usageLine(cmd), cmd.Description)
			}

			return false
		},
	})
}

// usageLine renders a command with its parameters, optional ones bracketed
func usageLine(cmd *Command) string {
	line := cmd.Name
	for _, p := range cmd.Params {
		name := "<" + p.Name + ">"
		if p.Prefix != "" {
			name = p.Prefix + " " + name
		}
		if !p.Required {
			name = "[" + name + "]"
		}
		line += " " + name
	}
	return line
}
