package commands

func init() {
	Register(&Command{
		Name:        "/debug",
		Description: "Toggle debug mode for LLM interactions",
		Hidden:      true,
		Handler: func(s *Shell, args []string) bool {
			s.debug = !s.debug
			if s.debug {
				s.println("Debug mode: ON")
			} else {
				s.println("Debug mode: OFF")
			}
			return false
		},
	})
}

