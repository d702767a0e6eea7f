package commands

func init() {
	quit := func(s *Shell, args []string) bool {
		s.println("Goodbye!")
		return true
	}

	Register(&Command{
		Name:        "/quit",
		Description: "Exit tasklist",
		Hidden:      true,
		Handler:     quit,
	})

	// Alias
	Register(&Command{
		Name:        "/exit",
		Description: "Exit tasklist",
		Hidden:      true,
		Handler:     quit,
	})
}
