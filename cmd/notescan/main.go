package main

import "github.com/MeKo-Tech/notescan/cmd/notescan/cmd"

func main() {
	cmd.Execute()
}
