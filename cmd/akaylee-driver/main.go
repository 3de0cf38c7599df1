/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: main.go
Description: Companion command-line tool for Akaylee Driver harnesses. Validates the
driver environment and previews how harness arguments resolve into inputs.
*/

package main

import (
	"fmt"
	"os"

	"github.com/kleascm/akaylee-driver/cmd/akaylee-driver/commands"
)

func main() {
	rootCmd := commands.NewRootCommand()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
