package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "fhirmapper",
		Short: "Declarative FHIR data transformation engine",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(validateCmd())
	rootCmd.AddCommand(transformCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
