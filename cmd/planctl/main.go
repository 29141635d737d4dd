package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	apiFlag     string
	sessionFlag string
	rootCmd     = &cobra.Command{
		Use:   "planctl",
		Short: "CLI client for the plan service REST API",
	}
)

func main() {
	rootCmd.PersistentFlags().StringVarP(&apiFlag, "api", "a", "http://localhost:8080", "Plan service base URL")
	rootCmd.PersistentFlags().StringVarP(&sessionFlag, "session", "s", "", "Session token (required for slot and plan operations)")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
