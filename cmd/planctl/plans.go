package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"
)

func init() {
	plansCmd := &cobra.Command{Use: "plans", Short: "Plan operations"}

	var outlinePath, seriesKey, answerText, timezone string
	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create a plan from an outline JSON file",
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(outlinePath)
			if err != nil {
				return err
			}
			var outline json.RawMessage
			if err := json.Unmarshal(raw, &outline); err != nil {
				return fmt.Errorf("outline file is not valid JSON: %w", err)
			}
			c, err := newClient()
			if err != nil {
				return err
			}
			body, err := call(c.R().SetBody(map[string]interface{}{
				"seriesKey":  seriesKey,
				"timezone":   timezone,
				"outline":    outline,
				"answerText": answerText,
			}), http.MethodPost, "/api/plans")
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, body)
			return nil
		},
	}
	createCmd.Flags().StringVarP(&outlinePath, "outline", "o", "", "Path to outline JSON (required)")
	createCmd.Flags().StringVarP(&seriesKey, "series", "k", "", "Series key")
	createCmd.Flags().StringVarP(&answerText, "answer", "t", "", "The user's answer text")
	createCmd.Flags().StringVarP(&timezone, "tz", "z", "UTC", "Time zone")
	_ = createCmd.MarkFlagRequired("outline")
	plansCmd.AddCommand(createCmd)

	getCmd := &cobra.Command{
		Use:   "get PLAN_TOKEN",
		Short: "Get a plan by token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}
			body, err := call(c.R(), http.MethodGet, "/api/plans/"+args[0])
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, body)
			return nil
		},
	}
	plansCmd.AddCommand(getCmd)

	generateCmd := &cobra.Command{
		Use:   "generate-next PLAN_TOKEN",
		Short: "Generate the next pending day",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}
			body, err := call(c.R(), http.MethodPost, "/api/plans/"+args[0]+"/generate-next")
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, body)
			return nil
		},
	}
	plansCmd.AddCommand(generateCmd)

	statusCmd := &cobra.Command{
		Use:   "status PLAN_TOKEN",
		Short: "Show per-day generation status",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}
			body, err := call(c.R(), http.MethodGet, "/api/plans/"+args[0]+"/generation-status")
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, body)
			return nil
		},
	}
	plansCmd.AddCommand(statusCmd)

	rootCmd.AddCommand(plansCmd)
}
