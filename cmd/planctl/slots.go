package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"
)

func init() {
	slotsCmd := &cobra.Command{Use: "slots", Short: "Slot ledger operations"}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "Show the session's slot ledger",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}
			body, err := call(c.R(), http.MethodGet, "/api/slots")
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, body)
			return nil
		},
	}
	slotsCmd.AddCommand(listCmd)

	var makeCurrent bool
	activateCmd := &cobra.Command{
		Use:   "activate SERIES_KEY",
		Short: "Activate a slot for a series",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}
			body, err := call(c.R().SetBody(map[string]interface{}{
				"seriesKey":   args[0],
				"makeCurrent": makeCurrent,
			}), http.MethodPost, "/api/slots/activate")
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, body)
			return nil
		},
	}
	activateCmd.Flags().BoolVarP(&makeCurrent, "current", "c", false, "Make the new slot current")
	slotsCmd.AddCommand(activateCmd)

	replaceCmd := &cobra.Command{
		Use:   "replace SLOT_ID SERIES_KEY",
		Short: "Replace a slot's series, archiving the old one",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}
			body, err := call(c.R().SetBody(map[string]interface{}{"seriesKey": args[1]}),
				http.MethodPost, "/api/slots/"+args[0]+"/replace")
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, body)
			return nil
		},
	}
	slotsCmd.AddCommand(replaceCmd)

	switchCmd := &cobra.Command{
		Use:   "switch SLOT_ID",
		Short: "Make a slot current",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}
			body, err := call(c.R(), http.MethodPost, "/api/slots/"+args[0]+"/switch")
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, body)
			return nil
		},
	}
	slotsCmd.AddCommand(switchCmd)

	var reason string
	archiveCmd := &cobra.Command{
		Use:   "archive SLOT_ID",
		Short: "Archive a slot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}
			body, err := call(c.R().SetBody(map[string]interface{}{"reason": reason}),
				http.MethodPost, "/api/slots/"+args[0]+"/archive")
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, body)
			return nil
		},
	}
	archiveCmd.Flags().StringVarP(&reason, "reason", "r", "completed", "Archive reason: completed, replaced, week_end")
	slotsCmd.AddCommand(archiveCmd)

	restoreCmd := &cobra.Command{
		Use:   "restore SLOT_ID",
		Short: "Restore an archived slot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}
			body, err := call(c.R(), http.MethodPost, "/api/slots/"+args[0]+"/restore")
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, body)
			return nil
		},
	}
	slotsCmd.AddCommand(restoreCmd)

	weekEndCmd := &cobra.Command{
		Use:   "week-end",
		Short: "Archive all completed slots with reason week_end",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}
			body, err := call(c.R(), http.MethodPost, "/api/slots/archive-completed")
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, body)
			return nil
		},
	}
	slotsCmd.AddCommand(weekEndCmd)

	rootCmd.AddCommand(slotsCmd)
}
