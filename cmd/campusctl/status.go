package main

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(statusCmd)
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show daemon state and cache counters",
	RunE: func(cmd *cobra.Command, args []string) error {
		client := daemonClient(profile())

		var resp struct {
			State    string `json:"state"`
			UserID   string `json:"user_id"`
			Role     string `json:"role"`
			Channels int    `json:"channels"`
			Messages int    `json:"messages"`
		}
		if err := call(client, http.MethodGet, "/v1/status", nil, &resp); err != nil {
			return err
		}
		if jsonOut {
			return printJSON(resp)
		}

		fmt.Printf("State:    %s\n", resp.State)
		if resp.UserID != "" {
			fmt.Printf("User:     %s (%s)\n", resp.UserID, resp.Role)
		} else {
			fmt.Println("User:     (not logged in)")
		}
		fmt.Printf("Channels: %d\n", resp.Channels)
		fmt.Printf("Messages: %d\n", resp.Messages)
		return nil
	},
}
