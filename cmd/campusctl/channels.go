package main

import (
	"fmt"
	"net/http"

	"github.com/campuskit/campusd/internal/store"
	"github.com/spf13/cobra"
)

var refreshChannels bool

func init() {
	channelsCmd.Flags().BoolVar(&refreshChannels, "refresh", false, "pull fresh channel lists from the backend first")
	rootCmd.AddCommand(channelsCmd)
}

var channelsCmd = &cobra.Command{
	Use:   "channels",
	Short: "List cached channels",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client := daemonClient(profile())

		method, path := http.MethodGet, "/v1/channels"
		if refreshChannels {
			method, path = http.MethodPost, "/v1/channels/refresh"
		}
		var channels []store.Channel
		if err := call(client, method, path, nil, &channels); err != nil {
			return err
		}
		if jsonOut {
			return printJSON(channels)
		}

		if len(channels) == 0 {
			fmt.Println("No channels cached. Try: campusctl channels --refresh")
			return nil
		}
		for _, ch := range channels {
			marker := " "
			if ch.Pinned {
				marker = "*"
			}
			kind := "dm"
			if ch.IsGroup {
				kind = "group"
			}
			line := fmt.Sprintf("%s %-24s [%s]", marker, ch.Name, kind)
			if ch.UnreadCount > 0 {
				line += fmt.Sprintf(" (%d unread)", ch.UnreadCount)
			}
			if ch.LastMessage != "" {
				line += "  " + ch.LastMessage
			}
			fmt.Println(line)
		}
		return nil
	},
}
