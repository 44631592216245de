package main

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/campuskit/campusd/internal/store"
	"github.com/spf13/cobra"
)

var fetchHistory bool

func init() {
	messagesCmd.Flags().BoolVar(&fetchHistory, "refresh", false, "merge backend history before printing")
	rootCmd.AddCommand(messagesCmd, sendCmd, starredCmd)
}

var messagesCmd = &cobra.Command{
	Use:   "messages <channel-id>",
	Short: "Show the cached thread for a channel",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client := daemonClient(profile())
		id := url.PathEscape(args[0])

		method, path := http.MethodGet, "/v1/channels/"+id+"/messages"
		if fetchHistory {
			method, path = http.MethodPost, "/v1/channels/"+id+"/refresh"
		}
		var msgs []store.Message
		if err := call(client, method, path, nil, &msgs); err != nil {
			return err
		}
		if jsonOut {
			return printJSON(msgs)
		}

		if len(msgs) == 0 {
			fmt.Println("No messages.")
			return nil
		}
		for _, m := range msgs {
			printMessage(m)
		}
		return nil
	},
}

var sendCmd = &cobra.Command{
	Use:   "send <channel-id> <text>...",
	Short: "Send a text message",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		client := daemonClient(profile())

		var m store.Message
		err := call(client, http.MethodPost, "/v1/messages", map[string]string{
			"channel_id": args[0],
			"body":       strings.Join(args[1:], " "),
		}, &m)
		if err != nil {
			return err
		}
		if jsonOut {
			return printJSON(m)
		}
		fmt.Printf("Queued %s\n", m.ID)
		return nil
	},
}

var starredCmd = &cobra.Command{
	Use:   "starred",
	Short: "List starred messages across channels",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client := daemonClient(profile())

		var msgs []store.Message
		if err := call(client, http.MethodGet, "/v1/messages/starred", nil, &msgs); err != nil {
			return err
		}
		if jsonOut {
			return printJSON(msgs)
		}
		if len(msgs) == 0 {
			fmt.Println("No starred messages.")
			return nil
		}
		for _, m := range msgs {
			printMessage(m)
		}
		return nil
	},
}

func printMessage(m store.Message) {
	body := m.Body
	if body == "" && m.FileURI != "" {
		body = fmt.Sprintf("<%s: %s>", m.Type, m.FileURI)
	}
	fmt.Printf("%s  %-12s  %s  [%s]\n",
		m.Timestamp.Format("2006-01-02 15:04"), m.SenderID, body, m.Status)
}
