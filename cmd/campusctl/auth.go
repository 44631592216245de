package main

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(loginCmd, verifyCmd, logoutCmd)
}

var loginCmd = &cobra.Command{
	Use:   "login <email>",
	Short: "Request a one-time pin for a campus email",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client := daemonClient(profile())
		if err := call(client, http.MethodPost, "/v1/auth/request-otp",
			map[string]string{"email": args[0]}, nil); err != nil {
			return err
		}
		fmt.Printf("Pin sent to %s. Complete with: campusctl verify %s <pin>\n", args[0], args[0])
		return nil
	},
}

var verifyCmd = &cobra.Command{
	Use:   "verify <email> <pin>",
	Short: "Verify a one-time pin and log in",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		client := daemonClient(profile())

		var user struct {
			ID   string `json:"id"`
			Name string `json:"name"`
			Role string `json:"role"`
		}
		if err := call(client, http.MethodPost, "/v1/auth/verify-otp",
			map[string]string{"email": args[0], "pin": args[1]}, &user); err != nil {
			return err
		}
		if jsonOut {
			return printJSON(user)
		}
		fmt.Printf("Logged in as %s (%s)\n", user.Name, user.Role)
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Log out and wipe the local cache",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client := daemonClient(profile())
		if err := call(client, http.MethodPost, "/v1/auth/logout", nil, nil); err != nil {
			return err
		}
		fmt.Println("Logged out, cache cleared.")
		return nil
	},
}
