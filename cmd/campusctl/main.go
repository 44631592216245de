// campusctl is a small control CLI for a running campusd daemon. It
// talks HTTP over the profile's unix socket.
package main

import (
	"fmt"
	"os"

	"github.com/campuskit/campusd/internal/session"
	"github.com/spf13/cobra"
)

var (
	profileFlag string
	jsonOut     bool
)

var rootCmd = &cobra.Command{
	Use:           "campusctl",
	Short:         "Control a running campusd daemon",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// profile resolves the target profile, failing fast on a bad name.
func profile() string {
	name := session.Resolve(profileFlag)
	if err := session.ValidateName(name); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	return name
}

func main() {
	rootCmd.PersistentFlags().StringVar(&profileFlag, "profile", "", "profile name (overrides config default)")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "output in JSON format")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
