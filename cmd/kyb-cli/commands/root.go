package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// BaseUrl of the kyb server, overridden by the KYB_BASE_URL
// environment variable.
var BaseUrl = "http://localhost:8000"

var rootCmd = &cobra.Command{
	Use:   "kyb-cli",
	Short: "kyb-cli drives the business research service from the terminal.",
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
