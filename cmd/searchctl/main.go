package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	apiFlag    string
	callerFlag string
	orgFlag    string
	rootCmd    = &cobra.Command{
		Use:   "searchctl",
		Short: "CLI client for the bookmark search API",
	}
)

func main() {
	rootCmd.PersistentFlags().StringVarP(&apiFlag, "api", "a", "http://localhost:8080", "Search service base URL")

	searchCmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Search bookmarks visible to a caller",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if callerFlag == "" {
				return fmt.Errorf("--caller required")
			}
			return runSearch(apiFlag, callerFlag, orgFlag, args[0], os.Stdout)
		},
	}
	searchCmd.Flags().StringVarP(&callerFlag, "caller", "c", "", "Caller user ID (required)")
	searchCmd.Flags().StringVarP(&orgFlag, "organisation", "o", "", "Limit to one organisation")
	rootCmd.AddCommand(searchCmd)

	healthCmd := &cobra.Command{
		Use:   "health",
		Short: "Show service health",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHealth(apiFlag, os.Stdout)
		},
	}
	rootCmd.AddCommand(healthCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
