package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

var noColor bool

var rootCmd = &cobra.Command{
	Use:           "bidbuddy",
	Short:         "Car auction bid management: imports, qualification, and bid pricing",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the bidbuddy version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("bidbuddy version %s\n", version)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")

	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(stopCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(followupCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(vehiclesCmd)
	rootCmd.AddCommand(funnelCmd)
	rootCmd.AddCommand(paramsCmd)
	rootCmd.AddCommand(valuationCmd)
	rootCmd.AddCommand(calcCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
