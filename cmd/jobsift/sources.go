package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List all configured sources",
	Long:  "Reads the config and prints a table of all configured sources.",
	RunE:  runSources,
}

func init() {
	rootCmd.AddCommand(sourcesCmd)
}

func runSources(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("%-25s %-15s %s\n", "Source", "Type", "Status")
	fmt.Println(strings.Repeat("─", 47))

	enabled, disabled := 0, 0
	for _, s := range cfg.Sources {
		status := "enabled"
		if !s.Enabled {
			status = "disabled"
			disabled++
		} else {
			enabled++
		}
		fmt.Printf("%-25s %-15s %s\n", s.Name, s.Type, status)
	}

	fmt.Printf("\nTotal: %d sources (%d enabled, %d disabled)\n", len(cfg.Sources), enabled, disabled)
	return nil
}
