package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var dropForce bool

var dropCmd = &cobra.Command{
	Use:   "drop",
	Short: "Delete the local cache database",
	RunE:  runDrop,
}

func init() {
	dropCmd.Flags().BoolVar(&dropForce, "force", false, "delete without confirmation")
}

func runDrop(_ *cobra.Command, _ []string) error {
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		fmt.Printf("No cache at %s\n", dbPath)
		return nil
	}

	if !dropForce {
		fmt.Printf("Delete %s? [y/N] ", dbPath)
		var answer string
		fmt.Scanln(&answer)
		if answer != "y" && answer != "Y" {
			fmt.Println("Aborted.")
			return nil
		}
	}

	if err := os.Remove(dbPath); err != nil {
		return fmt.Errorf("delete cache: %w", err)
	}
	fmt.Printf("Deleted %s\n", dbPath)
	return nil
}
