package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version of doi-enrich",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("doi-enrich %s\n", version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
