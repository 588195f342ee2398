package main

import (
	"fmt"

	"github.com/spf13/cobra"

	contracts "suivistock/pkg/contracts"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(contracts.GetFullVersionString())
	},
}
