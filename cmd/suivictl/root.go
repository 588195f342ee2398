package main

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "suivictl",
	Short: "Run stock tracking treatments from the command line",
	Long: `suivictl runs the SuiviStock treatments offline: it merges an export
snapshot into a tracking workbook and regenerates the monthly and
semestrial variation reports, without going through the HTTP server.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(treatmentsCmd)
	rootCmd.AddCommand(versionCmd)
}

func initConfig() {
	if err := godotenv.Load(); err != nil && verbose {
		log.Printf("No .env file found or error loading it: %v", err)
	}
}
