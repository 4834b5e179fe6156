package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// @title TimeFlow API
// @version 1.0.0
// @description University timetable scheduling service
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

var rootCmd = &cobra.Command{
	Use:   "api-gateway",
	Short: "TimeFlow timetable API",
	Long: `api-gateway serves the TimeFlow timetable HTTP API and manages its
database schema. Configuration is read from the environment and an optional .env file.`,
	SilenceUsage: true,
}

func main() {
	rootCmd.AddCommand(newServeCmd(), newMigrateCmd())
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
