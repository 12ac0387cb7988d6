// Package main provides the entry point for the replacement index scoring agent.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "score_agent",
	Short: "AI Replacement Index scoring agent",
	Long:  "score_agent maintains a daily 0-100 index of consensus belief that AI can replace software engineers, built from multi-provider LLM scoring over collected evidence and external leaderboard data.",
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
