package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "prm-planner",
	Short: "Probabilistic roadmap planning among polygonal obstacles",
	Long: `prm-planner builds probabilistic roadmaps (PRM and PRM*) in the [-1,1]² domain
around polygonal obstacles and maintains the shortest start-goal path as the
roadmap grows. It can run replanning experiments, serve plans over HTTP and
inspect obstacle scenes.`,
	Version: "1.0.0",
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
