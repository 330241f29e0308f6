package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var moviesCmd = &cobra.Command{
	Use:   "movies",
	Short: "List cached movie records",
	Long: `List the movie records the gateway has cached.

Examples:
  cinego movies
  cinego movies --limit 10 --offset 20`,
	RunE: runMoviesCmd,
}

func init() {
	rootCmd.AddCommand(moviesCmd)
	moviesCmd.Flags().Int("limit", 50, "Maximum records to show")
	moviesCmd.Flags().Int("offset", 0, "Records to skip")
}

func runMoviesCmd(cmd *cobra.Command, args []string) error {
	limit, _ := cmd.Flags().GetInt("limit")
	offset, _ := cmd.Flags().GetInt("offset")

	client := NewClient(serverURL)
	resp, err := client.ListMovies(limit, offset)
	if err != nil {
		return fmt.Errorf("list failed: %w", err)
	}

	if jsonOutput {
		printJSON(resp)
		return nil
	}

	if len(resp.Movies) == 0 {
		fmt.Println("No cached movies")
		return nil
	}

	for _, m := range resp.Movies {
		fmt.Printf("%-12s %s (%s)\n", m.IMDBID, m.Title, m.Year)
	}
	fmt.Printf("\n%d of %d records\n", len(resp.Movies), resp.Total)
	return nil
}
