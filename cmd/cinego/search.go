package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var searchCmd = &cobra.Command{
	Use:   "search <query>...",
	Short: "Look up movies by title",
	Long: `Look up movies by title through the gateway.

Cached matches are served from the gateway's store; anything else is
fetched from the metadata provider and cached for next time.

Examples:
  cinego search batman
  cinego search "the dark knight"
  cinego search --json inception`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearchCmd,
}

func init() {
	rootCmd.AddCommand(searchCmd)
	searchCmd.Flags().BoolP("verbose", "v", false, "Show plot and poster URL")
}

func runSearchCmd(cmd *cobra.Command, args []string) error {
	query := strings.Join(args, " ")
	verbose, _ := cmd.Flags().GetBool("verbose")

	client := NewClient(serverURL)
	movies, err := client.SearchMovies(query)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if jsonOutput {
		printJSON(movies)
		return nil
	}

	if len(movies) == 0 {
		fmt.Println("No movies found")
		return nil
	}

	for i, m := range movies {
		fmt.Printf("%2d. %s (%s)\n", i+1, m.Title, m.Year)
		fmt.Printf("    %s · %s · %s\n", m.Genre, m.Director, ratingOrNA(m.Rating))
		if verbose {
			fmt.Printf("    %s\n", m.Plot)
			if m.Poster != "" {
				fmt.Printf("    %s\n", m.Poster)
			}
		}
	}
	return nil
}

func ratingOrNA(rating string) string {
	if rating == "" {
		return "N/A"
	}
	return rating
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}
