package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var vocabularyLimit int

var vocabularyCmd = &cobra.Command{
	Use:   "vocabulary",
	Short: "Load and print the brand, branch and buyer vocabulary",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		comp, err := buildComponents(cmd.Context())
		if err != nil {
			return err
		}
		defer comp.Close()

		snap := comp.Vocabulary.Current()
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "source: %s (loaded %s)\n", snap.Source, snap.LoadedAt.Format("2006-01-02 15:04:05"))
		for _, group := range []struct {
			name  string
			terms []string
		}{
			{"brands", snap.Brands},
			{"branches", snap.Branches},
			{"buyers", snap.Buyers},
		} {
			shown := group.terms
			if vocabularyLimit > 0 && len(shown) > vocabularyLimit {
				shown = shown[:vocabularyLimit]
			}
			fmt.Fprintf(out, "%s (%d): %s\n", group.name, len(group.terms), strings.Join(shown, ", "))
		}
		return nil
	},
}

func init() {
	vocabularyCmd.Flags().IntVarP(&vocabularyLimit, "limit", "n", 20, "terms shown per group, 0 for all")
}
