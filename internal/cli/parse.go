package cli

import (
	"fmt"
	"strings"

	"github.com/sharetube/smartpresent/internal/grammar"
	"github.com/spf13/cobra"
)

func newParseCmd() *cobra.Command {
	var deckPath string

	cmd := &cobra.Command{
		Use:   "parse <transcript>...",
		Short: "Classify a transcript as a voice command",
		Example: `  slidectl parse "next slide"
  slidectl parse --deck deck.toml go to financials`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := grammar.Parse(strings.Join(args, " "))
			out := cmd.OutOrStdout()

			if c.Kind != grammar.KindGoto {
				_, err := fmt.Fprintln(out, c.Kind)
				return err
			}

			if deckPath == "" {
				_, err := fmt.Fprintf(out, "%s %q\n", c.Kind, c.Target)
				return err
			}

			deck, err := LoadDeck(deckPath)
			if err != nil {
				return err
			}

			index, ok := grammar.Resolve(deck.Labels(), c.Target)
			if !ok {
				_, err := fmt.Fprintf(out, "%s %q -> no matching slide\n", c.Kind, c.Target)
				return err
			}

			_, err = fmt.Fprintf(out, "%s %q -> %d %q (page %d)\n", c.Kind, c.Target, index+1, deck[index].Command, deck[index].Page)
			return err
		},
	}
	cmd.Flags().StringVar(&deckPath, "deck", "", "Deck file used to resolve goto targets")

	return cmd
}
