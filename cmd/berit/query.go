package main

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/codyseavey/berit/internal/cardindex"
	"github.com/codyseavey/berit/internal/commands"
)

var queryFile string

var queryCmd = &cobra.Command{
	Use:   "query [message]",
	Short: "Answer one message from the command line",
	Long: `Builds the index and prints what the bot would reply to the message,
for example:

  berit query --file oracle-cards.json "[sol ring] and [!random_commander]"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runQuery,
}

func init() {
	queryCmd.Flags().StringVarP(&queryFile, "file", "f", "", "read the card list from a Scryfall bulk JSON file")
	rootCmd.AddCommand(queryCmd)
}

func runQuery(cmd *cobra.Command, args []string) error {
	if queryFile != "" {
		cfg.Scryfall.DatasetFile = queryFile
	}

	index, err := loadIndex(context.Background(), cfg)
	if err != nil {
		return err
	}
	matcher, err := cardindex.NewMatcher(index, 0)
	if err != nil {
		return err
	}
	dispatcher := commands.NewDispatcher(matcher, cardindex.NewSelector(index), cfg.Keywords, nil, logger)

	tokens := commands.ExtractTokens(strings.Join(args, " "))
	response, ok := commands.Format(dispatcher.Handle(tokens))
	if !ok {
		cmd.Println("No results.")
		return nil
	}
	cmd.Println(response)
	return nil
}
