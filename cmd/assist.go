/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"strings"

	"github.com/ikasoba/notebox/assist"
	"github.com/ikasoba/notebox/core"
	"github.com/spf13/cobra"
)

var assistCmd = &cobra.Command{
	Use:   "assist",
	Short: "Writing helpers that work on a note or on --text.",
}

// assistRun resolves the input text, either from --text or from the note
// named by the first argument, and hands it to fn.
func assistRun(fn func(cmd *cobra.Command, a *app, n *core.Note, text string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		text, err := cmd.Flags().GetString("text")
		if err != nil {
			return err
		}
		if text == "" && len(args) == 0 {
			return fmt.Errorf("give a note id or --text")
		}

		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		var n *core.Note
		if len(args) > 0 {
			if n, err = a.resolve(args[0]); err != nil {
				return err
			}
			text = n.Content
		}

		return fn(cmd, a, n, text)
	}
}

var assistSummarizeCmd = &cobra.Command{
	Use:   "summarize [id]",
	Short: "Picks the highest scoring sentences.",
	Args:  cobra.MaximumNArgs(1),
	RunE: assistRun(func(cmd *cobra.Command, a *app, n *core.Note, text string) error {
		max, err := cmd.Flags().GetInt("max")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), assist.Summarize(text, max))
		return nil
	}),
}

var assistKeywordsCmd = &cobra.Command{
	Use:   "keywords [id]",
	Short: "Lists the most frequent meaningful words.",
	Args:  cobra.MaximumNArgs(1),
	RunE: assistRun(func(cmd *cobra.Command, a *app, n *core.Note, text string) error {
		max, err := cmd.Flags().GetInt("max")
		if err != nil {
			return err
		}
		for _, k := range assist.ExtractKeywords(text, max) {
			fmt.Fprintln(cmd.OutOrStdout(), k)
		}
		return nil
	}),
}

var assistTagsCmd = &cobra.Command{
	Use:   "tags [id]",
	Short: "Suggests tags the note does not carry yet.",
	Args:  cobra.MaximumNArgs(1),
	RunE: assistRun(func(cmd *cobra.Command, a *app, n *core.Note, text string) error {
		apply, err := cmd.Flags().GetBool("apply")
		if err != nil {
			return err
		}

		var existing []string
		if n != nil {
			existing = n.Tags
		}

		suggested := assist.SuggestTags(text, existing)
		for _, t := range suggested {
			fmt.Fprintln(cmd.OutOrStdout(), "#"+t)
		}

		if !apply || n == nil || len(suggested) == 0 {
			return nil
		}

		hashtags := make([]string, len(suggested))
		for i, t := range suggested {
			hashtags[i] = "#" + t
		}
		n.Content = strings.TrimRight(n.Content, "\n") + "\n\n" + strings.Join(hashtags, " ")

		return a.notes.Update(n)
	}),
}

var assistSentimentCmd = &cobra.Command{
	Use:   "sentiment [id]",
	Short: "Scores the tone of the text.",
	Args:  cobra.MaximumNArgs(1),
	RunE: assistRun(func(cmd *cobra.Command, a *app, n *core.Note, text string) error {
		s := assist.AnalyzeSentiment(text)
		fmt.Fprintf(cmd.OutOrStdout(), "%s (score %.2f, confidence %.2f)\n", s.Polarity, s.Score, s.Confidence)
		return nil
	}),
}

var assistActionsCmd = &cobra.Command{
	Use:   "actions [id]",
	Short: "Lists action items found in the text.",
	Args:  cobra.MaximumNArgs(1),
	RunE: assistRun(func(cmd *cobra.Command, a *app, n *core.Note, text string) error {
		for _, item := range assist.ExtractActionItems(text) {
			fmt.Fprintln(cmd.OutOrStdout(), "- [ ] "+item)
		}
		return nil
	}),
}

var assistImproveCmd = &cobra.Command{
	Use:   "improve [id]",
	Short: "Suggests ways to improve the note.",
	Args:  cobra.MaximumNArgs(1),
	RunE: assistRun(func(cmd *cobra.Command, a *app, n *core.Note, text string) error {
		for _, s := range assist.SuggestImprovements(text) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", s.Kind, s.Message)
		}
		return nil
	}),
}

var assistCompleteCmd = &cobra.Command{
	Use:   "complete <text>",
	Short: "Offers completions for partial text.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, c := range assist.AutoComplete(args[0]) {
			fmt.Fprintln(cmd.OutOrStdout(), c)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(assistCmd)
	assistCmd.AddCommand(assistSummarizeCmd, assistKeywordsCmd, assistTagsCmd,
		assistSentimentCmd, assistActionsCmd, assistImproveCmd, assistCompleteCmd)

	for _, c := range []*cobra.Command{assistSummarizeCmd, assistKeywordsCmd, assistTagsCmd,
		assistSentimentCmd, assistActionsCmd, assistImproveCmd} {
		c.Flags().String("text", "", "Work on this text instead of a note.")
	}

	assistSummarizeCmd.Flags().Int("max", 200, "Maximum summary length in characters.")
	assistKeywordsCmd.Flags().Int("max", 10, "Maximum number of keywords.")
	assistTagsCmd.Flags().Bool("apply", false, "Append the suggested hashtags to the note.")
}
