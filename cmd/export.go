/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"

	"github.com/ikasoba/notebox/export"
	"github.com/spf13/cobra"
)

var exportCmd = &cobra.Command{
	Use:   "export <id>...",
	Short: "Renders notes as json, md, html, txt or pdf.",
	Long: `Renders notes as json, md, html, txt or pdf. With --stdout a single
note is written to standard output, otherwise one file per note is written
to --dir (export.dir in the config by default).`,
	Args: cobra.MinimumNArgs(1),
	RunE: runExport,
}

var shareCmd = &cobra.Command{
	Use:   "share <id>",
	Short: "Prints the subject and text used when sharing a note.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		n, err := a.resolve(args[0])
		if err != nil {
			return err
		}

		share := export.ShareOf(n)
		fmt.Fprintf(cmd.OutOrStdout(), "Subject: %s\n\n%s\n", share.Subject, share.Text)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportCmd, shareCmd)

	exportCmd.Flags().StringP("format", "F", string(export.FormatMarkdown), "Output format.")
	exportCmd.Flags().String("dir", "", "Output directory.")
	exportCmd.Flags().Bool("stdout", false, "Write a single note to stdout.")
}

func runExport(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()

	rawFormat, _ := flags.GetString("format")
	format, err := export.ParseFormat(rawFormat)
	if err != nil {
		return err
	}

	dir, _ := flags.GetString("dir")
	stdout, _ := flags.GetBool("stdout")
	if stdout && len(args) != 1 {
		return fmt.Errorf("--stdout takes exactly one note")
	}

	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	if dir == "" {
		dir = a.conf.Export.Dir
	}

	for _, id := range args {
		n, err := a.resolve(id)
		if err != nil {
			return err
		}

		if stdout {
			return export.Write(cmd.OutOrStdout(), format, n)
		}

		path, err := export.WriteFile(dir, format, n)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), path)
	}

	return nil
}
