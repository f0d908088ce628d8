/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/ikasoba/notebox/voice"
	"github.com/spf13/cobra"
)

var recordCmd = &cobra.Command{
	Use:   "record",
	Short: "Records raw PCM from stdin into a WAV memo.",
	Long: `Records raw little-endian PCM from stdin into a WAV file under
<home>/recordings until stdin ends or the command is interrupted. For example:

  arecord -f S16_LE -r 16000 -c 1 -t raw | notebox record --note <id>`,
	Args: cobra.NoArgs,
	RunE: runRecord,
}

func init() {
	rootCmd.AddCommand(recordCmd)

	recordCmd.Flags().Int("rate", voice.DefaultFormat.SampleRate, "Sample rate in Hz.")
	recordCmd.Flags().Int("channels", voice.DefaultFormat.Channels, "Number of channels.")
	recordCmd.Flags().Int("bits", voice.DefaultFormat.BitsPerSample, "Bits per sample.")
	recordCmd.Flags().String("note", "", "Attach the recording to this note.")
	recordCmd.Flags().Duration("max", 0, "Stop after this long, 0 for no limit.")
}

func runRecord(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()
	rate, _ := flags.GetInt("rate")
	channels, _ := flags.GetInt("channels")
	bits, _ := flags.GetInt("bits")
	noteID, _ := flags.GetString("note")
	max, _ := flags.GetDuration("max")

	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	if noteID != "" {
		if _, err := a.resolve(noteID); err != nil {
			return err
		}
	}

	format := voice.Format{SampleRate: rate, Channels: channels, BitsPerSample: bits}
	rec := voice.NewRecorder(filepath.Join(a.home, "recordings"), cmd.InOrStdin(), format, a.log)

	if err := rec.Start(cmd.Context()); err != nil {
		return err
	}

	var limit <-chan time.Time
	if max > 0 {
		limit = time.After(max)
	}

	select {
	case <-rec.Done():
	case <-cmd.Context().Done():
	case <-limit:
	}

	path, err := rec.Stop()
	if err != nil {
		return err
	}

	if noteID != "" {
		if _, err := a.notes.AddAttachment(noteID, path); err != nil {
			return err
		}
	}

	fmt.Fprintln(cmd.OutOrStdout(), path)
	return nil
}
