/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ikasoba/notebox/capture"
	"github.com/spf13/cobra"
)

var scanCmd = &cobra.Command{
	Use:   "scan <image>...",
	Short: "Recognizes text in images and saves it as notes.",
	Long: `Recognizes text in images with tesseract and saves each result as a
note with the image attached. Use --print to only print the text.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)

	scanCmd.Flags().String("tesseract", "tesseract", "Path to the tesseract binary.")
	scanCmd.Flags().String("lang", "", "Tesseract language, e.g. eng or jpn.")
	scanCmd.Flags().Int("max-dimension", 2048, "Downscale images larger than this.")
	scanCmd.Flags().String("folder", "", "Folder for the created notes.")
	scanCmd.Flags().Bool("print", false, "Print the text instead of creating notes.")
}

// analysisUseCase runs an analyzer while bound to the session.
type analysisUseCase struct {
	analyzer *capture.Analyzer
	parent   context.Context
	cancel   context.CancelFunc
	done     chan struct{}
}

func (u *analysisUseCase) Name() string {
	return "analysis"
}

func (u *analysisUseCase) Bind() error {
	ctx, cancel := context.WithCancel(u.parent)
	u.cancel = cancel
	u.done = make(chan struct{})

	go func() {
		defer close(u.done)
		u.analyzer.Run(ctx)
	}()

	return nil
}

func (u *analysisUseCase) Unbind() error {
	u.cancel()
	<-u.done
	return nil
}

func runScan(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()
	bin, _ := flags.GetString("tesseract")
	lang, _ := flags.GetString("lang")
	maxDim, _ := flags.GetInt("max-dimension")
	folder, _ := flags.GetString("folder")
	printOnly, _ := flags.GetBool("print")

	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	analyzer := capture.NewAnalyzer(
		capture.TesseractRecognizer{Bin: bin, Lang: lang},
		capture.WithMaxDimension(maxDim),
		capture.WithAnalyzerLogger(a.log),
	)

	var session capture.Session
	if err := session.Bind(&analysisUseCase{analyzer: analyzer, parent: cmd.Context()}); err != nil {
		return err
	}
	defer session.Close()

	w := cmd.OutOrStdout()

	for _, path := range args {
		img, err := capture.DecodeFile(path)
		if err != nil {
			return err
		}

		// one frame in flight at a time so no image is dropped
		analyzer.Offer(capture.ImageFrame{Img: img})

		res, ok := <-analyzer.Results()
		if !ok {
			return cmd.Context().Err()
		}
		if res.Err != nil {
			return fmt.Errorf("scan %s: %w", path, res.Err)
		}

		text := strings.TrimSpace(res.Text)

		if printOnly {
			fmt.Fprintln(w, text)
			continue
		}

		n, err := a.notes.Create("", text, folder)
		if err != nil {
			return err
		}

		abs, err := filepath.Abs(path)
		if err != nil {
			abs = path
		}
		if _, err := a.notes.AddAttachment(n.ID, abs); err != nil {
			return err
		}

		a.log.Info().Str("note_id", n.ID).Str("image", path).Int("chars", len(text)).Msg("scanned")
		fmt.Fprintln(w, n.ID)
	}

	return nil
}
