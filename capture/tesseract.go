package capture

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"os"
	"os/exec"
	"strings"
)

// TesseractRecognizer runs the tesseract command line tool.
type TesseractRecognizer struct {
	Bin  string
	Lang string
}

func (t TesseractRecognizer) RecognizeText(ctx context.Context, img image.Image) (string, error) {
	f, err := os.CreateTemp("", "notebox-ocr-*.png")
	if err != nil {
		return "", err
	}
	defer os.Remove(f.Name())

	if err := png.Encode(f, img); err != nil {
		f.Close()
		return "", fmt.Errorf("encode frame: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", err
	}

	bin := t.Bin
	if bin == "" {
		bin = "tesseract"
	}

	args := []string{f.Name(), "stdout"}
	if t.Lang != "" {
		args = append(args, "-l", t.Lang)
	}

	var stdout, stderr bytes.Buffer

	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("%s: %w: %s", bin, err, strings.TrimSpace(stderr.String()))
	}

	return strings.TrimSpace(stdout.String()), nil
}
