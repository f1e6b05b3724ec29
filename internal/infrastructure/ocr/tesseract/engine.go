package tesseract

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

type Config struct {
	Pdftoppm  string // binary name or absolute path; if empty -> "pdftoppm"
	Tesseract string // binary name or absolute path; if empty -> "tesseract"
	Lang      string // default "eng"
	DPI       int    // rasterization resolution, default 200
}

// Engine rasterizes a single PDF page and runs tesseract on the image.
// Temporary raster output lives in a scoped directory that is removed
// whether or not recognition succeeds.
type Engine struct {
	cfg    Config
	runner Runner
	logger *slog.Logger
}

func New(cfg Config, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Pdftoppm == "" {
		cfg.Pdftoppm = "pdftoppm"
	}
	if cfg.Tesseract == "" {
		cfg.Tesseract = "tesseract"
	}
	if cfg.Lang == "" {
		cfg.Lang = "eng"
	}
	if cfg.DPI <= 0 {
		cfg.DPI = 200
	}
	return &Engine{cfg: cfg, runner: execRunner{logger: logger}, logger: logger}
}

func (e *Engine) RecognizePage(ctx context.Context, pdfPath string, page int) (string, error) {
	tmpDir, err := os.MkdirTemp("", "docfields-ocr-*")
	if err != nil {
		return "", fmt.Errorf("create raster dir: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(tmpDir); err != nil {
			e.logger.Warn("raster_dir_cleanup_failed", "dir", tmpDir, "error", err)
		}
	}()

	prefix := filepath.Join(tmpDir, "page")
	// pdftoppm -f N -l N -r <dpi> -png <in.pdf> <tmp/page>
	_, errb, err := e.runner.Run(ctx, e.cfg.Pdftoppm,
		"-f", strconv.Itoa(page),
		"-l", strconv.Itoa(page),
		"-r", strconv.Itoa(e.cfg.DPI),
		"-png", pdfPath, prefix,
	)
	if err != nil {
		return "", fmt.Errorf("render page %d: %s: %w", page, strings.TrimSpace(string(errb)), err)
	}

	matches, _ := filepath.Glob(prefix + "-*.png")
	if len(matches) == 0 {
		return "", fmt.Errorf("no image rendered for page %d", page)
	}
	sort.Strings(matches)

	out, errb, err := e.runner.Run(ctx, e.cfg.Tesseract, matches[0], "stdout", "-l", e.cfg.Lang)
	if err != nil {
		return "", fmt.Errorf("recognize page %d: %s: %w", page, strings.TrimSpace(string(errb)), err)
	}
	return string(out), nil
}
