package tesseract

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
)

type runnerStub struct {
	calls      [][]string
	renderErr  error
	ocrErr     error
	ocrText    string
	skipRaster bool
}

func (r *runnerStub) Run(_ context.Context, name string, args ...string) ([]byte, []byte, error) {
	call := append([]string{name}, args...)
	r.calls = append(r.calls, call)

	switch {
	case strings.Contains(name, "pdftoppm"):
		if r.renderErr != nil {
			return nil, []byte("rendering error"), r.renderErr
		}
		if !r.skipRaster {
			// pdftoppm writes <prefix>-<page>.png
			prefix := args[len(args)-1]
			if err := os.WriteFile(prefix+"-1.png", []byte("png"), 0o644); err != nil {
				return nil, nil, err
			}
		}
		return nil, nil, nil
	case strings.Contains(name, "tesseract"):
		if r.ocrErr != nil {
			return nil, []byte("tesseract error"), r.ocrErr
		}
		return []byte(r.ocrText), nil, nil
	}
	return nil, nil, errors.New("unexpected command " + name)
}

func TestRecognizePageRendersExactlyOnePage(t *testing.T) {
	runner := &runnerStub{ocrText: "Invoice #123"}
	engine := New(Config{}, nil)
	engine.runner = runner

	text, err := engine.RecognizePage(context.Background(), "scan.pdf", 3)
	if err != nil {
		t.Fatalf("RecognizePage() error = %v", err)
	}
	if text != "Invoice #123" {
		t.Fatalf("unexpected text: %q", text)
	}

	render := runner.calls[0]
	joined := strings.Join(render, " ")
	if !strings.Contains(joined, "-f 3 -l 3") {
		t.Fatalf("expected single-page raster bounds, got %v", render)
	}
	if !strings.Contains(joined, "-r 200") {
		t.Fatalf("expected default 200 DPI, got %v", render)
	}

	ocr := runner.calls[1]
	if ocr[2] != "stdout" || ocr[4] != "eng" {
		t.Fatalf("unexpected tesseract invocation: %v", ocr)
	}
}

func TestRecognizePageReportsRenderFailure(t *testing.T) {
	runner := &runnerStub{renderErr: errors.New("exit 1")}
	engine := New(Config{}, nil)
	engine.runner = runner

	_, err := engine.RecognizePage(context.Background(), "scan.pdf", 1)
	if err == nil || !strings.Contains(err.Error(), "render page 1") {
		t.Fatalf("expected render error, got %v", err)
	}
	if len(runner.calls) != 1 {
		t.Fatalf("tesseract must not run after a render failure, got %v", runner.calls)
	}
}

func TestRecognizePageReportsMissingRasterOutput(t *testing.T) {
	runner := &runnerStub{skipRaster: true}
	engine := New(Config{}, nil)
	engine.runner = runner

	_, err := engine.RecognizePage(context.Background(), "scan.pdf", 2)
	if err == nil || !strings.Contains(err.Error(), "no image rendered for page 2") {
		t.Fatalf("expected missing raster error, got %v", err)
	}
}

func TestRecognizePageReportsTesseractFailure(t *testing.T) {
	runner := &runnerStub{ocrErr: errors.New("exit 1")}
	engine := New(Config{}, nil)
	engine.runner = runner

	_, err := engine.RecognizePage(context.Background(), "scan.pdf", 1)
	if err == nil || !strings.Contains(err.Error(), "recognize page 1") {
		t.Fatalf("expected recognition error, got %v", err)
	}
}
