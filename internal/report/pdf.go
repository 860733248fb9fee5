package report

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// PDFEngine identifies the external binary used for HTML to PDF conversion.
type PDFEngine string

const (
	EngineWKHTML   PDFEngine = "wkhtmltopdf"
	EngineChromium PDFEngine = "chromium"
	EngineNone     PDFEngine = "none"
)

var chromiumNames = []string{"chromium-browser", "chromium", "google-chrome", "google-chrome-stable"}

// DetectPDFEngine reports which conversion engine is installed, preferring
// wkhtmltopdf over headless chromium.
func DetectPDFEngine() PDFEngine {
	if _, err := exec.LookPath("wkhtmltopdf"); err == nil {
		return EngineWKHTML
	}
	for _, name := range chromiumNames {
		if _, err := exec.LookPath(name); err == nil {
			return EngineChromium
		}
	}
	return EngineNone
}

// ExportPDF converts the rendered HTML to a PDF at outputPath using whatever
// engine is installed. When no engine is available it writes the HTML itself
// with a .html extension instead. The returned path is the file actually
// written.
func ExportPDF(html, outputPath string) (string, error) {
	if outputPath == "" {
		return "", fmt.Errorf("output path is required")
	}
	if dir := filepath.Dir(outputPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("create output directory: %w", err)
		}
	}

	switch DetectPDFEngine() {
	case EngineWKHTML:
		return outputPath, runWKHTML(html, outputPath)
	case EngineChromium:
		return outputPath, runChromium(html, outputPath)
	default:
		fallback := strings.TrimSuffix(outputPath, filepath.Ext(outputPath)) + ".html"
		if err := os.WriteFile(fallback, []byte(html), 0o644); err != nil {
			return "", fmt.Errorf("write html fallback: %w", err)
		}
		return fallback, nil
	}
}

func runWKHTML(html, outputPath string) error {
	tmp, err := writeTempHTML(html)
	if err != nil {
		return err
	}
	defer os.Remove(tmp)

	args := []string{
		"--page-size", "A4",
		"--margin-top", "12mm",
		"--margin-bottom", "12mm",
		"--encoding", "UTF-8",
		"--enable-local-file-access",
		"--quiet",
		tmp,
		outputPath,
	}
	if out, err := exec.Command("wkhtmltopdf", args...).CombinedOutput(); err != nil {
		return fmt.Errorf("wkhtmltopdf: %w: %s", err, strings.TrimSpace(string(out)))
	}
	return nil
}

func runChromium(html, outputPath string) error {
	var bin string
	for _, name := range chromiumNames {
		if path, err := exec.LookPath(name); err == nil {
			bin = path
			break
		}
	}
	if bin == "" {
		return fmt.Errorf("chromium not found in PATH")
	}

	tmp, err := writeTempHTML(html)
	if err != nil {
		return err
	}
	defer os.Remove(tmp)

	abs, err := filepath.Abs(outputPath)
	if err != nil {
		return fmt.Errorf("resolve output path: %w", err)
	}
	args := []string{
		"--headless",
		"--disable-gpu",
		"--no-sandbox",
		"--print-to-pdf=" + abs,
		"--print-to-pdf-no-header",
		"file://" + tmp,
	}
	if out, err := exec.Command(bin, args...).CombinedOutput(); err != nil {
		return fmt.Errorf("chromium pdf export: %w: %s", err, strings.TrimSpace(string(out)))
	}
	return nil
}

func writeTempHTML(html string) (string, error) {
	f, err := os.CreateTemp("", "pivotquant-*.html")
	if err != nil {
		return "", fmt.Errorf("create temp html: %w", err)
	}
	if _, err := f.WriteString(html); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("write temp html: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("close temp html: %w", err)
	}
	return f.Name(), nil
}
