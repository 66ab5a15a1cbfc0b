package external

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

// A4 paper in inches.
const (
	a4Width  = 8.27
	a4Height = 11.69
)

// HTMLPrinter renders an HTML file to PDF.
type HTMLPrinter interface {
	PrintPDF(ctx context.Context, htmlPath, pdfPath string) error
}

// ChromePrinter prints through a headless Chromium.
type ChromePrinter struct {
	execPath string
}

// NewChromePrinter creates a printer. An empty execPath lets chromedp find the browser.
func NewChromePrinter(execPath string) *ChromePrinter {
	return &ChromePrinter{execPath: execPath}
}

// PrintPDF loads htmlPath in a fresh browser and prints it as A4 with backgrounds.
func (p *ChromePrinter) PrintPDF(ctx context.Context, htmlPath, pdfPath string) error {
	abs, err := filepath.Abs(htmlPath)
	if err != nil {
		return err
	}

	opts := chromedp.DefaultExecAllocatorOptions[:]
	if p.execPath != "" {
		opts = append(opts, chromedp.ExecPath(p.execPath))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	target := url.URL{Scheme: "file", Path: abs}

	var buf []byte
	err = chromedp.Run(browserCtx,
		chromedp.Navigate(target.String()),
		chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			buf, _, err = page.PrintToPDF().
				WithPaperWidth(a4Width).
				WithPaperHeight(a4Height).
				WithPrintBackground(true).
				Do(ctx)
			return err
		}),
	)
	if err != nil {
		return fmt.Errorf("print %s: %w", htmlPath, err)
	}

	return os.WriteFile(pdfPath, buf, 0o644)
}
