package external

import (
	"context"
	"os"
	"path/filepath"
	"strings"
)

type call struct {
	name string
	args []string
	env  []string
}

// fakeRunner records calls. When a call names an soffice binary it writes the
// file soffice would have produced.
type fakeRunner struct {
	calls []call
	out   []byte
	err   error
}

func (f *fakeRunner) Run(_ context.Context, name string, args []string, env []string) ([]byte, error) {
	f.calls = append(f.calls, call{name: name, args: args, env: env})
	if f.err != nil {
		return f.out, f.err
	}
	if strings.HasSuffix(name, "soffice") {
		format, in, dir := args[2], args[3], args[5]
		stem := strings.TrimSuffix(filepath.Base(in), filepath.Ext(in))
		_ = os.WriteFile(filepath.Join(dir, stem+"."+format), []byte("converted"), 0o644)
	}
	return f.out, nil
}

type fakePrinter struct {
	calls [][2]string
	err   error
}

func (f *fakePrinter) PrintPDF(_ context.Context, htmlPath, pdfPath string) error {
	f.calls = append(f.calls, [2]string{htmlPath, pdfPath})
	return f.err
}
