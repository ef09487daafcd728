package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"numviz/app"
	"numviz/app/interfaces"
	"numviz/app/settings"
)

func TestPrintView(t *testing.T) {
	a := app.NewApp(app.Config{Settings: settings.Defaults(), Logger: interfaces.LoggerFunc(func(string, string) {})})
	defer a.Close()

	values := make([]float64, 101)
	for i := range values {
		values[i] = float64(i)
	}
	a.SetSample(values, "test")
	v, err := a.Select(9)
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := printView(&buf, v); err != nil {
		t.Fatalf("printView() error = %v", err)
	}
	out := buf.String()
	for _, want := range []string{"Sample: test (101 values", "Mean", "50", "90.00 - 100.00", "Bucket 9 (90.00 - 100.00): 11 values"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "subsample") {
		t.Errorf("small sample should not report estimated statistics:\n%s", out)
	}
}

func TestBar(t *testing.T) {
	tests := []struct {
		count, peak, want int
	}{
		{0, 0, 0},
		{0, 10, 0},
		{10, 10, barWidth},
		{5, 10, barWidth / 2},
		{1, 1000, 1},
	}
	for _, tt := range tests {
		if got := len(bar(tt.count, tt.peak)); got != tt.want {
			t.Errorf("bar(%d, %d) has %d marks, want %d", tt.count, tt.peak, got, tt.want)
		}
	}
}

func TestRunGenerateLocalAndExport(t *testing.T) {
	dir := t.TempDir()
	cfg := settings.Defaults()
	svc := settings.NewSettingsService(filepath.Join(dir, settings.FileName))

	var buf bytes.Buffer
	err := run(context.Background(), "generate", []string{"-local", "-seed", "5", "-n", "500", "-k", "4", "-page", "1"}, cfg, svc, &buf)
	if err != nil {
		t.Fatalf("generate error = %v", err)
	}
	if !strings.Contains(buf.String(), "Histogram (4 buckets") || !strings.Contains(buf.String(), "page 1 of 1") {
		t.Errorf("unexpected output:\n%s", buf.String())
	}

	buf.Reset()
	err = run(context.Background(), "export", []string{"-local", "-seed", "5", "-n", "500", "-out", dir, "-compress", "gzip"}, cfg, svc, &buf)
	if err != nil {
		t.Fatalf("export error = %v", err)
	}
	matches, _ := filepath.Glob(filepath.Join(dir, "numeros_uniforme_*.csv.gz"))
	if len(matches) != 1 {
		t.Fatalf("expected one export, found %v", matches)
	}

	buf.Reset()
	if err := run(context.Background(), "load", []string{matches[0]}, cfg, svc, &buf); err != nil {
		t.Fatalf("load error = %v", err)
	}
	if !strings.Contains(buf.String(), "(500 values") {
		t.Errorf("unexpected load output:\n%s", buf.String())
	}
	if _, err := os.Stat(filepath.Join(dir, settings.FileName)); !os.IsNotExist(err) {
		t.Error("commands should not write settings")
	}
}

func TestRunUnknownCommand(t *testing.T) {
	err := run(context.Background(), "frobnicate", nil, settings.Defaults(), settings.NewSettingsService(""), &bytes.Buffer{})
	if err == nil || !strings.Contains(err.Error(), "unknown command") {
		t.Errorf("run() error = %v", err)
	}
}
