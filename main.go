package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"

	"numviz/app"
	"numviz/app/export"
	"numviz/app/fileloader"
	"numviz/app/interfaces"
	"numviz/app/remote"
	"numviz/app/results"
	"numviz/app/settings"
)

const usage = `usage: numviz [-config file] <command> [flags]

commands:
  generate   draw a sample from the generator service and show it
  load       read a sample from a file or directory and show it
  export     write the sample to a file
  test       run a chi-square or K-S test on the sample
  health     check that the service is reachable

Run "numviz <command> -h" for the flags of a command.
`

func main() {
	log.SetFlags(0)
	log.SetPrefix("numviz: ")

	global := flag.NewFlagSet("numviz", flag.ExitOnError)
	configPath := global.String("config", "", "settings `file` (default numviz.yml beside the executable)")
	global.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	global.Parse(os.Args[1:])

	if global.NArg() == 0 {
		global.Usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	svc := settings.NewSettingsService(*configPath)
	cfg, err := svc.GetSettings()
	if err != nil {
		log.Printf("ignoring settings: %v", err)
		cfg = settings.Defaults()
	}
	if cfg.InstanceID == "" {
		if id, err := svc.EnsureInstanceID(); err == nil {
			cfg.InstanceID = id
		}
	}

	cmd, args := global.Arg(0), global.Args()[1:]
	if err := run(ctx, cmd, args, cfg, svc, os.Stdout); err != nil {
		log.Fatal(err)
	}
}

func run(ctx context.Context, cmd string, args []string, cfg settings.Settings, svc *settings.SettingsService, out io.Writer) error {
	switch cmd {
	case "generate":
		return cmdGenerate(ctx, args, cfg, svc, out)
	case "load":
		return cmdLoad(ctx, args, cfg, svc, out)
	case "export":
		return cmdExport(ctx, args, cfg, svc, out)
	case "test":
		return cmdTest(ctx, args, cfg, svc, out)
	case "health":
		return cmdHealth(ctx, args, cfg, svc, out)
	}
	return fmt.Errorf("unknown command %q\n\n%s", cmd, usage)
}

// sourceFlags select where the sample comes from: a file, or the generator
type sourceFlags struct {
	file     string
	column   string
	jsonPath string
	pattern  string
	noHeader bool

	dist     string
	count    int
	a, b     float64
	lambda   float64
	mean, sd float64
	convN    int
	local    bool
	fallback bool
	seed     uint64
}

func addSourceFlags(fs *flag.FlagSet) *sourceFlags {
	sf := &sourceFlags{}
	fs.StringVar(&sf.file, "file", "", "read the sample from `path` instead of generating it")
	fs.StringVar(&sf.column, "column", "", "column `name` to read from text and XLSX files")
	fs.StringVar(&sf.jsonPath, "jsonpath", fileloader.DefaultJSONPath, "JSONPath `expr` locating the numbers in JSON files")
	fs.StringVar(&sf.pattern, "pattern", "**/*", "glob `pattern` for files when -file is a directory")
	fs.BoolVar(&sf.noHeader, "no-header", false, "text files have no header row")

	fs.StringVar(&sf.dist, "dist", string(interfaces.Uniform), "distribution: uniforme, exponencial, normal/boxmuller, normal/convolucion, poisson")
	fs.IntVar(&sf.count, "n", 1000, "number of values to generate")
	fs.Float64Var(&sf.a, "a", 0, "uniform lower bound")
	fs.Float64Var(&sf.b, "b", 1, "uniform upper bound")
	fs.Float64Var(&sf.lambda, "lambda", 1, "exponential or Poisson rate")
	fs.Float64Var(&sf.mean, "mean", 0, "normal mean")
	fs.Float64Var(&sf.sd, "sd", 1, "normal standard deviation")
	fs.IntVar(&sf.convN, "conv-n", 12, "uniforms summed per value by the convolution method")
	fs.BoolVar(&sf.local, "local", false, "generate in-process without contacting the service")
	fs.BoolVar(&sf.fallback, "fallback", false, "generate in-process when the service is unreachable")
	fs.Uint64Var(&sf.seed, "seed", 0, "seed for local generation (0 uses the clock)")
	return sf
}

func (sf *sourceFlags) newApp(cfg settings.Settings, svc *settings.SettingsService) *app.App {
	return app.NewApp(app.Config{
		Settings:        cfg,
		SettingsService: svc,
		Offline:         sf.local,
		Fallback:        sf.fallback,
		Seed:            sf.seed,
	})
}

func (sf *sourceFlags) fill(ctx context.Context, a *app.App) (*app.View, error) {
	if sf.file != "" {
		return a.Load(sf.file, fileloader.Options{
			Column:      sf.column,
			NoHeaderRow: sf.noHeader,
			JSONPath:    sf.jsonPath,
			Pattern:     sf.pattern,
		})
	}

	dist, err := remote.ParseDistribution(sf.dist)
	if err != nil {
		return nil, err
	}
	return a.Generate(ctx, interfaces.GenerateRequest{
		Distribution: dist,
		Count:        sf.count,
		A:            sf.a,
		B:            sf.b,
		Lambda:       sf.lambda,
		Mean:         sf.mean,
		StdDev:       sf.sd,
		N:            sf.convN,
	})
}

// viewFlags control how the sample is shown
type viewFlags struct {
	intervals int
	sel       int
	page      int
	copy      bool
	copyJSON  bool
}

func addViewFlags(fs *flag.FlagSet, cfg settings.Settings) *viewFlags {
	vf := &viewFlags{}
	fs.IntVar(&vf.intervals, "k", cfg.DefaultIntervals, "number of histogram buckets (2-100)")
	fs.IntVar(&vf.sel, "select", -1, "highlight bucket `id` and list its members")
	fs.IntVar(&vf.page, "page", 0, "print page `p` of the raw values")
	fs.BoolVar(&vf.copy, "copy", false, "copy the selected bucket's members to the clipboard")
	fs.BoolVar(&vf.copyJSON, "copy-json", false, "copy the selected bucket's members as a JSON array")
	return vf
}

func (vf *viewFlags) show(a *app.App, out io.Writer) error {
	v := a.View()
	var err error
	if vf.intervals != v.Intervals {
		if v, err = a.SetIntervals(vf.intervals); err != nil {
			return err
		}
	}
	if vf.sel >= 0 {
		if v, err = a.Select(vf.sel); err != nil {
			return err
		}
	}

	if err := printView(out, v); err != nil {
		return err
	}

	if vf.page > 0 {
		values, total := a.Page(vf.page)
		if err := printPage(out, values, vf.page, total); err != nil {
			return err
		}
	}

	if vf.copy || vf.copyJSON {
		n, err := a.CopySelectedBucket(vf.copyJSON)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "\nCopied %d values to the clipboard\n", n)
	}
	return nil
}

func cmdGenerate(ctx context.Context, args []string, cfg settings.Settings, svc *settings.SettingsService, out io.Writer) error {
	fs := flag.NewFlagSet("generate", flag.ExitOnError)
	sf := addSourceFlags(fs)
	vf := addViewFlags(fs, cfg)
	fs.Parse(args)
	sf.file = ""

	a := sf.newApp(cfg, svc)
	defer a.Close()
	if _, err := sf.fill(ctx, a); err != nil {
		return err
	}
	return vf.show(a, out)
}

func cmdLoad(ctx context.Context, args []string, cfg settings.Settings, svc *settings.SettingsService, out io.Writer) error {
	fs := flag.NewFlagSet("load", flag.ExitOnError)
	sf := addSourceFlags(fs)
	vf := addViewFlags(fs, cfg)
	fs.Parse(args)
	if sf.file == "" && fs.NArg() > 0 {
		sf.file = fs.Arg(0)
	}
	if sf.file == "" {
		return fmt.Errorf("load: a file or directory is required")
	}

	a := sf.newApp(cfg, svc)
	defer a.Close()
	if _, err := sf.fill(ctx, a); err != nil {
		return err
	}
	return vf.show(a, out)
}

func cmdExport(ctx context.Context, args []string, cfg settings.Settings, svc *settings.SettingsService, out io.Writer) error {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	sf := addSourceFlags(fs)
	dir := fs.String("out", ".", "output `directory`")
	format := fs.String("format", "text", "output format: text or xlsx")
	compress := fs.String("compress", "none", "compression: none, gzip or xz")
	modeName := fs.String("mode", "original", "value order: original or sorted")
	yes := fs.Bool("yes", false, "do not ask before exporting large samples")
	fs.Parse(args)

	f, err := export.ParseFormat(*format)
	if err != nil {
		return err
	}
	ct, err := fileloader.ParseCompression(*compress)
	if err != nil {
		return err
	}
	mode, err := export.ParseMode(*modeName)
	if err != nil {
		return err
	}

	a := sf.newApp(cfg, svc)
	defer a.Close()
	if _, err := sf.fill(ctx, a); err != nil {
		return err
	}

	var confirm export.Confirmer = promptConfirmer(os.Stdin, out)
	if *yes {
		confirm = export.ConfirmFunc(func(int) bool { return true })
	}

	path, artifact, err := a.ExportToDir(ctx, *dir, export.Options{
		Mode:        mode,
		Format:      f,
		Compression: ct,
		Confirmer:   confirm,
	})
	if errors.Is(err, export.ErrDeclined) {
		fmt.Fprintln(out, "Export cancelled")
		return nil
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Wrote %d values in %d batches to %s (%d bytes)\n", artifact.Rows, artifact.Batches, path, len(artifact.Data))
	return nil
}

// promptConfirmer asks on out and reads a y/n answer from in
func promptConfirmer(in io.Reader, out io.Writer) export.Confirmer {
	return export.ConfirmFunc(func(n int) bool {
		fmt.Fprintf(out, "The sample has %d values; exporting may take a while. Continue? [y/N] ", n)
		answer, _ := bufio.NewReader(in).ReadString('\n')
		answer = strings.ToLower(strings.TrimSpace(answer))
		return answer == "y" || answer == "yes"
	})
}

func cmdTest(ctx context.Context, args []string, cfg settings.Settings, svc *settings.SettingsService, out io.Writer) error {
	fs := flag.NewFlagSet("test", flag.ExitOnError)
	sf := addSourceFlags(fs)
	kindName := fs.String("kind", string(results.ChiSquare), "test: chi-cuadrado or k-s")
	alpha := fs.Float64("alpha", 0.05, "significance level")
	intervals := fs.Int("i", cfg.DefaultIntervals, "number of intervals used by the test")
	model := fs.Int("mo", 0, "theoretical distribution model (0-5)")
	refresh := fs.Bool("refresh", false, "ignore cached results")
	fs.Parse(args)

	kind, err := results.ParseKind(*kindName)
	if err != nil {
		return err
	}

	a := sf.newApp(cfg, svc)
	defer a.Close()

	// Reachability is advisory only
	if err := a.CheckHealth(ctx); err != nil {
		fmt.Fprintf(out, "warning: service at %s did not answer the health check: %v\n", a.Client().BaseURL(), err)
	}

	if _, err := sf.fill(ctx, a); err != nil {
		return err
	}
	r, err := a.RunTest(ctx, kind, app.TestParams{Alpha: *alpha, Intervals: *intervals, Model: *model, Refresh: *refresh})
	if errors.Is(err, results.ErrNoResult) {
		fmt.Fprintln(out, "The service returned no result table")
		return nil
	}
	if err != nil {
		return err
	}
	return a.RenderResult(out, kind, r)
}

func cmdHealth(ctx context.Context, args []string, cfg settings.Settings, svc *settings.SettingsService, out io.Writer) error {
	fs := flag.NewFlagSet("health", flag.ExitOnError)
	fs.Parse(args)

	a := app.NewApp(app.Config{Settings: cfg, SettingsService: svc})
	defer a.Close()
	if err := a.CheckHealth(ctx); err != nil {
		return err
	}
	fmt.Fprintf(out, "Service at %s is up\n", a.Client().BaseURL())
	return nil
}
