package app

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"numviz/app/export"
	"numviz/app/interfaces"
	"numviz/app/sample"
)

// Export serialises the current sample. Unset batch size and confirmation
// threshold come from settings; progress is forwarded as events.
func (a *App) Export(ctx context.Context, opts export.Options) (*export.Artifact, error) {
	snap := a.store.Current()
	if snap == nil {
		return nil, sample.ErrEmptySample
	}
	opts = a.exportOptions(snap, opts)

	artifact, err := export.Export(ctx, snap.Values, opts)
	if err != nil {
		a.Log("error", fmt.Sprintf("[EXPORT] Export of version %d failed: %v", snap.Version, err))
		return nil, err
	}
	return artifact, nil
}

// ExportToDir exports the current sample into dir under the conventional
// file name and returns the written path.
func (a *App) ExportToDir(ctx context.Context, dir string, opts export.Options) (string, *export.Artifact, error) {
	snap := a.store.Current()
	if snap == nil {
		return "", nil, sample.ErrEmptySample
	}

	name := export.Filename(distributionOf(snap.Source), time.Now(), opts.Format, opts.Compression)
	path := filepath.Join(dir, name)

	artifact, err := export.ExportToFile(ctx, snap.Values, path, a.exportOptions(snap, opts))
	if err != nil {
		a.Log("error", fmt.Sprintf("[EXPORT] Export to %s failed: %v", path, err))
		return "", nil, err
	}
	a.Log("info", fmt.Sprintf("[EXPORT] Wrote %d values to %s", artifact.Rows, path))
	return path, artifact, nil
}

func (a *App) exportOptions(snap *sample.Snapshot, opts export.Options) export.Options {
	if opts.BatchSize <= 0 {
		opts.BatchSize = a.cfg.ExportBatchSize
	}
	if opts.ConfirmAbove <= 0 {
		opts.ConfirmAbove = a.cfg.ExportConfirmAbove
	}

	progress := opts.Progress
	opts.Progress = func(stage string, current, total int64, message string) {
		if progress != nil {
			progress(stage, current, total, message)
		}
		a.emit(Event{Name: EventExportProgress, Version: snap.Version, Data: [2]int64{current, total}})
	}
	return opts
}

// distributionOf extracts the distribution name from a sample source such
// as "normal/boxmuller (local)"; file sources yield "".
func distributionOf(source string) string {
	name, _, _ := strings.Cut(source, " ")
	for _, d := range interfaces.Distributions {
		if string(d) == name {
			return name
		}
	}
	return ""
}
