package export

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"numviz/app/fileloader"
)

// Export serialises values. Samples larger than opts.ConfirmAbove need the
// Confirmer's agreement before any work starts; declining returns
// ErrDeclined.
func Export(ctx context.Context, values []float64, opts Options) (*Artifact, error) {
	opts = opts.withDefaults()

	if len(values) > opts.ConfirmAbove {
		if opts.Confirmer == nil || !opts.Confirmer.Confirm(len(values)) {
			log.Printf("[EXPORT] Export of %d values declined", len(values))
			return nil, ErrDeclined
		}
	}

	job, err := NewJob(values, opts)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	artifact, err := job.Run(ctx, opts.Yield)
	if err != nil {
		log.Printf("[EXPORT] Job %s aborted after %d batches: %v", job.ID, job.Batches(), err)
		return nil, err
	}

	log.Printf("[EXPORT] Job %s encoded %d values in %d batches (%s, %s, %d bytes) in %v",
		job.ID, artifact.Rows, artifact.Batches, artifact.Format, artifact.Compression, len(artifact.Data), time.Since(start))
	return artifact, nil
}

// Filename builds the download name for an export of the given distribution,
// for example numeros_normal_boxmuller_2024-05-01.csv.gz.
func Filename(distribution string, date time.Time, format Format, compression fileloader.CompressionType) string {
	name := strings.NewReplacer("/", "_", "\\", "_", " ", "_").Replace(distribution)
	if name == "" {
		name = "muestra"
	}
	return fmt.Sprintf("numeros_%s_%s%s%s", name, date.UTC().Format("2006-01-02"), format.Extension(), compression.Extension())
}

// WriteFile publishes an artifact at path. The data goes to a temporary file
// in the same directory which is renamed over path, so readers never see a
// partial file.
func WriteFile(path string, artifact *Artifact) error {
	if artifact == nil {
		return fmt.Errorf("no artifact to write")
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(artifact.Data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write export: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close export: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to publish export: %w", err)
	}
	return nil
}

// ExportToFile runs Export and writes the artifact only when it completes.
func ExportToFile(ctx context.Context, values []float64, path string, opts Options) (*Artifact, error) {
	artifact, err := Export(ctx, values, opts)
	if err != nil {
		return nil, err
	}
	if err := WriteFile(path, artifact); err != nil {
		return nil, err
	}
	return artifact, nil
}
