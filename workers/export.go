package workers

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	"joreca_dedup/services"
)

// Uploader pushes exported report files to remote storage.
type Uploader interface {
	Upload(ctx context.Context, name string, data io.Reader, contentType string) error
}

// ExportWorker periodically writes the cross-source diff report as CSV files
// and, when an uploader is configured, publishes them.
type ExportWorker struct {
	diff     *services.DiffService
	uploader Uploader
	dir      string
	trigger  chan struct{}
}

func NewExportWorker(diff *services.DiffService, uploader Uploader, dir string) *ExportWorker {
	return &ExportWorker{
		diff:     diff,
		uploader: uploader,
		dir:      dir,
		trigger:  make(chan struct{}, 1),
	}
}

// Trigger requests an export outside the regular schedule. Non-blocking; a
// pending trigger is enough.
func (w *ExportWorker) Trigger() {
	select {
	case w.trigger <- struct{}{}:
	default:
	}
}

// Run starts the export loop. With a zero interval the worker only reacts to
// Trigger.
func (w *ExportWorker) Run(ctx context.Context, interval time.Duration) {
	var tick <-chan time.Time
	if interval > 0 {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			log.Println("Export worker stopping")
			return
		case <-tick:
			w.export(ctx)
		case <-w.trigger:
			w.export(ctx)
		}
	}
}

// Export writes the report once. Exposed for the one-shot CLI path.
func (w *ExportWorker) Export(ctx context.Context) error {
	report, err := w.diff.Report(ctx)
	if err != nil {
		return fmt.Errorf("compute diff: %w", err)
	}
	if err := report.WriteCSV(w.dir); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	log.Printf("Export: %d only-seloger, %d only-leboncoin, %d mismatches -> %s",
		len(report.OnlySeLoger), len(report.OnlyLeBonCoin), len(report.Mismatches), w.dir)

	if w.uploader == nil {
		return nil
	}
	for _, name := range []string{"only_seloger.csv", "only_leboncoin.csv", "mismatches.csv"} {
		f, err := os.Open(filepath.Join(w.dir, name))
		if err != nil {
			return fmt.Errorf("open %s: %w", name, err)
		}
		err = w.uploader.Upload(ctx, name, f, "text/csv")
		f.Close()
		if err != nil {
			return fmt.Errorf("upload %s: %w", name, err)
		}
	}
	log.Println("Export: reports uploaded")
	return nil
}

func (w *ExportWorker) export(ctx context.Context) {
	if err := w.Export(ctx); err != nil {
		log.Printf("Export worker: %v", err)
	}
}
