// Package pipeline sequences OCR, text structuring, parsing and Tally
// posting for invoice images.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/ShashankBhutiya/TallyAI/internal/extract"
	"github.com/ShashankBhutiya/TallyAI/internal/ocr"
	"github.com/ShashankBhutiya/TallyAI/internal/runlog"
	"github.com/ShashankBhutiya/TallyAI/internal/structure"
	"github.com/ShashankBhutiya/TallyAI/internal/tally"
)

// EventKind classifies pipeline events.
type EventKind int

const (
	EventProgress EventKind = iota
	EventSkipped
	EventFailed
	EventSucceeded
)

// String returns the lowercase kind name.
func (k EventKind) String() string {
	switch k {
	case EventProgress:
		return "progress"
	case EventSkipped:
		return "skipped"
	case EventFailed:
		return "failed"
	case EventSucceeded:
		return "succeeded"
	default:
		return "unknown"
	}
}

// Event is one pipeline notification. Failed and Succeeded are terminal;
// at most one of them is delivered per run.
type Event struct {
	Kind    EventKind
	Message string
}

// EventSink receives run events. Batch-mode events are delivered on the
// run's goroutine, so implementations must be safe to call from it.
type EventSink interface {
	Handle(Event)
}

// SinkFunc adapts a function to an EventSink.
type SinkFunc func(Event)

// Handle calls f(ev).
func (f SinkFunc) Handle(ev Event) { f(ev) }

type discardSink struct{}

func (discardSink) Handle(Event) {}

// Params groups the collaborators and ledger naming for a Processor.
// The Tally company lives in the client's encoder.
type Params struct {
	LedgerName   string
	ContraLedger string // default "Cash"

	OCR        ocr.Engine
	Structurer structure.Structurer
	Tally      *tally.Client
	Store      runlog.Store // optional; nil disables run records
	Logger     *slog.Logger
}

// Processor runs the invoice pipeline. At most one batch run may be
// active per Processor; concurrent starts are rejected.
type Processor struct {
	ledgerName   string
	contraLedger string

	ocr        ocr.Engine
	structurer structure.Structurer
	tally      *tally.Client
	store      runlog.Store
	logger     *slog.Logger

	running atomic.Bool
}

// New creates a Processor.
func New(p Params) *Processor {
	if p.ContraLedger == "" {
		p.ContraLedger = tally.DefaultContraLedger
	}
	if p.Logger == nil {
		p.Logger = slog.Default()
	}
	return &Processor{
		ledgerName:   p.LedgerName,
		contraLedger: p.ContraLedger,
		ocr:          p.OCR,
		structurer:   p.Structurer,
		tally:        p.Tally,
		store:        p.Store,
		logger:       p.Logger,
	}
}

// IsProcessing reports whether a batch run is active.
func (p *Processor) IsProcessing() bool {
	return p.running.Load()
}

// ProcessFolder starts a batch run over the images in folder on its own
// goroutine and returns immediately. The return value reports whether
// the run was started; a run already in flight yields a Failed event and
// false, with no goroutine spawned.
func (p *Processor) ProcessFolder(ctx context.Context, folder string, sink EventSink) bool {
	if sink == nil {
		sink = discardSink{}
	}
	if !p.running.CompareAndSwap(false, true) {
		sink.Handle(Event{EventFailed, "Processing already in progress. Please wait."})
		return false
	}

	go p.run(ctx, folder, sink)
	return true
}

func (p *Processor) run(ctx context.Context, folder string, sink EventSink) {
	defer p.running.Store(false)
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("panic during batch run", "folder", folder, "panic", r)
			sink.Handle(Event{EventFailed, fmt.Sprintf("Unexpected error: %v", r)})
		}
	}()

	res := p.processFolder(ctx, folder, sink)
	p.record(folder, res)

	if res.err != nil {
		sink.Handle(Event{EventFailed, res.err.Error()})
		return
	}
	sink.Handle(Event{EventSucceeded, res.message})
}

type runResult struct {
	files    int
	items    int
	vouchers int
	message  string
	err      error
}

func (p *Processor) processFolder(ctx context.Context, folder string, sink EventSink) runResult {
	info, err := os.Stat(folder)
	if err != nil || !info.IsDir() {
		return runResult{err: fmt.Errorf("invalid folder selected: %s", folder)}
	}

	sink.Handle(Event{EventProgress, "Starting invoice processing..."})

	files, err := extract.ListImages(folder)
	if err != nil {
		return runResult{err: fmt.Errorf("listing images: %w", err)}
	}
	if len(files) == 0 {
		return runResult{err: fmt.Errorf("no image files found in %s", folder)}
	}

	sink.Handle(Event{EventProgress, fmt.Sprintf("Found %d image(s) to process...", len(files))})

	var table [][]string
	processed := 0
	for i, path := range files {
		sink.Handle(Event{EventProgress, fmt.Sprintf("Processing %s (%d/%d)...", path, i+1, len(files))})

		rows, err := p.extractFile(ctx, path)
		if err != nil {
			sink.Handle(Event{EventSkipped, fmt.Sprintf("Skipping %s: %v", path, err)})
			continue
		}

		table = append(table, rows...)
		processed++
	}

	if len(table) == 0 {
		return runResult{files: processed, err: fmt.Errorf("no invoice data extracted from %d file(s)", len(files))}
	}

	items, skipped := extract.ItemsFromTable(table)
	if skipped > 0 {
		p.logger.Debug("dropped malformed rows", "count", skipped)
	}
	sink.Handle(Event{EventProgress, fmt.Sprintf("Extracted %d line item(s) from %d file(s)", len(items), processed)})

	sink.Handle(Event{EventProgress, "Creating ledger in Tally..."})
	ok, msg := p.tally.CreateLedger(ctx, tally.Ledger{Name: p.ledgerName})
	if !ok {
		return runResult{files: processed, items: len(items), err: fmt.Errorf("failed to create ledger: %s", msg)}
	}
	sink.Handle(Event{EventProgress, msg})

	sink.Handle(Event{EventProgress, "Importing vouchers to Tally..."})
	ok, msg = p.tally.ImportVouchers(ctx, items, p.ledgerName, p.contraLedger)
	if !ok {
		return runResult{files: processed, items: len(items), err: fmt.Errorf("failed to import vouchers: %s", msg)}
	}

	return runResult{
		files:    processed,
		items:    len(items),
		vouchers: len(items),
		message:  fmt.Sprintf("%s from %d file(s)", msg, processed),
	}
}

// extractFile runs OCR and structuring for one image and returns its raw
// rows. Any failure is a per-file skip, not a batch abort.
func (p *Processor) extractFile(ctx context.Context, path string) ([][]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading image: %w", err)
	}
	return p.extractImage(ctx, data)
}

func (p *Processor) extractImage(ctx context.Context, image []byte) ([][]string, error) {
	text, err := p.ocr.Text(ctx, image)
	if err != nil {
		return nil, fmt.Errorf("OCR: %w", err)
	}

	blob, err := p.structurer.Table(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("structuring: %w", err)
	}
	if strings.TrimSpace(blob) == "" {
		return nil, fmt.Errorf("structuring returned no data")
	}

	return extract.ParseTable(blob), nil
}

// ProcessFile is the synchronous single-file variant used by the upload
// endpoint: same stages, (success, message) result instead of events.
func (p *Processor) ProcessFile(ctx context.Context, name string, image []byte) (bool, string) {
	res := p.processImage(ctx, image)
	p.record(name, res)
	if res.err != nil {
		return false, res.err.Error()
	}
	return true, res.message
}

func (p *Processor) processImage(ctx context.Context, image []byte) runResult {
	rows, err := p.extractImage(ctx, image)
	if err != nil {
		return runResult{err: err}
	}

	items, _ := extract.ItemsFromTable(rows)

	ok, msg := p.tally.CreateLedger(ctx, tally.Ledger{Name: p.ledgerName})
	if !ok {
		return runResult{files: 1, items: len(items), err: fmt.Errorf("failed to create ledger: %s", msg)}
	}

	ok, msg = p.tally.ImportVouchers(ctx, items, p.ledgerName, p.contraLedger)
	if !ok {
		return runResult{files: 1, items: len(items), err: fmt.Errorf("failed to import vouchers: %s", msg)}
	}

	return runResult{files: 1, items: len(items), vouchers: len(items), message: msg}
}

func (p *Processor) record(source string, res runResult) {
	if p.store == nil {
		return
	}

	rec := runlog.Record{
		Timestamp: time.Now().UTC(),
		Source:    source,
		Files:     res.files,
		Items:     res.items,
		Vouchers:  res.vouchers,
		Status:    runlog.StatusProcessed,
		Message:   res.message,
	}
	if res.err != nil {
		rec.Status = runlog.StatusFailed
		rec.Message = res.err.Error()
	}

	if err := p.store.Append(rec); err != nil {
		p.logger.Warn("recording run failed", "source", source, "error", err)
	}
}
