// Package runlog persists one record per pipeline run so processed
// invoices can be audited after the fact.
package runlog

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"
)

// RunStatus is the terminal outcome of a processing run.
type RunStatus string

const (
	StatusProcessed RunStatus = "processed"
	StatusFailed    RunStatus = "failed"
)

// Record is one row in the run log.
type Record struct {
	Timestamp time.Time
	Source    string // folder or file the run was started from
	Files     int
	Items     int
	Vouchers  int
	Status    RunStatus
	Message   string
}

// Store persists processing records. Implementations must be safe for
// concurrent use.
type Store interface {
	Append(rec Record) error
	All() ([]Record, error)
}

// Header is the CSV header for the run log.
const Header = "timestamp,source,files,items,vouchers,status,message"

const (
	numFields    = 7
	colTimestamp = 0
	colSource    = 1
	colFiles     = 2
	colItems     = 3
	colVouchers  = 4
	colStatus    = 5
	colMessage   = 6
)

// MarshalRecord converts a Record to a CSV row.
func MarshalRecord(rec Record) []string {
	row := make([]string, numFields)
	row[colTimestamp] = rec.Timestamp.Format(time.RFC3339)
	row[colSource] = rec.Source
	row[colFiles] = strconv.Itoa(rec.Files)
	row[colItems] = strconv.Itoa(rec.Items)
	row[colVouchers] = strconv.Itoa(rec.Vouchers)
	row[colStatus] = string(rec.Status)
	row[colMessage] = rec.Message
	return row
}

// UnmarshalRecord converts a CSV row to a Record.
func UnmarshalRecord(record []string) (Record, error) {
	if len(record) != numFields {
		return Record{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	ts, err := time.Parse(time.RFC3339, record[colTimestamp])
	if err != nil {
		return Record{}, fmt.Errorf("parsing timestamp %q: %w", record[colTimestamp], err)
	}

	files, err := strconv.Atoi(record[colFiles])
	if err != nil {
		return Record{}, fmt.Errorf("parsing files %q: %w", record[colFiles], err)
	}
	items, err := strconv.Atoi(record[colItems])
	if err != nil {
		return Record{}, fmt.Errorf("parsing items %q: %w", record[colItems], err)
	}
	vouchers, err := strconv.Atoi(record[colVouchers])
	if err != nil {
		return Record{}, fmt.Errorf("parsing vouchers %q: %w", record[colVouchers], err)
	}

	return Record{
		Timestamp: ts,
		Source:    record[colSource],
		Files:     files,
		Items:     items,
		Vouchers:  vouchers,
		Status:    RunStatus(record[colStatus]),
		Message:   record[colMessage],
	}, nil
}

// CSVStore appends records to a CSV file, creating it (and its
// directory) with a header on first write.
type CSVStore struct {
	mu   sync.Mutex
	path string
}

// NewCSVStore creates a CSVStore writing to path.
func NewCSVStore(path string) *CSVStore {
	return &CSVStore{path: path}
}

// Append writes rec to the log file.
func (s *CSVStore) Append(rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating run log dir: %w", err)
		}
	}

	needsHeader := false
	if _, err := os.Stat(s.path); os.IsNotExist(err) {
		needsHeader = true
	}

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening run log: %w", err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	defer cw.Flush()

	if needsHeader {
		if err := cw.Write(strings.Split(Header, ",")); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
	}
	if err := cw.Write(MarshalRecord(rec)); err != nil {
		return fmt.Errorf("writing record: %w", err)
	}
	return cw.Error()
}

// All returns every record in the log, oldest first. A missing file
// yields an empty result.
func (s *CSVStore) All() ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening run log: %w", err)
	}
	defer f.Close()

	return readRecords(f)
}

func readRecords(r io.Reader) ([]Record, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading run log CSV: %w", err)
	}
	if len(records) <= 1 {
		return nil, nil
	}

	var recs []Record
	for i, rec := range records[1:] {
		out, err := UnmarshalRecord(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		recs = append(recs, out)
	}
	return recs, nil
}

// MemoryStore keeps records in memory; used by tests and as the server
// default when no log path is configured.
type MemoryStore struct {
	mu   sync.Mutex
	recs []Record
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Append stores rec.
func (s *MemoryStore) Append(rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recs = append(s.recs, rec)
	return nil
}

// All returns a copy of the stored records.
func (s *MemoryStore) All() ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Record, len(s.recs))
	copy(out, s.recs)
	return out, nil
}
