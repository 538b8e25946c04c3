// Package history records lock activity in an append-only, hash-chained
// JSONL file. Writers on the same host serialize through an advisory lock on
// the log file itself.
package history

import (
	"bufio"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/pmxlock-project/pmxlock/pkg/errclass"
	"github.com/pmxlock-project/pmxlock/pkg/jsonutil"
	"github.com/pmxlock-project/pmxlock/pkg/model"
)

// Appender appends lock activity records to a JSONL file with a hash chain.
type Appender struct {
	path string
	mu   sync.Mutex
}

// NewAppender creates an appender for the log at path.
func NewAppender(path string) *Appender {
	return &Appender{path: path}
}

// Path returns the log file path.
func (a *Appender) Path() string {
	return a.path
}

// Append adds a new record to the log.
func (a *Appender) Append(event model.HistoryEventType, lockName, runID string, details map[string]any) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(a.path), 0755); err != nil {
		return fmt.Errorf("create history dir: %w", err)
	}

	file, err := os.OpenFile(a.path, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return fmt.Errorf("open history log: %w", err)
	}
	defer file.Close()

	// Serialize concurrent writers across processes.
	if err := syscall.Flock(int(file.Fd()), syscall.LOCK_EX); err != nil {
		return fmt.Errorf("flock history log: %w", err)
	}
	defer syscall.Flock(int(file.Fd()), syscall.LOCK_UN)

	prevHash, err := lastRecordHash(file)
	if err != nil {
		return fmt.Errorf("read last record: %w", err)
	}

	record := &model.HistoryRecord{
		Timestamp: time.Now().UTC(),
		EventType: event,
		LockName:  lockName,
		RunID:     runID,
		PID:       os.Getpid(),
		Details:   details,
		PrevHash:  prevHash,
	}

	recordHash, err := computeRecordHash(record)
	if err != nil {
		return fmt.Errorf("compute record hash: %w", err)
	}
	record.RecordHash = recordHash

	line, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal history record: %w", err)
	}

	if _, err := file.Seek(0, io.SeekEnd); err != nil {
		return fmt.Errorf("seek history log: %w", err)
	}
	if _, err := file.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("write history record: %w", err)
	}
	return file.Sync()
}

// List returns up to limit most-recent records, oldest first. A non-positive
// limit returns everything.
func (a *Appender) List(limit int) ([]model.HistoryRecord, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	records, err := a.readAll()
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(records) > limit {
		records = records[len(records)-limit:]
	}
	return records, nil
}

// Verify walks the hash chain and reports the first broken link.
func (a *Appender) Verify() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	records, err := a.readAll()
	if err != nil {
		return err
	}

	prevHash := ""
	for i := range records {
		rec := records[i]
		if rec.PrevHash != prevHash {
			return errclass.ErrHistoryChainBroken.WithMessagef(
				"record %d: prev_hash mismatch", i)
		}
		want := rec.RecordHash
		rec.RecordHash = ""
		got, err := computeRecordHash(&rec)
		if err != nil {
			return fmt.Errorf("record %d: %w", i, err)
		}
		if got != want {
			return errclass.ErrHistoryChainBroken.WithMessagef(
				"record %d: record_hash mismatch", i)
		}
		prevHash = want
	}
	return nil
}

func (a *Appender) readAll() ([]model.HistoryRecord, error) {
	file, err := os.Open(a.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open history log: %w", err)
	}
	defer file.Close()

	var records []model.HistoryRecord
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var rec model.HistoryRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			return nil, errclass.ErrHistoryChainBroken.Wrapf(err, "record %d unparseable", len(records))
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan history log: %w", err)
	}
	return records, nil
}

// lastRecordHash scans the locked file for the final record's hash.
func lastRecordHash(file *os.File) (string, error) {
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return "", err
	}
	var last []byte
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		if len(scanner.Bytes()) > 0 {
			last = append(last[:0], scanner.Bytes()...)
		}
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}
	if len(last) == 0 {
		return "", nil
	}
	var rec model.HistoryRecord
	if err := json.Unmarshal(last, &rec); err != nil {
		return "", fmt.Errorf("parse last record: %w", err)
	}
	return rec.RecordHash, nil
}

// computeRecordHash hashes the record's canonical JSON with RecordHash cleared.
func computeRecordHash(rec *model.HistoryRecord) (string, error) {
	clone := *rec
	clone.RecordHash = ""
	data, err := jsonutil.CanonicalMarshal(&clone)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
