package shadowlog

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sync"
	"time"
)

const (
	shadowDirName = "shadow"
	publicDirName = "public"

	// defaultRetention is how long dated log files are kept before
	// CleanupOldLogs removes them.
	defaultRetention = 90 * 24 * time.Hour
)

// datedFile matches shadow-2025-06-01.log / public-2025-06-01.log.
var datedFile = regexp.MustCompile(`^(shadow|public)-(\d{4}-\d{2}-\d{2})\.log$`)

// Record is one audit entry. Sensitive records go to the encrypted
// shadow stream, routine ones to the plaintext public stream.
type Record struct {
	Timestamp time.Time      `json:"timestamp"`
	Event     string         `json:"event"`
	Operation string         `json:"operation,omitempty"`
	Domain    string         `json:"domain,omitempty"`
	Operator  string         `json:"operator,omitempty"`
	Role      string         `json:"role,omitempty"`
	Success   *bool          `json:"success,omitempty"`
	Reason    string         `json:"reason,omitempty"`
	Details   map[string]any `json:"details,omitempty"`

	// Error is set only on read, for lines that failed to decrypt or
	// parse. Such records carry no other fields.
	Error string `json:"error,omitempty"`
}

// Logger writes date-partitioned shadow (encrypted) and public
// (plaintext) audit files under a base directory. Appends are
// serialized by a mutex so concurrent writers never interleave lines.
type Logger struct {
	mu        sync.Mutex
	cipher    *Cipher
	baseDir   string
	retention time.Duration
	now       func() time.Time
}

// Option tunes a Logger.
type Option func(*Logger)

// WithRetention overrides the cleanup retention window.
func WithRetention(d time.Duration) Option {
	return func(l *Logger) { l.retention = d }
}

// New creates a Logger rooted at baseDir, creating the shadow and
// public subdirectories if needed.
func New(baseDir string, cipher *Cipher, opts ...Option) (*Logger, error) {
	l := &Logger{
		cipher:    cipher,
		baseDir:   baseDir,
		retention: defaultRetention,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}

	for _, dir := range []string{l.shadowDir(), l.publicDir()} {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("shadowlog: create %s: %w", dir, err)
		}
	}
	return l, nil
}

func (l *Logger) shadowDir() string { return filepath.Join(l.baseDir, shadowDirName) }
func (l *Logger) publicDir() string { return filepath.Join(l.baseDir, publicDirName) }

// LogShadow timestamps the record, encrypts its JSON serialization, and
// appends one envelope line to the day's shadow file. A returned error
// means the entry was NOT durably recorded; callers gating sensitive
// operations must treat that as a reason to abort.
func (l *Logger) LogShadow(rec Record) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now().UTC()
	rec.Timestamp = now

	plaintext, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("shadowlog: marshal record: %w", err)
	}
	env, err := l.cipher.Encrypt(plaintext)
	if err != nil {
		return err
	}
	line, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("shadowlog: marshal envelope: %w", err)
	}

	path := filepath.Join(l.shadowDir(), "shadow-"+now.Format(time.DateOnly)+".log")
	return appendLine(path, line)
}

// LogPublic appends a plaintext JSON record to the day's public file.
func (l *Logger) LogPublic(rec Record) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now().UTC()
	rec.Timestamp = now

	line, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("shadowlog: marshal record: %w", err)
	}
	path := filepath.Join(l.publicDir(), "public-"+now.Format(time.DateOnly)+".log")
	return appendLine(path, line)
}

// ReadShadowLogs decrypts every entry for a date (YYYY-MM-DD). Lines
// that fail to parse or decrypt become error records in place, so one
// corrupted line never hides the rest of the day.
func (l *Logger) ReadShadowLogs(date string) ([]Record, error) {
	if _, err := time.Parse(time.DateOnly, date); err != nil {
		return nil, fmt.Errorf("shadowlog: invalid date %q: %w", date, err)
	}

	path := filepath.Join(l.shadowDir(), "shadow-"+date+".log")
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("shadowlog: open %s: %w", path, err)
	}
	defer f.Close()

	var out []Record
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var env Envelope
		if err := json.Unmarshal(line, &env); err != nil {
			out = append(out, Record{Error: fmt.Sprintf("line %d: malformed envelope: %v", lineNo, err)})
			continue
		}
		plaintext, err := l.cipher.Decrypt(env)
		if err != nil {
			out = append(out, Record{Error: fmt.Sprintf("line %d: %v", lineNo, err)})
			continue
		}
		var rec Record
		if err := json.Unmarshal(plaintext, &rec); err != nil {
			out = append(out, Record{Error: fmt.Sprintf("line %d: malformed record: %v", lineNo, err)})
			continue
		}
		out = append(out, rec)
	}
	if err := scanner.Err(); err != nil {
		return out, fmt.Errorf("shadowlog: scan %s: %w", path, err)
	}
	return out, nil
}

// CleanupOldLogs deletes dated files older than the retention window in
// both directories and returns how many were removed.
func (l *Logger) CleanupOldLogs() (int, error) {
	cutoff := l.now().UTC().Add(-l.retention)
	removed := 0

	for _, dir := range []string{l.shadowDir(), l.publicDir()} {
		entries, err := os.ReadDir(dir)
		if err != nil {
			return removed, fmt.Errorf("shadowlog: read %s: %w", dir, err)
		}
		for _, entry := range entries {
			m := datedFile.FindStringSubmatch(entry.Name())
			if m == nil {
				continue
			}
			day, err := time.Parse(time.DateOnly, m[2])
			if err != nil {
				continue
			}
			if day.Before(cutoff) {
				if err := os.Remove(filepath.Join(dir, entry.Name())); err != nil {
					return removed, fmt.Errorf("shadowlog: remove %s: %w", entry.Name(), err)
				}
				removed++
			}
		}
	}
	return removed, nil
}

// StartCleanup runs CleanupOldLogs on the given interval until done is
// closed.
func (l *Logger) StartCleanup(done <-chan struct{}, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				if _, err := l.CleanupOldLogs(); err != nil {
					fmt.Fprintf(os.Stderr, "shadowlog: cleanup: %v\n", err)
				}
			}
		}
	}()
}

// appendLine opens the file in append mode and writes line + "\n".
func appendLine(path string, line []byte) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("shadowlog: open %s: %w", path, err)
	}
	defer f.Close()

	if _, err := f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("shadowlog: append %s: %w", path, err)
	}
	return nil
}
