package logging

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	defaultMaxFileSize = 100 * 1024 * 1024
	cleanupPeriod      = 24 * time.Hour
)

var sequencedName = regexp.MustCompile(`^app-\d{4}-W\d{2}_(\d{2})\.log$`)

// RotatingFile is an io.Writer over weekly log files in one directory.
// Files are named app-YYYY-Www.log; when a file reaches maxSize the next
// write goes to app-YYYY-Www_NN.log. Files older than the retention period
// are removed once a day.
type RotatingFile struct {
	dir       string
	retention time.Duration
	maxSize   int64
	now       func() time.Time

	mu   sync.Mutex
	file *os.File
	week string
	size int64

	stop chan struct{}
	done chan struct{}
	once sync.Once
}

// OpenRotatingFile creates dir if needed and opens the file of the current week.
// A maxSize of zero or less disables size rotation.
func OpenRotatingFile(dir string, retentionWeeks int, maxSize int64) (*RotatingFile, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	rf := &RotatingFile{
		dir:       dir,
		retention: time.Duration(retentionWeeks) * 7 * 24 * time.Hour,
		maxSize:   maxSize,
		now:       time.Now,
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}

	rf.mu.Lock()
	err := rf.open(weekKey(rf.now()), false)
	rf.mu.Unlock()
	if err != nil {
		return nil, err
	}

	go rf.cleanupLoop()
	return rf, nil
}

// weekKey returns the ISO week of t as YYYY-Www
func weekKey(t time.Time) string {
	year, week := t.ISOWeek()
	return fmt.Sprintf("%d-W%02d", year, week)
}

func fileName(week string, seq int) string {
	if seq == 0 {
		return "app-" + week + ".log"
	}
	return fmt.Sprintf("app-%s_%02d.log", week, seq)
}

// open switches to the file that should receive writes for week.
// full forces a new sequence number. Caller holds mu.
func (rf *RotatingFile) open(week string, full bool) error {
	if rf.file != nil {
		_ = rf.file.Close()
		rf.file = nil
	}

	seq, size := rf.latest(week)
	if full || (rf.maxSize > 0 && size >= rf.maxSize) {
		seq++
		size = 0
	}

	path := filepath.Join(rf.dir, fileName(week, seq))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open log file %s: %w", path, err)
	}

	rf.file = f
	rf.week = week
	rf.size = size
	return nil
}

// latest returns the highest existing sequence number of week and its size
func (rf *RotatingFile) latest(week string) (int, int64) {
	seq, size := 0, int64(0)
	if info, err := os.Stat(filepath.Join(rf.dir, fileName(week, 0))); err == nil {
		size = info.Size()
	}

	matches, _ := filepath.Glob(filepath.Join(rf.dir, "app-"+week+"_??.log"))
	for _, m := range matches {
		sub := sequencedName.FindStringSubmatch(filepath.Base(m))
		if sub == nil {
			continue
		}
		n, _ := strconv.Atoi(sub[1])
		if n <= seq {
			continue
		}
		seq = n
		size = 0
		if info, err := os.Stat(m); err == nil {
			size = info.Size()
		}
	}
	return seq, size
}

// Write appends p to the current file, rotating first when the week changed
// or p would push the file past maxSize.
func (rf *RotatingFile) Write(p []byte) (int, error) {
	rf.mu.Lock()
	defer rf.mu.Unlock()

	week := weekKey(rf.now())
	switch {
	case week != rf.week:
		if err := rf.open(week, false); err != nil {
			return 0, err
		}
	case rf.maxSize > 0 && rf.size > 0 && rf.size+int64(len(p)) > rf.maxSize:
		if err := rf.open(week, true); err != nil {
			return 0, err
		}
	}

	if rf.file == nil {
		return 0, errors.New("log file is closed")
	}

	n, err := rf.file.Write(p)
	rf.size += int64(n)
	return n, err
}

func (rf *RotatingFile) cleanupLoop() {
	defer close(rf.done)

	ticker := time.NewTicker(cleanupPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-rf.stop:
			return
		case <-ticker.C:
			if removed, err := rf.cleanup(); err != nil {
				fmt.Fprintf(os.Stderr, "log cleanup failed: %v\n", err)
			} else if removed > 0 {
				fmt.Fprintf(os.Stderr, "removed %d old log files\n", removed)
			}
		}
	}
}

// cleanup removes app-*.log files last modified before the retention period
func (rf *RotatingFile) cleanup() (int, error) {
	entries, err := os.ReadDir(rf.dir)
	if err != nil {
		return 0, fmt.Errorf("failed to read log directory: %w", err)
	}

	cutoff := rf.now().Add(-rf.retention)
	removed := 0
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, "app-") || !strings.HasSuffix(name, ".log") {
			continue
		}
		info, err := e.Info()
		if err != nil || !info.ModTime().Before(cutoff) {
			continue
		}
		if os.Remove(filepath.Join(rf.dir, name)) == nil {
			removed++
		}
	}
	return removed, nil
}

// Close stops the cleanup goroutine and closes the current file
func (rf *RotatingFile) Close() error {
	var err error
	rf.once.Do(func() {
		close(rf.stop)
		<-rf.done

		rf.mu.Lock()
		defer rf.mu.Unlock()
		if rf.file != nil {
			err = rf.file.Close()
			rf.file = nil
		}
	})
	return err
}
