package export

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"prosorter/domain/entities"

	log "github.com/sirupsen/logrus"
)

// RetentionPeriod is how long exported report files are kept before the
// scheduled cleanup removes them.
const RetentionPeriod = 30 * 24 * time.Hour

// ExportedFile describes one archived report file.
type ExportedFile struct {
	Name      string    `json:"name"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"created_at"`
}

// Sink archives rendered reports on disk so past exports can be
// re-downloaded without regenerating them.
type Sink struct {
	dir string
	now func() time.Time
}

// NewSink creates the archive directory if needed.
func NewSink(dir string) (*Sink, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create reports directory %s: %w", dir, err)
	}
	return &Sink{dir: dir, now: time.Now}, nil
}

func extensionFor(format entities.ReportFormat) string {
	if format == entities.FormatDocument {
		return "pdf"
	}
	return "xlsx"
}

// Save archives a rendered report and returns the generated file name.
// kind labels the report window (daily, weekly, monthly, custom).
func (s *Sink) Save(kind string, format entities.ReportFormat, data []byte) (string, error) {
	name := fmt.Sprintf("report_%s_%s.%s", kind, s.now().Format("20060102_150405"), extensionFor(format))
	if err := os.WriteFile(filepath.Join(s.dir, name), data, 0o644); err != nil {
		return "", fmt.Errorf("failed to save report %s: %w", name, err)
	}
	return name, nil
}

// List returns the archived reports, newest first.
func (s *Sink) List() ([]ExportedFile, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list reports directory: %w", err)
	}

	files := make([]ExportedFile, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), "report_") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, ExportedFile{
			Name:      entry.Name(),
			Size:      info.Size(),
			CreatedAt: info.ModTime(),
		})
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].CreatedAt.After(files[j].CreatedAt)
	})
	return files, nil
}

// Read returns the contents of one archived report.
func (s *Sink) Read(name string) ([]byte, error) {
	path, err := s.resolve(name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, entities.ErrKeyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read report %s: %w", name, err)
	}
	return data, nil
}

// Delete removes one archived report.
func (s *Sink) Delete(name string) error {
	path, err := s.resolve(name)
	if err != nil {
		return err
	}
	err = os.Remove(path)
	if os.IsNotExist(err) {
		return entities.ErrKeyNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to delete report %s: %w", name, err)
	}
	return nil
}

// CleanupExpired removes archived reports older than the retention period
// and returns how many were deleted.
func (s *Sink) CleanupExpired() (int, error) {
	files, err := s.List()
	if err != nil {
		return 0, err
	}

	cutoff := s.now().Add(-RetentionPeriod)
	removed := 0
	for _, file := range files {
		if file.CreatedAt.After(cutoff) {
			continue
		}
		if err := s.Delete(file.Name); err != nil {
			log.WithError(err).WithField("file", file.Name).Warn("failed to remove expired report")
			continue
		}
		removed++
	}
	return removed, nil
}

// resolve validates the name and maps it into the archive directory. Names
// with path separators are rejected so callers cannot escape the archive.
func (s *Sink) resolve(name string) (string, error) {
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return "", fmt.Errorf("invalid report file name %q", name)
	}
	return filepath.Join(s.dir, name), nil
}
