package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// FileInfo describes one run log file.
type FileInfo struct {
	Name    string
	Path    string
	Size    int64
	ModTime time.Time
}

// Summary describes the log directory.
type Summary struct {
	Dir       string
	Files     []FileInfo // Newest first
	TotalSize int64
}

// ListFiles returns the .log files in dir sorted newest first.
// A missing directory yields no files and no error.
func ListFiles(dir string) ([]FileInfo, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var files []FileInfo
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".log") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		files = append(files, FileInfo{
			Name:    e.Name(),
			Path:    filepath.Join(dir, e.Name()),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}

	sort.Slice(files, func(i, j int) bool {
		if files[i].ModTime.Equal(files[j].ModTime) {
			return files[i].Name > files[j].Name
		}
		return files[i].ModTime.After(files[j].ModTime)
	})
	return files, nil
}

// Rotate deletes all but the newest keep log files in dir and returns how
// many were removed. keep <= 0 is treated as 1 so the current run survives.
func Rotate(dir string, keep int) (int, error) {
	if keep <= 0 {
		keep = 1
	}
	files, err := ListFiles(dir)
	if err != nil {
		return 0, err
	}
	if len(files) <= keep {
		return 0, nil
	}

	deleted := 0
	var firstErr error
	for _, f := range files[keep:] {
		if err := os.Remove(f.Path); err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		deleted++
	}
	return deleted, firstErr
}

// Summarize collects the files and total size of dir.
func Summarize(dir string) (Summary, error) {
	files, err := ListFiles(dir)
	if err != nil {
		return Summary{Dir: dir}, err
	}
	s := Summary{Dir: dir, Files: files}
	for _, f := range files {
		s.TotalSize += f.Size
	}
	return s, nil
}

// FormatSize renders a byte count in human readable form (1.5 KB).
func FormatSize(bytes int64) string {
	if bytes < 1024 {
		return fmt.Sprintf("%d B", bytes)
	}
	units := "KMGTPE"
	value := float64(bytes)
	exp := 0
	for value >= 1024 && exp < len(units) {
		value /= 1024
		exp++
	}
	return fmt.Sprintf("%.1f %cB", value, units[exp-1])
}
