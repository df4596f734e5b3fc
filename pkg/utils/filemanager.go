// =============================================================================
// iDoklad to Fakturoid - File Utilities
// =============================================================================
//
// This module provides the file helpers shared by the cache and the run
// report:
//   - Atomic whole-file replacement (temp file + rename)
//   - Placeholder-based file naming
//   - Existence checks
//
// WRITE STRATEGY:
//   Files are written to a temporary file in the destination directory,
//   synced, and renamed over the destination. A process killed halfway
//   through a write leaves either the old file or the new one, never a
//   truncated mix of both.
//
// =============================================================================

package utils

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// ATOMIC WRITES
// =============================================================================

// WriteFileAtomic replaces the file at path with data.
//
// PARAMETERS:
//   - path: The destination file. Its directory is created if missing.
//   - data: The complete new contents.
//   - perm: The permission bits of the new file.
//
// RETURNS:
//   - An error if any step fails. The temporary file is removed on failure.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	// Clean up the temp file on any failure below.
	success := false
	defer func() {
		if !success {
			tmp.Close()
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmp.Chmod(perm); err != nil {
		return fmt.Errorf("failed to set permissions: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}

	success = true
	return nil
}

// =============================================================================
// FILE NAMING
// =============================================================================

// GenerateFileName expands placeholders in a file name.
//
// PARAMETERS:
//   - format: The file name template.
//             Placeholders:
//               {uuid}      - A random UUID
//               {timestamp} - Current timestamp (YYYYMMDD_HHMMSS)
//               {date}      - Current date (YYYYMMDD)
//               {time}      - Current time (HHMMSS)
//   - params: Additional placeholder values, e.g. {"run_id": "..."}.
//
// RETURNS:
//   - The expanded file name. A format without placeholders is returned
//     unchanged.
//
// EXAMPLE:
//   format: "import_{date}_{run_id}.xlsx"
//   params: {"run_id": "5f0c..."}
//   output: "import_20240115_5f0c....xlsx"
func GenerateFileName(format string, params map[string]string) string {
	if !strings.Contains(format, "{") {
		return format
	}

	now := time.Now()

	replacements := map[string]string{
		"{uuid}":      uuid.New().String(),
		"{timestamp}": now.Format("20060102_150405"),
		"{date}":      now.Format("20060102"),
		"{time}":      now.Format("150405"),
	}
	for key, value := range params {
		replacements["{"+key+"}"] = value
	}

	result := format
	for placeholder, value := range replacements {
		result = strings.ReplaceAll(result, placeholder, value)
	}

	return result
}

// =============================================================================
// UTILITY FUNCTIONS
// =============================================================================

// FileExists checks if a file exists.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !errors.Is(err, os.ErrNotExist)
}

// RemoveIfExists deletes path. A missing file is not an error.
func RemoveIfExists(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
