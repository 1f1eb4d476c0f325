package formatter

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// File name prefixes.
const (
	PrefixBackup    = "watch-later-backup"
	PrefixPreDelete = "watch-later-backup-pre-delete"
	PrefixDeleted   = "watch-later-deleted"
)

// ExportResult contains the paths of files created by an export.
type ExportResult struct {
	File         string
	MetadataFile string
}

// FileName returns <prefix>-<timestamp>.<ext> with a filesystem-safe UTC timestamp.
func FileName(prefix string, f Format, now time.Time) string {
	stamp := now.UTC().Format("2006-01-02T15:04:05.000Z")
	stamp = strings.NewReplacer(":", "-", ".", "-").Replace(stamp)
	return fmt.Sprintf("%s-%s.%s", prefix, stamp, f.Ext())
}

func writeFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// WriteSnapshotFile writes a snapshot to path. CSV exports also get {base}_metadata.json with everything but the
// entries.
func WriteSnapshotFile(path string, s Snapshot, f Format) (*ExportResult, error) {
	data, err := EncodeSnapshot(s, f)
	if err != nil {
		return nil, fmt.Errorf("failed to encode snapshot: %w", err)
	}
	if err := writeFile(path, data); err != nil {
		return nil, err
	}

	result := &ExportResult{File: path}
	if f != FormatCSV {
		return result, nil
	}

	meta, err := SnapshotMetadata(s)
	if err != nil {
		return nil, fmt.Errorf("failed to encode snapshot metadata: %w", err)
	}
	metaPath := strings.TrimSuffix(path, filepath.Ext(path)) + "_metadata.json"
	if err := writeFile(metaPath, meta); err != nil {
		return nil, err
	}
	result.MetadataFile = metaPath
	return result, nil
}

// WriteAuditFile writes an audit to path.
func WriteAuditFile(path string, a Audit, f Format) (string, error) {
	data, err := EncodeAudit(a, f)
	if err != nil {
		return "", fmt.Errorf("failed to encode audit: %w", err)
	}
	if err := writeFile(path, data); err != nil {
		return "", err
	}
	return path, nil
}
