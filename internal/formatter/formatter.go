// package formatter builds the snapshot and deletion audit documents and encodes them as JSON, YAML or CSV
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/desertthunder/wlx/internal/models"
	"github.com/desertthunder/wlx/internal/shared"
)

// SchemaVersion is bumped when a document field changes meaning or moves.
const SchemaVersion = "1.0.0"

// OrderingSemantics describes how entries in a snapshot are ordered.
const OrderingSemantics = "Entries are listed in the playlist order at export time, from head to tail. " +
	"Deletion runs force oldest-first order before selecting entries."

// Snapshot is the playlist export document.
type Snapshot struct {
	SchemaVersion     string                   `json:"schemaVersion" yaml:"schemaVersion"`
	ExportedAt        time.Time                `json:"exportedAt" yaml:"exportedAt"`
	SourceRef         string                   `json:"sourceRef" yaml:"sourceRef"`
	PlaylistID        string                   `json:"playlistId" yaml:"playlistId"`
	OrderingSemantics string                   `json:"orderingSemantics" yaml:"orderingSemantics"`
	PlaylistMetadata  *models.PlaylistMetadata `json:"playlistMetadata" yaml:"playlistMetadata"`
	SortState         *models.SortState        `json:"sortState" yaml:"sortState"`
	ScanStats         models.ScanStats         `json:"scanStats" yaml:"scanStats"`
	Entries           []models.Entry           `json:"entries" yaml:"entries"`
}

// RunSummary describes a deletion run inside an [Audit].
type RunSummary struct {
	StartedAt      time.Time       `json:"startedAt" yaml:"startedAt"`
	FinishedAt     time.Time       `json:"finishedAt" yaml:"finishedAt"`
	RequestedCount int             `json:"requestedCount" yaml:"requestedCount"`
	DeletedCount   int             `json:"deletedCount" yaml:"deletedCount"`
	SettingsUsed   shared.Settings `json:"settingsUsed" yaml:"settingsUsed"`
	Completed      bool            `json:"completed" yaml:"completed"`
	Error          *string         `json:"error" yaml:"error"`
}

// Audit is the deletion run document.
type Audit struct {
	SchemaVersion  string               `json:"schemaVersion" yaml:"schemaVersion"`
	ExportedAt     time.Time            `json:"exportedAt" yaml:"exportedAt"`
	SourceRef      string               `json:"sourceRef" yaml:"sourceRef"`
	PlaylistID     string               `json:"playlistId" yaml:"playlistId"`
	Run            RunSummary           `json:"run" yaml:"run"`
	DeletedEntries []models.AuditRecord `json:"deletedEntries" yaml:"deletedEntries"`
}

// SourceRef returns the page URL a playlist export refers to.
func SourceRef(origin, playlistID string) string {
	return fmt.Sprintf("%s/playlist?list=%s", strings.TrimRight(origin, "/"), playlistID)
}

// BuildSnapshot wraps a scan result in a snapshot document.
func BuildSnapshot(scan *models.ScanResult, playlistID, sourceRef string, now time.Time) Snapshot {
	entries := scan.Entries
	if entries == nil {
		entries = []models.Entry{}
	}
	return Snapshot{
		SchemaVersion:     SchemaVersion,
		ExportedAt:        now.UTC(),
		SourceRef:         sourceRef,
		PlaylistID:        playlistID,
		OrderingSemantics: OrderingSemantics,
		PlaylistMetadata:  scan.PlaylistMetadata,
		SortState:         scan.SortState,
		ScanStats:         scan.Scan,
		Entries:           entries,
	}
}

// NewRunSummary summarises a run. A non-nil runErr is recorded as the error message.
func NewRunSummary(startedAt, finishedAt time.Time, requested int, settings shared.Settings, deleted int, completed bool, runErr error) RunSummary {
	var msg *string
	if runErr != nil {
		s := runErr.Error()
		msg = &s
	}
	return RunSummary{
		StartedAt:      startedAt.UTC(),
		FinishedAt:     finishedAt.UTC(),
		RequestedCount: requested,
		DeletedCount:   deleted,
		SettingsUsed:   settings,
		Completed:      completed,
		Error:          msg,
	}
}

// BuildAudit wraps deletion records in an audit document.
func BuildAudit(run RunSummary, records []models.AuditRecord, playlistID, sourceRef string, now time.Time) Audit {
	if records == nil {
		records = []models.AuditRecord{}
	}
	run.DeletedCount = len(records)
	return Audit{
		SchemaVersion:  SchemaVersion,
		ExportedAt:     now.UTC(),
		SourceRef:      sourceRef,
		PlaylistID:     playlistID,
		Run:            run,
		DeletedEntries: records,
	}
}

// Format is an export encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatCSV  Format = "csv"
)

// ParseFormat accepts json, yaml (or yml) and csv, case-insensitively. Empty means json.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "csv":
		return FormatCSV, nil
	default:
		return "", fmt.Errorf("%w: unsupported format %q (use json, yaml or csv)", shared.ErrInvalidFlag, s)
	}
}

// Ext returns the file extension without the dot.
func (f Format) Ext() string {
	return string(f)
}

func encodeDocument(v any, f Format) ([]byte, error) {
	switch f {
	case FormatJSON:
		return shared.MarshalJSON(v, true)
	case FormatYAML:
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return nil, fmt.Errorf("failed to encode YAML: %w", err)
		}
		if err := enc.Close(); err != nil {
			return nil, fmt.Errorf("failed to encode YAML: %w", err)
		}
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("%w: %s is not a document format", shared.ErrInvalidFlag, f)
	}
}

// EncodeSnapshot renders a snapshot. CSV output holds the entries only; see [SnapshotMetadata].
func EncodeSnapshot(s Snapshot, f Format) ([]byte, error) {
	if f == FormatCSV {
		return EntriesToCSV(s.Entries)
	}
	return encodeDocument(s, f)
}

// EncodeAudit renders an audit. CSV output holds the deleted entries only.
func EncodeAudit(a Audit, f Format) ([]byte, error) {
	if f == FormatCSV {
		return AuditRecordsToCSV(a.DeletedEntries)
	}
	return encodeDocument(a, f)
}

// SnapshotMetadata returns the snapshot without its entries, written next to CSV exports.
func SnapshotMetadata(s Snapshot) ([]byte, error) {
	s.Entries = []models.Entry{}
	return shared.MarshalJSON(s, true)
}

func writeCSV(header []string, rows [][]string) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write(header); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}
	for _, row := range rows {
		if err := writer.Write(row); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}
	return buf.Bytes(), nil
}

// EntriesToCSV converts entries to CSV, one row per entry in order.
func EntriesToCSV(entries []models.Entry) ([]byte, error) {
	header := []string{"orderIndex", "setVideoId", "videoId", "title", "channelName", "channelId", "publishedTimeText", "lengthText", "isPlayable", "unavailableReason", "badges"}
	rows := make([][]string, len(entries))
	for i, e := range entries {
		rows[i] = []string{
			strconv.Itoa(e.OrderIndex),
			e.SetVideoID,
			e.VideoID,
			e.Title,
			e.ChannelName,
			e.ChannelID,
			e.PublishedTimeText,
			e.LengthText,
			strconv.FormatBool(e.IsPlayable),
			e.UnavailableReason,
			strings.Join(e.Badges, "|"),
		}
	}
	return writeCSV(header, rows)
}

// AuditRecordsToCSV converts deletion records to CSV.
func AuditRecordsToCSV(records []models.AuditRecord) ([]byte, error) {
	header := []string{"sequenceNumber", "timestamp", "orderIndexAtScan", "setVideoId", "videoId", "title", "channelName", "publishedTimeText", "lengthText"}
	rows := make([][]string, len(records))
	for i, r := range records {
		orderIndex := ""
		if r.OrderIndexAtScan != nil {
			orderIndex = strconv.Itoa(*r.OrderIndexAtScan)
		}
		rows[i] = []string{
			strconv.Itoa(r.SequenceNumber),
			r.Timestamp.UTC().Format(time.RFC3339Nano),
			orderIndex,
			r.SetVideoID,
			r.VideoID,
			r.Title,
			r.ChannelName,
			r.PublishedTimeText,
			r.LengthText,
		}
	}
	return writeCSV(header, rows)
}

// ReportedCountNote explains a gap between the count the playlist header reports and the entries extracted.
func ReportedCountNote(s Snapshot) (string, bool) {
	if s.PlaylistMetadata == nil || s.PlaylistMetadata.ReportedVideoCount == nil {
		return "", false
	}
	reported := *s.PlaylistMetadata.ReportedVideoCount
	if reported == len(s.Entries) {
		return "", false
	}
	return fmt.Sprintf("playlist reports %d videos but %d entries had extractable data; private, deleted or unavailable rows can cause this gap",
		reported, len(s.Entries)), true
}
