package activity

import (
	"encoding/json"
	"fmt"
	"time"
)

// export is the persisted representation of the whole log: the ordered
// records plus the log-level header.
type export struct {
	Activities []Record `json:"activities"`
	Version    string   `json:"version"`
	Created    string   `json:"created"`
}

const exportTimeFormat = "2006-01-02T15:04:05.999999Z07:00"

// ExportJSON renders the log as a single JSON document. The document can
// be read back with ParseExport into an equivalent sequence.
func (l *Log) ExportJSON() ([]byte, error) {
	l.mu.Lock()
	records := make([]Record, len(l.records))
	copy(records, l.records)
	meta := l.meta
	l.mu.Unlock()

	doc := export{
		Activities: records,
		Version:    meta.Version,
		Created:    meta.Created.UTC().Format(exportTimeFormat),
	}
	if doc.Version == "" {
		doc.Version = Version
	}
	return json.MarshalIndent(doc, "", "  ")
}

// ParseExport reads a document produced by ExportJSON back into records
// and the log header.
func ParseExport(data []byte) ([]Record, LogMeta, error) {
	var doc export
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, LogMeta{}, fmt.Errorf("%w: %v", ErrBadFormat, err)
	}
	meta := LogMeta{Version: doc.Version}
	if doc.Created != "" {
		created, err := parseExportTime(doc.Created)
		if err != nil {
			return nil, LogMeta{}, fmt.Errorf("%w: bad created timestamp: %v", ErrBadFormat, err)
		}
		meta.Created = created
	}
	return doc.Activities, meta, nil
}

func parseExportTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}
