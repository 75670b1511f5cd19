package httpapi

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/custodia-labs/docflow/internal/core/domain"
)

// jobPayload is one entry of the service's job listing and the response
// body of an upload. Job description records use job_id, older records
// carry the identifier only in _id and candidate records use candidate_id.
type jobPayload struct {
	FileID          string   `json:"file_id"`
	JobID           string   `json:"job_id"`
	MongoID         any      `json:"_id"`
	CandidateID     string   `json:"candidate_id"`
	Filename        string   `json:"filename"`
	FileType        string   `json:"file_type"`
	Status          string   `json:"status"`
	ParseScore      *float64 `json:"parse_score"`
	WordCount       int      `json:"word_count"`
	Preview         string   `json:"preview"`
	HasConvertedPDF bool     `json:"has_converted_pdf"`
	UploadDate      string   `json:"upload_date"`
	Timestamp       string   `json:"timestamp"`
	ErrorMessage    string   `json:"error_message"`
}

// textPayload is the response body of the text endpoint.
type textPayload struct {
	Text string `json:"text"`
}

// id resolves the job identifier from the fields the service may use.
func (p jobPayload) id() string {
	if p.FileID != "" {
		return p.FileID
	}
	if p.JobID != "" {
		return p.JobID
	}
	switch v := p.MongoID.(type) {
	case string:
		if v != "" {
			return v
		}
	case map[string]any:
		if oid, ok := v["$oid"].(string); ok && oid != "" {
			return oid
		}
	}
	return p.CandidateID
}

func (p jobPayload) snapshot() domain.JobSnapshot {
	snap := domain.JobSnapshot{
		ID:           p.id(),
		DisplayName:  p.Filename,
		Kind:         domain.KindFromContentType(p.FileType),
		State:        domain.ParseJobState(p.Status),
		WordCount:    p.WordCount,
		Preview:      p.Preview,
		HasConverted: p.HasConvertedPDF,
		UploadedAt:   parseTimestamp(p.UploadDate, p.Timestamp),
		Message:      p.ErrorMessage,
	}
	if snap.State == domain.JobStateCompleted && p.ParseScore != nil {
		score := *p.ParseScore
		snap.Score = &score
	}
	return snap
}

func decodeSnapshots(data []byte) ([]domain.JobSnapshot, error) {
	var payloads []jobPayload
	if err := json.Unmarshal(data, &payloads); err != nil {
		return nil, err
	}
	snapshots := make([]domain.JobSnapshot, 0, len(payloads))
	for _, p := range payloads {
		snapshots = append(snapshots, p.snapshot())
	}
	return snapshots, nil
}

// timestampLayouts are the formats the service has been seen to emit.
// Python's isoformat omits the zone for naive UTC datetimes.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

func parseTimestamp(values ...string) time.Time {
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		for _, layout := range timestampLayouts {
			if t, err := time.Parse(layout, v); err == nil {
				return t.UTC()
			}
		}
	}
	return time.Time{}
}
