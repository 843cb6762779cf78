package natsadapter

import (
	"fmt"
	"time"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/samirrijal/crashlens/internal/core/domain"
)

// Subjects.
const (
	SubjectIngested  = "crashes.ingested"
	SubjectBroadcast = "crashes.updates.broadcast"
	SubjectAll       = "crashes.>"
)

// EncodeIngestEvent serialises an event as a protobuf Struct.
func EncodeIngestEvent(e domain.IngestEvent) ([]byte, error) {
	s, err := structpb.NewStruct(map[string]any{
		"type":     SubjectIngested,
		"batch_id": e.BatchID,
		"source":   e.Source,
		"rows":     e.Rows,
		"stored":   e.Stored,
		"skipped":  e.Skipped,
		"finished": e.Finished.UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return nil, fmt.Errorf("build event: %w", err)
	}
	return proto.Marshal(s)
}

// DecodeIngestEvent parses a payload written by EncodeIngestEvent.
func DecodeIngestEvent(data []byte) (domain.IngestEvent, error) {
	var s structpb.Struct
	if err := proto.Unmarshal(data, &s); err != nil {
		return domain.IngestEvent{}, fmt.Errorf("decode event: %w", err)
	}
	f := s.GetFields()
	e := domain.IngestEvent{
		BatchID: f["batch_id"].GetStringValue(),
		Source:  f["source"].GetStringValue(),
		Rows:    int(f["rows"].GetNumberValue()),
		Stored:  int(f["stored"].GetNumberValue()),
		Skipped: int(f["skipped"].GetNumberValue()),
	}
	if e.BatchID == "" {
		return domain.IngestEvent{}, fmt.Errorf("decode event: missing batch_id")
	}
	if ts := f["finished"].GetStringValue(); ts != "" {
		t, err := time.Parse(time.RFC3339Nano, ts)
		if err != nil {
			return domain.IngestEvent{}, fmt.Errorf("decode event: finished: %w", err)
		}
		e.Finished = t
	}
	return e, nil
}

// ToJSON renders a protobuf Struct payload as JSON for browser clients.
// Payloads that are not Struct messages are returned unchanged.
func ToJSON(data []byte) []byte {
	var s structpb.Struct
	if err := proto.Unmarshal(data, &s); err != nil || len(s.GetFields()) == 0 {
		return data
	}
	out, err := protojson.Marshal(&s)
	if err != nil {
		return data
	}
	return out
}
