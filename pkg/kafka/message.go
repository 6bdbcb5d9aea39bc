package kafka

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/Ramsey-B/clover/pkg/models"
)

// Header is one Kafka message header
type Header struct {
	Key   string
	Value []byte
}

// MessageHeaders are the headers clover reads and writes on every message
type MessageHeaders struct {
	RequestID   string
	Source      string
	TraceParent string
}

// ToKafkaHeaders converts MessageHeaders to a header slice
func (h MessageHeaders) ToKafkaHeaders() []Header {
	headers := make([]Header, 0, 3)
	if h.RequestID != "" {
		headers = append(headers, Header{Key: "x-request-id", Value: []byte(h.RequestID)})
	}
	if h.Source != "" {
		headers = append(headers, Header{Key: "x-source", Value: []byte(h.Source)})
	}
	if h.TraceParent != "" {
		headers = append(headers, Header{Key: "traceparent", Value: []byte(h.TraceParent)})
	}
	return headers
}

// ExtractHeaders reads MessageHeaders from a header slice
func ExtractHeaders(headers []Header) MessageHeaders {
	var h MessageHeaders
	for _, header := range headers {
		switch header.Key {
		case "x-request-id":
			h.RequestID = string(header.Value)
		case "x-source":
			h.Source = string(header.Value)
		case "traceparent":
			h.TraceParent = string(header.Value)
		}
	}
	return h
}

// RowMessage is one raw import row published by the upstream file parsers.
// Row is an arbitrary key-value record; clover only requires that an
// institution-name field and a state field can be extracted from it.
type RowMessage struct {
	Source     string            `json:"source"`
	BatchID    string            `json:"batch_id,omitempty"`
	EntityKind models.EntityKind `json:"entity_kind,omitempty"`
	Row        map[string]any    `json:"row"`
	Timestamp  time.Time         `json:"timestamp"`
}

// ParseRowMessage parses a raw row message from JSON
func ParseRowMessage(data []byte) (*RowMessage, error) {
	var msg RowMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("failed to parse row message: %w", err)
	}
	if msg.Row == nil {
		return nil, fmt.Errorf("row message has no row payload")
	}
	return &msg, nil
}

// ToJSON serializes the message
func (m *RowMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// MatchOutcomeMessage is the resolution decision for one raw reference,
// published for downstream application or manual review routing.
type MatchOutcomeMessage struct {
	ReferenceName  string            `json:"reference_name"`
	ReferenceState string            `json:"reference_state"`
	InstitutionID  *string           `json:"institution_id,omitempty"`
	Stage          models.MatchStage `json:"stage"`
	Confidence     float64           `json:"confidence"`
	NeedsReview    bool              `json:"needs_review"`
	JobID          string            `json:"job_id,omitempty"`
	Source         string            `json:"source,omitempty"`
	Timestamp      time.Time         `json:"timestamp"`
}

// NewMatchOutcomeMessage builds the outcome message for one resolution.
func NewMatchOutcomeMessage(raw models.RawReference, result *models.MatchResult, jobID, source string) *MatchOutcomeMessage {
	msg := &MatchOutcomeMessage{
		ReferenceName:  raw.Name,
		ReferenceState: raw.State,
		Stage:          result.Stage,
		Confidence:     result.Confidence,
		NeedsReview:    result.NeedsReview(),
		JobID:          jobID,
		Source:         source,
		Timestamp:      time.Now().UTC(),
	}
	if result.MatchedInstitution != nil {
		id := result.MatchedInstitution.ID
		msg.InstitutionID = &id
	}
	return msg
}

// ToJSON serializes the message
func (m *MatchOutcomeMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// DuplicateReportMessage carries one detection run's report for the review
// queue.
type DuplicateReportMessage struct {
	EntityKind models.EntityKind       `json:"entity_kind"`
	Report     *models.DuplicateReport `json:"report"`
	JobID      string                  `json:"job_id,omitempty"`
	Timestamp  time.Time               `json:"timestamp"`
}

// ToJSON serializes the message
func (m *DuplicateReportMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}
