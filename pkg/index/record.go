package index

import (
	"errors"
	"fmt"
)

// ErrInvalidRecord is returned by Insert when a record lacks required fields.
var ErrInvalidRecord = errors.New("invalid topic record")

// TopicRecord describes one dataset entry, either a topic or a subtopic.
// The index stores records by pointer and never modifies them.
type TopicRecord struct {
	Topic    string `json:"topic" msgpack:"t"`
	Language string `json:"language" msgpack:"lg"`
	Color    string `json:"color" msgpack:"c"`
	// ParentTopic names the owning topic; empty for top-level topics.
	ParentTopic string `json:"parentTopic,omitempty" msgpack:"pt,omitempty"`
}

// IsSubtopic reports whether the record belongs to a parent topic.
func (r *TopicRecord) IsSubtopic() bool {
	return r.ParentTopic != ""
}

// Validate checks the fields the index relies on.
func (r *TopicRecord) Validate() error {
	if r == nil {
		return fmt.Errorf("%w: nil record", ErrInvalidRecord)
	}
	if r.Topic == "" {
		return fmt.Errorf("%w: missing topic", ErrInvalidRecord)
	}
	if r.Color == "" {
		return fmt.Errorf("%w: topic %q has no color", ErrInvalidRecord, r.Topic)
	}
	return nil
}
