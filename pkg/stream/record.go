// Package stream provides the broker record model and a JSONL decoder
// for replaying exported record streams.
//
// Each line of input is a self-contained JSON record envelope carrying
// the positional and typed metadata the broker attaches to every
// entry of its replicated log, plus a type-specific payload.
package stream

import "encoding/json"

// RecordType classifies a log entry. Only events carry state changes
// that downstream consumers act on; commands and rejections are
// positional noise to them.
type RecordType string

const (
	RecordTypeEvent            RecordType = "EVENT"
	RecordTypeCommand          RecordType = "COMMAND"
	RecordTypeCommandRejection RecordType = "COMMAND_REJECTION"
)

// ValueType identifies the payload schema of a record.
type ValueType string

const (
	ValueTypeJob              ValueType = "JOB"
	ValueTypeWorkflowInstance ValueType = "WORKFLOW_INSTANCE"
)

// Intent is the lifecycle transition a record describes, scoped to its
// value type.
type Intent string

const (
	// Job intents.
	IntentJobCreated   Intent = "CREATED"
	IntentJobActivated Intent = "ACTIVATED"
	IntentJobCompleted Intent = "COMPLETED"

	// Workflow instance intents.
	IntentElementActivating Intent = "ELEMENT_ACTIVATING"
	IntentElementCompleted  Intent = "ELEMENT_COMPLETED"
)

// ElementType is the structural element classifier carried by workflow
// instance payloads. Only the top-level process element marks the
// lifetime of the instance itself.
type ElementType string

const (
	ElementTypeProcess       ElementType = "PROCESS"
	ElementTypeSubProcess    ElementType = "SUB_PROCESS"
	ElementTypeServiceTask   ElementType = "SERVICE_TASK"
	ElementTypeStartEvent    ElementType = "START_EVENT"
	ElementTypeEndEvent      ElementType = "END_EVENT"
	ElementTypeSequenceFlow  ElementType = "SEQUENCE_FLOW"
	ElementTypeExclusiveGate ElementType = "EXCLUSIVE_GATEWAY"
	ElementTypeParallelGate  ElementType = "PARALLEL_GATEWAY"
	ElementTypeUnspecified   ElementType = "UNSPECIFIED"
)

// Record is one entry of the broker's record stream.
type Record struct {
	// RecordType distinguishes events from commands and rejections.
	RecordType RecordType `json:"record_type"`

	// Position is the record's offset in the replicated log. Positions
	// are strictly increasing within a partition and are acknowledged
	// back to the stream once the record has been handled.
	Position int64 `json:"position"`

	// PartitionID is the partition the record was written on.
	PartitionID int32 `json:"partition_id"`

	// Key is the entity key the record refers to. Keys are unique
	// within a value type, not across value types.
	Key int64 `json:"key"`

	// Timestamp is the broker-assigned write time in epoch millis.
	Timestamp int64 `json:"timestamp"`

	// ValueType identifies the schema of Value.
	ValueType ValueType `json:"value_type"`

	// Intent is the lifecycle transition within the value type.
	Intent Intent `json:"intent"`

	// Value is the type-specific payload, decoded lazily by consumers
	// that care about it.
	Value json.RawMessage `json:"value,omitempty"`
}

// ProcessInstancePayload is the subset of the workflow instance record
// payload consumed here: the structural element discriminator.
type ProcessInstancePayload struct {
	ElementType ElementType `json:"element_type"`
}

// ProcessInstancePayloadOf decodes the workflow instance payload of a
// record. The boolean is false when the payload is missing or not the
// expected shape; such records are not countable events.
func ProcessInstancePayloadOf(rec *Record) (ProcessInstancePayload, bool) {
	if len(rec.Value) == 0 {
		return ProcessInstancePayload{}, false
	}
	var payload ProcessInstancePayload
	if err := json.Unmarshal(rec.Value, &payload); err != nil {
		return ProcessInstancePayload{}, false
	}
	if payload.ElementType == "" {
		return ProcessInstancePayload{}, false
	}
	return payload, true
}
