package entity

// Status tracks how far a gallery record got through the pipeline.
type Status string

const (
	Pending     Status = "pending"
	Transformed Status = "transformed"
	Finalized   Status = "finalized"
)

// EventStatus is the lifecycle of an outbox event.
type EventStatus string

const (
	EventPending    EventStatus = "pending"
	EventProcessing EventStatus = "processing"
	EventProcessed  EventStatus = "processed"
	EventFailed     EventStatus = "failed"
)
