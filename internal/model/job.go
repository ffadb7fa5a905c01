package model

import "time"

// JobState is the lifecycle state of a local translation job.
type JobState string

const (
	JobStateUnprocessed JobState = "unprocessed"
	JobStateSubmitted   JobState = "submitted"
	JobStateRejected    JobState = "rejected"
	JobStateAborted     JobState = "aborted"
	JobStateFinished    JobState = "finished"
	JobStateContinuous  JobState = "continuous"
)

// ItemStatus marks how far a translated data item has progressed.
// Preliminary translations come back from the review-preview state and may
// still change; translated ones are final.
type ItemStatus string

const (
	StatusPreliminary ItemStatus = "preliminary"
	StatusTranslated  ItemStatus = "translated"
)

// Job is a local unit of translation work containing one or more job items.
type Job struct {
	ID             string
	ProviderID     string
	Label          string
	SourceLanguage string
	TargetLanguage string
	State          JobState

	// Checkout settings captured when the job was created.
	RequiredBy    time.Time
	QuoteRequired bool
	Category      int
	Review        bool

	Items []JobItem

	CreatedAt time.Time
	UpdatedAt time.Time
}

// JobItem is one translatable content unit within a job.
type JobItem struct {
	ID     string
	JobID  string
	Label  string

	// SourceURL points at the content this item was extracted from.
	SourceURL string

	// PreviewURL, when non-empty, points at a live preview of the item
	// with preliminary translations applied.
	PreviewURL string

	// Data maps flattened content keys to their source texts.
	Data map[string]string
}

// TranslatedItem is one translated data entry attached to a job item.
type TranslatedItem struct {
	ItemID  string
	DataKey string
	Text    string
	Status  ItemStatus
}

// MessageType classifies entries in a job's message log.
type MessageType string

const (
	MessageDebug  MessageType = "debug"
	MessageStatus MessageType = "status"
	MessageError  MessageType = "error"
)

// Message is one entry in a job's message log.
type Message struct {
	ID        string
	JobID     string
	Type      MessageType
	Text      string
	CreatedAt time.Time
}
