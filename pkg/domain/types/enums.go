package types

import "github.com/m-mizutani/goerr/v2"

// InclusionMode controls how a knowledge entry contributes to the prompt
type InclusionMode string

const (
	// IncludeAlways embeds the entry content into every turn's prompt
	IncludeAlways InclusionMode = "always"
	// IncludeRAG makes the entry eligible for retrieval-augmented inclusion
	IncludeRAG InclusionMode = "rag"
)

// Validate checks if the InclusionMode is a known value
func (m InclusionMode) Validate() error {
	switch m {
	case IncludeAlways, IncludeRAG:
		return nil
	}
	return goerr.New("invalid inclusion mode", goerr.V("mode", string(m)))
}

// RAGStatus is the indexing state of a retrieval-mode knowledge entry
type RAGStatus string

const (
	RAGStatusIndexed RAGStatus = "indexed"
	RAGStatusPending RAGStatus = "pending"
	RAGStatusFailed  RAGStatus = "failed"
)

// MemorySource records which party stored a memory record
type MemorySource string

const (
	MemorySourceAgent  MemorySource = "agent"
	MemorySourceUser   MemorySource = "user"
	MemorySourceSystem MemorySource = "system"
)

// EventType identifies an observable runtime event
type EventType string

const (
	// EventAssistantMessage is emitted with the final assistant text on success
	EventAssistantMessage EventType = "assistant_message"
	// EventRunFailed is emitted when the agentic loop itself fails
	EventRunFailed EventType = "run_failed"
)
