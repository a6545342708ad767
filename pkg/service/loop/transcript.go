package loop

import (
	"encoding/json"
	"sync"

	"github.com/catalpa-lab/dynagent/pkg/domain/model"
)

// transcript accumulates the turn's message history. The loop may
// dispatch multiple tool calls from one model response concurrently, so
// appends are serialized.
type transcript struct {
	mu       sync.Mutex
	messages []model.Message
}

func newTranscript(base []model.Message) *transcript {
	messages := make([]model.Message, len(base))
	copy(messages, base)
	return &transcript{messages: messages}
}

// addToolExchange records one tool call and its result
func (t *transcript) addToolExchange(name string, args map[string]any, result string) {
	encodedArgs, err := json.Marshal(args)
	if err != nil {
		encodedArgs = []byte("{}")
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.messages = append(t.messages,
		model.Message{Role: model.RoleAssistant, Name: name, Content: string(encodedArgs)},
		model.Message{Role: model.RoleTool, Name: name, Content: result},
	)
}

// finalize appends the final assistant message and returns the full
// transcript.
func (t *transcript) finalize(final string) []model.Message {
	t.mu.Lock()
	defer t.mu.Unlock()

	if final != "" {
		t.messages = append(t.messages, model.Message{Role: model.RoleAssistant, Content: final})
	}

	result := make([]model.Message, len(t.messages))
	copy(result, t.messages)
	return result
}
