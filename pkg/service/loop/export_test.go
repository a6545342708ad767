package loop

import (
	"github.com/catalpa-lab/dynagent/pkg/domain/interfaces"
	"github.com/catalpa-lab/dynagent/pkg/domain/model"
)

// SplitMessages is exported for testing
var SplitMessages = splitMessages

// RenderConversation is exported for testing
var RenderConversation = renderConversation

// ConvertParameters is exported for testing
var ConvertParameters = convertParameters

// Transcript is exported for testing
type Transcript = transcript

// NewTranscript is exported for testing
var NewTranscript = newTranscript

// CallbackTool is exported for testing
type CallbackTool = callbackTool

// Finalize is exported for testing
var Finalize = (*transcript).finalize

// NewCallbackTool is exported for testing
func NewCallbackTool(schema model.ToolSchema, execute interfaces.ToolFunc, rec *transcript) *callbackTool {
	return &callbackTool{schema: schema, execute: execute, transcript: rec}
}
