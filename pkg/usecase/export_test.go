package usecase

// BuildKnowledgeContext is exported for testing
var BuildKnowledgeContext = buildKnowledgeContext

// BuildToolSchemas is exported for testing
var BuildToolSchemas = buildToolSchemas

// BuildToolMap is exported for testing
var BuildToolMap = buildToolMap

// NormalizeResult is exported for testing
var NormalizeResult = normalizeResult

// ErrorPayload is exported for testing
var ErrorPayload = errorPayload

// RetrieveContext is exported for testing
var RetrieveContext = (*Runtime).retrieveContext

// AcquireMemoryScope is exported for testing
var AcquireMemoryScope = (*Runtime).acquireMemoryScope

// ExecuteRemember is exported for testing
var ExecuteRemember = (*Runtime).executeRemember

// Dispatcher is exported for testing
var Dispatcher = (*Runtime).dispatcher

// MemoryScope is exported for testing
type MemoryScope = memoryScope

// ToolTarget is exported for testing
type ToolTarget = toolTarget

// Recall is exported for testing
var Recall = (*memoryScope).recall

// RememberToolName is exported for testing
const RememberToolName = rememberToolName
