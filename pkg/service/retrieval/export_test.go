package retrieval

// SplitContent is exported for testing
var SplitContent = splitContent

// ExtractInt is exported for testing
var ExtractInt = extractInt
