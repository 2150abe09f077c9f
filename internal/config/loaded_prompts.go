package config

import (
	"sync"
)

var (
	loadedPromptsMu sync.RWMutex
	loadedPrompts   AllLoadedPrompts
)

// LoadedPrompts holds the content of prompts loaded from files
type LoadedPrompts struct {
	SystemPrompts LoadedSystemPrompts
	UserPrompts   LoadedUserPrompts
}

// LoadedSystemPrompts contains loaded system-level instructions
type LoadedSystemPrompts struct {
	ParseQuery string
}

// LoadedUserPrompts contains loaded user-level prompt templates
type LoadedUserPrompts struct {
	ParseQuery string
}

// AllLoadedPrompts holds all loaded prompts for all operations
type AllLoadedPrompts struct {
	Global LoadedPrompts
	Parse  LoadedPrompts
}

// GetPromptsForOperation returns a copy of the loaded prompts for an operation type.
// Operation-specific prompts win over global ones.
func GetPromptsForOperation(operationType string) LoadedPrompts {
	loadedPromptsMu.RLock()
	defer loadedPromptsMu.RUnlock()

	result := loadedPrompts.Global
	if operationType == OperationParse {
		if loadedPrompts.Parse.SystemPrompts.ParseQuery != "" {
			result.SystemPrompts.ParseQuery = loadedPrompts.Parse.SystemPrompts.ParseQuery
		}
		if loadedPrompts.Parse.UserPrompts.ParseQuery != "" {
			result.UserPrompts.ParseQuery = loadedPrompts.Parse.UserPrompts.ParseQuery
		}
	}
	return result
}

// storeLoadedPrompts replaces the loaded prompt set.
func storeLoadedPrompts(prompts AllLoadedPrompts) {
	loadedPromptsMu.Lock()
	loadedPrompts = prompts
	loadedPromptsMu.Unlock()
}

// OperationParse is the operation name used for query parsing.
const OperationParse = "parse"
