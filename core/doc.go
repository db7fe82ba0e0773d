// Package core defines the shared vocabulary of the leo assistant: conversation
// turns, tool invocations and results, the error taxonomy, and the per-turn
// RunContext / ToolContext threading state through the engine and tools.
//
// It intentionally has no dependencies on other leo packages besides logging so
// every higher layer (memory, retrieval, prompt, tool, model, session, engine)
// can import it without cycles.
package core
