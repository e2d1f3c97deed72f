// Package model defines the provider agnostic LLM boundary used by the agent
// nodes.
//
// Core goals:
//   - Unify streaming and non-streaming generation behind a single interface
//   - Normalize tool call representation onto core.Message / core.ToolCall
//   - Keep request/response shapes minimal and transport independent
//   - Facilitate deterministic scripted mocking for tests (MockModel)
//
// Providers (OpenAI, Azure OpenAI, Ollama, Anthropic) live in sub packages and
// implement Model so higher layers stay decoupled from vendor SDKs.
package model
