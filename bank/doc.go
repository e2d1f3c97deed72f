// Package bank provides the banking tool catalog of the agent: an in-memory
// customer and account store, stock and precious metal quotes, and the tools
// exposing both to the model. Tool output is Markdown text.
package bank
