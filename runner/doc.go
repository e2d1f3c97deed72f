// Package runner turns a chat request into a single Plan-Execute-Reflect run
// and streams its progress as ordered events.
//
// A Runner owns the model and the source of the tool catalog. Each call to
// Stream builds a fresh agent graph and state, drives the graph to completion
// and translates every completed node into status events. The sequence always
// ends with exactly one terminal event: a final answer with the step log, or
// an error. WriteNDJSON serializes such a sequence as newline-delimited JSON.
package runner
