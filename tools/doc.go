// Package tools defines the tool contract for LLM agents: named,
// schema-described capabilities the model may invoke with structured
// arguments. It provides a typed tool built from a Go function with
// generated parameter schema and argument validation, and an ordered
// registry that publishes tool definitions to the model.
package tools
