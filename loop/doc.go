// Package loop implements the tool-calling orchestration loop: it owns
// the conversation for one invocation, alternates between querying the
// model and dispatching requested tool calls, and terminates when the
// model produces a final answer with no further tool requests.
package loop
