// Package api exposes the REST surface of the assistant: free-text
// assistant calls, direct action execution, engine invocation, reminder
// scans and metrics.
package api
