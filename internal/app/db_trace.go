package app

import "strings"

// Spans carry the statement for debugging, not the full text of a bulk
// insert. Anything longer than this is cut.
const tracedQueryLimit = 512

// formatDBQueryForTrace collapses whitespace so multi-line SQL reads as
// one line in the trace viewer, then truncates oversized statements.
func formatDBQueryForTrace(query string) string {
	flattened := strings.Join(strings.Fields(query), " ")
	if len(flattened) > tracedQueryLimit {
		return flattened[:tracedQueryLimit] + "..."
	}
	return flattened
}
