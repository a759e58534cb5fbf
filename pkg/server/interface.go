/*
Package server implements msgpack IPC for topic search services.

The server reads a stream of msgpack maps from stdin and writes one msgpack map per request to stdout.
Messages are not length prefixed; each request is a single top level map.
Requests are processed synchronously with timing info included in responses.

# IPC

Every request carries an ID echoed back in the response, and an op naming the operation.
Fuzzy search over every whitespace separated term of a query:

	{"id": "req_001", "op": "search", "q": "reccursion arays", "fuzzy": true, "th": 0.8, "l": 24}

The server responds with matching records, sorted by topic:

	{"id": "req_001", "r": [{"t": "Arrays", "lg": "python", "c": "#3572A5"}, {"t": "Recursion", "lg": "python", "c": "#3572A5"}], "c": 2, "t": 145}

Without fuzzy the query is a plain prefix lookup. Topic name completion ranks names by how many records they hold:

	{"id": "req_002", "op": "complete", "p": "Sor", "l": 8}
	{"id": "req_002", "s": [{"w": "Sorting", "r": 1}, {"w": "Sorted", "r": 2}], "c": 2, "t": 30}

The topics op lists names, optionally ranked against a subsequence filter:

	{"id": "req_003", "op": "topics", "f": "bsrch", "l": 10}

stats reports index and cache counters, rebuild reloads the dataset and replaces the index.

Failures are reported with an error response carrying a status code: 400 for bad input, 500 for internal failures.

	{"id": "req_004", "e": "prefix exceeds maximum length of 60 characters", "c": 400}
*/
package server

import "github.com/bastiangx/topicserve/pkg/index"

// Supported ops.
const (
	OpSearch   = "search"
	OpComplete = "complete"
	OpTopics   = "topics"
	OpStats    = "stats"
	OpRebuild  = "rebuild"
)

// Request is the envelope for every op. Fields unused by an op are ignored.
type Request struct {
	ID        string  `msgpack:"id"`
	Op        string  `msgpack:"op"`
	Query     string  `msgpack:"q,omitempty"`
	Fuzzy     bool    `msgpack:"fuzzy,omitempty"`
	Threshold float64 `msgpack:"th,omitempty"`
	Prefix    string  `msgpack:"p,omitempty"`
	Filter    string  `msgpack:"f,omitempty"`
	Limit     int     `msgpack:"l,omitempty"`
}

// SearchResponse - search results
type SearchResponse struct {
	ID        string              `msgpack:"id"`
	Results   []index.TopicRecord `msgpack:"r"`
	Count     int                 `msgpack:"c"`
	TimeTaken int64               `msgpack:"t"`
}

// CompletionSuggestion - minimal suggestion response
type CompletionSuggestion struct {
	Word string `msgpack:"w"`
	Rank uint16 `msgpack:"r"`
}

// CompletionResponse - completion response
type CompletionResponse struct {
	ID          string                 `msgpack:"id"`
	Suggestions []CompletionSuggestion `msgpack:"s"`
	Count       int                    `msgpack:"c"`
	TimeTaken   int64                  `msgpack:"t"`
}

// TopicsResponse - topic names, filtered when a pattern was given
type TopicsResponse struct {
	ID        string   `msgpack:"id"`
	Topics    []string `msgpack:"n"`
	Count     int      `msgpack:"c"`
	TimeTaken int64    `msgpack:"t"`
}

// StatsResponse - index and completer counters
type StatsResponse struct {
	ID        string         `msgpack:"id"`
	Index     map[string]int `msgpack:"i"`
	Completer map[string]int `msgpack:"s"`
	Requests  int64          `msgpack:"rq"`
}

// RebuildResponse - result of a dataset reload
type RebuildResponse struct {
	ID        string `msgpack:"id"`
	Status    string `msgpack:"status"`
	Keys      int    `msgpack:"k"`
	Records   int    `msgpack:"n"`
	TimeTaken int64  `msgpack:"t"`
}

// ErrorResponse holds basic error information for any request
type ErrorResponse struct {
	ID    string `msgpack:"id"`
	Error string `msgpack:"e"`
	Code  int    `msgpack:"c"`
}
