// Package tap is a streaming parser for the Test Anything Protocol.
//
// A Parser ingests TAP text through Ingest and End and publishes a typed
// event stream over the channel returned by Events: version announcements,
// plan declarations, test-point assertions, comments, diagnostic (YAML)
// blocks, bail-outs, non-TAP "extra" data, and a final summary. Nested
// subtests are represented as child parsers, themselves recursive Parser
// instances with their own Events channel.
package tap
