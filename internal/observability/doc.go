// Package observability provides the event hub for agent workflows: a
// process-wide entry point that turns typed occurrences into structured
// events, fans them out to the console, a day-partitioned JSONL audit
// log, and a Slack webhook, and aggregates in-memory metrics. Metrics
// and the event log live behind their own locks so a slow notification
// endpoint never stalls unrelated emissions.
package observability
