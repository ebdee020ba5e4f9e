// Package ingestion turns raw inbound texts into stored, embedded messages.
//
// Pipeline.IngestMessage runs one synchronous pass per text:
//   - Resolve the user's most recent email thread, creating it when absent
//   - Skip texts whose external id has already been stored
//   - Insert the message, embed it and upsert the embedding
//   - Bump the thread's message count and last-updated time
//
// Any failure is recorded once in the audit trail and returned to the caller.
// Nothing is retried and earlier writes are not undone.
//
// Batch feeds a JSONL stream through a Pipeline, running different users
// concurrently on a worker pool while keeping each user's messages in order.
package ingestion
