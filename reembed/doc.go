// Package reembed repairs messages whose embedding is missing.
//
// Ingestion writes a message before embedding it, so a failed embedding
// call leaves a message without a message_embeddings row. The Reembedder
// pages through stored messages, finds those gaps and fills them with the
// configured embedder, reporting progress as it goes. It is run on demand
// by an operator and never retries a failed call.
package reembed
