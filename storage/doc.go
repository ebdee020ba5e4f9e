// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package storage provides the row store abstraction used by mailroom.
//
// A Store addresses rows by logical table name and exposes four operations:
// Select, Insert, Upsert and Patch. Rows are schemaless column maps so the
// same contract fits a PostgREST endpoint and an embedded database.
//
// # Implementations
//
//   - rest: talks to a PostgREST-compatible HTTP endpoint (Supabase)
//   - badger: an embedded BadgerDB store for local runs and tests
//
// Open the hosted store:
//
//	st := rest.New(baseURL, serviceKey, rest.WithTimeout(15*time.Second))
//	defer st.Close()
//
// Use in tests with in-memory storage:
//
//	st, err := badger.NewMemoryStore()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer st.Close()
//
// # Errors
//
// Every failed operation returns a *StorageError naming the operation and
// table. Use IsTimeout to detect calls that exceeded the configured bound.
// Nothing is retried.
//
// # Thread Safety
//
// All Store implementations must be safe for concurrent use.
package storage
