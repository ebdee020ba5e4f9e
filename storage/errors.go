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


package storage

import (
	"errors"
	"fmt"
)

var (
	// ErrDuplicateKey indicates a duplicate key violation.
	ErrDuplicateKey = errors.New("duplicate key")

	// ErrStorageClosed indicates that the storage backend is closed.
	ErrStorageClosed = errors.New("storage is closed")

	// ErrInvalidQuery indicates invalid query parameters.
	ErrInvalidQuery = errors.New("invalid query parameters")

	// ErrSerializationFailed indicates a row could not be encoded or decoded.
	ErrSerializationFailed = errors.New("serialization failed")

	// ErrTimeout indicates the operation exceeded its time bound.
	ErrTimeout = errors.New("storage operation timed out")
)

// StorageError reports a failed store operation.
// Status and Body carry the backend's response when one was received.
type StorageError struct {
	Op      string // select, insert, upsert or patch
	Table   string
	Status  int
	Body    string
	Timeout bool
	Err     error
}

func (e *StorageError) Error() string {
	switch {
	case e.Timeout:
		return fmt.Sprintf("storage %s %s: timed out", e.Op, e.Table)
	case e.Status != 0:
		return fmt.Sprintf("storage %s %s: %d %s", e.Op, e.Table, e.Status, e.Body)
	case e.Err != nil:
		return fmt.Sprintf("storage %s %s: %v", e.Op, e.Table, e.Err)
	default:
		return fmt.Sprintf("storage %s %s: failed", e.Op, e.Table)
	}
}

func (e *StorageError) Unwrap() error {
	if e.Timeout && e.Err == nil {
		return ErrTimeout
	}
	return e.Err
}

// IsTimeout reports whether err is a StorageError caused by a timeout.
func IsTimeout(err error) bool {
	var se *StorageError
	return errors.As(err, &se) && se.Timeout
}
