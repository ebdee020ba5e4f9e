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


package core

import "errors"

// Domain validation errors
var (
	// ErrInvalidThread indicates a ConversationThread failed validation.
	ErrInvalidThread = errors.New("invalid conversation thread")

	// ErrInvalidMessage indicates a Message failed validation.
	ErrInvalidMessage = errors.New("invalid message")

	// ErrEmptyUserID indicates the UserID field is empty.
	ErrEmptyUserID = errors.New("user id cannot be empty")

	// ErrEmptyTopic indicates the thread Topic field is empty.
	ErrEmptyTopic = errors.New("topic cannot be empty")

	// ErrEmptyContent indicates the RawText field is empty.
	ErrEmptyContent = errors.New("content cannot be empty")

	// ErrEmptyThreadID indicates a message is not attached to a thread.
	ErrEmptyThreadID = errors.New("thread id cannot be empty")

	// ErrInvalidDirection indicates an invalid Direction value.
	ErrInvalidDirection = errors.New("invalid message direction")

	// ErrInvalidState indicates an invalid ThreadState value.
	ErrInvalidState = errors.New("invalid thread state")

	// ErrNegativeCount indicates a negative message count.
	ErrNegativeCount = errors.New("message count cannot be negative")
)
