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

import "fmt"

// ValidateThread validates a ConversationThread according to domain rules.
//
// Validation rules:
//   - UserID must not be empty
//   - Topic must not be empty
//   - State must be open or closed
//   - MessageCount must not be negative
func ValidateThread(thread *ConversationThread) error {
	if thread == nil {
		return fmt.Errorf("%w: thread is nil", ErrInvalidThread)
	}

	if thread.UserID == "" {
		return fmt.Errorf("%w: %w", ErrInvalidThread, ErrEmptyUserID)
	}

	if thread.Topic == "" {
		return fmt.Errorf("%w: %w", ErrInvalidThread, ErrEmptyTopic)
	}

	if thread.State != ThreadStateOpen && thread.State != ThreadStateClosed {
		return fmt.Errorf("%w: %w: %q", ErrInvalidThread, ErrInvalidState, thread.State)
	}

	if thread.MessageCount < 0 {
		return fmt.Errorf("%w: %w", ErrInvalidThread, ErrNegativeCount)
	}

	return nil
}

// ValidateMessage validates a Message according to domain rules.
//
// Validation rules:
//   - UserID and ThreadID must not be empty
//   - RawText must not be empty
//   - Direction must be inbound or outbound
//
// ExternalID is optional and not validated.
func ValidateMessage(msg *Message) error {
	if msg == nil {
		return fmt.Errorf("%w: message is nil", ErrInvalidMessage)
	}

	if msg.UserID == "" {
		return fmt.Errorf("%w: %w", ErrInvalidMessage, ErrEmptyUserID)
	}

	if msg.ThreadID == "" {
		return fmt.Errorf("%w: %w", ErrInvalidMessage, ErrEmptyThreadID)
	}

	if msg.RawText == "" {
		return fmt.Errorf("%w: %w", ErrInvalidMessage, ErrEmptyContent)
	}

	if err := ValidateDirection(msg.Direction); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidMessage, err)
	}

	return nil
}

// ValidateDirection validates that a Direction has a valid value.
func ValidateDirection(d Direction) error {
	if d != DirectionInbound && d != DirectionOutbound {
		return fmt.Errorf("%w: value %q", ErrInvalidDirection, d)
	}
	return nil
}
