package spine

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidIDs is returned when the ids of a sentence are not 1..N.
	ErrInvalidIDs = errors.New("spine: ids are not a permutation of 1..N")
	// ErrEmptySentence is returned by Reconstruct for a sentence without spines.
	ErrEmptySentence = errors.New("spine: empty sentence")
)

// MalformedRecordError reports a spine line that cannot be parsed.
type MalformedRecordError struct {
	Line   int
	Text   string
	Reason string
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("spine: line %d: %s: %q", e.Line, e.Reason, e.Text)
}

// DanglingAttachmentError reports a spine whose head word is missing from
// the sentence or whose head chain has no level AttPosition.
type DanglingAttachmentError struct {
	ID          int
	Head        int
	AttPosition int
}

func (e *DanglingAttachmentError) Error() string {
	return fmt.Sprintf("spine: word %d attaches to missing level %d of word %d", e.ID, e.AttPosition, e.Head)
}

// CyclicAttachmentError reports words whose head links form a cycle.
type CyclicAttachmentError struct {
	IDs []int
}

func (e *CyclicAttachmentError) Error() string {
	return fmt.Sprintf("spine: cyclic attachment through words %v", e.IDs)
}

// HeadError reports a constituent that does not have exactly one head child.
type HeadError struct {
	Label string
	Heads int
}

func (e *HeadError) Error() string {
	return fmt.Sprintf("spine: constituent %s has %d head children, want 1", e.Label, e.Heads)
}
