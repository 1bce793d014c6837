// Package fileservice provides folder creation, reads, writes and batched
// change notifications over the local file system.
package fileservice

// ChangeType classifies a file change.
type ChangeType int

const (
	Updated ChangeType = iota
	Added
	Deleted
)

func (t ChangeType) String() string {
	switch t {
	case Added:
		return "added"
	case Deleted:
		return "deleted"
	default:
		return "updated"
	}
}

// Change is one affected resource. Path is absolute and cleaned.
type Change struct {
	Path string
	Type ChangeType
}

// ChangeBatch is every change observed within one batch window, in the order
// each path was first seen.
type ChangeBatch struct {
	Changes []Change
}
