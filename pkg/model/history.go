package model

import "time"

// DiffKind discriminates the variant of a Diff. Go has no enum-with-payload
// type, so Diff carries a Kind tag plus the fields relevant to that kind;
// unused fields are left zero.
type DiffKind string

const (
	// DiffInitial marks the root version of a chain: Content holds the full
	// initial body, no patch.
	DiffInitial DiffKind = "Initial"
	// DiffContentChanged carries the full post-image of Content after the
	// change (not a line-oriented patch) — reconstruction replaces rather
	// than patches when it encounters this kind.
	DiffContentChanged DiffKind = "ContentChanged"
	// DiffMetadataChanged records a metadata-only edit; Content is unused.
	DiffMetadataChanged DiffKind = "MetadataChanged"
	// DiffComposite bundles multiple child Diffs applied together (e.g. a
	// merge commit that changes both content and metadata in one version).
	DiffComposite DiffKind = "Composite"
)

// FieldChange records a metadata field's value before and after a
// MetadataChanged diff.
type FieldChange struct {
	Old any `json:"old,omitempty"`
	New any `json:"new,omitempty"`
}

// Diff describes what a VersionEntry changed relative to its parent.
type Diff struct {
	Kind DiffKind `json:"kind"`

	// Initial, ContentChanged: Content is the post-image body (see
	// DiffContentChanged for why this isn't a line-oriented patch).
	Content string `json:"content,omitempty"`
	// ContentChanged: line counts describing the change, for display and
	// for the additions/deletions the spec's diff variant carries
	// alongside the post-image.
	Additions int `json:"additions,omitempty"`
	Deletions int `json:"deletions,omitempty"`

	// MetadataChanged: field name -> {old, new} value.
	ChangedFields map[string]FieldChange `json:"changed_fields,omitempty"`

	// Composite
	Children []Diff `json:"children,omitempty"`
}

// VersionEntry is one node in a version chain: an immutable record of a
// change to an entity, linked to its parent by ParentID (empty for the
// chain root).
type VersionEntry struct {
	VersionID string    `json:"version_id"`
	EntityID  NodeID    `json:"entity_id"`
	ParentID  string    `json:"parent_id,omitempty"`
	Branch    string    `json:"branch"`
	Diff      Diff      `json:"diff"`
	Message   string    `json:"message,omitempty"`
	Author    string    `json:"author,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Branch names a line of version history and the entity it tracks. A branch
// is Open while MergedInto is empty; CreateBranch's base version becomes its
// initial Head, and every subsequent RecordVersion on this branch advances
// Head. Once MergedInto is set the branch is read-only: the history store
// rejects further RecordVersion calls against a merged branch name.
type Branch struct {
	Name       string    `json:"name"`
	EntityID   NodeID    `json:"entity_id"`
	Head       string    `json:"head"`
	Base       string    `json:"base"`
	CreatedAt  time.Time `json:"created_at"`
	MergedInto string    `json:"merged_into,omitempty"`
}
