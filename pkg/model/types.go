// Package model defines the data types shared by every storage component of
// the memory engine: nodes and edges of the knowledge graph, embeddings held
// by the vector index, and the version/branch records kept by the history
// store. These types are pure data — encoding and persistence live in the
// packages that own a namespace (pkg/graph, pkg/vectorindex, pkg/history).
package model

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/google/uuid"
)

// NodeID uniquely identifies a graph node. Backed by a 128-bit UUID rather
// than an opaque string so ids are fixed-width on the wire and in every key
// layout that embeds them.
type NodeID uuid.UUID

// NewNodeID generates a random (v4) NodeID.
func NewNodeID() NodeID { return NodeID(uuid.New()) }

// String renders the canonical 36-character UUID form.
func (id NodeID) String() string { return uuid.UUID(id).String() }

// Bytes returns the 16 raw bytes of the id, used directly as key material.
func (id NodeID) Bytes() []byte { b := uuid.UUID(id); return b[:] }

// NodeIDFromBytes reconstructs a NodeID from 16 raw bytes.
func NodeIDFromBytes(b []byte) (NodeID, error) {
	u, err := uuid.FromBytes(b)
	if err != nil {
		return NodeID{}, err
	}
	return NodeID(u), nil
}

// ParseNodeID parses the canonical string form of a NodeID.
func ParseNodeID(s string) (NodeID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return NodeID{}, err
	}
	return NodeID(u), nil
}

// IsZero reports whether id is the nil UUID.
func (id NodeID) IsZero() bool { return id == NodeID{} }

// EdgeID uniquely identifies a graph edge. Same shape as NodeID.
type EdgeID uuid.UUID

// NewEdgeID generates a random (v4) EdgeID.
func NewEdgeID() EdgeID { return EdgeID(uuid.New()) }

func (id EdgeID) String() string { return uuid.UUID(id).String() }
func (id EdgeID) Bytes() []byte  { b := uuid.UUID(id); return b[:] }

func EdgeIDFromBytes(b []byte) (EdgeID, error) {
	u, err := uuid.FromBytes(b)
	if err != nil {
		return EdgeID{}, err
	}
	return EdgeID(u), nil
}

func ParseEdgeID(s string) (EdgeID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return EdgeID{}, err
	}
	return EdgeID(u), nil
}

// NodeType tags the kind of entity a Node represents. Go has no tagged-union
// types, so this is a plain string enum rather than a Rust-style enum; the
// set is open (callers may use application-specific values), but the
// constants below name the kinds the query engine and impact-analysis logic
// reason about.
type NodeType string

const (
	NodeFunction  NodeType = "Function"
	NodeFile      NodeType = "File"
	NodeModule    NodeType = "Module"
	NodeTest      NodeType = "Test"
	NodeDocument  NodeType = "Document"
	NodeConcept   NodeType = "Concept"
	NodeGeneric   NodeType = "Generic"
)

// EdgeType tags the kind of relationship an Edge represents. impact_analysis
// and find_covering_tests traverse specific subsets of these types inbound;
// the query engine's graph expansion walks all of them unless the caller
// restricts the edge types considered.
type EdgeType string

const (
	EdgeCalls      EdgeType = "Calls"
	EdgeImports    EdgeType = "Imports"
	EdgeDependsOn  EdgeType = "DependsOn"
	EdgeDocuments  EdgeType = "Documents"
	EdgeTestsOf    EdgeType = "TestsOf"
	EdgeReferences EdgeType = "References"
	EdgeContains   EdgeType = "Contains"
)

// ImpactEdgeTypes are the edge types impact_analysis walks inbound when
// looking for entities affected by a change to the target node.
var ImpactEdgeTypes = []EdgeType{EdgeCalls, EdgeImports, EdgeDependsOn, EdgeDocuments, EdgeTestsOf}

// TemporalRange bounds the validity window of an Edge, both in version-chain
// terms (Since/Until/ViaCommit, all optional version/commit identifiers) and
// in wall-clock terms (SinceTS and UntilTS both inclusive). A zero UntilTS
// means "still valid" (open-ended).
type TemporalRange struct {
	Since     string    `json:"since,omitempty"`
	Until     string    `json:"until,omitempty"`
	ViaCommit string    `json:"via_commit,omitempty"`
	SinceTS   time.Time `json:"since_ts"`
	UntilTS   time.Time `json:"until_ts,omitempty"`
}

// IsValidAt reports whether t falls within [SinceTS, UntilTS], treating a
// zero UntilTS as unbounded.
func (r TemporalRange) IsValidAt(t time.Time) bool {
	if t.Before(r.SinceTS) {
		return false
	}
	if r.UntilTS.IsZero() {
		return true
	}
	return !t.After(r.UntilTS)
}

// Provenance records where a Node's content came from. Every field is
// optional; the zero value means "unknown", not "not applicable".
type Provenance struct {
	FilePath  string `json:"file_path,omitempty"`
	LineStart int    `json:"line_start,omitempty"`
	LineEnd   int    `json:"line_end,omitempty"`
	CommitID  string `json:"commit_id,omitempty"`
	RepoURL   string `json:"repo_url,omitempty"`
	Branch    string `json:"branch,omitempty"`
}

// NodeExtensionKind discriminates the variant of a NodeExtension, mirroring
// the Kind-tag pattern used by Diff.
type NodeExtensionKind string

const (
	ExtCodeEntity NodeExtensionKind = "CodeEntity"
	ExtDoc        NodeExtensionKind = "Doc"
	ExtTest       NodeExtensionKind = "Test"
	ExtConfig     NodeExtensionKind = "Config"
)

// CodeEntityKind narrows a NodeExtension of kind CodeEntity.
type CodeEntityKind string

const (
	CodeFunction  CodeEntityKind = "Function"
	CodeStruct    CodeEntityKind = "Struct"
	CodeEnum      CodeEntityKind = "Enum"
	CodeTrait     CodeEntityKind = "Trait"
	CodeImpl      CodeEntityKind = "Impl"
	CodeModule    CodeEntityKind = "Module"
	CodeConstant  CodeEntityKind = "Constant"
	CodeTypeAlias CodeEntityKind = "TypeAlias"
	CodeMacro     CodeEntityKind = "Macro"
)

// NodeExtension carries the fields specific to Node.Type's node_type
// variant. Only the fields matching Kind are meaningful; the rest are left
// zero, the same trade-off Diff makes for lack of enum-with-payload types.
type NodeExtension struct {
	Kind NodeExtensionKind `json:"kind"`

	// CodeEntity
	CodeKind   CodeEntityKind `json:"code_kind,omitempty"`
	Language   string         `json:"language,omitempty"`
	Visibility string         `json:"visibility,omitempty"`
	Signature  string         `json:"signature,omitempty"`
	ModulePath string         `json:"module_path,omitempty"`

	// Doc
	DocFormat string `json:"doc_format,omitempty"`
	DocKind   string `json:"doc_kind,omitempty"`

	// Test
	TestKind       string   `json:"test_kind,omitempty"`
	TestTargets    []string `json:"test_targets,omitempty"`
	TestLastResult string   `json:"test_last_result,omitempty"`

	// Config
	ConfigKind   string `json:"config_kind,omitempty"`
	ConfigFormat string `json:"config_format,omitempty"`
}

// Node is a vertex of the knowledge graph.
type Node struct {
	ID             NodeID         `json:"id"`
	Type           NodeType       `json:"type"`
	Name           string         `json:"name"`
	Content        string         `json:"content"`
	ContentHash    string         `json:"content_hash"`
	Metadata       map[string]any `json:"metadata,omitempty"`
	Provenance     Provenance     `json:"provenance,omitempty"`
	Extension      *NodeExtension `json:"extension,omitempty"`
	CurrentVersion string         `json:"current_version,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// ContentHashOf computes the content_hash invariant (I5): sha256 of the raw
// content bytes, hex-encoded.
func ContentHashOf(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

// Touch stamps ContentHash from Content and refreshes UpdatedAt. Callers
// must call this (or set ContentHash explicitly) before persisting a Node
// whose Content changed, to uphold I5.
func (n *Node) Touch(now time.Time) {
	n.ContentHash = ContentHashOf(n.Content)
	n.UpdatedAt = now
}

// Edge is a directed, typed, temporally-scoped relationship between two
// nodes.
type Edge struct {
	ID         EdgeID         `json:"id"`
	Type       EdgeType       `json:"type"`
	FromNode   NodeID         `json:"from_node"`
	ToNode     NodeID         `json:"to_node"`
	Confidence float64        `json:"confidence"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Temporal   TemporalRange  `json:"temporal"`
}

// ClampConfidence restores Confidence to [0.0, 1.0], clamping out-of-range
// values rather than rejecting them.
func (e *Edge) ClampConfidence() {
	switch {
	case e.Confidence < 0:
		e.Confidence = 0
	case e.Confidence > 1:
		e.Confidence = 1
	}
}

// Terminate closes an active edge as of version v: until = v, until_ts = at.
// An edge with an empty Until is active; after Terminate it is not.
func (e *Edge) Terminate(v string, at time.Time) {
	e.Temporal.Until = v
	e.Temporal.UntilTS = at
}

// Embedding is the dense vector representation of a Node's content, used by
// the vector index for similarity search. Every embedding in a given engine
// instance must share the same dimensionality (I6).
type Embedding struct {
	NodeID NodeID    `json:"node_id"`
	Vector []float32 `json:"vector"`
}

// Dimensions returns len(Vector).
func (e Embedding) Dimensions() int { return len(e.Vector) }
