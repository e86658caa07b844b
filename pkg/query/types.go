package query

import (
	"time"

	"github.com/mnemograph/mnemograph/pkg/model"
)

// Source tags where a ResultItem's score came from.
type Source string

const (
	SourceVector   Source = "VectorSearch"
	SourceGraph    Source = "GraphTraversal"
	SourceCombined Source = "Combined"
)

// Options configures a single Execute call.
type Options struct {
	MaxDepth       int
	TopK           int
	EdgeTypes      []model.EdgeType
	IncludeHistory bool
	MinConfidence  float64
}

// DefaultOptions mirrors the zero-configuration query shape: a single-hop
// graph expansion over the top-10 vector seeds, no history attachment, no
// confidence floor.
func DefaultOptions() Options {
	return Options{MaxDepth: 1, TopK: 10, MinConfidence: 0}
}

// VersionInfo summarizes one VersionEntry for attachment to a ResultItem.
type VersionInfo struct {
	VersionID string
	Timestamp time.Time
	Message   string
	Author    string
}

// ResultItem is one hit returned by Execute.
type ResultItem struct {
	NodeID   model.NodeID
	Name     string
	Content  string
	Source   Source
	Score    float64
	Depth    int
	EdgePath []model.EdgeType
	Versions []VersionInfo
}

// Result is the outcome of one Execute call.
type Result struct {
	Items         []ResultItem
	NodesExamined int
	QueryTimeMs   int64
}

// ImpactedNode is one entry in an ImpactAnalysis result.
type ImpactedNode struct {
	NodeID model.NodeID
	Depth  int
}

// CoveringTest is one entry in a FindCoveringTests result.
type CoveringTest struct {
	NodeID model.NodeID
	Score  float64
	Depth  int
}
