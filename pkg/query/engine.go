// Package query implements the fused retrieval engine: a vector-similarity
// seed expanded outward over the knowledge graph, plus the two
// graph-only analyses (impact_analysis, find_covering_tests) that reuse the
// same inbound-edge-walking machinery. Grounded on the original
// implementation's execute_query/impact_analysis/find_covering_tests
// algorithms.
package query

import (
	"math"
	"sort"
	"time"

	"github.com/mnemograph/mnemograph/pkg/graph"
	"github.com/mnemograph/mnemograph/pkg/history"
	"github.com/mnemograph/mnemograph/pkg/model"
	"github.com/mnemograph/mnemograph/pkg/vectorindex"
)

// combinedBonus is added to a node's score when graph expansion rediscovers
// a node that vector search already surfaced, promoting its Source to
// Combined. The result is capped at 1.0.
const combinedBonus = 0.2

// Engine fuses the graph, vector, and history stores into the query API.
type Engine struct {
	graph   *graph.Store
	vector  *vectorindex.Store
	history *history.Store
}

// New builds a query Engine over already-open component stores.
func New(g *graph.Store, v *vectorindex.Store, h *history.Store) *Engine {
	return &Engine{graph: g, vector: v, history: h}
}

// Execute runs a vector-seeded, graph-expanded query: find the TopK nodes
// most similar to queryVector, then walk outward from each up to MaxDepth
// hops (optionally restricted to EdgeTypes), scoring expanded nodes by
// depth decay from their seed and promoting nodes found by both vector
// search and graph traversal to Source Combined. Results are sorted by
// score, descending, and filtered to MinConfidence.
func (e *Engine) Execute(queryVector []float32, opts Options) (*Result, error) {
	start := time.Now()

	seeds, err := e.vector.Search(queryVector, opts.TopK)
	if err != nil {
		return nil, err
	}

	items := make(map[model.NodeID]*ResultItem, len(seeds))
	examined := make(map[model.NodeID]bool)

	for _, seed := range seeds {
		node, err := e.graph.GetNode(seed.NodeID)
		if err != nil {
			continue
		}
		examined[seed.NodeID] = true
		items[seed.NodeID] = &ResultItem{
			NodeID: seed.NodeID, Name: node.Name, Content: node.Content,
			Source: SourceVector, Score: seed.Score, Depth: 0,
		}
	}

	if opts.MaxDepth > 0 {
		for _, seed := range seeds {
			if _, ok := items[seed.NodeID]; !ok {
				continue
			}
			if err := e.expand(seed.NodeID, opts, items, examined, nil); err != nil {
				return nil, err
			}
		}
	}

	result := make([]ResultItem, 0, len(items))
	for _, item := range items {
		if item.Score < opts.MinConfidence {
			continue
		}
		if opts.IncludeHistory {
			item.Versions, err = e.versionSummaries(item.NodeID)
			if err != nil {
				return nil, err
			}
		}
		result = append(result, *item)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Score > result[j].Score })

	return &Result{
		Items:         result,
		NodesExamined: len(examined),
		QueryTimeMs:   time.Since(start).Milliseconds(),
	}, nil
}

// expand performs the breadth-first graph walk outward from a vector seed,
// scoring each newly-reached node by score = 1/(1+depth) — independent of
// the seed's own score. A reached node that vector search already surfaced
// is promoted to Source Combined with a bonus; a node already added by graph
// expansion keeps its first entry.
func (e *Engine) expand(seedID model.NodeID, opts Options, items map[model.NodeID]*ResultItem, examined map[model.NodeID]bool, edgePath []model.EdgeType) error {
	type frontier struct {
		id    model.NodeID
		depth int
		path  []model.EdgeType
	}
	queue := []frontier{{seedID, 0, edgePath}}
	visited := map[model.NodeID]bool{seedID: true}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur.depth >= opts.MaxDepth {
			continue
		}

		edges, err := e.graph.OutgoingEdges(cur.id)
		if err != nil {
			return err
		}
		for _, edge := range edges {
			if len(opts.EdgeTypes) > 0 && !containsEdgeType(opts.EdgeTypes, edge.Type) {
				continue
			}
			if visited[edge.ToNode] {
				continue
			}
			visited[edge.ToNode] = true
			examined[edge.ToNode] = true

			depth := cur.depth + 1
			path := append(append([]model.EdgeType(nil), cur.path...), edge.Type)
			score := 1.0 / (1.0 + float64(depth))

			if existing, ok := items[edge.ToNode]; ok {
				if existing.Source == SourceVector {
					existing.Source = SourceCombined
					existing.Score = math.Min(1.0, existing.Score+combinedBonus)
				}
			} else {
				node, err := e.graph.GetNode(edge.ToNode)
				if err != nil {
					continue
				}
				items[edge.ToNode] = &ResultItem{
					NodeID: edge.ToNode, Name: node.Name, Content: node.Content,
					Source: SourceGraph, Score: score, Depth: depth, EdgePath: path,
				}
			}
			queue = append(queue, frontier{edge.ToNode, depth, path})
		}
	}
	return nil
}

func containsEdgeType(set []model.EdgeType, t model.EdgeType) bool {
	for _, s := range set {
		if s == t {
			return true
		}
	}
	return false
}

func (e *Engine) versionSummaries(id model.NodeID) ([]VersionInfo, error) {
	chain, err := e.history.GetVersionChain(id)
	if err != nil {
		return nil, err
	}
	out := make([]VersionInfo, len(chain))
	for i, v := range chain {
		out[i] = VersionInfo{VersionID: v.VersionID, Timestamp: v.Timestamp, Message: v.Message, Author: v.Author}
	}
	return out, nil
}

// ImpactAnalysis walks inbound edges of model.ImpactEdgeTypes from id,
// breadth-first up to maxDepth, and returns every node reachable that way —
// the set of entities that would be affected by a change to id. id itself
// is never included (depth 0 is skipped).
func (e *Engine) ImpactAnalysis(id model.NodeID, maxDepth int) ([]ImpactedNode, error) {
	type frontier struct {
		id    model.NodeID
		depth int
	}
	visited := map[model.NodeID]bool{id: true}
	queue := []frontier{{id, 0}}
	var impacted []ImpactedNode

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur.depth >= maxDepth {
			continue
		}
		edges, err := e.graph.IncomingEdges(cur.id)
		if err != nil {
			return nil, err
		}
		for _, edge := range edges {
			if !containsEdgeType(model.ImpactEdgeTypes, edge.Type) {
				continue
			}
			if visited[edge.FromNode] {
				continue
			}
			visited[edge.FromNode] = true
			depth := cur.depth + 1
			impacted = append(impacted, ImpactedNode{NodeID: edge.FromNode, Depth: depth})
			queue = append(queue, frontier{edge.FromNode, depth})
		}
	}
	return impacted, nil
}

// FindCoveringTests returns the tests that exercise id: direct TestsOf
// inbound edges (score 1.0, depth 1), plus — when maxDepth > 1 — tests that
// cover a direct caller of id via a transitive inbound Calls -> inbound
// TestsOf path (score 0.7, depth 2).
func (e *Engine) FindCoveringTests(id model.NodeID, maxDepth int) ([]CoveringTest, error) {
	var tests []CoveringTest
	seen := map[model.NodeID]bool{}

	direct, err := e.graph.IncomingEdges(id)
	if err != nil {
		return nil, err
	}
	for _, edge := range direct {
		if edge.Type != model.EdgeTestsOf {
			continue
		}
		if seen[edge.FromNode] {
			continue
		}
		seen[edge.FromNode] = true
		tests = append(tests, CoveringTest{NodeID: edge.FromNode, Score: 1.0, Depth: 1})
	}

	if maxDepth > 1 {
		callers, err := e.graph.IncomingEdges(id)
		if err != nil {
			return nil, err
		}
		for _, callEdge := range callers {
			if callEdge.Type != model.EdgeCalls {
				continue
			}
			callerTests, err := e.graph.IncomingEdges(callEdge.FromNode)
			if err != nil {
				return nil, err
			}
			for _, testEdge := range callerTests {
				if testEdge.Type != model.EdgeTestsOf {
					continue
				}
				if seen[testEdge.FromNode] {
					continue
				}
				seen[testEdge.FromNode] = true
				tests = append(tests, CoveringTest{NodeID: testEdge.FromNode, Score: 0.7, Depth: 2})
			}
		}
	}

	return tests, nil
}
