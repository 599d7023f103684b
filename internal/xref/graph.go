package xref

import (
	"sort"
	"strings"

	"docrag/internal/domain"
)

// Node is one document in the reference graph.
type Node struct {
	DocID     string   `json:"doc_id"`
	OutRefs   []string `json:"out_refs"`
	InRefs    []string `json:"in_refs"`
	OutDegree int      `json:"out_degree"`
	InDegree  int      `json:"in_degree"`
}

// Edge aggregates every citation of To found in From, with the chunks
// that contributed.
type Edge struct {
	From   string   `json:"from"`
	To     string   `json:"to"`
	Count  int      `json:"count"`
	Chunks []string `json:"chunks"`
}

// Graph is the directed document-citation graph. Immutable after Build
// or Load; concurrent readers need no locking.
type Graph struct {
	Nodes      map[string]*Node `json:"nodes"`
	Edges      []Edge           `json:"edges"`
	TotalNodes int              `json:"total_nodes"`
	TotalEdges int              `json:"total_edges"`
}

// Direction selects which edges a traversal follows.
type Direction string

const (
	DirectionOut  Direction = "out"
	DirectionIn   Direction = "in"
	DirectionBoth Direction = "both"
)

// Build scans every chunk for document references and assembles the
// graph. References resolve to known doc ids by longest match, so a
// citation of a sub-variant lands on its base document. Self references
// are dropped, and within one chunk only the first reference to a given
// target counts.
func Build(chunks []domain.Chunk, extractor ReferenceExtractor) *Graph {
	docIDSet := make(map[string]struct{})
	for _, c := range chunks {
		docIDSet[c.DocID] = struct{}{}
	}
	// Longest first for longest-match resolution.
	allDocIDs := make([]string, 0, len(docIDSet))
	for id := range docIDSet {
		allDocIDs = append(allDocIDs, id)
	}
	sort.Slice(allDocIDs, func(i, j int) bool {
		if len(allDocIDs[i]) != len(allDocIDs[j]) {
			return len(allDocIDs[i]) > len(allDocIDs[j])
		}
		return allDocIDs[i] < allDocIDs[j]
	})

	type edgeKey struct{ from, to string }
	type edgeInfo struct {
		count  int
		chunks []string
	}
	edgeMap := make(map[edgeKey]*edgeInfo)

	for _, chunk := range chunks {
		refs := extractor.ExtractReferences(chunk.Text)
		seenTargets := make(map[string]struct{})

		for _, ref := range refs {
			target := resolveRef(ref, allDocIDs)
			if target == "" || target == chunk.DocID {
				continue
			}
			if _, dup := seenTargets[target]; dup {
				continue
			}
			seenTargets[target] = struct{}{}

			key := edgeKey{from: chunk.DocID, to: target}
			info, ok := edgeMap[key]
			if !ok {
				info = &edgeInfo{}
				edgeMap[key] = info
			}
			info.count++
			info.chunks = append(info.chunks, chunk.ID)
		}
	}

	keys := make([]edgeKey, 0, len(edgeMap))
	for k := range edgeMap {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].from != keys[j].from {
			return keys[i].from < keys[j].from
		}
		return keys[i].to < keys[j].to
	})

	outRefs := make(map[string][]string)
	inRefs := make(map[string][]string)
	edges := make([]Edge, 0, len(keys))
	for _, k := range keys {
		info := edgeMap[k]
		edges = append(edges, Edge{
			From:   k.from,
			To:     k.to,
			Count:  info.count,
			Chunks: info.chunks,
		})
		if !containsString(outRefs[k.from], k.to) {
			outRefs[k.from] = append(outRefs[k.from], k.to)
		}
		if !containsString(inRefs[k.to], k.from) {
			inRefs[k.to] = append(inRefs[k.to], k.from)
		}
	}

	nodes := make(map[string]*Node, len(docIDSet))
	for id := range docIDSet {
		nodes[id] = &Node{
			DocID:     id,
			OutRefs:   outRefs[id],
			InRefs:    inRefs[id],
			OutDegree: len(outRefs[id]),
			InDegree:  len(inRefs[id]),
		}
	}

	return &Graph{
		Nodes:      nodes,
		Edges:      edges,
		TotalNodes: len(nodes),
		TotalEdges: len(edges),
	}
}

// resolveRef maps a reference string onto a known doc id: either is a
// prefix of the other, longest known id wins.
func resolveRef(ref string, docIDsByLength []string) string {
	for _, docID := range docIDsByLength {
		if strings.HasPrefix(ref, docID) || strings.HasPrefix(docID, ref) {
			return docID
		}
	}
	return ""
}

// Neighbors expands from docID by breadth-first search up to depth hops.
// The origin is never part of the result, even through a cycle.
func (g *Graph) Neighbors(docID string, direction Direction, depth int) []string {
	if _, ok := g.Nodes[docID]; !ok {
		return nil
	}
	if depth < 1 {
		depth = 1
	}

	visited := map[string]struct{}{docID: {}}
	frontier := []string{docID}

	for hop := 0; hop < depth; hop++ {
		var next []string
		for _, current := range frontier {
			node, ok := g.Nodes[current]
			if !ok {
				continue
			}
			if direction == DirectionOut || direction == DirectionBoth {
				for _, ref := range node.OutRefs {
					if _, seen := visited[ref]; !seen {
						visited[ref] = struct{}{}
						next = append(next, ref)
					}
				}
			}
			if direction == DirectionIn || direction == DirectionBoth {
				for _, ref := range node.InRefs {
					if _, seen := visited[ref]; !seen {
						visited[ref] = struct{}{}
						next = append(next, ref)
					}
				}
			}
		}
		frontier = next
	}

	delete(visited, docID)
	result := make([]string, 0, len(visited))
	for id := range visited {
		result = append(result, id)
	}
	sort.Strings(result)
	return result
}

// Hubs returns the top-n most referenced documents by in-degree. Used to
// bias ranking toward authoritative sources independent of the query.
func (g *Graph) Hubs(topN int) []*Node {
	nodes := make([]*Node, 0, len(g.Nodes))
	for _, n := range g.Nodes {
		nodes = append(nodes, n)
	}
	sort.Slice(nodes, func(i, j int) bool {
		if nodes[i].InDegree != nodes[j].InDegree {
			return nodes[i].InDegree > nodes[j].InDegree
		}
		return nodes[i].DocID < nodes[j].DocID
	})
	if topN < len(nodes) {
		nodes = nodes[:topN]
	}
	return nodes
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
