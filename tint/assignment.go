package tint

import (
	"fmt"
	"strings"

	"github.com/arthurkushman/go-hungarian"
)

// MatchingAlgorithm is for algorithm type for resolving candidate edges into pairs
type MatchingAlgorithm uint16

const (
	// MatchingAlgorithmGreedy repeatedly commits the globally smallest remaining disparity
	MatchingAlgorithmGreedy MatchingAlgorithm = iota
	// MatchingAlgorithmHungarian uses the Hungarian algorithm (Kuhn-Munkres) for optimal assignment
	MatchingAlgorithmHungarian
)

func (a MatchingAlgorithm) String() string {
	switch a {
	case MatchingAlgorithmGreedy:
		return "greedy"
	case MatchingAlgorithmHungarian:
		return "hungarian"
	default:
		return fmt.Sprintf("MatchingAlgorithm(%d)", uint16(a))
	}
}

// ParseMatchingAlgorithm converts a name into a MatchingAlgorithm.
func ParseMatchingAlgorithm(name string) (MatchingAlgorithm, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "greedy", "":
		return MatchingAlgorithmGreedy, nil
	case "hungarian":
		return MatchingAlgorithmHungarian, nil
	default:
		return 0, fmt.Errorf("unknown matching algorithm %q", name)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (a MatchingAlgorithm) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *MatchingAlgorithm) UnmarshalText(text []byte) error {
	parsed, err := ParseMatchingAlgorithm(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// resolvePairs turns acceptable candidate edges into a one-to-one mapping.
func resolvePairs(algorithm MatchingAlgorithm, edges []candidateEdge, nobj1, nobj2 int, maxDisparity float64) Pairs {
	switch algorithm {
	case MatchingAlgorithmHungarian:
		return resolveHungarian(edges, nobj1, nobj2, maxDisparity)
	default:
		return resolveGreedy(edges, nobj1)
	}
}

// resolveGreedy commits the smallest remaining disparity edge first and
// removes both of its endpoints until no edges remain.
func resolveGreedy(edges []candidateEdge, nobj1 int) Pairs {
	pairs := NewPairs(nobj1)
	priorityQueue := make(disparityHeap, 0, len(edges))
	for _, edge := range edges {
		priorityQueue.Push(edge)
	}
	// We need to prevent double assignment of Frame(t+1) objects
	reserved := make(map[int]struct{})
	for priorityQueue.Len() > 0 {
		edge := priorityQueue.Pop()
		if pairs.Target(edge.from) != 0 {
			continue
		}
		if _, ok := reserved[edge.to]; ok {
			continue
		}
		pairs[edge.from-1] = edge.to
		reserved[edge.to] = struct{}{}
	}
	return pairs
}

// resolveHungarian solves the assignment optimally over the same edge set.
// Scores are maxDisparity+1-disparity so that every real edge beats padding.
func resolveHungarian(edges []candidateEdge, nobj1, nobj2 int, maxDisparity float64) Pairs {
	pairs := NewPairs(nobj1)
	if len(edges) == 0 {
		return pairs
	}
	size := maxInt(nobj1, nobj2)
	// Padding is done with 0.0 values (no edge)
	scores := make([][]float64, size)
	for i := range scores {
		scores[i] = make([]float64, size)
	}
	accepted := make(map[[2]int]struct{}, len(edges))
	for _, edge := range edges {
		scores[edge.from-1][edge.to-1] = maxDisparity + 1 - edge.disparity
		accepted[[2]int{edge.from, edge.to}] = struct{}{}
	}
	assignments := hungarian.SolveMax(scores)
	for row, rowMap := range assignments {
		for col := range rowMap {
			from, to := row+1, col+1
			if _, ok := accepted[[2]int{from, to}]; ok && from <= nobj1 {
				pairs[from-1] = to
			}
		}
	}
	return pairs
}
