package tint

import (
	"math"
)

// Pairs maps Frame(t) labels to Frame(t+1) labels. Element i holds the target
// of label i+1; 0 means the object died.
type Pairs []int

// NewPairs creates a mapping where every one of n objects dies.
func NewPairs(n int) Pairs {
	return make(Pairs, n)
}

// Target returns the Frame(t+1) label paired with label, or 0.
func (p Pairs) Target(label int) int {
	if label < 1 || label > len(p) {
		return 0
	}
	return p[label-1]
}

// Matcher pairs objects between two consecutive labeled frames.
type Matcher struct {
	params Params
}

// NewMatcher creates a matcher with the given parameters.
func NewMatcher(params Params) *Matcher {
	return &Matcher{
		params: params,
	}
}

// Match pairs every object of frame1 with at most one object of frame2.
// record may be nil; it only scales the shift disagreement test. The second
// return value tallies which shift estimate each object's prediction used.
func (m *Matcher) Match(frame1, frame2 *Frame, globalShift *Vector, record *Record) (Pairs, [shiftCaseCount]int) {
	var tally [shiftCaseCount]int
	nobj1 := frame1.Labels.Count
	pairs := NewPairs(nobj1)
	if nobj1 == 0 || frame2.Labels.Count == 0 {
		return pairs, tally
	}

	extents1 := Extents(frame1.Labels)
	extents2 := Extents(frame2.Labels)

	edges := make([]candidateEdge, 0, nobj1)
	for _, extent := range extents1 {
		local := AmbientFlow(extent, frame1.Raw, frame2.Raw, m.params.FlowMargin)
		shift, shiftCase := CorrectShift(globalShift, local, record, m.params)
		tally[shiftCase]++
		predicted := extent.Center.Add(shift)
		for _, candidate := range m.findCandidates(predicted, extents2) {
			disparity := euclideanDistance(predicted, candidate.Center)
			if disparity > m.params.MaxDisparity {
				continue
			}
			edges = append(edges, candidateEdge{
				from:      extent.Label,
				to:        candidate.Label,
				disparity: disparity,
			})
		}
	}
	return resolvePairs(m.params.Algorithm, edges, nobj1, frame2.Labels.Count, m.params.MaxDisparity), tally
}

// findCandidates returns the objects whose center lies in the search window
// around the predicted center.
func (m *Matcher) findCandidates(predicted Point, extents []ObjectExtent) []ObjectExtent {
	candidates := make([]ObjectExtent, 0, 4)
	for _, extent := range extents {
		if math.Abs(extent.Center.Row-predicted.Row) <= m.params.SearchMargin &&
			math.Abs(extent.Center.Col-predicted.Col) <= m.params.SearchMargin {
			candidates = append(candidates, extent)
		}
	}
	return candidates
}
