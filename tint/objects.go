package tint

import (
	"math"
	"slices"
)

// NoOrigin marks objects that did not split off from a tracked object.
const NoOrigin = -1

// TrackedObject is the identity state of one Frame(t) object.
type TrackedObject struct {
	UID int
	// Frame(t+1) label the object continues as. 0 means the track ends.
	Next int
	// Number of consecutive earlier scans the object was observed in.
	Observations int
	// Uid of the object this one split off from, or NoOrigin.
	Origin int
}

// CurrentObjects is the identity state keyed by Frame(t) label.
type CurrentObjects map[int]TrackedObject

// Labels returns the Frame(t) labels in increasing order.
func (c CurrentObjects) Labels() []int {
	labels := make([]int, 0, len(c))
	for label := range c {
		labels = append(labels, label)
	}
	slices.Sort(labels)
	return labels
}

// UIDs returns the unique ids in label order.
func (c CurrentObjects) UIDs() []int {
	labels := c.Labels()
	uids := make([]int, len(labels))
	for i, label := range labels {
		uids[i] = c[label].UID
	}
	return uids
}

// Clone returns an independent copy.
func (c CurrentObjects) Clone() CurrentObjects {
	if c == nil {
		return nil
	}
	clone := make(CurrentObjects, len(c))
	for label, object := range c {
		clone[label] = object
	}
	return clone
}

// carried returns the surviving objects keyed by the label they continue as.
// Objects whose track ended are dropped.
func (c CurrentObjects) carried() map[int]TrackedObject {
	next := make(map[int]TrackedObject, len(c))
	for _, object := range c {
		if object.Next != 0 {
			next[object.Next] = object
		}
	}
	return next
}

// InitCurrentObjects starts identities from scratch after an empty scan: every
// object of frame1 receives a fresh uid and is pointed at its pair target.
func InitCurrentObjects(frame1 *LabelImage, pairs Pairs, counter *Counter) CurrentObjects {
	current := make(CurrentObjects, frame1.Count)
	for label := 1; label <= frame1.Count; label++ {
		current[label] = TrackedObject{
			UID:    counter.NextUID(),
			Next:   pairs.Target(label),
			Origin: NoOrigin,
		}
	}
	return current
}

// UpdateCurrentObjects carries identities forward. Objects of frame1 that
// continue a previous track keep its uid; the others are births and receive a
// fresh uid. Every object is pointed at its new pair target.
func UpdateCurrentObjects(frame1 *LabelImage, pairs Pairs, old CurrentObjects, counter *Counter, nearThresh float64) CurrentObjects {
	previous := old.carried()
	current := make(CurrentObjects, frame1.Count)
	births := make([]int, 0)
	for label := 1; label <= frame1.Count; label++ {
		if object, ok := previous[label]; ok {
			current[label] = TrackedObject{
				UID:          object.UID,
				Next:         pairs.Target(label),
				Observations: object.Observations + 1,
				Origin:       object.Origin,
			}
			continue
		}
		births = append(births, label)
	}
	if len(births) == 0 {
		return current
	}

	var objects [][]int
	if nearThresh > 0 && frame1.Count > 1 {
		objects = frame1.Objects()
	}
	origins := make([]int, len(births))
	for i, label := range births {
		origins[i] = NoOrigin
		if objects != nil {
			origins[i] = findOrigin(frame1, label, objects, current, nearThresh)
		}
	}
	for i, label := range births {
		current[label] = TrackedObject{
			UID:    counter.NextUID(),
			Next:   pairs.Target(label),
			Origin: origins[i],
		}
	}
	return current
}

// findOrigin returns the uid of the largest carried-forward object lying
// within nearThresh pixels of the newborn object and larger than it.
func findOrigin(frame1 *LabelImage, label int, objects [][]int, carried CurrentObjects, nearThresh float64) int {
	size := len(objects[label-1])
	best, bestSize := 0, size
	for other := range nearbyLabels(frame1, label, objects[label-1], nearThresh) {
		if _, ok := carried[other]; !ok {
			continue
		}
		otherSize := len(objects[other-1])
		if otherSize > bestSize || (otherSize == bestSize && best != 0 && other < best) {
			best, bestSize = other, otherSize
		}
	}
	if best == 0 {
		return NoOrigin
	}
	return carried[best].UID
}

// nearbyLabels returns the labels other than label with a pixel closer than
// thresh to any pixel of label.
func nearbyLabels(f *LabelImage, label int, pixels []int, thresh float64) map[int]struct{} {
	reach := int(math.Ceil(thresh))
	nearby := make(map[int]struct{})
	for _, idx := range pixels {
		row, col := idx/f.Cols, idx%f.Cols
		for r := maxInt(row-reach, 0); r <= minInt(row+reach, f.Rows-1); r++ {
			for c := maxInt(col-reach, 0); c <= minInt(col+reach, f.Cols-1); c++ {
				other := f.At(r, c)
				if other == 0 || other == label {
					continue
				}
				if math.Hypot(float64(r-row), float64(c-col)) < thresh {
					nearby[other] = struct{}{}
				}
			}
		}
	}
	return nearby
}
