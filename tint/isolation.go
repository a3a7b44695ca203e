package tint

// isolation reports, for every object of primary, whether its footprint in a
// relaxed secondary labeling overlaps no other primary object. The secondary
// labeling thresholds the smoothed column maximum at isoThresh. Element i
// holds label i+1.
func isolation(primary *LabelImage, colMax *Image, isoThresh, isoSmooth float64) []bool {
	smooth := gaussianFilter(colMax, isoSmooth)
	on := make([]bool, len(smooth.Pix))
	for i, v := range smooth.Pix {
		on[i] = v > isoThresh
	}
	secondary := labelComponents(on, smooth.Rows, smooth.Cols)

	// primary labels found inside each secondary component
	members := make([]map[int]struct{}, secondary.Count+1)
	for idx, label := range primary.Labels {
		group := secondary.Labels[idx]
		if label == 0 || group == 0 {
			continue
		}
		if members[group] == nil {
			members[group] = make(map[int]struct{})
		}
		members[group][label] = struct{}{}
	}

	isolated := make([]bool, primary.Count)
	for i := range isolated {
		isolated[i] = true
	}
	for _, labels := range members {
		if len(labels) < 2 {
			continue
		}
		for label := range labels {
			isolated[label-1] = false
		}
	}
	return isolated
}
