package tint

// labelComponents assigns labels to 4-connected components of on. Labels are
// numbered in raster order of each component's first pixel.
func labelComponents(on []bool, rows, cols int) *LabelImage {
	f := NewLabelImage(rows, cols)
	stack := make([]int, 0, 64)
	for start, isOn := range on {
		if !isOn || f.Labels[start] != 0 {
			continue
		}
		f.Count++
		label := f.Count
		f.Labels[start] = label
		stack = append(stack[:0], start)
		for len(stack) > 0 {
			idx := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			row, col := idx/cols, idx%cols
			neighbours := [4][2]int{{row - 1, col}, {row + 1, col}, {row, col - 1}, {row, col + 1}}
			for _, nb := range neighbours {
				if nb[0] < 0 || nb[0] >= rows || nb[1] < 0 || nb[1] >= cols {
					continue
				}
				nIdx := nb[0]*cols + nb[1]
				if on[nIdx] && f.Labels[nIdx] == 0 {
					f.Labels[nIdx] = label
					stack = append(stack, nIdx)
				}
			}
		}
	}
	return f
}

// clearSmallEchoes clears objects smaller than minSize pixels and compacts the
// remaining labels to 1..Count, preserving their order.
func clearSmallEchoes(f *LabelImage, minSize int) {
	sizes := f.Sizes()
	remap := make([]int, f.Count+1)
	next := 0
	for i, size := range sizes {
		if size >= minSize {
			next++
			remap[i+1] = next
		}
	}
	if next == f.Count {
		return
	}
	for idx, label := range f.Labels {
		f.Labels[idx] = remap[label]
	}
	f.Count = next
}
