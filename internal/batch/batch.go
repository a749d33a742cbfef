package batch

// Split returns consecutive slices of items holding at most size elements each.
// The returned slices share the backing array of items. A non-positive size
// yields a single batch with every item.
func Split[T any](items []T, size int) [][]T {
	if len(items) == 0 {
		return nil
	}
	if size <= 0 || size >= len(items) {
		return [][]T{items}
	}

	out := make([][]T, 0, (len(items)+size-1)/size)
	for start := 0; start < len(items); start += size {
		end := min(start+size, len(items))
		out = append(out, items[start:end:end])
	}
	return out
}

// Range is the 1-based, inclusive record range a batch covers.
type Range struct {
	Number int
	First  int
	Last   int
}

// Ranges describes each batch Split would produce for n items.
func Ranges(n, size int) []Range {
	if n <= 0 {
		return nil
	}
	if size <= 0 {
		size = n
	}
	var out []Range
	for start, num := 0, 1; start < n; start, num = start+size, num+1 {
		out = append(out, Range{Number: num, First: start + 1, Last: min(start+size, n)})
	}
	return out
}
