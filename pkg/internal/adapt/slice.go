package adapt

// Array maps items with adapterFn. The result is never nil so that it encodes
// as an empty JSON array.
func Array[T, R any](items []T, adapterFn func(T) R) []R {
	elements := make([]R, 0, len(items))
	for _, item := range items {
		elements = append(elements, adapterFn(item))
	}
	return elements
}

func Filter[T any](items []T, keep func(T) bool) []T {
	var elements []T
	for _, item := range items {
		if keep(item) {
			elements = append(elements, item)
		}
	}
	return elements
}

// UniqueBy keeps the first item for every key, preserving order.
func UniqueBy[T any, K comparable](items []T, keyFn func(T) K) []T {
	seen := make(map[K]struct{}, len(items))
	elements := make([]T, 0, len(items))
	for _, item := range items {
		key := keyFn(item)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		elements = append(elements, item)
	}
	return elements
}
