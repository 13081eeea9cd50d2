package utils

func Map[T, R any](slice []T, mapper func(T, int) R) []R {
	ret := make([]R, len(slice))
	for i, t := range slice {
		ret[i] = mapper(t, i)
	}

	return ret
}

// UniqueAppend appends the items of add whose key is not already in dst or earlier in add.
// The appended items are returned as the second value
func UniqueAppend[T any, K comparable](dst, add []T, key func(T) K) ([]T, []T) {
	seen := make(map[K]struct{}, len(dst)+len(add))
	for _, t := range dst {
		seen[key(t)] = struct{}{}
	}

	start := len(dst)
	for _, t := range add {
		k := key(t)
		if _, ok := seen[k]; ok {
			continue
		}

		seen[k] = struct{}{}
		dst = append(dst, t)
	}

	return dst, dst[start:]
}
