package utils

import "math/big"

func Must[T any](in T, err error) T {
	if err != nil {
		panic(err)
	}
	return in
}

// BigStrings renders a map of integers as decimal strings, which survive
// JSON consumers that parse numbers as float64.
func BigStrings[K comparable](in map[K]*big.Int) map[K]string {
	out := make(map[K]string, len(in))
	for k, v := range in {
		out[k] = v.String()
	}
	return out
}
