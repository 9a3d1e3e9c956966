package util

import "iter"

// CollectErr drains a sequence of (item, error) pairs, stopping at the first error.
func CollectErr[T any](seq iter.Seq2[T, error]) (out []T, _ error) {
	for item, err := range seq {
		if err != nil {
			return out, err
		}
		out = append(out, item)
	}
	return out, nil
}
