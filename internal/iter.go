// Package internal holds small helpers shared by the LS8 packages.
package internal

import (
	"iter"
)

// Bits yields the positions of the set bits in value, lowest first.
func Bits(value uint8) iter.Seq[int] {
	return func(yield func(int) bool) {
		for n := range 8 {
			if (value>>n)&1 == 0 {
				continue
			}
			if !yield(n) {
				return
			}
		}
	}
}

// Concat2 concatenates multiple dual-value iterators into a single sequence.
func Concat2[K any, V any](seqs ...iter.Seq2[K, V]) iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		for _, seq := range seqs {
			for k, v := range seq {
				if !yield(k, v) {
					return
				}
			}
		}
	}
}
