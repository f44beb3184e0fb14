package translate

import "unicode/utf8"

// itemOverhead approximates the quotes and separator each string adds to
// the encoded batch.
const itemOverhead = 4

// DefaultMaxBatchChars bounds the characters sent in one request.
const DefaultMaxBatchChars = 4000

// Cost is the budget one string consumes in a batch.
func Cost(s string) int {
	return utf8.RuneCountInString(s) + itemOverhead
}

// Batches groups items in order so that no batch exceeds max total cost.
// An item that alone exceeds max gets a batch of its own. Batches hold
// indices into items.
func Batches(items []string, max int) [][]int {
	if max <= 0 {
		max = DefaultMaxBatchChars
	}
	var (
		out     [][]int
		current []int
		used    int
	)
	for i, s := range items {
		c := Cost(s)
		if len(current) > 0 && used+c > max {
			out = append(out, current)
			current, used = nil, 0
		}
		current = append(current, i)
		used += c
	}
	if len(current) > 0 {
		out = append(out, current)
	}
	return out
}
