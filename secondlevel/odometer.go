package secondlevel

import "iter"

// Combinations enumerates every way of picking one index per position,
// where position i has radices[i] choices. The first position turns fastest;
// when it rolls over it carries into the next one, like an odometer.
//
// The sequence is lazy and can be ranged over more than once. The yielded
// slice is reused between iterations and must not be modified; copy it to
// keep it.
// Nothing is yielded when radices is empty or any radix is below 1.
func Combinations(radices []int) iter.Seq[[]int] {
	return func(yield func([]int) bool) {
		if len(radices) == 0 {
			return
		}
		for _, r := range radices {
			if r < 1 {
				return
			}
		}

		counter := make([]int, len(radices))
		last := len(radices) - 1
		for counter[last] < radices[last] {
			if !yield(counter) {
				return
			}
			for i := range counter {
				counter[i]++
				if counter[i] == radices[i] && i < last {
					counter[i] = 0
					continue
				}
				break
			}
		}
	}
}

// CombinationCount returns how many combinations Combinations yields.
func CombinationCount(radices []int) int {
	if len(radices) == 0 {
		return 0
	}
	total := 1
	for _, r := range radices {
		if r < 1 {
			return 0
		}
		total *= r
	}
	return total
}
