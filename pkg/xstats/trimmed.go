package xstats

import (
	"sort"

	"github.com/BlackCloud37/latency-test/pkg/xcommon"
)

type latencySlice struct {
	data []uint64
}

func (ls *latencySlice) Len() int {
	return len(ls.data)
}

func (ls *latencySlice) Less(i, j int) bool {
	return ls.data[i] < ls.data[j]
}

func (ls *latencySlice) Swap(i, j int) {
	ls.data[i], ls.data[j] = ls.data[j], ls.data[i]
}

// Trimmed holds the average of the fastest 90, 95 and 99 percent of samples.
type Trimmed struct {
	P90 uint64
	P95 uint64
	P99 uint64
}

func trim(us []uint64) Trimmed {
	ls := &latencySlice{data: append([]uint64(nil), us...)}
	sort.Sort(ls)

	count := uint64(len(ls.data))
	count99, count95, count90 := count*99/100, count*95/100, count*90/100
	var sum99, sum95, sum90 uint64
	for i, v := range ls.data {
		n := uint64(i)
		if n < count99 {
			sum99 += v
		}
		if n < count95 {
			sum95 += v
		}
		if n < count90 {
			sum90 += v
		}
	}
	return Trimmed{
		P90: xcommon.SafeDivision(sum90, count90),
		P95: xcommon.SafeDivision(sum95, count95),
		P99: xcommon.SafeDivision(sum99, count99),
	}
}
