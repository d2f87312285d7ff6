package xstats

import (
	"fmt"

	"github.com/BlackCloud37/latency-test/pkg/xcommon"
)

// Stats aggregates measured latencies in microseconds, lost samples are only counted.
type Stats struct {
	Count uint64
	Sum   uint64
	Min   uint64
	Max   uint64
	Lost  uint64
}

func (s *Stats) Add(us uint64) {
	if s.Count == 0 || us < s.Min {
		s.Min = us
	}
	if us > s.Max {
		s.Max = us
	}
	s.Count++
	s.Sum += us
}

func (s *Stats) AddLost() {
	s.Lost++
}

func (s *Stats) AddSample(sample Sample) {
	if sample.Outcome == Lost {
		s.AddLost()
		return
	}
	s.Add(sample.Micros())
}

func (s *Stats) Merge(o Stats) {
	if o.Count > 0 {
		if s.Count == 0 || o.Min < s.Min {
			s.Min = o.Min
		}
		if o.Max > s.Max {
			s.Max = o.Max
		}
	}
	s.Count += o.Count
	s.Sum += o.Sum
	s.Lost += o.Lost
}

// Avg is the integer mean, 0 without samples.
func (s Stats) Avg() uint64 {
	return xcommon.SafeDivision(s.Sum, s.Count)
}

func (s Stats) String() string {
	return fmt.Sprintf("Result RTT/2 in microsecs: AVG(%d) MIN(%d) MAX(%d)", s.Avg(), s.Min, s.Max)
}
