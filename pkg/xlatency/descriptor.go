package xlatency

import (
	"sort"

	"github.com/BlackCloud37/latency-test/pkg/xnet"
	"github.com/BlackCloud37/latency-test/pkg/xstats"
)

// Descriptor addresses one connection of a run.
type Descriptor struct {
	Iface string // empty uses the routing default
	Addr  string
	ID    int
}

func (d Descriptor) conn(proto xnet.Protocol) xstats.Conn {
	return xstats.Conn{Proto: proto.Label(), Iface: d.Iface, Dest: d.Addr, ID: d.ID}
}

func (d Descriptor) dialArgs(p Params) xnet.DialArgs {
	return xnet.DialArgs{Iface: d.Iface, Addr: d.Addr, TOS: p.TOS}
}

// Expand turns interface -> destination -> repeat count into one descriptor
// per repetition, ids counting from 0 per destination. Order is deterministic.
func Expand(list map[string]map[string]int) []Descriptor {
	ifaces := make([]string, 0, len(list))
	for iface := range list {
		ifaces = append(ifaces, iface)
	}
	sort.Strings(ifaces)

	var descs []Descriptor
	for _, iface := range ifaces {
		dests := make([]string, 0, len(list[iface]))
		for dest := range list[iface] {
			dests = append(dests, dest)
		}
		sort.Strings(dests)
		for _, dest := range dests {
			for id := 0; id < list[iface][dest]; id++ {
				descs = append(descs, Descriptor{Iface: iface, Addr: dest, ID: id})
			}
		}
	}
	return descs
}
