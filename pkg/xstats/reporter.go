package xstats

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"

	"github.com/BlackCloud37/latency-test/pkg/xactor"
	"github.com/BlackCloud37/latency-test/pkg/xcommon"
	"github.com/BlackCloud37/latency-test/pkg/xlog"
	"go.uber.org/zap"
)

type ReporterArgs struct {
	Quiet   bool      // suppress per packet lines
	Out     io.Writer // defaults to stdout
	Metrics *Metrics  // optional
}

// ConnStats is the aggregate of one connection.
type ConnStats struct {
	Conn    Conn
	Stats   Stats
	Trimmed Trimmed
}

func (c ConnStats) String() string {
	return fmt.Sprintf("%s %s COUNT(%d) LOST(%d)", c.Conn, c.Stats, c.Stats.Count, c.Stats.Lost)
}

type Summary struct {
	Conns         []ConnStats // ordered by interface, destination, id
	Global        Stats
	GlobalTrimmed Trimmed
}

func tableRow(name string, s Stats, tr Trimmed) []string {
	return []string{
		name,
		strconv.FormatUint(s.Count, 10),
		strconv.FormatUint(s.Lost, 10),
		strconv.FormatUint(s.Avg(), 10),
		strconv.FormatUint(s.Min, 10),
		strconv.FormatUint(s.Max, 10),
		strconv.FormatUint(tr.P90, 10),
		strconv.FormatUint(tr.P95, 10),
		strconv.FormatUint(tr.P99, 10),
	}
}

// Print writes one line per connection, a table when there are several, and the global line.
func (s *Summary) Print(ctx context.Context, w io.Writer) {
	for _, c := range s.Conns {
		fmt.Fprintln(w, c)
	}
	if len(s.Conns) > 1 {
		keys := []string{"conn", "count", "lost", "avg(us)", "min(us)", "max(us)", "avg-90%(us)", "avg-95%(us)", "avg-99%(us)"}
		values := make([][]string, 0, len(s.Conns)+1)
		for _, c := range s.Conns {
			values = append(values, tableRow(c.Conn.String(), c.Stats, c.Trimmed))
		}
		values = append(values, tableRow("total", s.Global, s.GlobalTrimmed))
		xcommon.PrintTable(ctx, w, keys, values)
	}
	line := s.Global.String()
	if s.Global.Lost > 0 {
		line = fmt.Sprintf("%s LOST(%d)", line, s.Global.Lost)
	}
	fmt.Fprintln(w, line)
}

// Reporter serializes samples from every driver through one actor.
type Reporter struct {
	actor *xactor.Actor
}

func NewReporter(ctx context.Context, arg ReporterArgs) (*Reporter, error) {
	if arg.Out == nil {
		arg.Out = os.Stdout
	}
	actor, err := xactor.NewActor(ctx, &reporterState{
		quiet:   arg.Quiet,
		out:     arg.Out,
		metrics: arg.Metrics,
		conns:   make(map[Conn]*connState),
	})
	if err != nil {
		return nil, err
	}
	return &Reporter{actor: actor}, nil
}

// Record queues s, lines are printed in arrival order.
func (r *Reporter) Record(ctx context.Context, s Sample) error {
	return xactor.AsyncRequest(ctx, r.actor, &recordReq{sample: s})
}

// Summary returns the aggregates of every sample recorded before the call.
func (r *Reporter) Summary(ctx context.Context) (*Summary, error) {
	return xactor.SyncRequest[summaryReq, Summary](ctx, r.actor, &summaryReq{})
}

func (r *Reporter) Close(ctx context.Context) {
	r.actor.Close(ctx)
}

type recordReq struct {
	sample Sample
}

type summaryReq struct{}

type reporterState struct {
	quiet   bool
	out     io.Writer
	metrics *Metrics

	conns map[Conn]*connState
}

type connState struct {
	stats Stats
	us    []uint64 // every measured latency, for trimmed averages
}

func (st *reporterState) InitArg() xactor.ActorHandlerArgs {
	return xactor.ActorHandlerArgs{
		Syncs:  []xactor.SyncHandlerArgs{xactor.SyncHandlerWrap(st.summary)},
		Asyncs: []xactor.AsyncHandlerArgs{xactor.AsyncHandlerWrap(st.record)},
	}
}

func (st *reporterState) Name() string {
	return "reporter"
}

func (st *reporterState) Close(ctx context.Context) {
	total := st.total()
	xlog.Get(ctx).Debug("Reporter close.", zap.Uint64("measured", total.Count), zap.Uint64("lost", total.Lost))
}

// total merges every connection.
func (st *reporterState) total() Stats {
	var g Stats
	for _, cs := range st.conns {
		g.Merge(cs.stats)
	}
	return g
}

func (st *reporterState) record(ctx context.Context, req *recordReq) {
	s := req.sample
	cs, ok := st.conns[s.Conn]
	if !ok {
		cs = &connState{}
		st.conns[s.Conn] = cs
	}
	cs.stats.AddSample(s)
	if s.Outcome == Measured {
		cs.us = append(cs.us, s.Micros())
	}
	if st.metrics != nil {
		st.metrics.Observe(s)
	}
	if !st.quiet {
		fmt.Fprintln(st.out, s.line())
	}
}

func (st *reporterState) summary(ctx context.Context, req *summaryReq) (*Summary, error) {
	sum := &Summary{Global: st.total(), Conns: make([]ConnStats, 0, len(st.conns))}
	var all []uint64
	for c, cs := range st.conns {
		sum.Conns = append(sum.Conns, ConnStats{Conn: c, Stats: cs.stats, Trimmed: trim(cs.us)})
		all = append(all, cs.us...)
	}
	sum.GlobalTrimmed = trim(all)
	sort.Slice(sum.Conns, func(i, j int) bool {
		return sum.Conns[i].Conn.less(sum.Conns[j].Conn)
	})
	return sum, nil
}
