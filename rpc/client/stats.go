package client

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/ValentinKolb/kvrpc/rpc/common"
	gometrics "github.com/rcrowley/go-metrics"
)

// OpStats summarizes the calls of one operation
type OpStats struct {
	Count int64
	Mean  time.Duration
	P99   time.Duration
	Max   time.Duration
}

// Stats is a snapshot of the statistics of a client session
type Stats struct {
	// Ops maps the operation name (PUT, GET, DELETE) to its call statistics
	Ops map[string]OpStats
	// Outcomes counts the calls per terminal outcome
	Outcomes map[Outcome]int64
}

// String returns a formatted summary of the statistics
func (s Stats) String() string {
	var sb strings.Builder

	ops := make([]string, 0, len(s.Ops))
	for op := range s.Ops {
		ops = append(ops, op)
	}
	sort.Strings(ops)

	sb.WriteString("\nCALLS\n")
	for _, op := range ops {
		st := s.Ops[op]
		sb.WriteString(fmt.Sprintf("  %-8s: %d calls, mean %s, p99 %s, max %s\n", op, st.Count, st.Mean, st.P99, st.Max))
	}

	sb.WriteString("\nOUTCOMES\n")
	for _, outcome := range []Outcome{OutcomeSucceeded, OutcomeLogicalError, OutcomeTransportError, OutcomeTimedOut} {
		sb.WriteString(fmt.Sprintf("  %-16s: %d\n", outcome, s.Outcomes[outcome]))
	}
	return sb.String()
}

// sessionStats records call durations and outcomes in a go-metrics registry
type sessionStats struct {
	registry gometrics.Registry
}

func newSessionStats() *sessionStats {
	return &sessionStats{registry: gometrics.NewRegistry()}
}

// record adds a completed call
func (s *sessionStats) record(op common.MessageType, start time.Time, outcome Outcome) {
	gometrics.GetOrRegisterTimer("call."+opName(op), s.registry).UpdateSince(start)
	gometrics.GetOrRegisterCounter("outcome."+outcome.String(), s.registry).Inc(1)
}

// snapshot returns the current statistics
func (s *sessionStats) snapshot() Stats {
	stats := Stats{
		Ops:      make(map[string]OpStats),
		Outcomes: make(map[Outcome]int64),
	}

	for _, op := range []common.MessageType{common.MsgTPut, common.MsgTGet, common.MsgTDelete} {
		timer, ok := s.registry.Get("call." + opName(op)).(gometrics.Timer)
		if !ok {
			continue
		}
		t := timer.Snapshot()
		stats.Ops[opName(op)] = OpStats{
			Count: t.Count(),
			Mean:  time.Duration(t.Mean()),
			P99:   time.Duration(t.Percentile(0.99)),
			Max:   time.Duration(t.Max()),
		}
	}

	for _, outcome := range []Outcome{OutcomeSucceeded, OutcomeLogicalError, OutcomeTransportError, OutcomeTimedOut} {
		if counter, ok := s.registry.Get("outcome." + outcome.String()).(gometrics.Counter); ok {
			stats.Outcomes[outcome] = counter.Count()
		}
	}
	return stats
}

// stop releases the resources of the registry
func (s *sessionStats) stop() {
	s.registry.Each(func(_ string, metric interface{}) {
		if timer, ok := metric.(gometrics.Timer); ok {
			timer.Stop()
		}
	})
	s.registry.UnregisterAll()
}
