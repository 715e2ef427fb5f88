package pbft

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNilMetricsMethodsAreNoOps(t *testing.T) {
	var m *metrics
	// None of these must panic on a nil receiver.
	m.prepareEmitted()
	m.voteReceived("sign")
	m.viewChanged()
	m.dropped("send_failed")
	m.observeSealLatencySeconds(0.5)
}

func TestMetricsRecordAgainstRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := newMetrics(reg, "test")

	m.prepareEmitted()
	m.prepareEmitted()
	m.voteReceived("sign")
	m.viewChanged()
	m.dropped("send_failed")
	m.observeSealLatencySeconds(1.5)

	if got := testutil.ToFloat64(m.preparesEmitted); got != 2 {
		t.Fatalf("preparesEmitted = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.votesReceived.WithLabelValues("sign")); got != 1 {
		t.Fatalf("votesReceived{sign} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.viewChanges); got != 1 {
		t.Fatalf("viewChanges = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.messagesDropped.WithLabelValues("send_failed")); got != 1 {
		t.Fatalf("messagesDropped{send_failed} = %v, want 1", got)
	}
}
