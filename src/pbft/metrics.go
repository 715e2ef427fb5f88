// MIT License
//
// Copyright (c) 2024 sphinx-core
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

package pbft

import (
	"github.com/prometheus/client_golang/prometheus"
)

// metrics bundles the engine's prometheus instrumentation. A nil
// *metrics is valid and every method is a no-op, so tests and
// single-node demos can skip registration entirely.
type metrics struct {
	preparesEmitted  prometheus.Counter
	votesReceived    *prometheus.CounterVec // labels: kind={sign,commit}
	viewChanges      prometheus.Counter
	messagesDropped  *prometheus.CounterVec // labels: reason
	sealLatency      prometheus.Histogram
	pendingSealStart map[string]int64
}

// newMetrics registers the engine's collectors against reg. Pass a
// fresh *prometheus.Registry per engine instance in tests to avoid
// duplicate-registration panics; pass prometheus.DefaultRegisterer in
// production.
func newMetrics(reg prometheus.Registerer, namespace string) *metrics {
	m := &metrics{
		preparesEmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pbft_prepares_emitted_total",
			Help:      "Number of PREPARE messages this replica has emitted as leader.",
		}),
		votesReceived: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pbft_votes_received_total",
			Help:      "Number of SIGN/COMMIT votes accepted into the local cache.",
		}, []string{"kind"}),
		viewChanges: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pbft_view_changes_total",
			Help:      "Number of view changes this replica has committed to.",
		}),
		messagesDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pbft_messages_dropped_total",
			Help:      "Number of inbound messages dropped, by reason.",
		}, []string{"reason"}),
		sealLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "pbft_seal_latency_seconds",
			Help:      "Time from the last consensus-timer reset (startup, block report or view-change timeout) to onSealGenerated firing.",
			Buckets:   prometheus.DefBuckets,
		}),
		pendingSealStart: make(map[string]int64),
	}

	if reg != nil {
		reg.MustRegister(m.preparesEmitted, m.votesReceived, m.viewChanges, m.messagesDropped, m.sealLatency)
	}

	return m
}

func (m *metrics) prepareEmitted() {
	if m == nil {
		return
	}
	m.preparesEmitted.Inc()
}

func (m *metrics) voteReceived(kind string) {
	if m == nil {
		return
	}
	m.votesReceived.WithLabelValues(kind).Inc()
}

func (m *metrics) viewChanged() {
	if m == nil {
		return
	}
	m.viewChanges.Inc()
}

func (m *metrics) dropped(reason string) {
	if m == nil {
		return
	}
	m.messagesDropped.WithLabelValues(reason).Inc()
}

func (m *metrics) observeSealLatencySeconds(seconds float64) {
	if m == nil {
		return
	}
	m.sealLatency.Observe(seconds)
}
