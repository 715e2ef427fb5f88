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

// go/src/pbft/scheduler.go
package pbft

import (
	"time"

	logger "github.com/aurumchain/go/src/log"
)

// pollInterval bounds how long the worker waits for an inbound frame
// before running its per-tick housekeeping (timeout check, future-block
// drain), per §5's suspension points.
const pollInterval = 5 * time.Millisecond

// inboundFrame is a wire envelope paired with the transport-level
// sender identity it arrived under.
type inboundFrame struct {
	nodeID string
	raw    []byte
}

// SubmitFrame hands a raw envelope to the engine's worker. It never
// blocks: a full queue drops the frame, counts it under the queue_full
// drop reason and returns ErrQueueFull.
func (r *Replica) SubmitFrame(nodeID string, raw []byte) error {
	select {
	case r.inbound <- inboundFrame{nodeID: nodeID, raw: raw}:
		return nil
	default:
		r.metrics.dropped("queue_full")
		return ErrQueueFull
	}
}

// Start launches the single worker goroutine (§4.7, §5). The engine
// processes at most one frame or one housekeeping tick at a time; there
// is no additional internal concurrency.
func (r *Replica) Start() {
	r.wg.Add(1)
	go r.run()
}

// Stop signals the worker to exit and waits for it to do so.
func (r *Replica) Stop() {
	close(r.stopCh)
	r.wg.Wait()
}

func (r *Replica) run() {
	defer r.wg.Done()
	for {
		select {
		case <-r.stopCh:
			return
		case f := <-r.inbound:
			r.dispatchFrame(f)
		case <-time.After(pollInterval):
		}

		r.mu.Lock()
		r.checkTimeoutLocked()
		r.handleFutureBlockLocked()
		if time.Since(r.lastGC) >= r.cfg.KCollectInterval {
			r.collectGarbageLocked()
			r.lastGC = time.Now()
		}
		r.mu.Unlock()
	}
}

// dispatchFrame decodes a raw envelope, resolves its sender to a
// roster index, and routes it to the matching phase handler.
func (r *Replica) dispatchFrame(f inboundFrame) {
	env, err := DecodeEnvelope(f.raw)
	if err != nil {
		r.mu.Lock()
		r.metrics.dropped("malformed")
		r.mu.Unlock()
		logger.Warn("pbft: decode envelope from %s: %v", f.nodeID, err)
		return
	}
	env.SenderNode = f.nodeID

	r.mu.Lock()
	defer r.mu.Unlock()

	if idx := r.currentRoster.IndexOf(f.nodeID); idx >= 0 {
		env.SenderIdx = Idx(idx)
	} else if env.SenderIdx < 0 || int(env.SenderIdx) >= r.currentRoster.MinerCount() {
		r.metrics.dropped("unknown_sender")
		logger.Warn("pbft: dropping %s from unrecognized sender %s", env.Kind, f.nodeID)
		return
	}

	var err2 error
	switch env.Kind {
	case KindPrepareMsg:
		err2 = r.handlePrepareLocked(env)
	case KindSignMsg:
		err2 = r.handleSignLocked(env)
	case KindCommitMsg:
		err2 = r.handleCommitLocked(env)
	case KindViewChangeMsg:
		err2 = r.handleViewChangeLocked(env)
	default:
		r.metrics.dropped("malformed")
		logger.Warn("pbft: unknown message kind %d from %s", env.Kind, f.nodeID)
		return
	}
	if err2 != nil {
		logger.Debug("pbft: %s from %s: %v", env.Kind, f.nodeID, err2)
	}
}
