package pbft

import (
	"testing"
	"time"
)

func TestSubmitFrameDropsWhenQueueFull(t *testing.T) {
	replica, _, _, _ := newSingleReplica(t)

	// The inbound channel is sized 256 and nothing is draining it since
	// Start was never called, so it can be driven to capacity directly.
	var err error
	for i := 0; i < 256; i++ {
		if err = replica.SubmitFrame("n1", []byte{byte(KindSignMsg)}); err != nil {
			t.Fatalf("SubmitFrame unexpectedly failed before the queue filled, at frame %d: %v", i, err)
		}
	}
	if err := replica.SubmitFrame("n1", []byte{byte(KindSignMsg)}); err != ErrQueueFull {
		t.Fatalf("SubmitFrame on a full queue = %v, want ErrQueueFull", err)
	}
}

func TestStartStopLifecycle(t *testing.T) {
	replica, _, _, _ := newSingleReplica(t)

	replica.Start()

	done := make(chan struct{})
	go func() {
		replica.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not return after signaling the worker to exit")
	}
}

func TestDispatchFrameDropsMalformedEnvelope(t *testing.T) {
	replica, _, _, _ := newSingleReplica(t)
	// Must not panic on garbage input; dispatchFrame logs and returns.
	replica.dispatchFrame(inboundFrame{nodeID: "n1", raw: []byte("not an envelope")})
}

func TestDispatchFrameDropsUnknownSender(t *testing.T) {
	replica, signer, _, _ := newSingleReplica(t)

	sig, err := signer.Sign(mustHash(1))
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	env := &Envelope{
		Kind:      KindSignMsg,
		SenderIdx: -1,
		Sign:      &Sign{Header: Header{HeightVal: 1, SigVal: sig}},
	}
	raw, err := EncodeEnvelope(env)
	if err != nil {
		t.Fatalf("EncodeEnvelope: %v", err)
	}
	// Must not panic when the sender node ID is not in the roster and
	// the envelope's own claimed index is out of range.
	replica.dispatchFrame(inboundFrame{nodeID: "stranger", raw: raw})
}
