package pbft

import "testing"

func TestHashStringAndIsZero(t *testing.T) {
	var h Hash
	if !h.IsZero() {
		t.Fatal("zero-value Hash reports non-zero")
	}
	h[0] = 0xab
	h[31] = 0xcd
	if h.IsZero() {
		t.Fatal("non-zero Hash reports zero")
	}
	s := h.String()
	if len(s) != 64 {
		t.Fatalf("String() length = %d, want 64", len(s))
	}
	if s[:2] != "ab" || s[len(s)-2:] != "cd" {
		t.Fatalf("String() = %q, want to start with ab and end with cd", s)
	}
}

func TestKindString(t *testing.T) {
	cases := map[Kind]string{
		KindPrepareMsg:    "PREPARE",
		KindSignMsg:       "SIGN",
		KindCommitMsg:     "COMMIT",
		KindViewChangeMsg: "VIEWCHANGE",
		Kind(99):          "UNKNOWN",
	}
	for kind, want := range cases {
		if got := kind.String(); got != want {
			t.Errorf("Kind(%d).String() = %q, want %q", kind, got, want)
		}
	}
}

func TestEnvelopeKeyDistinguishesFields(t *testing.T) {
	base := envelopeKey(1, 10, 0, Hash{1})
	variants := []string{
		envelopeKey(2, 10, 0, Hash{1}),
		envelopeKey(1, 11, 0, Hash{1}),
		envelopeKey(1, 10, 1, Hash{1}),
		envelopeKey(1, 10, 0, Hash{2}),
	}
	for _, v := range variants {
		if v == base {
			t.Fatalf("envelopeKey collided with base key: %q", v)
		}
	}
	if envelopeKey(1, 10, 0, Hash{1}) != base {
		t.Fatal("envelopeKey is not deterministic for identical inputs")
	}
}

func TestHeaderSigningFieldsCoversAllButSignatures(t *testing.T) {
	h1 := &Header{HeightVal: 5, ViewVal: 2, IdxVal: 3, Timestamp: 100, BlockHashVal: Hash{9}}
	h2 := &Header{HeightVal: 5, ViewVal: 2, IdxVal: 3, Timestamp: 100, BlockHashVal: Hash{9}, SigVal: Sig{1, 2, 3}}
	if string(h1.signingFields()) != string(h2.signingFields()) {
		t.Fatal("signingFields must not depend on SigVal")
	}
	h3 := &Header{HeightVal: 6, ViewVal: 2, IdxVal: 3, Timestamp: 100, BlockHashVal: Hash{9}}
	if string(h1.signingFields()) == string(h3.signingFields()) {
		t.Fatal("signingFields must depend on HeightVal")
	}
}
