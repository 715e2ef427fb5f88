package pbft

import "testing"

func TestSignerSignAndVerifyRoundTrip(t *testing.T) {
	signer, err := GenerateSigner()
	if err != nil {
		t.Fatalf("GenerateSigner: %v", err)
	}
	pub, err := signer.PublicKey()
	if err != nil {
		t.Fatalf("PublicKey: %v", err)
	}

	hash := mustHash(0x11)
	sig, err := signer.Sign(hash)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}

	if !signer.Verify(pub, sig, hash) {
		t.Fatal("Verify rejected a signature produced by the matching key over the same hash")
	}
}

func TestSignerVerifyRejectsTamperedHash(t *testing.T) {
	signer, err := GenerateSigner()
	if err != nil {
		t.Fatalf("GenerateSigner: %v", err)
	}
	pub, err := signer.PublicKey()
	if err != nil {
		t.Fatalf("PublicKey: %v", err)
	}

	sig, err := signer.Sign(mustHash(0x22))
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}

	if signer.Verify(pub, sig, mustHash(0x33)) {
		t.Fatal("Verify accepted a signature against a different hash than what was signed")
	}
}

func TestSignerVerifyRejectsWrongKey(t *testing.T) {
	signerA, err := GenerateSigner()
	if err != nil {
		t.Fatalf("GenerateSigner: %v", err)
	}
	signerB, err := GenerateSigner()
	if err != nil {
		t.Fatalf("GenerateSigner: %v", err)
	}
	pubB, err := signerB.PublicKey()
	if err != nil {
		t.Fatalf("PublicKey: %v", err)
	}

	hash := mustHash(0x44)
	sig, err := signerA.Sign(hash)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}

	if signerA.Verify(pubB, sig, hash) {
		t.Fatal("Verify accepted a signature under a public key that did not produce it")
	}
}
