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

// go/src/pbft/signer.go
package pbft

import (
	"fmt"

	"github.com/kasperdi/SPHINCSPLUS-golang/sphincs"

	params "github.com/aurumchain/go/src/core/sphincs/config"
)

// Signer produces and verifies signatures over 256-bit digests under a
// SPHINCS+ key pair (C2). sign is the only path that touches the
// private key; the underlying library's key-schedule computation
// depends only on the digest and the seed material, not on any
// data-dependent branch, so timing does not leak the private key.
type Signer struct {
	params *params.SPHINCSParameters
	sk     *sphincs.SPHINCS_SK
	pk     *sphincs.SPHINCS_PK
}

// NewSigner wraps an already-generated SPHINCS+ key pair.
func NewSigner(p *params.SPHINCSParameters, sk *sphincs.SPHINCS_SK, pk *sphincs.SPHINCS_PK) *Signer {
	return &Signer{params: p, sk: sk, pk: pk}
}

// GenerateSigner creates a fresh SHAKE256-192f-robust key pair and
// wraps it as a Signer, for demo wiring and tests.
func GenerateSigner() (*Signer, error) {
	p, err := params.NewSPHINCSParameters()
	if err != nil {
		return nil, fmt.Errorf("pbft: init sphincs parameters: %w", err)
	}
	sk, pk := sphincs.Spx_keygen(p.Params)
	if sk == nil || pk == nil {
		return nil, fmt.Errorf("pbft: sphincs key generation failed")
	}
	return NewSigner(p, sk, pk), nil
}

// PublicKey returns the serialized public key, suitable for
// distribution via the roster.
func (s *Signer) PublicKey() ([]byte, error) {
	return s.pk.SerializePK()
}

// Sign returns the SPHINCS+ signature over hash under the local
// private key.
func (s *Signer) Sign(hash Hash) (Sig, error) {
	sig := sphincs.Spx_sign(s.params.Params, hash[:], s.sk)
	if sig == nil {
		return nil, fmt.Errorf("pbft: sphincs signing failed")
	}
	return sig.SerializeSignature()
}

// Verify checks sig against hash under the public key pubKeyBytes.
func (s *Signer) Verify(pubKeyBytes []byte, sig Sig, hash Hash) bool {
	pk, err := sphincs.DeserializePK(s.params.Params, pubKeyBytes)
	if err != nil {
		return false
	}
	parsed, err := sphincs.DeserializeSignature(s.params.Params, sig)
	if err != nil {
		return false
	}
	return sphincs.Spx_verify(s.params.Params, hash[:], parsed, pk)
}
