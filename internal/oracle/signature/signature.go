// Package signature authenticates oracle votes. An oracle signs the BLAKE2b-256
// digest of a canonical vote message with the secp256k1 key whose compressed
// public half is its registry id.
package signature

import (
	"encoding/hex"
	"strings"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
	"golang.org/x/crypto/blake2b"

	id "impactx/pkg/domain"
	dErrors "impactx/pkg/domain-errors"
)

const messageVersion = "impactx-vote:v1"

// Message is the canonical byte string an oracle signs for one vote.
func Message(proofID id.ProofID, oracleID id.OracleID, vote bool) []byte {
	verdict := "no"
	if vote {
		verdict = "yes"
	}
	return []byte(strings.Join([]string{messageVersion, proofID.String(), oracleID.String(), verdict}, "|"))
}

// Digest hashes the canonical vote message.
func Digest(proofID id.ProofID, oracleID id.OracleID, vote bool) [32]byte {
	return blake2b.Sum256(Message(proofID, oracleID, vote))
}

// Verifier checks DER-encoded ECDSA signatures against the oracle id's key.
type Verifier struct{}

func NewVerifier() *Verifier {
	return &Verifier{}
}

// Verify returns CodeUnauthorizedOracle for any key, encoding or signature mismatch.
func (v *Verifier) Verify(proofID id.ProofID, oracleID id.OracleID, vote bool, sig []byte) error {
	if len(sig) == 0 {
		return dErrors.New(dErrors.CodeUnauthorizedOracle, "vote signature is required")
	}
	pub, err := secp256k1.ParsePubKey(oracleID.PublicKey())
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeUnauthorizedOracle, "oracle id is not a valid public key")
	}
	parsed, err := ecdsa.ParseDERSignature(sig)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeUnauthorizedOracle, "malformed vote signature")
	}
	digest := Digest(proofID, oracleID, vote)
	if !parsed.Verify(digest[:], pub) {
		return dErrors.New(dErrors.CodeUnauthorizedOracle, "vote signature does not match oracle key")
	}
	return nil
}

// OracleIDFor derives the registry id of a public key.
func OracleIDFor(pub *secp256k1.PublicKey) id.OracleID {
	return id.OracleID(hex.EncodeToString(pub.SerializeCompressed()))
}

// Sign produces the DER signature an oracle client submits with its vote.
func Sign(priv *secp256k1.PrivateKey, proofID id.ProofID, vote bool) []byte {
	digest := Digest(proofID, OracleIDFor(priv.PubKey()), vote)
	return ecdsa.Sign(priv, digest[:]).Serialize()
}
