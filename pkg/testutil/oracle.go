package testutil

import (
	"testing"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"

	"impactx/internal/oracle/signature"
	id "impactx/pkg/domain"
)

// OracleKey is a throwaway oracle identity for tests.
type OracleKey struct {
	ID   id.OracleID
	priv *secp256k1.PrivateKey
}

func NewOracleKey(t testing.TB) OracleKey {
	t.Helper()
	priv, err := secp256k1.GeneratePrivateKey()
	if err != nil {
		t.Fatalf("generate oracle key: %v", err)
	}
	return OracleKey{ID: signature.OracleIDFor(priv.PubKey()), priv: priv}
}

// Sign returns a valid vote signature for this oracle.
func (k OracleKey) Sign(proofID id.ProofID, vote bool) []byte {
	return signature.Sign(k.priv, proofID, vote)
}
