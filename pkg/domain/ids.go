package domain

import (
	"encoding/hex"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	dErrors "impactx/pkg/domain-errors"
)

// Typed identifiers keep campaign, proof and disbursement ids from being
// swapped at call sites. Construct them with the Parse* functions at trust
// boundaries; New* mint fresh ids inside the core.
type (
	CampaignID     uuid.UUID
	ProofID        uuid.UUID
	DisbursementID uuid.UUID
)

func NewCampaignID() CampaignID         { return CampaignID(uuid.New()) }
func NewProofID() ProofID               { return ProofID(uuid.New()) }
func NewDisbursementID() DisbursementID { return DisbursementID(uuid.New()) }

func ParseCampaignID(s string) (CampaignID, error) {
	u, err := parseUUID(s, "campaign_id")
	return CampaignID(u), err
}

func ParseProofID(s string) (ProofID, error) {
	u, err := parseUUID(s, "proof_id")
	return ProofID(u), err
}

func ParseDisbursementID(s string) (DisbursementID, error) {
	u, err := parseUUID(s, "disbursement_id")
	return DisbursementID(u), err
}

func (id CampaignID) String() string     { return uuid.UUID(id).String() }
func (id ProofID) String() string        { return uuid.UUID(id).String() }
func (id DisbursementID) String() string { return uuid.UUID(id).String() }

func (id CampaignID) IsNil() bool     { return uuid.UUID(id) == uuid.Nil }
func (id ProofID) IsNil() bool        { return uuid.UUID(id) == uuid.Nil }
func (id DisbursementID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

func (id CampaignID) MarshalText() ([]byte, error)     { return []byte(id.String()), nil }
func (id ProofID) MarshalText() ([]byte, error)        { return []byte(id.String()), nil }
func (id DisbursementID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }

func (id *CampaignID) UnmarshalText(b []byte) error {
	u, err := uuid.ParseBytes(b)
	*id = CampaignID(u)
	return err
}

func (id *ProofID) UnmarshalText(b []byte) error {
	u, err := uuid.ParseBytes(b)
	*id = ProofID(u)
	return err
}

func (id *DisbursementID) UnmarshalText(b []byte) error {
	u, err := uuid.ParseBytes(b)
	*id = DisbursementID(u)
	return err
}

func parseUUID(s, field string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, field+" is required")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.Wrap(err, dErrors.CodeInvalidInput, "invalid "+field)
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, field+" cannot be nil")
	}
	return u, nil
}

// OracleID is the hex encoding of an oracle's compressed secp256k1 public key.
// The registry treats it as the oracle's identity.
type OracleID string

const compressedPubKeyLen = 33

// ParseOracleID normalizes and validates a hex-encoded compressed public key.
func ParseOracleID(s string) (OracleID, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "oracle_id is required")
	}
	raw, err := hex.DecodeString(s)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInvalidInput, "oracle_id must be hex encoded")
	}
	if len(raw) != compressedPubKeyLen {
		return "", dErrors.New(dErrors.CodeInvalidInput, "oracle_id must be a compressed public key")
	}
	return OracleID(s), nil
}

func (id OracleID) String() string { return string(id) }
func (id OracleID) IsNil() bool    { return id == "" }

// PublicKey returns the raw key bytes. Only valid for ids built by ParseOracleID.
func (id OracleID) PublicKey() []byte {
	raw, _ := hex.DecodeString(string(id))
	return raw
}

// PartyID identifies a donor, an uploader or an NGO payout destination. The
// core never interprets it beyond equality; settlement rails resolve it.
type PartyID string

const maxPartyIDLen = 256

// ParsePartyID rejects empty, oversized, non-UTF8 and control-character input.
func ParsePartyID(s string) (PartyID, error) {
	if strings.TrimSpace(s) == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "party id is required")
	}
	if len(s) > maxPartyIDLen {
		return "", dErrors.New(dErrors.CodeInvalidInput, "party id is too long")
	}
	if !utf8.ValidString(s) {
		return "", dErrors.New(dErrors.CodeInvalidInput, "party id must be valid UTF-8")
	}
	for _, r := range s {
		if r < 0x20 || r == 0x7f {
			return "", dErrors.New(dErrors.CodeInvalidInput, "party id contains control characters")
		}
	}
	return PartyID(s), nil
}

func (p PartyID) String() string { return string(p) }

// ContentHash is the lowercase hex digest under which a proof artifact is
// reachable in the content-addressed store. SHA-256 and SHA-512 sizes are accepted.
type ContentHash string

// ParseContentHash validates and lowercases a hex digest.
func ParseContentHash(s string) (ContentHash, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "content hash is required")
	}
	raw, err := hex.DecodeString(s)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInvalidInput, "content hash must be hex encoded")
	}
	if len(raw) != 32 && len(raw) != 64 {
		return "", dErrors.New(dErrors.CodeInvalidInput, "content hash must be a 256 or 512 bit digest")
	}
	return ContentHash(s), nil
}

func (h ContentHash) String() string { return string(h) }
