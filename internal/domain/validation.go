package domain

import (
	"encoding/hex"
	"fmt"
	"time"

	"github.com/zeebo/blake3"
)

// ValidationRecord is one immutable entry in the validation audit trail.
// It is construct-only: fields are unexported and there is no mutation API.
// Records are created through NewValidationRecord, which snapshots the
// declaration values and seals them with an integrity hash.
type ValidationRecord struct {
	id            string
	declarationID string
	decision      Decision
	validatorID   string
	validatorRole string
	comment       string
	decidedAt     time.Time

	// Percentage snapshot at decision time.
	declaredPct    float64
	previousPct    float64
	incrementalPct float64

	hash string
}

// NewValidationRecord builds an audit record for a decision on the given
// declaration. The comment is mandatory (and length-checked by the caller)
// for rejections and correction requests.
func NewValidationRecord(id string, decl *ProgressDeclaration, decision Decision, validator Actor, comment string, decidedAt time.Time) (*ValidationRecord, error) {
	if decision.RequiresComment() && len(comment) < MinDecisionCommentLen {
		return nil, &CommentRequiredError{Decision: decision, Length: len(comment)}
	}
	if decidedAt.Before(decl.ExecutionDate) {
		return nil, &DateRangeError{Field: "validation_datetime", Value: decidedAt, Min: decl.ExecutionDate,
			Reason: "decision cannot predate the declared execution date"}
	}

	r := &ValidationRecord{
		id:             id,
		declarationID:  decl.ID,
		decision:       decision,
		validatorID:    validator.ID,
		validatorRole:  validator.Role,
		comment:        comment,
		decidedAt:      decidedAt.UTC(),
		declaredPct:    decl.DeclaredPct,
		previousPct:    decl.PreviousPct,
		incrementalPct: decl.IncrementalPct(),
	}
	r.hash = integrityHash(r.declarationID, r.decision, r.validatorID, r.decidedAt, r.declaredPct)
	return r, nil
}

// RehydrateValidationRecord reconstructs a record from persisted values.
// Reserved for the repository layer; it does not recompute the hash so that
// tampering stays detectable via Verify.
func RehydrateValidationRecord(id, declarationID string, decision Decision, validatorID, validatorRole, comment string, decidedAt time.Time, declaredPct, previousPct, incrementalPct float64, hash string) *ValidationRecord {
	return &ValidationRecord{
		id:             id,
		declarationID:  declarationID,
		decision:       decision,
		validatorID:    validatorID,
		validatorRole:  validatorRole,
		comment:        comment,
		decidedAt:      decidedAt,
		declaredPct:    declaredPct,
		previousPct:    previousPct,
		incrementalPct: incrementalPct,
		hash:           hash,
	}
}

func (r *ValidationRecord) ID() string              { return r.id }
func (r *ValidationRecord) DeclarationID() string   { return r.declarationID }
func (r *ValidationRecord) Decision() Decision      { return r.decision }
func (r *ValidationRecord) ValidatorID() string     { return r.validatorID }
func (r *ValidationRecord) ValidatorRole() string   { return r.validatorRole }
func (r *ValidationRecord) Comment() string         { return r.comment }
func (r *ValidationRecord) DecidedAt() time.Time    { return r.decidedAt }
func (r *ValidationRecord) DeclaredPct() float64    { return r.declaredPct }
func (r *ValidationRecord) PreviousPct() float64    { return r.previousPct }
func (r *ValidationRecord) IncrementalPct() float64 { return r.incrementalPct }
func (r *ValidationRecord) Hash() string            { return r.hash }

// Verify recomputes the integrity hash from the stored fields and reports
// whether it matches. A mismatch indicates accidental corruption of the
// audit trail; this is a checksum, not a cryptographic signature.
func (r *ValidationRecord) Verify() bool {
	return r.hash == integrityHash(r.declarationID, r.decision, r.validatorID, r.decidedAt, r.declaredPct)
}

// integrityHash seals the decision fields. blake3, hex, truncated to 32
// characters; enough to surface corruption during audit replay.
func integrityHash(declarationID string, decision Decision, validatorID string, decidedAt time.Time, declaredPct float64) string {
	payload := fmt.Sprintf("%s|%s|%s|%s|%.2f",
		declarationID, decision, validatorID, decidedAt.UTC().Format(time.RFC3339), declaredPct)
	sum := blake3.Sum256([]byte(payload))
	return hex.EncodeToString(sum[:])[:32]
}
