package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRuleViolationsMatchCategory(t *testing.T) {
	for _, err := range []error{
		ErrAlreadyMember,
		ErrPaymentNotCompleted,
		ErrLocationNotRegistered,
		ErrEvidenceAlreadySubmitted,
		ErrLocationAlreadyRegistered,
	} {
		assert.True(t, errors.Is(err, ErrRuleViolation), "%v должна относиться к нарушениям правил", err)
		assert.False(t, errors.Is(err, ErrNotFound), "%v не должна относиться к not found", err)
	}
}

func TestKind_DistinguishesSubmissionFailures(t *testing.T) {
	wrapped := fmt.Errorf("submit evidence: %w", ErrEvidenceAlreadySubmitted)

	assert.Equal(t, "evidence_already_submitted", Kind(wrapped))
	assert.Equal(t, "payment_not_completed", Kind(ErrPaymentNotCompleted))
	assert.Equal(t, "location_not_registered", Kind(ErrLocationNotRegistered))
	assert.Equal(t, "challenge_not_found", Kind(fmt.Errorf("get: %w", ErrChallengeNotFound)))
	assert.Equal(t, "not_found", Kind(ErrNotFound))
	assert.Equal(t, "internal_error", Kind(errors.New("boom")))
}
