package onboarding

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "CareOnboard/pkg/errors"
)

func TestDecodeState(t *testing.T) {
	st, err := DecodeState(StepSkills, []byte(`{"jobRole":"nurse","services":["care","care","meds"]}`))
	require.NoError(t, err)

	skills, ok := st.(Skills)
	require.True(t, ok)
	assert.Equal(t, "nurse", skills.JobRole)

	w := New(&fakeGate{}, nil)
	require.NoError(t, w.Set(st))
	assert.Equal(t, []string{"care", "meds"}, w.States().Skills.Services)
}

func TestDecodeStateRejects(t *testing.T) {
	_, err := DecodeState(StepPhone, []byte(`{"phoneNumber":"+919999999999"}`))
	assert.ErrorIs(t, err, pkgerrors.OnboardingStepInvalid)

	_, err = DecodeState(StepWages, []byte(`{"hours12":100,"bonus":5}`))
	assert.ErrorIs(t, err, pkgerrors.InvalidRequest)

	_, err = DecodeState(StepWages, []byte(`not json`))
	assert.ErrorIs(t, err, pkgerrors.InvalidRequest)
}
