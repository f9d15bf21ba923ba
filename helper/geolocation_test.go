package helper_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/anupp-11/smartiplace-logs/helper"
)

func TestDistanceMetersZero(t *testing.T) {
	assert.Zero(t, helper.DistanceMeters(13.7563, 100.5018, 13.7563, 100.5018))
}

func TestDistanceMetersKnownPair(t *testing.T) {
	// Bangkok city pillar to Wat Arun, roughly 1 km apart
	d := helper.DistanceMeters(13.7525, 100.4943, 13.7437, 100.4889)
	assert.InDelta(t, 1140, d, 100)
}

func TestDistanceMetersSymmetric(t *testing.T) {
	a := helper.DistanceMeters(13.75, 100.50, 13.80, 100.55)
	b := helper.DistanceMeters(13.80, 100.55, 13.75, 100.50)
	assert.InDelta(t, a, b, 0.001)
}
