package selection

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExposure_RecordAndCount(t *testing.T) {
	exposure := NewExposure(4)

	exposure.Record(2)
	exposure.Record(2)
	exposure.Record(0)

	assert.Equal(t, 1, exposure.Count(0))
	assert.Equal(t, 0, exposure.Count(1))
	assert.Equal(t, 2, exposure.Count(2))
	assert.Equal(t, 3, exposure.Administrations())
}

func TestExposure_Reset(t *testing.T) {
	exposure := NewExposure(3)
	exposure.Record(0)
	exposure.Record(1)

	exposure.Reset()

	assert.Equal(t, []int{0, 0, 0}, exposure.Counts())
	assert.Zero(t, exposure.Administrations())
}

func TestExposure_CountsIsACopy(t *testing.T) {
	exposure := NewExposure(2)
	exposure.Record(0)

	counts := exposure.Counts()
	counts[0] = 99

	assert.Equal(t, 1, exposure.Count(0))
}
