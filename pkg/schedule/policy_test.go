package schedule

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPolicyFiresOnAlignedBoundary(t *testing.T) {
	p := NewPolicy(300, 5)
	assert.Equal(t, int64(75), p.Grace)

	assert.False(t, p.Due(1_700_000_150))
	assert.True(t, p.Due(1_700_000_100)) // 1_700_000_100 % 300 == 0
	assert.True(t, p.Due(1_700_000_104))
	assert.False(t, p.Due(1_700_000_105))
}

func TestPolicyNoDoubleFire(t *testing.T) {
	p := NewPolicy(30, 5)
	start := int64(1_700_000_010) // aligned on 30

	fired := 0
	// Poll four times a second across the threshold window.
	for tick := int64(0); tick < 20; tick++ {
		if p.Fire(start + tick/4) {
			fired++
		}
	}
	assert.Equal(t, 1, fired)
	assert.Equal(t, start, p.Last())

	assert.True(t, p.Fire(start+30))
}

func TestPolicyZeroPeriodNeverDue(t *testing.T) {
	var p *Policy
	assert.False(t, p.Due(0))
	assert.False(t, (&Policy{}).Due(0))
}
