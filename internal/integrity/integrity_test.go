package integrity

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeEntryHashDeterministic(t *testing.T) {
	ts := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	a := ComputeEntryHash("tr-abc123def456", "student-1", "student", "ALLOW_PARTIAL", ts)
	b := ComputeEntryHash("tr-abc123def456", "student-1", "student", "ALLOW_PARTIAL", ts)
	assert.Equal(t, a, b)
	assert.True(t, strings.HasPrefix(a, "v1:"))
}

func TestComputeEntryHashFieldSensitivity(t *testing.T) {
	ts := time.Now()
	base := ComputeEntryHash("tr-1", "u-1", "teacher", "ALLOW_FULL", ts)

	assert.NotEqual(t, base, ComputeEntryHash("tr-2", "u-1", "teacher", "ALLOW_FULL", ts))
	assert.NotEqual(t, base, ComputeEntryHash("tr-1", "u-2", "teacher", "ALLOW_FULL", ts))
	assert.NotEqual(t, base, ComputeEntryHash("tr-1", "u-1", "student", "ALLOW_FULL", ts))
	assert.NotEqual(t, base, ComputeEntryHash("tr-1", "u-1", "teacher", "DENY", ts))
	assert.NotEqual(t, base, ComputeEntryHash("tr-1", "u-1", "teacher", "ALLOW_FULL", ts.Add(time.Second)))
}

func TestLengthPrefixingPreventsFieldBleed(t *testing.T) {
	// Concatenated field content is identical; the boundary differs.
	ts := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	a := ComputeEntryHash("tr-1x", "y-user", "admin", "DENY", ts)
	b := ComputeEntryHash("tr-1", "xy-user", "admin", "DENY", ts)
	assert.NotEqual(t, a, b)
}

func TestVerifyEntryHash(t *testing.T) {
	ts := time.Now()
	h := ComputeEntryHash("tr-1", "u-1", "admin", "ALLOW_FULL", ts)

	assert.True(t, VerifyEntryHash(h, "tr-1", "u-1", "admin", "ALLOW_FULL", ts))
	assert.False(t, VerifyEntryHash(h, "tr-1", "u-1", "admin", "DENY", ts))
	assert.False(t, VerifyEntryHash("deadbeef", "tr-1", "u-1", "admin", "ALLOW_FULL", ts))
	assert.False(t, VerifyEntryHash("", "tr-1", "u-1", "admin", "ALLOW_FULL", ts))
}

func TestBuildMerkleRoot(t *testing.T) {
	assert.Equal(t, "", BuildMerkleRoot(nil))
	assert.Equal(t, "leaf", BuildMerkleRoot([]string{"leaf"}))

	two := BuildMerkleRoot([]string{"a", "b"})
	require.NotEmpty(t, two)
	assert.NotEqual(t, two, BuildMerkleRoot([]string{"b", "a"}), "root must bind leaf order")

	three := BuildMerkleRoot([]string{"a", "b", "c"})
	assert.NotEqual(t, two, three)
	assert.Equal(t, three, BuildMerkleRoot([]string{"a", "b", "c"}))
}

func TestMerkleRootDetectsTamper(t *testing.T) {
	ts := time.Now()
	leaves := []string{
		ComputeEntryHash("tr-1", "u-1", "admin", "ALLOW_FULL", ts),
		ComputeEntryHash("tr-2", "u-2", "teacher", "ALLOW_PARTIAL", ts),
		ComputeEntryHash("tr-3", "u-3", "student", "DENY", ts),
	}
	root := BuildMerkleRoot(leaves)

	tampered := append([]string{}, leaves...)
	tampered[1] = ComputeEntryHash("tr-2", "u-2", "admin", "ALLOW_FULL", ts)
	assert.NotEqual(t, root, BuildMerkleRoot(tampered))
}
