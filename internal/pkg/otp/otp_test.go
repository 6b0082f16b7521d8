package otp

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSHA256Codec_Generate(t *testing.T) {
	c := NewSHA256Codec()

	for range 100 {
		code, err := c.Generate()
		require.NoError(t, err)
		assert.Len(t, code, 6)
		for i := 0; i < len(code); i++ {
			assert.GreaterOrEqual(t, code[i], byte('0'))
			assert.LessOrEqual(t, code[i], byte('9'))
		}
	}
}

func TestSHA256Codec_Digest(t *testing.T) {
	c := NewSHA256Codec()

	got := c.Digest("123456")
	assert.Equal(t, "8d969eef6ecad3c29a3a629280e686cf0c3f5d5a86aff3ca12020c923adc6c92", got)
	assert.Equal(t, got, c.Digest("123456"))
	assert.NotEqual(t, got, c.Digest("123457"))
}

func TestSHA256Codec_Verify(t *testing.T) {
	c := NewSHA256Codec()
	digest := c.Digest("042019")

	tests := []struct {
		name string
		code string
		want bool
	}{
		{name: "matching code", code: "042019", want: true},
		{name: "wrong code", code: "042018", want: false},
		{name: "too short", code: "4201", want: false},
		{name: "too long", code: "0420190", want: false},
		{name: "non digit", code: "04201a", want: false},
		{name: "unicode digits", code: "٠٤٢٠١٩", want: false},
		{name: "empty", code: "", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Verify(digest, tt.code))
		})
	}
}

func TestSHA256Codec_VerifyRoundTrip(t *testing.T) {
	c := NewSHA256Codec()

	code, err := c.Generate()
	require.NoError(t, err)
	assert.True(t, c.Verify(c.Digest(code), code))
}

// Verify must take the same time whether a wrong digest diverges at the
// first byte, the middle, or the last. The digests below differ from the
// correct one only in where the first mismatching byte sits; measurements
// are interleaved round-robin so drift hits every variant equally, and the
// bound is loose enough to absorb scheduler noise.
func TestSHA256Codec_VerifyTimingIndependentOfMismatchOffset(t *testing.T) {
	if testing.Short() {
		t.Skip("timing measurement")
	}

	c := NewSHA256Codec()
	code := "042019"
	good := c.Digest(code)

	flip := func(s string, i int) string {
		b := []byte(s)
		if b[i] == 'a' {
			b[i] = 'b'
		} else {
			b[i] = 'a'
		}
		return string(b)
	}
	digests := []string{flip(good, 0), flip(good, len(good)/2), flip(good, len(good)-1)}

	const rounds = 5000
	totals := make([]time.Duration, len(digests))
	for range rounds {
		for i, digest := range digests {
			start := time.Now()
			ok := c.Verify(digest, code)
			totals[i] += time.Since(start)
			require.False(t, ok)
		}
	}

	fastest, slowest := totals[0], totals[0]
	for _, total := range totals[1:] {
		fastest = min(fastest, total)
		slowest = max(slowest, total)
	}
	assert.Less(t, float64(slowest)/float64(fastest), 3.0,
		"verify time varies with the mismatch position")
}
