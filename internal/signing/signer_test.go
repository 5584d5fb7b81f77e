package signing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSign_KnownVector(t *testing.T) {
	payload := Sign(map[string]string{"token": "xyz"}, Secret, 1700000000)

	assert.Equal(t, "timestamp=1700000000&token=xyz", payload.Canonical)
	assert.Equal(t, "7D256560E14AB012BF1B42DE89AF61511A40285E", payload.Checkcode)
	assert.Equal(t,
		"timestamp=1700000000&token=xyz&checkcode=7D256560E14AB012BF1B42DE89AF61511A40285E",
		payload.Body)
	assert.Equal(t, int64(1700000000), payload.Timestamp)
}

func TestSign_Deterministic(t *testing.T) {
	fields := map[string]string{"b": "2", "a": "1", "c": "3"}

	first := Sign(fields, Secret, 1700000000)
	second := Sign(fields, Secret, 1700000000)

	assert.Equal(t, first, second)
}

func TestSign_TimestampSensitivity(t *testing.T) {
	fields := map[string]string{"token": "xyz"}

	first := Sign(fields, Secret, 1700000000)
	second := Sign(fields, Secret, 1700000001)

	assert.NotEqual(t, first.Checkcode, second.Checkcode)
	assert.Equal(t, "8D9AC41143A156E7D4D5E1919E8D2EDEC7DF6341", second.Checkcode)
}

func TestSign_TimestampOverwritten(t *testing.T) {
	// An incoming timestamp field must be replaced, not duplicated.
	payload := Sign(map[string]string{"note": "a b&c", "timestamp": "999"}, Secret, 1700000000)

	assert.Equal(t, "note=a%20b%26c&timestamp=1700000000", payload.Canonical)
	assert.Equal(t, "CF608AF108E9F2A9B763C5186AFA24EF0A745837", payload.Checkcode)
}

func TestSign_KeysSortedAscending(t *testing.T) {
	payload := Sign(map[string]string{
		"zulu":  "1",
		"alpha": "2",
		"mike":  "3",
	}, Secret, 1700000000)

	assert.Equal(t, "alpha=2&mike=3&timestamp=1700000000&zulu=1", payload.Canonical)
}

func TestSign_PercentEncoding(t *testing.T) {
	payload := Sign(map[string]string{"q": "a b+c/d?e=f"}, Secret, 1700000000)

	// Spaces must encode as %20, never "+".
	assert.Equal(t, "q=a%20b%2Bc%2Fd%3Fe%3Df&timestamp=1700000000", payload.Canonical)
	require.NotContains(t, payload.Canonical, "+")
}

func TestSign_EmptyFields(t *testing.T) {
	payload := Sign(nil, Secret, 1700000000)

	assert.Equal(t, "timestamp=1700000000", payload.Canonical)
	assert.NotEmpty(t, payload.Checkcode)
}
