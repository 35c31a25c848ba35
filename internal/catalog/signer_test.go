// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package catalog

import (
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSigner_RoundTripAndExpiry(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	s := NewSigner("k", "https://cdn.example/media/", time.Hour)
	s.now = func() time.Time { return now }

	link, exp := s.Sign("adam_scott_1.mp4")
	assert.Equal(t, now.Add(time.Hour), exp)
	require.True(t, strings.HasPrefix(link, "https://cdn.example/media/adam_scott_1.mp4?"))

	u, err := url.Parse(link)
	require.NoError(t, err)
	assert.NoError(t, s.Verify("adam_scott_1.mp4", u.Query()))
	assert.ErrorIs(t, s.Verify("other.mp4", u.Query()), ErrSignatureInvalid)

	now = now.Add(2 * time.Hour)
	assert.ErrorIs(t, s.Verify("adam_scott_1.mp4", u.Query()), ErrSignatureExpired)
}

func TestSigner_TamperedExpiry(t *testing.T) {
	s := NewSigner("k", "", 0)
	link, _ := s.Sign("a.mp4")
	u, _ := url.Parse(link)
	q := u.Query()
	q.Set("exp", "99999999999")
	assert.ErrorIs(t, s.Verify("a.mp4", q), ErrSignatureInvalid)
}

func TestSigner_NoKeyMeansUnsigned(t *testing.T) {
	s := NewSigner("", "/media", 0)
	link, exp := s.Sign("a b.mp4")
	assert.Equal(t, "/media/a%20b.mp4", link)
	assert.True(t, exp.IsZero())
	assert.NoError(t, s.Verify("a b.mp4", url.Values{}))
}
