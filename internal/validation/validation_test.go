package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssuesEmpty(t *testing.T) {
	issues := New()
	assert.True(t, issues.Empty())
	assert.NoError(t, issues.Err())
}

func TestRequire(t *testing.T) {
	issues := New()
	issues.Require("email", "")
	issues.Require("name", "   ")
	issues.Require("title", "ok")

	list := issues.List()
	require.Len(t, list, 2)
	assert.Equal(t, "email", list[0].Field)
	assert.Equal(t, "required", list[0].Message)
	assert.Equal(t, "name", list[1].Field)
}

func TestOneOf(t *testing.T) {
	issues := New()
	issues.OneOf("kind", "MOVIE", "MOVIE", "MUSIC")
	issues.OneOf("kind", "", "MOVIE", "MUSIC")
	assert.True(t, issues.Empty())

	issues.OneOf("kind", "GAME", "MOVIE", "MUSIC")
	list := issues.List()
	require.Len(t, list, 1)
	assert.Equal(t, "must be one of: MOVIE, MUSIC", list[0].Message)
}

func TestNumericAndLengthChecks(t *testing.T) {
	issues := New()
	issues.Positive("priceCents", 0)
	issues.Positive("priceCents", -5)
	issues.Positive("priceCents", 499)
	issues.MaxLen("title", "abcdef", 5)
	issues.MinLen("password", "ab", 8)
	issues.MinLen("password", "", 8)

	require.Len(t, issues.List(), 4)
}

func TestErrMessage(t *testing.T) {
	issues := New()
	issues.Require("email", "")
	issues.Add("tier", "unknown plan")

	err := issues.Err()
	require.Error(t, err)
	assert.Equal(t, "validation failed: email, tier", err.Error())
}
