package jwt_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/pos-api/pkg/jwt"
)

const secret = "test-secret"

func TestGenerateParse_RoundTrip(t *testing.T) {
	tok, err := jwt.Generate(secret, "user-1", "shop-1", "owner", "pos-api", 5)
	require.NoError(t, err)

	userID, shopID, role, err := jwt.Parse(secret, tok)
	require.NoError(t, err)
	assert.Equal(t, "user-1", userID)
	assert.Equal(t, "shop-1", shopID)
	assert.Equal(t, "owner", role)
}

func TestParse_WrongSecret(t *testing.T) {
	tok, err := jwt.Generate(secret, "user-1", "", "owner", "pos-api", 5)
	require.NoError(t, err)

	_, _, _, err = jwt.Parse("otro", tok)
	assert.Error(t, err)
}

func TestParse_Expired(t *testing.T) {
	tok, err := jwt.Generate(secret, "user-1", "", "owner", "pos-api", -1)
	require.NoError(t, err)

	_, _, _, err = jwt.Parse(secret, tok)
	assert.Error(t, err)
}

func TestParse_RejectsRefreshAsAccess(t *testing.T) {
	refresh, err := jwt.GenerateRefresh(secret, "user-1", "shop-1", "owner", "pos-api", 5)
	require.NoError(t, err)

	_, _, _, err = jwt.Parse(secret, refresh)
	assert.ErrorIs(t, err, jwt.ErrWrongTokenType)

	claims, err := jwt.ParseRefresh(secret, refresh)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, jwt.TypeRefresh, claims.Type)
}

func TestGenerate_EmptySecret(t *testing.T) {
	_, err := jwt.Generate("", "u", "", "owner", "pos-api", 5)
	assert.Error(t, err)
}
