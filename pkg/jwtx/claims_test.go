package jwtx

import (
	"encoding/json"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func signHS256(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()

	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return raw
}

func TestDecode(t *testing.T) {
	t.Parallel()

	raw := signHS256(t, jwt.MapClaims{
		"sub":            "kp_123",
		"org_code":       "org_abc",
		"permissions":    []string{"read:todos", "write:todos"},
		"exp":            1700000000,
		"email_verified": true,
		"feature_flags": map[string]any{
			"theme": map[string]any{"t": "s", "v": "dark"},
		},
		"nothing": nil,
	})

	claims, err := Decode(raw)
	require.NoError(t, err)

	require.Equal(t, "kp_123", claims.String("sub"))
	require.Equal(t, []string{"read:todos", "write:todos"}, claims.Strings("permissions"))

	exp, ok := claims["exp"].Number()
	require.True(t, ok)
	require.Equal(t, float64(1700000000), exp)

	verified, ok := claims["email_verified"].Bool()
	require.True(t, ok)
	require.True(t, verified)

	flags, ok := claims["feature_flags"].Object()
	require.True(t, ok)
	theme, ok := flags["theme"].Object()
	require.True(t, ok)
	v, _ := theme["v"].String()
	require.Equal(t, "dark", v)

	nothing, ok := claims.Get("nothing")
	require.True(t, ok)
	require.True(t, nothing.IsNull())

	_, ok = claims.Get("missing")
	require.False(t, ok)
}

func TestDecodeIgnoresSignature(t *testing.T) {
	t.Parallel()

	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "x"}).
		SignedString([]byte("a-key-the-decoder-never-sees"))
	require.NoError(t, err)

	claims, err := Decode(raw)
	require.NoError(t, err)
	require.Equal(t, "x", claims.String("sub"))
}

func TestDecodeMalformed(t *testing.T) {
	t.Parallel()

	for _, raw := range []string{"", "not-a-jwt", "a.b.c"} {
		_, err := Decode(raw)
		require.ErrorIs(t, err, ErrMalformed, "input %q", raw)
	}
}

func TestValueAccessorsRejectOtherKinds(t *testing.T) {
	t.Parallel()

	v := ValueOf("text")
	require.Equal(t, KindString, v.Kind())

	_, ok := v.Number()
	require.False(t, ok)
	_, ok = v.Bool()
	require.False(t, ok)
	_, ok = v.Array()
	require.False(t, ok)
	_, ok = v.Strings()
	require.False(t, ok)
	_, ok = v.Object()
	require.False(t, ok)
}

func TestValueJSONRoundTrip(t *testing.T) {
	t.Parallel()

	in := `{"a":[1,"two",true,null],"b":{"c":"d"}}`

	var c Claims
	require.NoError(t, json.Unmarshal([]byte(in), &c))

	arr, ok := c["a"].Array()
	require.True(t, ok)
	require.Len(t, arr, 4)
	require.Equal(t, KindNumber, arr[0].Kind())
	require.Equal(t, KindString, arr[1].Kind())
	require.Equal(t, KindBool, arr[2].Kind())
	require.Equal(t, KindNull, arr[3].Kind())

	out, err := json.Marshal(c)
	require.NoError(t, err)
	require.JSONEq(t, in, string(out))
	require.Equal(t, []string{"a", "b"}, c.Keys())
}
