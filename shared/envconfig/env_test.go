package envconfig

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestGetFallsBackWhenEmpty(t *testing.T) {
	t.Setenv("GAMIFY_TEST_VALUE", "")
	require.Equal(t, "fallback", Get("GAMIFY_TEST_VALUE", "fallback"))

	t.Setenv("GAMIFY_TEST_VALUE", "set")
	require.Equal(t, "set", Get("GAMIFY_TEST_VALUE", "fallback"))
}

func TestTypedGetters(t *testing.T) {
	t.Setenv("GAMIFY_TEST_INT", " 7 ")
	t.Setenv("GAMIFY_TEST_BOOL", "true")
	t.Setenv("GAMIFY_TEST_DURATION", "90s")
	t.Setenv("GAMIFY_TEST_LIST", "a, ,b,")

	n, err := GetInt("GAMIFY_TEST_INT", 1)
	require.NoError(t, err)
	require.Equal(t, 7, n)

	b, err := GetBool("GAMIFY_TEST_BOOL", false)
	require.NoError(t, err)
	require.True(t, b)

	d, err := GetDuration("GAMIFY_TEST_DURATION", time.Minute)
	require.NoError(t, err)
	require.Equal(t, 90*time.Second, d)

	require.Equal(t, []string{"a", "b"}, GetList("GAMIFY_TEST_LIST", nil))
	require.Equal(t, []string{"x"}, GetList("GAMIFY_TEST_MISSING", []string{"x"}))
}

func TestTypedGettersRejectGarbage(t *testing.T) {
	t.Setenv("GAMIFY_TEST_INT", "seven")
	_, err := GetInt("GAMIFY_TEST_INT", 1)
	require.Error(t, err)

	t.Setenv("GAMIFY_TEST_DURATION", "soon")
	_, err = GetDuration("GAMIFY_TEST_DURATION", time.Minute)
	require.Error(t, err)
}

func TestMustGetPanicsWhenUnset(t *testing.T) {
	t.Setenv("GAMIFY_TEST_REQUIRED", "")
	require.Panics(t, func() { MustGet("GAMIFY_TEST_REQUIRED") })
}

func TestValidate(t *testing.T) {
	type cfg struct {
		Port string `validate:"required"`
	}
	require.Error(t, Validate(cfg{}))
	require.NoError(t, Validate(cfg{Port: "8080"}))
}
