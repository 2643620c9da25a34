package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizePrice(t *testing.T) {
	cases := map[string]string{
		"12":          "12.00",
		"12.5":        "12.50",
		"12.499":      "12.50",
		"0":           "0.00",
		" 7 ":         "7.00",
		"1.005":       "1.01",
		"0.125":       "0.13",
		"2.675":       "2.68",
		"99999999.99": "99999999.99",
	}
	for in, want := range cases {
		got, err := NormalizePrice(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	for _, in := range []string{"cheap", "", "-1", "-0.01", "100000000", "99999999.995", "1e9"} {
		_, err := NormalizePrice(in)
		assert.Error(t, err, in)
	}
}

func TestPatchEmpty(t *testing.T) {
	title := "x"
	assert.True(t, MenuPatch{}.Empty())
	assert.False(t, MenuPatch{Title: &title}.Empty())
	assert.True(t, SubmenuPatch{}.Empty())
	assert.True(t, DishPatch{}.Empty())
	assert.False(t, DishPatch{Price: &title}.Empty())
}
