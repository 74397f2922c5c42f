package index

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize_WorkedExamples(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"simple lowercase", "Asdf", "asdf"},
		{"collapses double space", "Asdf  a", "asdf a"},
		{"apostrophe elided not spaced", "Asdf  a'f", "asdf af"},
		{"punctuation becomes space", "Asdf  a.!f", "asdf a f"},
		{"leading/trailing trimmed", " Asdf  a.!f!", "asdf a f"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Normalize(tc.in))
		})
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []string{
		"Barack Hussein Obama",
		"  weird   Spacing!!  ",
		"O'Brien's Place",
		"",
		"already normal",
		"123 ABC xyz",
	}
	for _, in := range inputs {
		once := Normalize(in)
		twice := Normalize(once)
		assert.Equal(t, once, twice, "Normalize(Normalize(%q)) should equal Normalize(%q)", in, in)
	}
}

func TestNormalize_EmptyStaysEmpty(t *testing.T) {
	assert.Equal(t, "", Normalize(""))
	assert.Equal(t, "", Normalize("   "))
	assert.Equal(t, "", Normalize("'''"))
	assert.Equal(t, "", Normalize("!!!"))
}
