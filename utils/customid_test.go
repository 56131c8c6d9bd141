package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCustomIDRoundTrip(t *testing.T) {
	assert := assert.New(t)

	prefix, parts := ParseCustomID(TicketOpenID("panel2"))
	assert.Equal(TicketOpenPrefix, prefix)
	assert.Equal([]string{"panel2"}, parts)

	prefix, parts = ParseCustomID(TicketCloseID())
	assert.Equal(TicketClosePrefix, prefix)
	assert.Empty(parts)

	yes, no := CloseConfirmIDs("123", "abc")
	prefix, parts = ParseCustomID(yes)
	assert.Equal(CloseYesPrefix, prefix)
	assert.Equal([]string{"123", "abc"}, parts)
	prefix, _ = ParseCustomID(no)
	assert.Equal(CloseNoPrefix, prefix)

	prefix, parts = ParseCustomID(WizardControlID("yes", "u1", "c1"))
	assert.Equal(WizardConfirmPrefix, prefix)
	assert.Equal([]string{"yes", "u1", "c1"}, parts)

	prefix, parts = ParseCustomID(WizardControlID("restart", "u1", "c1"))
	assert.Equal(WizardRestartPrefix, prefix)
	assert.Equal([]string{"u1", "c1"}, parts)
}

func TestParseSnowflake(t *testing.T) {
	cases := map[string]string{
		"111":                 "111",
		"  222 ":              "222",
		"<@&333>":             "333",
		"<#444>":              "444",
		"<@!555>":             "555",
		"1234567890123456789": "1234567890123456789",
	}
	for in, want := range cases {
		got, err := ParseSnowflake(in)
		assert.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	for _, bad := range []string{"", "abc", "-5", "<@&abc>", "12.5"} {
		_, err := ParseSnowflake(bad)
		assert.Error(t, err, bad)
	}
}
