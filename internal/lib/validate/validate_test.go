package validate

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUsername(t *testing.T) {
	v := New()

	tests := []struct {
		in string
		ok bool
	}{
		{"ali", true},
		{"sara_2024", true},
		{strings.Repeat("a", 50), true},
		{strings.Repeat("a", 51), false},
		{"ab", false},
		{"has space", false},
		{"dash-name", false},
		{"", false},
	}

	for _, tc := range tests {
		err := v.Var(tc.in, "username")
		assert.Equal(t, tc.ok, err == nil, tc.in)
	}
}

func TestPassword(t *testing.T) {
	v := New()

	tests := []struct {
		in string
		ok bool
	}{
		{"Passw0rd", true},
		{"Sh0rt", false},
		{"password1", false},
		{"PASSWORD1", false},
		{"Password", false},
	}

	for _, tc := range tests {
		err := v.Var(tc.in, "password")
		assert.Equal(t, tc.ok, err == nil, tc.in)
	}
}
