package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseStatus(t *testing.T) {
	tests := []struct {
		in   string
		want Status
		ok   bool
	}{
		{"pending", StatusPending, true},
		{"approved", StatusApproved, true},
		{"rejected", StatusRejected, true},
		{"", "", false},
		{"Approved", "", false},
		{"archived", "", false},
	}

	for _, tc := range tests {
		got, ok := ParseStatus(tc.in)
		assert.Equal(t, tc.ok, ok, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}
}

func TestParseRole(t *testing.T) {
	for _, r := range []Role{RoleAdmin, RoleStudent, RoleParent, RoleGuest} {
		got, ok := ParseRole(string(r))
		assert.True(t, ok, r)
		assert.Equal(t, r, got)
	}

	_, ok := ParseRole("root")
	assert.False(t, ok)
}
