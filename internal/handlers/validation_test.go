package handlers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUsernamePattern(t *testing.T) {
	tests := []struct {
		username string
		valid    bool
	}{
		{username: "chef", valid: true},
		{username: "chef.julia+cook@home-1", valid: true},
		{username: "иван_повар", valid: true},
		{username: "José", valid: true},
		{username: "料理人", valid: true},
		{username: "bad name", valid: false},
		{username: "semi;colon", valid: false},
		{username: "slash/", valid: false},
		{username: "", valid: false},
	}

	for _, tt := range tests {
		t.Run(tt.username, func(t *testing.T) {
			assert.Equal(t, tt.valid, usernamePattern.MatchString(tt.username))
		})
	}
}
