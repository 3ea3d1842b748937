package domain

import (
	"github.com/stretchr/testify/assert"
	"testing"
)

func TestNormalizeCommand(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"!Command   ADD", "!command add"},
		{"  !me ", "!me"},
		{"keyword", "keyword"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeCommand(tt.in))
		})
	}
}

func TestCommand_Reindex(t *testing.T) {
	cmd := &Command{Responses: []Response{
		{ID: "c", Order: 7},
		{ID: "a", Order: 0},
		{ID: "b", Order: 3},
	}}

	cmd.Reindex()

	ids := make([]string, 0, len(cmd.Responses))
	for i, r := range cmd.Responses {
		ids = append(ids, r.ID)
		assert.Equal(t, i, r.Order)
	}
	assert.Equal(t, []string{"a", "b", "c"}, ids)
}

func TestCooldown_IsKeyword(t *testing.T) {
	assert.False(t, (&Cooldown{Key: "!gamble"}).IsKeyword())
	assert.True(t, (&Cooldown{Key: "kappa"}).IsKeyword())
}

func TestTier_Lists(t *testing.T) {
	tier := &Tier{UserIDs: []string{"1"}, ExcludeUserIDs: []string{"2"}}
	assert.True(t, tier.Includes("1"))
	assert.False(t, tier.Includes("2"))
	assert.True(t, tier.Excludes("2"))
}
