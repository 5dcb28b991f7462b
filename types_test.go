package lockbox_test

import (
	"strings"
	"testing"

	"github.com/sagarc03/lockbox"
	"github.com/stretchr/testify/assert"
)

func TestIsValidTableName(t *testing.T) {
	tests := []struct {
		name  string
		input string
		valid bool
	}{
		{name: "simple name", input: "lockbox_items", valid: true},
		{name: "leading underscore", input: "_items", valid: true},
		{name: "digits after first char", input: "items2", valid: true},
		{name: "empty", input: "", valid: false},
		{name: "uppercase", input: "Items", valid: false},
		{name: "leading digit", input: "2items", valid: false},
		{name: "dash", input: "lockbox-items", valid: false},
		{name: "quote injection", input: `items"; drop table x; --`, valid: false},
		{name: "too long", input: strings.Repeat("a", 64), valid: false},
		{name: "max length", input: strings.Repeat("a", 63), valid: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.valid, lockbox.IsValidTableName(tt.input))
		})
	}
}

func TestTables_Validate(t *testing.T) {
	t.Run("valid tables", func(t *testing.T) {
		assert.NoError(t, lockbox.Tables{Items: "lockbox_items"}.Validate())
	})

	t.Run("empty items table", func(t *testing.T) {
		err := lockbox.Tables{}.Validate()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "cannot be empty")
	})

	t.Run("invalid items table", func(t *testing.T) {
		err := lockbox.Tables{Items: "Bad-Name"}.Validate()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "invalid items table name")
	})
}
