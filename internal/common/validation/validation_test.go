package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidUsername(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name  string
		valid bool
	}{
		{"alice", true},
		{"al_1ce", true},
		{"ABCD", true},
		{"abc", false},
		{"", false},
		{"waytoolongusername", false},
		{"bad name", false},
		{"emoji😀name", false},
		{"dash-name", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.valid, IsValidUsername(tt.name), tt.name)
	}
}

func TestIsValidWebsite(t *testing.T) {
	t.Parallel()
	assert.True(t, IsValidWebsite(""))
	assert.True(t, IsValidWebsite("https://example.com"))
	assert.True(t, IsValidWebsite("http://example.com/path?q=1"))
	assert.False(t, IsValidWebsite("ftp://example.com"))
	assert.False(t, IsValidWebsite("not a url"))
	assert.False(t, IsValidWebsite("https://"))
}

func TestValidatePostContent(t *testing.T) {
	t.Parallel()

	ok, _ := ValidatePostContent("hello", 0)
	assert.True(t, ok)

	ok, msg := ValidatePostContent("   ", 0)
	assert.False(t, ok)
	assert.Equal(t, "Post cannot be empty", msg)

	// Media-only posts are allowed.
	ok, _ = ValidatePostContent("", 1)
	assert.True(t, ok)

	// Length counts runes, not bytes.
	ok, _ = ValidatePostContent(strings.Repeat("ы", MaxPostLength), 0)
	assert.True(t, ok)

	ok, msg = ValidatePostContent(strings.Repeat("a", MaxPostLength+1), 0)
	assert.False(t, ok)
	assert.Equal(t, "Post cannot exceed 280 characters", msg)
}

func TestExtractHashtags(t *testing.T) {
	t.Parallel()
	assert.Equal(t, []string{"golang", "redis"}, ExtractHashtags("shipping #Golang with #redis"))
	assert.Empty(t, ExtractHashtags("no tags here"))
	assert.Equal(t, []string{"dup", "dup"}, ExtractHashtags("#dup #dup"))
}
