package validation

import (
	"net/url"
	"regexp"
	"strings"
)

const MaxPostLength = 280

var (
	usernameRe = regexp.MustCompile(`^[a-zA-Z0-9_]{4,15}$`)
	hashtagRe  = regexp.MustCompile(`#(\w+)`)
)

// IsValidUsername reports whether name matches the allowed pattern:
// letters, digits and underscores, 4-15 characters.
func IsValidUsername(name string) bool {
	return usernameRe.MatchString(name)
}

// IsValidWebsite accepts an empty string or an absolute http(s) URL.
func IsValidWebsite(raw string) bool {
	if raw == "" {
		return true
	}
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// ValidatePostContent checks that a post has either text within the length
// limit or media attached.
func ValidatePostContent(content string, mediaCount int) (bool, string) {
	if strings.TrimSpace(content) == "" && mediaCount == 0 {
		return false, "Post cannot be empty"
	}
	if len([]rune(content)) > MaxPostLength {
		return false, "Post cannot exceed 280 characters"
	}
	return true, ""
}

// ExtractHashtags returns the lower-cased hashtags found in content.
// Duplicates are kept; the store treats the list as display data.
func ExtractHashtags(content string) []string {
	matches := hashtagRe.FindAllStringSubmatch(content, -1)
	tags := make([]string, 0, len(matches))
	for _, m := range matches {
		tags = append(tags, strings.ToLower(m[1]))
	}
	return tags
}
