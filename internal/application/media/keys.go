package media

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"math/big"
	"path"
	"strconv"
	"strings"
	"time"
)

const postSegment = "post"

// categoryAliases maps form field names to the stored category segment.
var categoryAliases = map[string]string{
	"social_media":    "social",
	"content_sharing": "content",
}

// NormalizeCategory resolves known synonyms. Unknown categories pass through.
func NormalizeCategory(category string) string {
	c := strings.TrimSpace(category)
	if alias, ok := categoryAliases[c]; ok {
		return alias
	}
	return c
}

// SubmissionPrefix is the folder holding all media of one submission.
func SubmissionPrefix(owner string, index int) string {
	return owner + "/" + strconv.Itoa(index) + "/"
}

// SubmissionKey builds {owner}/{index}/{category}/{name}.
func SubmissionKey(owner string, index int, category, name string) string {
	return SubmissionPrefix(owner, index) + NormalizeCategory(category) + "/" + name
}

// PostPrefix is the folder holding a company's post asset.
func PostPrefix(owner string) string {
	return owner + "/" + postSegment + "/"
}

// PostKey builds {owner}/post/post{ext}; there is one live post per owner.
func PostKey(owner, filename string) string {
	return PostPrefix(owner) + postSegment + Ext(filename)
}

// CategoryOf returns the category segment of a submission key, or "" when
// key does not follow the {owner}/{index}/{category}/{name} layout.
func CategoryOf(key string) string {
	parts := strings.Split(key, "/")
	if len(parts) < 4 {
		return ""
	}
	return parts[len(parts)-2]
}

// Ext returns the lowercased extension of filename including the dot.
func Ext(filename string) string {
	return strings.ToLower(path.Ext(path.Base(strings.ReplaceAll(filename, "\\", "/"))))
}

var suffixRange = big.NewInt(90000000)

// GenerateName returns YYYYMMDD_HHMMSS_<8 digits>.
func GenerateName(now time.Time) (string, error) {
	n, err := rand.Int(rand.Reader, suffixRange)
	if err != nil {
		return "", fmt.Errorf("generate media name: %w", err)
	}
	return fmt.Sprintf("%s_%d", now.Format("20060102_150405"), n.Int64()+10000000), nil
}

// EncodeKey turns an object key into an opaque URL-safe download token.
func EncodeKey(key string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(key))
}

// DecodeKey reverses EncodeKey. Padded tokens are accepted too.
func DecodeKey(token string) (string, error) {
	b, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(token, "="))
	if err != nil {
		return "", fmt.Errorf("decode media token: %w", err)
	}
	if len(b) == 0 {
		return "", fmt.Errorf("decode media token: empty key")
	}
	return string(b), nil
}
