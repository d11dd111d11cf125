package validation

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/templui/secondbrain/internal/model"
)

const (
	MaxTitleLength = 200
	MaxTags        = 10
)

var (
	youtubeLinkPattern = regexp.MustCompile(`^(https?://)?(www\.)?(youtube\.com|youtu\.be)/.+$`)
	tweetLinkPattern   = regexp.MustCompile(`^(https?://)?(www\.)?(twitter\.com|x\.com)/.+$`)
)

// ValidateTitle checks the trimmed title is 1..200 characters.
func ValidateTitle(title string) error {
	n := utf8.RuneCountInString(strings.TrimSpace(title))
	if n < 1 || n > MaxTitleLength {
		return fmt.Errorf("title must be between 1 and %d characters", MaxTitleLength)
	}
	return nil
}

func ValidateContentType(t model.ContentType) error {
	if !t.Valid() {
		return fmt.Errorf("type must be one of %s, %s, %s, %s",
			model.ContentTypeDocument, model.ContentTypeTweet, model.ContentTypeYouTube, model.ContentTypeLink)
	}
	return nil
}

// ValidateLink checks link against the pattern for content type t.
// An empty link is only accepted for documents.
func ValidateLink(t model.ContentType, link string) error {
	if link == "" {
		if t.RequiresLink() {
			return errors.New("link is required for this content type")
		}
		return nil
	}

	switch t {
	case model.ContentTypeYouTube:
		if !youtubeLinkPattern.MatchString(link) {
			return errors.New("link must be a YouTube URL")
		}
	case model.ContentTypeTweet:
		if !tweetLinkPattern.MatchString(link) {
			return errors.New("link must be a Twitter or X URL")
		}
	default:
		if !isHTTPURL(link) {
			return errors.New("link must be a valid http(s) URL")
		}
	}

	return nil
}

func ValidateTagCount(tags []string) error {
	if len(tags) > MaxTags {
		return fmt.Errorf("at most %d tags are allowed", MaxTags)
	}
	return nil
}

func isHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
