package commands

import (
	"path/filepath"
	"regexp"
	"strings"

	"github.com/videohub/backend/internal/models"
)

var (
	hashtagPattern = regexp.MustCompile(`#([\p{L}\p{N}_]+)`)
	mentionPattern = regexp.MustCompile(`@([A-Za-z0-9_.]+)`)
)

// hashtags extracts the distinct lowercase #tags of content, in order of first use.
func hashtags(content string) []string {
	return distinctMatches(hashtagPattern, content)
}

// mentionedUsernames extracts the distinct lowercase @usernames of content.
func mentionedUsernames(content string) []string {
	return distinctMatches(mentionPattern, content)
}

func distinctMatches(re *regexp.Regexp, content string) []string {
	out := []string{}
	seen := map[string]bool{}
	for _, m := range re.FindAllStringSubmatch(content, -1) {
		tag := strings.ToLower(strings.TrimRight(m[1], "."))
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		out = append(out, tag)
	}
	return out
}

// mediaType classifies an attachment by file extension.
func mediaType(path string) models.MediaType {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".gif":
		return models.MediaGIF
	case ".mp4", ".mov", ".webm", ".mkv", ".avi", ".m4v":
		return models.MediaVideo
	default:
		return models.MediaImage
	}
}
