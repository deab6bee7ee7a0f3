package textutil

import (
	"regexp"
	"slices"
	"strings"
)

// MaxTagLength bounds a single tag; longer runs are ignored
const MaxTagLength = 32

// tagRegex matches #tag, #my-tag, #tag_name and #tag123. A tag must start
// with a letter or digit so "##" and "#-" are not tags.
var tagRegex = regexp.MustCompile(`(?:^|[^\w#])#([\p{L}\p{N}][\p{L}\p{N}_-]*)`)

// PostTags returns the sorted, lower-cased, unique tags of a post body
func PostTags(body string) []string {
	seen := make(map[string]struct{})
	tags := []string{}

	for _, match := range tagRegex.FindAllStringSubmatch(body, -1) {
		tag := strings.ToLower(strings.TrimRight(match[1], "-_"))
		if tag == "" || len(tag) > MaxTagLength {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		tags = append(tags, tag)
	}

	slices.Sort(tags)
	return tags
}

// NormalizeTag turns user input like "#Shop" into the stored form "shop"
func NormalizeTag(tag string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(tag), "#"))
}
