// Package crossref links imported mail to the conversations it answers.
package crossref

import (
	"regexp"
	"strings"
)

// msgIDPattern matches an angle-bracketed Message-ID such as
// <abc.123@mail.example.com>.
var msgIDPattern = regexp.MustCompile(`<([^<>@\s]+@[^<>\s]+)>`)

// ExtractMessageIDs returns the Message-IDs in a header value, without the
// angle brackets, deduplicated in order of first occurrence. It is used for
// References headers that a strict parser rejects.
func ExtractMessageIDs(text string) []string {
	matches := msgIDPattern.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return nil
	}

	ids := make([]string, 0, len(matches))
	for _, m := range matches {
		ids = append(ids, m[1])
	}
	return dedupe(ids)
}

// ThreadRefs orders the ids a message answers so the closest ancestor comes
// first: In-Reply-To, then References from the newest entry back to the
// thread root.
func ThreadRefs(inReplyTo, references []string) []string {
	refs := make([]string, 0, len(inReplyTo)+len(references))
	refs = append(refs, inReplyTo...)
	for i := len(references) - 1; i >= 0; i-- {
		refs = append(refs, references[i])
	}

	for i, r := range refs {
		refs[i] = strings.Trim(r, "<> ")
	}
	return dedupe(refs)
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	var result []string
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		result = append(result, id)
	}
	return result
}
