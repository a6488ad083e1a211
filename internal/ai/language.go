package ai

import (
	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// DefaultLanguage is used when no target language is configured.
const DefaultLanguage = "English"

// LanguageName turns a BCP-47 tag such as "de" or "pt-BR" into the English
// name used in translation prompts. Unparseable input is returned as is, so
// a configured "French" keeps working.
func LanguageName(tag string) string {
	if tag == "" {
		return DefaultLanguage
	}
	t, err := language.Parse(tag)
	if err != nil {
		return tag
	}
	if name := display.English.Tags().Name(t); name != "" {
		return name
	}
	return tag
}
