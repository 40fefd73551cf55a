// Package messages holds the localized prompt text shown by the verification steps.
package messages

import (
	"golang.org/x/text/language"
)

// Key identifies a prompt string.
type Key string

const (
	PhoneNumberText   Key = "callback.phoneNumberText"
	PhoneNumber       Key = "callback.phoneNumber"
	CollectCodePrompt Key = "callback.collectCodePrompt"
	CodeHint          Key = "callback.codeHint"
)

// Bundle maps keys to text for one language.
type Bundle map[Key]string

var defaultBundles = map[language.Tag]Bundle{
	language.English: {
		PhoneNumberText:   "Enter the phone number we should send your verification code to.",
		PhoneNumber:       "Phone number",
		CollectCodePrompt: "We sent you a verification code. Enter it below.",
		CodeHint:          "Verification code",
	},
	language.German: {
		PhoneNumberText:   "Geben Sie die Telefonnummer ein, an die wir Ihren Bestätigungscode senden sollen.",
		PhoneNumber:       "Telefonnummer",
		CollectCodePrompt: "Wir haben Ihnen einen Bestätigungscode gesendet. Geben Sie ihn unten ein.",
		CodeHint:          "Bestätigungscode",
	},
	language.Polish: {
		PhoneNumberText:   "Podaj numer telefonu, na który mamy wysłać kod weryfikacyjny.",
		PhoneNumber:       "Numer telefonu",
		CollectCodePrompt: "Wysłaliśmy kod weryfikacyjny. Wpisz go poniżej.",
		CodeHint:          "Kod weryfikacyjny",
	},
}

// Catalog resolves prompt text for a preferred locale. The first tag is the fallback.
type Catalog struct {
	tags    []language.Tag
	bundles []Bundle
	matcher language.Matcher
}

// NewCatalog returns a catalog over the given bundles. fallback must be present in bundles.
func NewCatalog(fallback language.Tag, bundles map[language.Tag]Bundle) *Catalog {
	c := &Catalog{}
	c.tags = append(c.tags, fallback)
	c.bundles = append(c.bundles, bundles[fallback])
	for tag, b := range bundles {
		if tag == fallback {
			continue
		}
		c.tags = append(c.tags, tag)
		c.bundles = append(c.bundles, b)
	}
	c.matcher = language.NewMatcher(c.tags)
	return c
}

// Default returns the built-in English, German and Polish catalog with English as fallback.
func Default() *Catalog {
	return NewCatalog(language.English, defaultBundles)
}

// Lookup returns the text for key in the language best matching locale, an Accept-Language
// style value such as "pl-PL,pl;q=0.9". Unknown locales and missing keys fall back to the
// fallback language; a key missing there is returned verbatim.
func (c *Catalog) Lookup(locale string, key Key) string {
	idx := 0
	if locale != "" {
		if tags, _, err := language.ParseAcceptLanguage(locale); err == nil && len(tags) > 0 {
			_, idx, _ = c.matcher.Match(tags...)
		}
	}
	if s, ok := c.bundles[idx][key]; ok {
		return s
	}
	if s, ok := c.bundles[0][key]; ok {
		return s
	}
	return string(key)
}
