package messages

import (
	"testing"

	"golang.org/x/text/language"
)

func TestLookup_Fallback(t *testing.T) {
	c := Default()
	want := defaultBundles[language.English][CodeHint]
	for _, locale := range []string{"", "ja-JP", "not a locale;;"} {
		if got := c.Lookup(locale, CodeHint); got != want {
			t.Errorf("Lookup(%q) = %q, want %q", locale, got, want)
		}
	}
}

func TestLookup_PreferredLocale(t *testing.T) {
	c := Default()
	if got, want := c.Lookup("pl-PL,pl;q=0.9,en;q=0.5", PhoneNumber), "Numer telefonu"; got != want {
		t.Errorf("Lookup(pl) = %q, want %q", got, want)
	}
	if got, want := c.Lookup("de-AT", CodeHint), "Bestätigungscode"; got != want {
		t.Errorf("Lookup(de-AT) = %q, want %q", got, want)
	}
}

func TestLookup_MissingKey(t *testing.T) {
	c := NewCatalog(language.English, map[language.Tag]Bundle{
		language.English: {PhoneNumber: "Phone"},
		language.French:  {},
	})
	if got := c.Lookup("fr", PhoneNumber); got != "Phone" {
		t.Errorf("Lookup(fr, PhoneNumber) = %q, want fallback %q", got, "Phone")
	}
	if got := c.Lookup("en", CodeHint); got != string(CodeHint) {
		t.Errorf("Lookup(en, CodeHint) = %q, want key verbatim", got)
	}
}
