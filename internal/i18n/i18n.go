// Package i18n looks up localized message strings by (key, locale).
//
// Catalogs are flat YAML maps embedded from locales/. A lookup falls back
// to the default locale and then to the key itself.
package i18n

import (
	"embed"
	"fmt"
	"path"
	"strings"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

// Supported locales, as Discord names them.
const (
	Japanese  = "ja"
	Korean    = "ko"
	EnglishUS = "en-US"
	ChineseTW = "zh-TW"
)

// Locales lists every supported locale.
var Locales = []string{Japanese, Korean, EnglishUS, ChineseTW}

//go:embed locales/*.yaml
var catalogFS embed.FS

// Catalog holds all translations. It is read-only after Load.
type Catalog struct {
	fallback string
	messages map[string]map[string]string
	tags     []language.Tag
	matcher  language.Matcher
}

// Load parses the embedded catalogs. fallback must be a supported locale.
func Load(fallback string) (*Catalog, error) {
	c := &Catalog{
		fallback: fallback,
		messages: make(map[string]map[string]string, len(Locales)),
	}

	// the fallback goes first so the matcher prefers it on a tie
	ordered := []string{fallback}
	for _, l := range Locales {
		if l != fallback {
			ordered = append(ordered, l)
		}
	}

	for _, l := range ordered {
		data, err := catalogFS.ReadFile(path.Join("locales", l+".yaml"))
		if err != nil {
			return nil, fmt.Errorf("i18n: unsupported locale %q: %w", l, err)
		}
		var msgs map[string]string
		if err := yaml.Unmarshal(data, &msgs); err != nil {
			return nil, fmt.Errorf("i18n: parse catalog %s: %w", l, err)
		}
		c.messages[l] = msgs
		c.tags = append(c.tags, language.MustParse(l))
	}
	c.matcher = language.NewMatcher(c.tags)
	return c, nil
}

// Resolve maps a client locale to a supported one. Unknown locales get
// the fallback; regional variants match their base language when the
// match is unambiguous (en-GB -> en-US).
func (c *Catalog) Resolve(locale string) string {
	if _, ok := c.messages[locale]; ok {
		return locale
	}
	tag, err := language.Parse(locale)
	if err != nil {
		return c.fallback
	}
	_, idx, conf := c.matcher.Match(tag)
	if conf < language.High {
		return c.fallback
	}
	return c.tags[idx].String()
}

// Fallback returns the default locale.
func (c *Catalog) Fallback() string {
	return c.fallback
}

// T returns the message for key in locale.
func (c *Catalog) T(locale, key string) string {
	if msg, ok := c.messages[c.Resolve(locale)][key]; ok {
		return msg
	}
	if msg, ok := c.messages[c.fallback][key]; ok {
		return msg
	}
	return key
}

// Tf formats the message for key in locale with args.
func (c *Catalog) Tf(locale, key string, args ...any) string {
	return sprintf(c.T(locale, key), args...)
}

// All returns the message for key in every supported locale except the
// fallback, for registering localized command descriptions.
func (c *Catalog) All(key string) map[string]string {
	out := make(map[string]string, len(Locales))
	for l, msgs := range c.messages {
		if l == c.fallback {
			continue
		}
		if msg, ok := msgs[key]; ok {
			out[l] = msg
		}
	}
	return out
}

// Missing reports keys present in the fallback catalog but absent from
// another locale, formatted as "locale:key".
func (c *Catalog) Missing() []string {
	var out []string
	for key := range c.messages[c.fallback] {
		for l, msgs := range c.messages {
			if _, ok := msgs[key]; !ok {
				out = append(out, l+":"+key)
			}
		}
	}
	return out
}

// sprintf is a variable so vet does not treat catalog strings as constant
// format strings.
var sprintf = func(format string, args ...any) string {
	if len(args) == 0 || !strings.Contains(format, "%") {
		return format
	}
	return fmt.Sprintf(format, args...)
}
