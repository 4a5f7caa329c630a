// Package i18n translates rendezvous' own user-facing messages.
//
// It wraps gotext. Catalogs are embedded from
// locales/<lang>/LC_MESSAGES/rendezvous.po and selected once by Init.
//
//	i18n.Init("") // LANGUAGE, LC_ALL, LC_MESSAGES, LANG
//	fmt.Println(i18n.T("--> updated %s ..."))
package i18n

import (
	"embed"
	"io/fs"
	"os"
	"sort"
	"strings"

	"github.com/leonelquinteros/gotext"
)

//go:embed all:locales
var locales embed.FS

const domain = "rendezvous"

var po *gotext.Locale

// Init selects the catalog for lang. An empty lang is detected from the
// environment, following GNU gettext precedence. Call it once at startup.
func Init(lang string) {
	if lang == "" {
		lang = detectLanguage()
	}
	po = gotext.NewLocaleFSWithPath(lang, locales, "locales")
	po.AddDomain(domain)
	po.SetDomain(domain)
}

// T translates msgid, returning it unchanged when no catalog or
// translation is available.
func T(msgid string) string {
	if po == nil {
		return msgid
	}
	return po.Get(msgid)
}

// N is the plural form of T.
func N(singular, plural string, n int) string {
	if po == nil {
		if n == 1 {
			return singular
		}
		return plural
	}
	return po.GetN(singular, plural, n)
}

// Languages lists the languages with an embedded catalog.
func Languages() []string {
	entries, err := fs.ReadDir(locales, "locales")
	if err != nil {
		return nil
	}
	var langs []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if _, err := fs.Stat(locales, "locales/"+e.Name()+"/LC_MESSAGES/"+domain+".po"); err == nil {
			langs = append(langs, e.Name())
		}
	}
	sort.Strings(langs)
	return langs
}

func detectLanguage() string {
	for _, env := range []string{"LANGUAGE", "LC_ALL", "LC_MESSAGES", "LANG"} {
		val := os.Getenv(env)
		if val == "" {
			continue
		}
		// LANGUAGE is a colon-separated preference list.
		if env == "LANGUAGE" {
			val, _, _ = strings.Cut(val, ":")
		}
		// ru_RU.UTF-8 -> ru_RU
		if idx := strings.IndexByte(val, '.'); idx >= 0 {
			val = val[:idx]
		}
		if val == "C" || val == "POSIX" || val == "" {
			continue
		}
		return val
	}
	return "en"
}
