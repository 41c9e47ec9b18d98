package language

import (
	"strings"

	"golang.org/x/text/cases"
	xlang "golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// DisplayNames returns the English and native names of a locale, title-cased.
// Unparseable codes yield the code itself for both.
func DisplayNames(code string) (english, native string) {
	tag, err := xlang.Parse(strings.ReplaceAll(code, "_", "-"))
	if err != nil {
		return code, code
	}
	english = display.English.Tags().Name(tag)
	native = display.Self.Name(tag)
	if english == "" {
		english = code
	}
	if native == "" {
		native = code
	}
	english = cases.Title(xlang.English).String(english)
	native = cases.Title(tag).String(native)
	return english, native
}
