package language

import "strings"

// 静态目录中所有语言使用的默认模型
const (
	DefaultTranscribeModel  = "azure_speech"
	DefaultTranslationModel = "gpt4o-mini"
	DefaultSummaryModel     = "gpt4o-mini"
)

// CatalogEntry 静态语言目录中的一项
type CatalogEntry struct {
	Code        string         `json:"code"`
	EnglishName string         `json:"english_name"`
	NativeName  string         `json:"native_name"`
	Region      string         `json:"region"`
	Voice       string         `json:"voice"`
	Models      ProviderConfig `json:"-"`
}

// Catalog is the static, read-only tier of provider resolution.
type Catalog struct {
	entries []CatalogEntry
	byCode  map[string]CatalogEntry
}

// NewCatalog builds a catalog; later duplicates of a code are ignored.
func NewCatalog(entries ...CatalogEntry) *Catalog {
	c := &Catalog{byCode: make(map[string]CatalogEntry, len(entries))}
	for _, e := range entries {
		if _, exists := c.byCode[e.Code]; exists {
			continue
		}
		c.byCode[e.Code] = e
		c.entries = append(c.entries, e)
	}
	return c
}

func entry(code, english, native, region, voice string) CatalogEntry {
	return CatalogEntry{
		Code:        code,
		EnglishName: english,
		NativeName:  native,
		Region:      region,
		Voice:       voice,
		Models: ProviderConfig{
			TranscribeModel:  DefaultTranscribeModel,
			TranslationModel: DefaultTranslationModel,
			SummaryModel:     DefaultSummaryModel,
		},
	}
}

// DefaultCatalog 部署时内置的语言目录
func DefaultCatalog() *Catalog {
	return NewCatalog(
		entry("ar-EG", "Arabic", "العربية", "Egypt", "ar-EG-SalmaNeural"),
		entry("ar-JO", "Arabic", "العربية", "Jordan", "ar-JO-TaimNeural"),
		entry("ar-SY", "Arabic", "العربية", "Syria", "ar-SY-AmanyNeural"),
		entry("ar-PS", "Arabic", "العربية", "Palestinian Authority", "ar-PS-SalmaNeural"),
		entry("en-GB", "English", "English", "United Kingdom", "en-GB-LibbyNeural"),
		entry("fr-FR", "French", "français", "France", "fr-FR-DeniseNeural"),
		entry("mk-MK", "Macedonian", "македонски", "North Macedonia", "mk-MK-MarijaNeural"),
		entry("ne-NP", "Nepali", "नेपाली", "Nepal", "ne-NP-HemkalaNeural"),
		entry("fa-IR", "Persian", "فارسی", "Iran", "fa-IR-DilaraNeural"),
		entry("ru-RU", "Russian", "русский", "Russia", "ru-RU-SvetlanaNeural"),
		entry("so-SO", "Somali", "Soomaali", "Somalia", "so-SO-UbaxNeural"),
		entry("tr-TR", "Turkish", "Türkçe", "Türkiye", "tr-TR-EmelNeural"),
		entry("uk-UA", "Ukrainian", "українська", "Ukraine", "uk-UA-PolinaNeural"),
		entry("ur-PK", "Urdu", "اردو", "Pakistan", "ur-PK-UzmaNeural"),
		entry("da-DK", "Danish", "Dansk", "Denmark", "da-DK-ChristelNeural"),
	)
}

// Lookup returns the entry for an exact code.
func (c *Catalog) Lookup(code string) (CatalogEntry, bool) {
	e, ok := c.byCode[strings.TrimSpace(code)]
	return e, ok
}

// Entries returns the entries in declaration order.
func (c *Catalog) Entries() []CatalogEntry {
	out := make([]CatalogEntry, len(c.entries))
	copy(out, c.entries)
	return out
}
