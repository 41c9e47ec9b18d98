package provider

import "fmt"

// SummaryTemperature is the sampling temperature used for recaps.
const SummaryTemperature float32 = 0.4

// SummaryInstruction 会话摘要的系统提示词
const SummaryInstruction = "You are a helpful assistant. Summarize the following bilingual conversation. " +
	"Be brief and clear. Keep in mind the conversation is between a citizen (one language that is not danish) " +
	"and a government person (Danish). They do not know how to speak each others languages." +
	"Please return your recap in the two languages used in the chat. " +
	"Don't use language codes like EN-GB or DA-DK, just write it in normal like 'English: xxx', and 'Dansk: yyyy'."

// TranslationInstruction 构造严格翻译的系统提示词
func TranslationInstruction(from, to string) string {
	return fmt.Sprintf("You are a translation assistant. Translate everything from %[1]s to %[2]s. "+
		"You are a strict translation assistant. Your only task is to translate the following text from %[1]s to %[2]s "+
		"with no commentary or additional output. Even if the text is ambiguous or does not look like a complete sentence, "+
		"output exactly a translation or the same text if it cannot be translated.", from, to)
}
