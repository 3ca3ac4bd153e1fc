package whatsapp

import (
	"strings"

	"golang.org/x/text/cases"
)

// Group housekeeping lines WhatsApp injects into exports. English phrases
// are matched caselessly; Russian phrases are matched as written, since the
// app emits them with fixed casing.
var systemPhrasesEN = []string{
	"Messages and calls are end-to-end encrypted",
	"created group",
	"added",
	"removed",
	"left",
	"changed the subject",
	"changed this group's icon",
	"changed the group description",
	"deleted this group's icon",
	"changed their phone number",
	"joined using this group's invite link",
	"security code changed",
	"You're now an admin",
	"is now an admin",
	"disappeared",
	"turned on disappearing messages",
	"turned off disappearing messages",
}

var systemPhrasesRU = []string{
	"Сообщения и звонки защищены сквозным шифрованием",
	"создал(а) группу",
	"добавил",
	"удалил",
	"вышел",
	"покинул",
	"изменил тему",
	"изменил иконку группы",
	"изменил описание группы",
	"удалил иконку группы",
	"изменил номер телефона",
	"присоединился по ссылке",
	"код безопасности изменён",
	"теперь администратор",
	"включил исчезающие сообщения",
	"выключил исчезающие сообщения",
	"Подробнее",
}

var fold = cases.Fold()

var systemPhrasesENFolded = func() []string {
	out := make([]string, len(systemPhrasesEN))
	for i, p := range systemPhrasesEN {
		out[i] = fold.String(p)
	}
	return out
}()

// IsSystemMessage reports whether a sender/content pair is WhatsApp
// housekeeping rather than a participant message
func IsSystemMessage(sender, content string) bool {
	folded := fold.String(content)
	for _, p := range systemPhrasesENFolded {
		if strings.Contains(folded, p) {
			return true
		}
	}
	for _, p := range systemPhrasesRU {
		if strings.Contains(content, p) {
			return true
		}
	}

	senderFolded := fold.String(sender)
	return strings.TrimSpace(sender) == "" ||
		strings.Contains(senderFolded, "whatsapp") ||
		strings.Contains(senderFolded, "system")
}
