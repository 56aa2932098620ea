package training

import (
	"fmt"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/smith3v/kotoba-srs/pkg/queue"
	"github.com/smith3v/kotoba-srs/pkg/srs"
)

const ReviewCallbackPrefix = "t:grade:"

// Grades offered on the card keyboard.
var Grades = []srs.Quality{
	srs.QualityIncorrect,
	srs.QualityHard,
	srs.QualityGood,
	srs.QualityPerfect,
}

// BuildPrompt renders the card in MarkdownV2 with the answer side behind
// spoilers.
func BuildPrompt(card queue.StudyCard) string {
	item := card.Vocab
	var b strings.Builder
	if card.IsNew {
		b.WriteString("🆕 ")
	}
	fmt.Fprintf(&b, "*%s*", bot.EscapeMarkdown(item.Term))
	if item.Reading != "" && item.Reading != item.Term {
		fmt.Fprintf(&b, "\nReading: ||%s||", bot.EscapeMarkdown(item.Reading))
	}
	meaning := item.Meaning
	if len(item.Synonyms) > 0 {
		meaning = fmt.Sprintf("%s (%s)", meaning, strings.Join(item.Synonyms, ", "))
	}
	fmt.Fprintf(&b, "\nMeaning: ||%s||", bot.EscapeMarkdown(meaning))
	if item.ExampleJapanese != "" {
		fmt.Fprintf(&b, "\n\n_%s_", bot.EscapeMarkdown(item.ExampleJapanese))
		if item.ExampleEnglish != "" {
			fmt.Fprintf(&b, "\n||%s||", bot.EscapeMarkdown(item.ExampleEnglish))
		}
	}
	return b.String()
}

func BuildKeyboard(token string) *models.InlineKeyboardMarkup {
	row := make([]models.InlineKeyboardButton, 0, len(Grades))
	for _, q := range Grades {
		row = append(row, models.InlineKeyboardButton{
			Text:         GradeLabel(q),
			CallbackData: fmt.Sprintf("%s%s:%d", ReviewCallbackPrefix, token, int(q)),
		})
	}
	return &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{row},
	}
}

// ParseGradeCallback splits t:grade:<token>:<quality>.
func ParseGradeCallback(data string) (string, srs.Quality, bool) {
	if !strings.HasPrefix(data, ReviewCallbackPrefix) {
		return "", 0, false
	}
	parts := strings.Split(data, ":")
	if len(parts) != 4 || parts[0] != "t" || parts[1] != "grade" || parts[2] == "" {
		return "", 0, false
	}
	q, err := srs.ParseQuality(parts[3])
	if err != nil {
		return "", 0, false
	}
	return parts[2], q, true
}

func GradeLabel(q srs.Quality) string {
	switch {
	case q <= srs.QualityIncorrectEasy:
		return "Again"
	case q == srs.QualityHard:
		return "Hard"
	case q == srs.QualityGood:
		return "Good"
	default:
		return "Easy"
	}
}

// FormatResolvedPrompt appends the chosen grade and the next interval to a
// prompt that has been answered.
func FormatResolvedPrompt(prompt string, q srs.Quality, update srs.Update) string {
	label := fmt.Sprintf("%s · next in %s", GradeLabel(q), formatInterval(update.Interval))
	label = bot.EscapeMarkdown(label)
	if prompt == "" {
		return label
	}
	return prompt + "\n\n" + label
}

func formatInterval(days int) string {
	if days == 1 {
		return "1 day"
	}
	return fmt.Sprintf("%d days", days)
}
