package ui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/go-telegram/bot/models"
)

// Summary is the subset of learner settings shown on the home screen.
type Summary struct {
	DailyGoal      int
	MaxNewCards    int
	MaxReviewCards int
	Morning        bool
	Afternoon      bool
	Evening        bool
	TimezoneOffset int
	Level          int
}

func RenderHome(s Summary) (string, *models.InlineKeyboardMarkup, error) {
	goalData, err := BuildScreenCallback(ScreenGoal)
	if err != nil {
		return "", nil, err
	}
	newData, err := BuildScreenCallback(ScreenNew)
	if err != nil {
		return "", nil, err
	}
	reviewsData, err := BuildScreenCallback(ScreenReviews)
	if err != nil {
		return "", nil, err
	}
	slotsData, err := BuildScreenCallback(ScreenSlots)
	if err != nil {
		return "", nil, err
	}
	tzData, err := BuildScreenCallback(ScreenTimezone)
	if err != nil {
		return "", nil, err
	}
	levelData, err := BuildScreenCallback(ScreenLevel)
	if err != nil {
		return "", nil, err
	}
	closeData, err := BuildScreenCallback(ScreenClose)
	if err != nil {
		return "", nil, err
	}

	text := fmt.Sprintf(
		"Settings\n- Level: %s\n- Daily goal: %d\n- New cards per session: %d\n- Reviews per session: %d\n- Reminders: %s\n- Timezone: %s",
		formatLevel(s.Level),
		s.DailyGoal,
		s.MaxNewCards,
		s.MaxReviewCards,
		formatSlotSummary(s.Morning, s.Afternoon, s.Evening),
		formatOffset(s.TimezoneOffset),
	)

	keyboard := &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{
			{
				{Text: "Goal", CallbackData: goalData},
				{Text: "New cards", CallbackData: newData},
				{Text: "Reviews", CallbackData: reviewsData},
			},
			{
				{Text: "Reminders", CallbackData: slotsData},
				{Text: "Timezone", CallbackData: tzData},
				{Text: "Level", CallbackData: levelData},
			},
			{
				{Text: "Close", CallbackData: closeData},
			},
		},
	}

	return text, keyboard, nil
}

// RenderValue draws a numeric screen: step buttons, presets and back.
func RenderValue(screen Screen, current int) (string, *models.InlineKeyboardMarkup, error) {
	spec, ok := valueSpecs[screen]
	if !ok {
		return "", nil, errInvalidAction
	}
	decData, err := BuildAdjustCallback(screen, OpDec)
	if err != nil {
		return "", nil, err
	}
	incData, err := BuildAdjustCallback(screen, OpInc)
	if err != nil {
		return "", nil, err
	}
	backData, err := BuildScreenCallback(ScreenHome)
	if err != nil {
		return "", nil, err
	}

	text := fmt.Sprintf("%s\nCurrent value: %s", spec.Title, presetLabel(screen, current))

	rows := [][]models.InlineKeyboardButton{
		{
			{Text: fmt.Sprintf("-%d", spec.Step), CallbackData: decData},
			{Text: fmt.Sprintf("+%d", spec.Step), CallbackData: incData},
		},
	}
	var row []models.InlineKeyboardButton
	for _, preset := range spec.Presets {
		data, err := BuildSetCallback(screen, preset)
		if err != nil {
			return "", nil, err
		}
		row = append(row, models.InlineKeyboardButton{Text: presetLabel(screen, preset), CallbackData: data})
		if len(row) == 3 {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	rows = append(rows, []models.InlineKeyboardButton{{Text: "Back", CallbackData: backData}})

	return text, &models.InlineKeyboardMarkup{InlineKeyboard: rows}, nil
}

func RenderSlots(morning, afternoon, evening bool) (string, *models.InlineKeyboardMarkup, error) {
	morningData, err := BuildSlotToggleCallback(SlotMorning)
	if err != nil {
		return "", nil, err
	}
	afternoonData, err := BuildSlotToggleCallback(SlotAfternoon)
	if err != nil {
		return "", nil, err
	}
	eveningData, err := BuildSlotToggleCallback(SlotEvening)
	if err != nil {
		return "", nil, err
	}
	backData, err := BuildScreenCallback(ScreenHome)
	if err != nil {
		return "", nil, err
	}

	text := fmt.Sprintf(
		"Reminder slots\nMorning (08:00): %s\nAfternoon (13:00): %s\nEvening (20:00): %s",
		formatToggle(morning),
		formatToggle(afternoon),
		formatToggle(evening),
	)

	keyboard := &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{
			{
				{Text: toggleLabel("Morning", morning), CallbackData: morningData},
				{Text: toggleLabel("Afternoon", afternoon), CallbackData: afternoonData},
			},
			{
				{Text: toggleLabel("Evening", evening), CallbackData: eveningData},
			},
			{
				{Text: "Back", CallbackData: backData},
			},
		},
	}

	return text, keyboard, nil
}

func presetLabel(screen Screen, value int) string {
	switch screen {
	case ScreenTimezone:
		return formatOffset(value)
	case ScreenLevel:
		return formatLevel(value)
	default:
		return strconv.Itoa(value)
	}
}

func formatLevel(level int) string {
	if level <= 0 {
		return "all"
	}
	return fmt.Sprintf("N%d", level)
}

func formatOffset(offset int) string {
	return fmt.Sprintf("UTC%+d", offset)
}

func formatSlotSummary(morning, afternoon, evening bool) string {
	parts := []string{}
	if morning {
		parts = append(parts, "Morning")
	}
	if afternoon {
		parts = append(parts, "Afternoon")
	}
	if evening {
		parts = append(parts, "Evening")
	}
	if len(parts) == 0 {
		return "off"
	}
	return strings.Join(parts, ", ")
}

func formatToggle(enabled bool) string {
	if enabled {
		return "on"
	}
	return "off"
}

func toggleLabel(label string, enabled bool) string {
	if enabled {
		return fmt.Sprintf("%s ✅", label)
	}
	return fmt.Sprintf("%s ❌", label)
}
