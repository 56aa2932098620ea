package ui

import (
	"errors"
	"strconv"
	"strings"
)

const (
	CallbackPrefix     = "s:"
	MaxCallbackDataLen = 64
)

type Screen string

const (
	ScreenHome     Screen = "home"
	ScreenGoal     Screen = "goal"
	ScreenNew      Screen = "new"
	ScreenReviews  Screen = "rev"
	ScreenSlots    Screen = "slots"
	ScreenTimezone Screen = "tz"
	ScreenLevel    Screen = "lvl"
	ScreenClose    Screen = "close"
)

type Operation string

const (
	OpNone   Operation = ""
	OpInc    Operation = "inc"
	OpDec    Operation = "dec"
	OpSet    Operation = "set"
	OpToggle Operation = "toggle"
)

type Action struct {
	Screen Screen
	Op     Operation
	Value  int
}

// ValueSpec describes a numeric settings screen.
type ValueSpec struct {
	Title   string
	Step    int
	Min     int
	Max     int
	Presets []int
}

var valueSpecs = map[Screen]ValueSpec{
	ScreenGoal:     {Title: "Daily goal (cards)", Step: 5, Min: 0, Max: 500, Presets: []int{10, 20, 30, 50, 100}},
	ScreenNew:      {Title: "New cards per session", Step: 5, Min: 0, Max: 200, Presets: []int{0, 5, 10, 20, 50}},
	ScreenReviews:  {Title: "Reviews per session", Step: 10, Min: 0, Max: 1000, Presets: []int{20, 50, 100, 200, 500}},
	ScreenTimezone: {Title: "Timezone", Step: 1, Min: -12, Max: 14, Presets: []int{-8, -5, 0, 1, 3, 9}},
	ScreenLevel:    {Title: "JLPT level", Step: 1, Min: 1, Max: 5, Presets: []int{5, 4, 3, 2, 1}},
}

// Spec returns the bounds of a numeric screen.
func Spec(screen Screen) (ValueSpec, bool) {
	spec, ok := valueSpecs[screen]
	return spec, ok
}

var (
	errInvalidPrefix       = errors.New("invalid callback prefix")
	errInvalidAction       = errors.New("invalid callback action")
	errInvalidOperation    = errors.New("invalid callback operation")
	errInvalidValue        = errors.New("invalid callback value")
	errCallbackDataTooLong = errors.New("callback data too long")
)

const (
	SlotMorning   = 1
	SlotAfternoon = 2
	SlotEvening   = 3
)

func BuildScreenCallback(screen Screen) (string, error) {
	if _, err := parseScreen(string(screen)); err != nil {
		return "", err
	}
	return validateCallbackData(CallbackPrefix + string(screen))
}

func BuildAdjustCallback(screen Screen, op Operation) (string, error) {
	if _, ok := valueSpecs[screen]; !ok {
		return "", errInvalidAction
	}
	if op != OpInc && op != OpDec {
		return "", errInvalidOperation
	}
	return validateCallbackData(CallbackPrefix + string(screen) + ":" + string(op))
}

func BuildSetCallback(screen Screen, value int) (string, error) {
	spec, ok := valueSpecs[screen]
	if !ok {
		return "", errInvalidAction
	}
	if value < spec.Min || value > spec.Max {
		return "", errInvalidValue
	}
	return validateCallbackData(CallbackPrefix + string(screen) + ":" + string(OpSet) + ":" + strconv.Itoa(value))
}

func BuildSlotToggleCallback(slot int) (string, error) {
	if slot != SlotMorning && slot != SlotAfternoon && slot != SlotEvening {
		return "", errInvalidValue
	}
	return validateCallbackData(CallbackPrefix + string(ScreenSlots) + ":" + string(OpToggle) + ":" + strconv.Itoa(slot))
}

func ParseCallbackData(data string) (Action, error) {
	if data == "" {
		return Action{}, errInvalidAction
	}
	if len(data) > MaxCallbackDataLen {
		return Action{}, errCallbackDataTooLong
	}
	if !strings.HasPrefix(data, CallbackPrefix) {
		return Action{}, errInvalidPrefix
	}

	parts := strings.Split(data, ":")
	if len(parts) < 2 || parts[0] != "s" {
		return Action{}, errInvalidPrefix
	}
	screen, err := parseScreen(parts[1])
	if err != nil {
		return Action{}, err
	}

	switch len(parts) {
	case 2:
		return Action{Screen: screen, Op: OpNone}, nil
	case 3:
		return parseAdjustAction(screen, parts[2])
	case 4:
		switch Operation(parts[2]) {
		case OpSet:
			return parseSetAction(screen, parts[3])
		case OpToggle:
			return parseToggleAction(screen, parts[3])
		default:
			return Action{}, errInvalidOperation
		}
	default:
		return Action{}, errInvalidAction
	}
}

func validateCallbackData(data string) (string, error) {
	if data == "" {
		return "", errInvalidAction
	}
	if len(data) > MaxCallbackDataLen {
		return "", errCallbackDataTooLong
	}
	return data, nil
}

func parseAdjustAction(screen Screen, opPart string) (Action, error) {
	spec, ok := valueSpecs[screen]
	if !ok {
		return Action{}, errInvalidAction
	}
	switch Operation(opPart) {
	case OpInc:
		return Action{Screen: screen, Op: OpInc, Value: spec.Step}, nil
	case OpDec:
		return Action{Screen: screen, Op: OpDec, Value: -spec.Step}, nil
	default:
		return Action{}, errInvalidOperation
	}
}

func parseSetAction(screen Screen, valuePart string) (Action, error) {
	spec, ok := valueSpecs[screen]
	if !ok {
		return Action{}, errInvalidAction
	}
	if !isASCIIInt(valuePart, spec.Min < 0) {
		return Action{}, errInvalidValue
	}
	value, err := strconv.Atoi(valuePart)
	if err != nil {
		return Action{}, errInvalidValue
	}
	return Action{Screen: screen, Op: OpSet, Value: value}, nil
}

func parseToggleAction(screen Screen, valuePart string) (Action, error) {
	if screen != ScreenSlots {
		return Action{}, errInvalidAction
	}
	if !isASCIIInt(valuePart, false) {
		return Action{}, errInvalidValue
	}
	value, err := strconv.Atoi(valuePart)
	if err != nil {
		return Action{}, errInvalidValue
	}
	if value != SlotMorning && value != SlotAfternoon && value != SlotEvening {
		return Action{}, errInvalidValue
	}
	return Action{Screen: screen, Op: OpToggle, Value: value}, nil
}

func parseScreen(screenPart string) (Screen, error) {
	switch screen := Screen(screenPart); screen {
	case ScreenHome, ScreenGoal, ScreenNew, ScreenReviews, ScreenSlots, ScreenTimezone, ScreenLevel, ScreenClose:
		return screen, nil
	default:
		return "", errInvalidAction
	}
}

func isASCIIInt(value string, signed bool) bool {
	if value == "" {
		return false
	}
	start := 0
	if signed && value[0] == '-' {
		if len(value) == 1 {
			return false
		}
		start = 1
	}
	for i := start; i < len(value); i++ {
		if value[i] < '0' || value[i] > '9' {
			return false
		}
	}
	return true
}
