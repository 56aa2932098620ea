package ui

import (
	"strings"
	"testing"
)

func TestParseCallbackData(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Action
		wantErr bool
	}{
		{
			name:  "home",
			input: "s:home",
			want:  Action{Screen: ScreenHome, Op: OpNone, Value: 0},
		},
		{
			name:  "goal",
			input: "s:goal",
			want:  Action{Screen: ScreenGoal, Op: OpNone, Value: 0},
		},
		{
			name:  "close",
			input: "s:close",
			want:  Action{Screen: ScreenClose, Op: OpNone, Value: 0},
		},
		{
			name:  "goal inc uses step",
			input: "s:goal:inc",
			want:  Action{Screen: ScreenGoal, Op: OpInc, Value: 5},
		},
		{
			name:  "reviews dec uses step",
			input: "s:rev:dec",
			want:  Action{Screen: ScreenReviews, Op: OpDec, Value: -10},
		},
		{
			name:  "new set",
			input: "s:new:set:15",
			want:  Action{Screen: ScreenNew, Op: OpSet, Value: 15},
		},
		{
			name:  "timezone set negative",
			input: "s:tz:set:-5",
			want:  Action{Screen: ScreenTimezone, Op: OpSet, Value: -5},
		},
		{
			name:  "level set",
			input: "s:lvl:set:3",
			want:  Action{Screen: ScreenLevel, Op: OpSet, Value: 3},
		},
		{
			name:  "slot toggle",
			input: "s:slots:toggle:2",
			want:  Action{Screen: ScreenSlots, Op: OpToggle, Value: SlotAfternoon},
		},
		{
			name:    "empty",
			input:   "",
			wantErr: true,
		},
		{
			name:    "missing prefix",
			input:   "home",
			wantErr: true,
		},
		{
			name:    "empty action",
			input:   "s:",
			wantErr: true,
		},
		{
			name:    "unknown action",
			input:   "s:noop",
			wantErr: true,
		},
		{
			name:    "home with op",
			input:   "s:home:inc",
			wantErr: true,
		},
		{
			name:    "goal set missing value",
			input:   "s:goal:set",
			wantErr: true,
		},
		{
			name:    "goal set negative",
			input:   "s:goal:set:-1",
			wantErr: true,
		},
		{
			name:    "goal set non-numeric",
			input:   "s:goal:set:abc",
			wantErr: true,
		},
		{
			name:    "invalid op",
			input:   "s:new:+2",
			wantErr: true,
		},
		{
			name:    "toggle unknown slot",
			input:   "s:slots:toggle:4",
			wantErr: true,
		},
		{
			name:    "toggle on value screen",
			input:   "s:goal:toggle:1",
			wantErr: true,
		},
		{
			name:    "extra parts",
			input:   "s:goal:inc:1:extra",
			wantErr: true,
		},
		{
			name:    "too long",
			input:   "s:" + strings.Repeat("a", MaxCallbackDataLen),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseCallbackData(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("unexpected action: got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestBuilderCallbacks(t *testing.T) {
	tests := []struct {
		name  string
		build func() (string, error)
		want  Action
	}{
		{
			name:  "home",
			build: func() (string, error) { return BuildScreenCallback(ScreenHome) },
			want:  Action{Screen: ScreenHome, Op: OpNone},
		},
		{
			name:  "reviews",
			build: func() (string, error) { return BuildScreenCallback(ScreenReviews) },
			want:  Action{Screen: ScreenReviews, Op: OpNone},
		},
		{
			name:  "new inc",
			build: func() (string, error) { return BuildAdjustCallback(ScreenNew, OpInc) },
			want:  Action{Screen: ScreenNew, Op: OpInc, Value: 5},
		},
		{
			name:  "timezone dec",
			build: func() (string, error) { return BuildAdjustCallback(ScreenTimezone, OpDec) },
			want:  Action{Screen: ScreenTimezone, Op: OpDec, Value: -1},
		},
		{
			name:  "goal set",
			build: func() (string, error) { return BuildSetCallback(ScreenGoal, 30) },
			want:  Action{Screen: ScreenGoal, Op: OpSet, Value: 30},
		},
		{
			name:  "timezone set",
			build: func() (string, error) { return BuildSetCallback(ScreenTimezone, -8) },
			want:  Action{Screen: ScreenTimezone, Op: OpSet, Value: -8},
		},
		{
			name:  "evening toggle",
			build: func() (string, error) { return BuildSlotToggleCallback(SlotEvening) },
			want:  Action{Screen: ScreenSlots, Op: OpToggle, Value: SlotEvening},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := tt.build()
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(data) > MaxCallbackDataLen {
				t.Fatalf("callback data too long: %d", len(data))
			}
			got, err := ParseCallbackData(data)
			if err != nil {
				t.Fatalf("unexpected parse error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("unexpected action: got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestBuildCallbackRejectsInvalidInput(t *testing.T) {
	if _, err := BuildSetCallback(ScreenGoal, -1); err == nil {
		t.Fatalf("expected error for value below minimum")
	}
	if _, err := BuildSetCallback(ScreenTimezone, 15); err == nil {
		t.Fatalf("expected error for offset above maximum")
	}
	if _, err := BuildAdjustCallback(ScreenSlots, OpInc); err == nil {
		t.Fatalf("expected error for adjusting a non-numeric screen")
	}
	if _, err := BuildSlotToggleCallback(0); err == nil {
		t.Fatalf("expected error for unknown slot")
	}
	if _, err := BuildScreenCallback(Screen("nope")); err == nil {
		t.Fatalf("expected error for unknown screen")
	}
}
