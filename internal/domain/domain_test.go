package domain

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestValidateText(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		wantErr error
	}{
		{"single char", "a", nil},
		{"exactly max", strings.Repeat("x", MaxPostLength), nil},
		{"max in runes, more in bytes", strings.Repeat("ж", MaxPostLength), nil},
		{"empty", "", ErrEmptyText},
		{"too long", strings.Repeat("x", MaxPostLength+1), ErrTextTooLong},
		{"too long in runes", strings.Repeat("ж", MaxPostLength+1), ErrTextTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateText(tt.text)
			if tt.wantErr == nil && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestNormalizeText(t *testing.T) {
	if got := NormalizeText("  hello \t\n"); got != "  hello" {
		t.Errorf("expected right-trimmed text, got %q", got)
	}
	if got := NormalizeText(" \t "); got != "" {
		t.Errorf("expected empty text, got %q", got)
	}
}

func TestScheduledPost_IsDue(t *testing.T) {
	p := &ScheduledPost{Text: "a", ScheduledAt: 100, Type: MessageTypeSchedule}

	if p.IsDue(99) {
		t.Error("post should not be due before ScheduledAt")
	}
	if !p.IsDue(100) {
		t.Error("post should be due at ScheduledAt")
	}
	if !p.IsDue(101) {
		t.Error("post should be due after ScheduledAt")
	}
	if got := p.Remaining(40); got != 60*time.Second {
		t.Errorf("expected 60s remaining, got %s", got)
	}
	if got := p.Remaining(200); got != 0 {
		t.Errorf("expected 0 remaining for due post, got %s", got)
	}

	// PROCESS_TWEET публикуется сразу
	p.Type = MessageTypeProcess
	if !p.IsDue(0) {
		t.Error("PROCESS_TWEET should always be due")
	}
}

func TestPayload_RoundTrip(t *testing.T) {
	posts := []*ScheduledPost{
		{Text: "hello", ScheduledAt: 1700000000, Type: MessageTypeSchedule},
		{Text: "Привет, мир! \"quotes\" & <tags>", ScheduledAt: 0, Type: MessageTypeSchedule},
		{Text: "now", ScheduledAt: 42, Type: MessageTypeProcess},
	}

	for _, p := range posts {
		body, err := Encode(p)
		if err != nil {
			t.Fatalf("encode: %v", err)
		}
		got, err := Decode(body)
		if err != nil {
			t.Fatalf("decode %s: %v", body, err)
		}
		if got.Text != p.Text || got.ScheduledAt != p.ScheduledAt || got.Type != p.Type {
			t.Errorf("round trip mismatch: want %+v, got %+v", p, got)
		}
	}
}

func TestEncode_WireFormat(t *testing.T) {
	body, err := Encode(&ScheduledPost{Text: "a", ScheduledAt: 5})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	want := `{"message_type":"SCHEDULE_TWEET","tweet":"a","tweet_time":5}`
	if string(body) != want {
		t.Errorf("expected %s, got %s", want, body)
	}
}

func TestDecode_LegacyPayloadWithoutType(t *testing.T) {
	got, err := Decode([]byte(`{"tweet": "b", "tweet_time": 1700000100}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Type != MessageTypeSchedule {
		t.Errorf("expected default type SCHEDULE_TWEET, got %s", got.Type)
	}
	if got.ScheduledAt != 1700000100 {
		t.Errorf("expected tweet_time 1700000100, got %d", got.ScheduledAt)
	}
}

func TestDecode_Malformed(t *testing.T) {
	bodies := map[string]string{
		"not json":        `not json`,
		"missing time":    `{"tweet": "a"}`,
		"float time":      `{"tweet": "a", "tweet_time": 1.5}`,
		"string time":     `{"tweet": "a", "tweet_time": "soon"}`,
		"empty tweet":     `{"tweet": "", "tweet_time": 1}`,
		"unknown type":    `{"message_type": "DELETE_TWEET", "tweet": "a", "tweet_time": 1}`,
		"oversized tweet": `{"tweet": "` + strings.Repeat("x", MaxPostLength+1) + `", "tweet_time": 1}`,
	}

	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			_, err := Decode([]byte(body))
			if !errors.Is(err, ErrMalformedPayload) {
				t.Fatalf("expected ErrMalformedPayload, got %v", err)
			}
		})
	}
}

func TestCohort_Validate(t *testing.T) {
	valid := Cohort{Name: "nightly", CronExpr: "0 15 * * *", WindowSeconds: 14400}
	if err := valid.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !valid.IsEnabled() {
		t.Error("cohort without enabled flag should be enabled")
	}
	if valid.Window() != 4*time.Hour {
		t.Errorf("expected 4h window, got %s", valid.Window())
	}

	tests := []struct {
		name    string
		cohort  Cohort
		wantErr error
	}{
		{"no name", Cohort{WindowSeconds: 1}, ErrCohortName},
		{"zero window", Cohort{Name: "a"}, ErrCohortWindow},
		{"negative tab", Cohort{Name: "a", WindowSeconds: 1, TabIndex: -1}, ErrCohortTab},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cohort.Validate(); !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}

	bad := Cohort{Name: "a", WindowSeconds: 1, Timezone: "Mars/Olympus"}
	if err := bad.Validate(); err == nil {
		t.Error("expected error for unknown timezone")
	}
}
