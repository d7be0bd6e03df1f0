package calendar

import (
	"testing"
	"time"
)

func TestHasTimezone(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"2024-06-15T10:00:00Z", true},
		{"2024-06-15T10:00:00-07:00", true},
		{"2024-06-15T10:00:00+05:30", true},
		{"2024-06-15T10:00:00", false},
		{"2024-06-15", false},
		{"2024-06-15T10:00:00.000Z", false},
	}
	for _, tt := range tests {
		if got := HasTimezone(tt.in); got != tt.want {
			t.Errorf("HasTimezone(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestValidateDateTime(t *testing.T) {
	valid := []string{"2026-01-01T00:00:00", "2026-01-01T00:00:00Z", "2026-01-01T00:00:00-08:00"}
	for _, v := range valid {
		if err := ValidateDateTime(v); err != nil {
			t.Errorf("ValidateDateTime(%q) error = %v", v, err)
		}
	}

	invalid := []string{"", "2026-01-01", "tomorrow", "2026-01-01 00:00:00", "2026-01-01T00:00"}
	for _, v := range invalid {
		err := ValidateDateTime(v)
		if err == nil {
			t.Errorf("ValidateDateTime(%q) expected error", v)
			continue
		}
		if err.Error() != DateTimeFormatMessage {
			t.Errorf("ValidateDateTime(%q) message = %q", v, err.Error())
		}
	}
}

func TestParseDateTime(t *testing.T) {
	got, err := ParseDateTime("2024-06-15T10:00:00", "America/Los_Angeles")
	if err != nil {
		t.Fatalf("ParseDateTime() error = %v", err)
	}
	want := time.Date(2024, 6, 15, 17, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("ParseDateTime() = %v, want %v", got.UTC(), want)
	}

	got, err = ParseDateTime("2024-06-15T10:00:00-07:00", "Europe/Berlin")
	if err != nil {
		t.Fatalf("ParseDateTime() error = %v", err)
	}
	if !got.Equal(want) {
		t.Errorf("zone-qualified input must ignore fallback: got %v", got.UTC())
	}

	got, err = ParseDateTime("2024-06-15T17:00:00", "")
	if err != nil || !got.Equal(want) {
		t.Errorf("empty zone should mean UTC: got %v, err %v", got, err)
	}

	if _, err := ParseDateTime("2024-06-15T10:00:00", "Not/AZone"); err == nil {
		t.Error("expected error for unknown zone")
	}
	if _, err := ParseDateTime("garbage", "UTC"); err == nil {
		t.Error("expected error for malformed input")
	}
}

func TestToRFC3339(t *testing.T) {
	tests := []struct {
		name string
		dt   string
		tz   string
		want string
	}{
		{"zone-qualified kept", "2024-01-01T10:00:00-08:00", "Europe/Berlin", "2024-01-01T10:00:00-08:00"},
		{"utc kept", "2024-01-01T10:00:00Z", "", "2024-01-01T10:00:00Z"},
		{"naive in winter", "2024-01-01T10:00:00", "America/Los_Angeles", "2024-01-01T10:00:00-08:00"},
		{"naive in summer", "2024-07-01T10:00:00", "America/Los_Angeles", "2024-07-01T10:00:00-07:00"},
		{"naive utc", "2024-07-01T10:00:00", "UTC", "2024-07-01T10:00:00Z"},
		{"bad zone falls back", "2024-07-01T10:00:00", "Invalid/Zone", "2024-07-01T10:00:00Z"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ToRFC3339(tt.dt, tt.tz); got != tt.want {
				t.Errorf("ToRFC3339(%q, %q) = %q, want %q", tt.dt, tt.tz, got, tt.want)
			}
		})
	}
}

func TestTimeObject(t *testing.T) {
	obj := TimeObject("2024-01-01T10:00:00Z", "America/New_York")
	if obj.DateTime != "2024-01-01T10:00:00Z" || obj.TimeZone != "" {
		t.Errorf("zone-qualified TimeObject = %+v", obj)
	}

	obj = TimeObject("2024-01-01T10:00:00", "America/New_York")
	if obj.DateTime != "2024-01-01T10:00:00" || obj.TimeZone != "America/New_York" {
		t.Errorf("naive TimeObject = %+v", obj)
	}
}
