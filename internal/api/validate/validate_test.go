package validate

import "testing"

func TestSeriesKey(t *testing.T) {
	valid := []string{"anxiety", "walking-in-grief", "psalm_23", "a", "series2024"}
	for _, v := range valid {
		if err := SeriesKey(v); err != nil {
			t.Errorf("SeriesKey(%q) = %v, want nil", v, err)
		}
	}
	invalid := []string{"", "Anxiety", "has space", "-leading", "way/too/slashed",
		"x123456789012345678901234567890123456789012345678901"}
	for _, v := range invalid {
		if err := SeriesKey(v); err == nil {
			t.Errorf("SeriesKey(%q) = nil, want error", v)
		}
	}
}

func TestPlanToken(t *testing.T) {
	if err := PlanToken("plan_0123456789abcdef0123456789abcdef"); err != nil {
		t.Errorf("valid token rejected: %v", err)
	}
	for _, v := range []string{"", "plan_short", "0123456789abcdef0123456789abcdef", "plan_0123456789ABCDEF0123456789ABCDEF"} {
		if err := PlanToken(v); err == nil {
			t.Errorf("PlanToken(%q) = nil, want error", v)
		}
	}
}

func TestSlotID(t *testing.T) {
	if err := SlotID("123e4567-e89b-12d3-a456-426614174000"); err != nil {
		t.Errorf("valid slot id rejected: %v", err)
	}
	for _, v := range []string{"", "not-a-uuid", "123e4567"} {
		if err := SlotID(v); err == nil {
			t.Errorf("SlotID(%q) = nil, want error", v)
		}
	}
}

func TestSessionKey(t *testing.T) {
	if err := SessionKey("sess-abc123"); err != nil {
		t.Errorf("valid session key rejected: %v", err)
	}
	if err := SessionKey(""); err == nil {
		t.Error("empty session key accepted")
	}
	long := make([]byte, 129)
	for i := range long {
		long[i] = 'a'
	}
	if err := SessionKey(string(long)); err == nil {
		t.Error("overlong session key accepted")
	}
}
