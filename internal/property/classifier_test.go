package property

import "testing"

func assertInference(t *testing.T, got Inference, wantType *Type, wantFormat *Format) {
	t.Helper()
	switch {
	case wantType == nil && got.Type != nil:
		t.Errorf("Type = %v, want nil", *got.Type)
	case wantType != nil && got.Type == nil:
		t.Errorf("Type = nil, want %v", *wantType)
	case wantType != nil && *got.Type != *wantType:
		t.Errorf("Type = %v, want %v", *got.Type, *wantType)
	}
	switch {
	case wantFormat == nil && got.Format != nil:
		t.Errorf("Format = %v, want nil", *got.Format)
	case wantFormat != nil && got.Format == nil:
		t.Errorf("Format = nil, want %v", *wantFormat)
	case wantFormat != nil && *got.Format != *wantFormat:
		t.Errorf("Format = %v, want %v", *got.Format, *wantFormat)
	}
}

func tp(t Type) *Type     { return &t }
func fp(f Format) *Format { return &f }

func TestClassify_Numeric(t *testing.T) {
	testCases := []struct {
		name  string
		value any
		key   string
	}{
		{"int", 42, "count"},
		{"float", 3.14, "ratio"},
		{"nine digits with time key", 164147752, "timestamp"},
		{"eleven digits with time key", int64(16414775293), "timestamp"},
		{"twelve digits with time key", int64(164147752933), "time"},
		{"fourteen digits with time key", int64(16414775293312), "time"},
		{"ten digits without time hint in key", 1641477529, "user_id"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assertInference(t, Classify(tc.value, tc.key), tp(TypeNumeric), nil)
		})
	}
}

func TestClassify_UnixTimestampSeconds(t *testing.T) {
	// Numeric is overridden to DateTime when the key carries a time hint.
	got := Classify(1641477529, "timestamp")
	assertInference(t, got, tp(TypeDateTime), fp(FormatUnixTimestampSeconds))
}

func TestClassify_UnixTimestampMillis(t *testing.T) {
	got := Classify(int64(1641477753371), "time")
	assertInference(t, got, tp(TypeDateTime), fp(FormatUnixTimestampMillis))
}

func TestClassify_UnixTimestampFractional(t *testing.T) {
	got := Classify(1641477529.234715, "timestamp")
	assertInference(t, got, tp(TypeDateTime), fp(FormatUnixTimestampSeconds))
}

func TestClassify_UnixTimestampFloat64Millis(t *testing.T) {
	// JSON decoding yields float64; thirteen-digit values must survive stringification.
	got := Classify(float64(1641477753371), "time")
	assertInference(t, got, tp(TypeDateTime), fp(FormatUnixTimestampMillis))
}

func TestClassify_UnixTimestampString(t *testing.T) {
	// A numeric string is also reclassified when the key has a time hint.
	got := Classify("1641477529", "timestamp")
	assertInference(t, got, tp(TypeDateTime), fp(FormatUnixTimestampSeconds))
}

func TestClassify_KeyHintIsSubstringMatch(t *testing.T) {
	// The heuristic is a blunt substring check: "runtime" contains "time".
	// Preserved on purpose; downstream consumers depend on it.
	got := Classify(1641477529, "runtime")
	assertInference(t, got, tp(TypeDateTime), fp(FormatUnixTimestampSeconds))

	got = Classify(1641477529, "TIMESTAMP_MS")
	assertInference(t, got, tp(TypeDateTime), fp(FormatUnixTimestampSeconds))
}

func TestClassify_DateTimeStrings(t *testing.T) {
	testCases := []struct {
		value  string
		format Format
	}{
		{"2022-01-06", FormatDate},
		{"2022-01-06T12:44:45.944Z", FormatISO8601},
		{"2022-01-06T12:44:45Z", FormatISO8601},
		{"2022-01-06t12:44:45z", FormatISO8601},
		{"2022-01-06T12:44:45+00:00", FormatISO8601},
		{"2022-01-06T12:44:45-0230", FormatISO8601},
		{"2022-01-06T12:44:45+05", FormatISO8601},
		{"2022-01-06 12:44:45", FormatFullDate},
		{"06-01-2022 12:44:45", FormatFullDateDMY},
		{"2022/01/06 12:44:45", FormatSlashDate},
		{"06/01/2022 12:44:45", FormatSlashDateDMY},
		{"Tue, 04 Jan 2022 12:44:45 +0000", FormatRFC822},
		{"04 jan 2022 12:44:45", FormatRFC822},
	}
	for _, tc := range testCases {
		t.Run(tc.value, func(t *testing.T) {
			got := Classify(tc.value, "created_at")
			assertInference(t, got, tp(TypeDateTime), fp(tc.format))
		})
	}
}

func TestClassify_PlainStrings(t *testing.T) {
	testCases := []string{
		"hello",
		"2022-13-99T99:99:99Z extra",
		"not 2022-01-06",
		"2022-01-06 12:44",
		"12:44:45",
	}
	for _, value := range testCases {
		t.Run(value, func(t *testing.T) {
			assertInference(t, Classify(value, "created_at"), tp(TypeString), nil)
		})
	}
}

func TestClassify_FirstMatchWins(t *testing.T) {
	// "2022-01-06 12:44:45" is shaped like FULL_DATE only, but a ten-digit
	// numeric string with a time-hinted key satisfies both the value pattern
	// and unix detection: unix detection runs last and wins.
	got := Classify("1641477529.5", "timestamp")
	assertInference(t, got, tp(TypeDateTime), fp(FormatUnixTimestampSeconds))
}

func TestClassify_NoInference(t *testing.T) {
	testCases := []struct {
		name  string
		value any
	}{
		{"bool true", true},
		{"bool false", false},
		{"nil", nil},
		{"map", map[string]any{"a": 1}},
		{"slice", []any{1, 2}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assertInference(t, Classify(tc.value, "is_active"), nil, nil)
		})
	}
}

func TestPatternTableOrder(t *testing.T) {
	// The enumeration order is part of the contract: overlapping patterns
	// rely on priority, so lock the table down.
	wantDateTime := []Format{
		FormatDate,
		FormatISO8601,
		FormatFullDate,
		FormatFullDateDMY,
		FormatSlashDate,
		FormatSlashDateDMY,
		FormatRFC822,
	}
	if len(DateTimePatterns) != len(wantDateTime) {
		t.Fatalf("DateTimePatterns has %d entries, want %d", len(DateTimePatterns), len(wantDateTime))
	}
	for i, want := range wantDateTime {
		if DateTimePatterns[i].Format != want {
			t.Errorf("DateTimePatterns[%d] = %v, want %v", i, DateTimePatterns[i].Format, want)
		}
	}

	wantUnix := []Format{FormatUnixTimestampSeconds, FormatUnixTimestampMillis}
	if len(UnixTimestampPatterns) != len(wantUnix) {
		t.Fatalf("UnixTimestampPatterns has %d entries, want %d", len(UnixTimestampPatterns), len(wantUnix))
	}
	for i, want := range wantUnix {
		if UnixTimestampPatterns[i].Format != want {
			t.Errorf("UnixTimestampPatterns[%d] = %v, want %v", i, UnixTimestampPatterns[i].Format, want)
		}
	}
}
