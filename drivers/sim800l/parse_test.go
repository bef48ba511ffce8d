package sim800l

import "testing"

func TestParseSignalQuality(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"+CSQ: 15,0\r\n\r\nOK", 48},
		{"+CSQ: 5,0\r\n\r\nOK", 16},
		{"+CSQ: 31,0\r\n\r\nOK", 100},
		{"+CSQ: 0,0\r\n\r\nOK", 0},
		{"+CSQ: 99,99\r\n\r\nOK", 0},
		{"+CSQ: 45,0\r\n\r\nOK", 0},
		{"+CSQ: xx", 0},
		{"+CSQ:", 0},
		{"ERROR", 0},
		{"", 0},
	}
	for _, tt := range tests {
		if got := ParseSignalQuality(tt.in); got != tt.want {
			t.Errorf("ParseSignalQuality(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestParseModelName(t *testing.T) {
	tests := []struct {
		in     string
		want   string
		wantOK bool
	}{
		{"ATI\r\r\nSIM800 R14.18\r\n\r\nOK\r\n", "SIM800 R14.18", true},
		{"SIM800\r\nOK", "SIM800", true},
		{"SIM8", "SIM8", true},
		{"ERROR", "", false},
	}
	for _, tt := range tests {
		got, ok := ParseModelName(tt.in)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("ParseModelName(%q) = %q,%v want %q,%v", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestParseOperator(t *testing.T) {
	if got, ok := ParseOperator("+COPS: 0,0,\"Vodafone UK\"\r\n\r\nOK"); !ok || got != "Vodafone UK" {
		t.Fatalf("got %q,%v", got, ok)
	}
	if _, ok := ParseOperator("+COPS: 0\r\n\r\nOK"); ok {
		t.Fatalf("unquoted reply parsed")
	}
	if _, ok := ParseOperator("\""); ok {
		t.Fatalf("single quote parsed")
	}
}

func TestParseInt(t *testing.T) {
	tests := []struct {
		in     string
		want   int
		wantOK bool
	}{
		{"42", 42, true},
		{"0", 0, true},
		{"-3", -3, true},
		{"", 0, false},
		{"4x", 0, false},
		{"99999999999999999999999", 0, false},
	}
	for _, tt := range tests {
		got, ok := ParseInt(tt.in)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("ParseInt(%q) = %d,%v want %d,%v", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestVerify(t *testing.T) {
	if !Verify("\r\nOK\r\n") || Verify("ERROR") || Verify("") {
		t.Fatalf("Verify mismatch")
	}
}
