package i18n

import "testing"

func TestTranslator_DefaultAndJapanese(t *testing.T) {
	// default is en
	if msg := T("invalid_type", nil); msg == "invalid_type" || msg == "" {
		t.Fatalf("expected a human message, got %q", msg)
	}

	SetLanguage("ja")
	if msg := T("type_resolution", nil); msg == "cannot resolve type tag" {
		t.Fatalf("expected japanese message, got %q", msg)
	}

	// reset to en
	SetLanguage("en")
}

func TestTranslator_CodecCodes(t *testing.T) {
	for _, code := range []string{"missing_schema", "type_resolution", "numeric_decode", "container_shape", "tag_conflict"} {
		if msg := T(code, nil); msg == code {
			t.Fatalf("no english message for %s", code)
		}
	}
	if msg := T("no_such_code", nil); msg != "no_such_code" {
		t.Fatalf("unknown codes should echo, got %q", msg)
	}
}

type upper struct{}

func (upper) Message(code string, _ map[string]string) string { return "X:" + code }

func TestSetTranslator_CustomAndReset(t *testing.T) {
	SetTranslator(upper{})
	if msg := T("parse_error", nil); msg != "X:parse_error" {
		t.Fatalf("custom translator not used: %q", msg)
	}
	SetTranslator(nil)
	if msg := T("parse_error", nil); msg != "parse error" {
		t.Fatalf("nil should restore english, got %q", msg)
	}
}
