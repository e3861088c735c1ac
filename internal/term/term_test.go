package term

import (
	"os"
	"testing"
)

func TestColorEnabledHonorsNoColor(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	if ColorEnabled(os.Stdout) {
		t.Errorf("expected NO_COLOR to disable color regardless of tty detection")
	}
}

func TestColorEnabledHonorsTermDumb(t *testing.T) {
	t.Setenv("TERM", "dumb")
	if ColorEnabled(os.Stdout) {
		t.Errorf("expected TERM=dumb to disable color regardless of tty detection")
	}
}

func TestDetectLevelNoneWhenColorDisabled(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	if got := DetectLevel(os.Stdout); got != LevelNone {
		t.Errorf("expected LevelNone when NO_COLOR is set, got %v", got)
	}
}

func TestPaintNoopAtLevelNone(t *testing.T) {
	if got := Paint(LevelNone, SeverityError, "boom"); got != "boom" {
		t.Errorf("expected Paint to leave the string untouched at LevelNone, got %q", got)
	}
}

func TestPaintWrapsBySeverity(t *testing.T) {
	errMsg := Paint(LevelBasic, SeverityError, "boom")
	if errMsg == "boom" {
		t.Errorf("expected Paint to wrap an error message in ANSI codes at LevelBasic")
	}
	if StripANSI(errMsg) != "boom" {
		t.Errorf("expected StripANSI to recover the original text, got %q", StripANSI(errMsg))
	}

	warnMsg := Paint(LevelBasic, SeverityWarning, "careful")
	if warnMsg == "careful" {
		t.Errorf("expected Paint to wrap a warning message in ANSI codes at LevelBasic")
	}
	if StripANSI(warnMsg) != "careful" {
		t.Errorf("expected StripANSI to recover the original text, got %q", StripANSI(warnMsg))
	}
}

func TestBoldAndUnderlineNoopAtLevelNone(t *testing.T) {
	if got := Bold(LevelNone, "x"); got != "x" {
		t.Errorf("expected Bold to no-op at LevelNone, got %q", got)
	}
	if got := Underline(LevelNone, "x"); got != "x" {
		t.Errorf("expected Underline to no-op at LevelNone, got %q", got)
	}
}

func TestBoldAndUnderlineWrapAtLevelBasic(t *testing.T) {
	b := Bold(LevelBasic, "x")
	if b == "x" || StripANSI(b) != "x" {
		t.Errorf("expected Bold to wrap and StripANSI to recover 'x', got %q -> %q", b, StripANSI(b))
	}
	u := Underline(LevelBasic, "x")
	if u == "x" || StripANSI(u) != "x" {
		t.Errorf("expected Underline to wrap and StripANSI to recover 'x', got %q -> %q", u, StripANSI(u))
	}
}

func TestStripANSIPlainTextUnaffected(t *testing.T) {
	if got := StripANSI("no escapes here"); got != "no escapes here" {
		t.Errorf("expected plain text to pass through unchanged, got %q", got)
	}
}
