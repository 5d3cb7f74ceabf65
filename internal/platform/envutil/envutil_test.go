package envutil

import (
	"reflect"
	"testing"
	"time"
)

func TestReaders(t *testing.T) {
	t.Setenv("TS_INT", "42")
	t.Setenv("TS_BAD_INT", "x")
	t.Setenv("TS_BOOL", "on")
	t.Setenv("TS_SECONDS", "90")
	t.Setenv("TS_LIST", "09:00, 09:30,,")
	t.Setenv("TS_FLOAT", "0.25")

	if got := Int("TS_INT", 1); got != 42 {
		t.Fatalf("Int: got=%d want=42", got)
	}
	if got := Int("TS_BAD_INT", 7); got != 7 {
		t.Fatalf("Int fallback: got=%d want=7", got)
	}
	if got := Bool("TS_BOOL", false); !got {
		t.Fatalf("Bool: got=false want=true")
	}
	if got := Bool("TS_MISSING_BOOL", true); !got {
		t.Fatalf("Bool default: got=false want=true")
	}
	if got := Seconds("TS_SECONDS", time.Second); got != 90*time.Second {
		t.Fatalf("Seconds: got=%v", got)
	}
	if got := List("TS_LIST", nil); !reflect.DeepEqual(got, []string{"09:00", "09:30"}) {
		t.Fatalf("List: got=%v", got)
	}
	if got := Float("TS_FLOAT", 1); got != 0.25 {
		t.Fatalf("Float: got=%v", got)
	}
	if got := String("TS_MISSING", "dflt"); got != "dflt" {
		t.Fatalf("String: got=%q", got)
	}
}
