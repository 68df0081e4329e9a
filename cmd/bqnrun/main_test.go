package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"go.uber.org/zap"
)

func newTestSession(t *testing.T, opts string) *session {
	t.Helper()
	ctx := context.Background()
	rt, err := newRuntime(ctx, "wasm", 0, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { rt.Close(ctx) })

	sess, err := newSession(rt, opts)
	if err != nil {
		t.Fatal(err)
	}
	return sess
}

func TestSession_Eval(t *testing.T) {
	sess := newTestSession(t, "")

	tests := []struct {
		src     string
		read    string
		wantErr bool
	}{
		{"3.5", "{ok,3.5}", false},
		{"[1.0, 2.0, 3.0]", "{ok,[1.0,2.0,3.0]}", false},
		{"[]", "{ok,[]}", false},
		{"foo", "", true},
		{"[1.0, 2]", "", true},
		{"[1.0,", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			o := sess.eval(context.Background(), tt.src)
			if (o.err != nil) != tt.wantErr {
				t.Fatalf("eval(%q) error = %v, wantErr %v", tt.src, o.err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if !strings.HasPrefix(o.made, "{ok,#Ref<") {
				t.Errorf("made = %q, want {ok, Ref}", o.made)
			}
			if o.read != tt.read {
				t.Errorf("read = %q, want %q", o.read, tt.read)
			}
		})
	}
}

func TestSession_Options(t *testing.T) {
	sess := newTestSession(t, "[]")

	o := sess.eval(context.Background(), "[2.0]")
	if o.err != nil {
		t.Fatal(o.err)
	}
	if o.read != "{ok,[2.0],#{}}" {
		t.Errorf("read = %q, want three-element result", o.read)
	}

	if _, err := newSession(sess.rt, "[{timing,"); err == nil {
		t.Error("malformed options should fail")
	}
}

func TestRunBatch(t *testing.T) {
	sess := newTestSession(t, "")

	in := strings.NewReader("3.5\n\n% comment\n[1.0]\natom\n")
	var out bytes.Buffer

	failed := runBatch(context.Background(), sess, in, &out)
	if failed != 1 {
		t.Errorf("failed = %d, want 1", failed)
	}
	got := out.String()
	for _, want := range []string{"read => {ok,3.5}", "read => {ok,[1.0]}", "atom => error:"} {
		if !strings.Contains(got, want) {
			t.Errorf("output %q missing %q", got, want)
		}
	}
}

func TestNewRuntime_UnknownBackend(t *testing.T) {
	if _, err := newRuntime(context.Background(), "jvm", 0, zap.NewNop()); err == nil {
		t.Error("unknown backend should fail")
	}
}
