package errors

import (
	"errors"
	"strings"
	"testing"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		contains []string
	}{
		{
			name: "full error",
			err: &Error{
				Phase:      PhaseEncode,
				Kind:       KindConversion,
				Path:       []string{"args", "1", "handler"},
				GoType:     "chan int",
				ScriptType: "table",
				Detail:     "cannot cross the boundary",
			},
			contains: []string{"[encode]", "conversion", "args.1.handler", "chan int", "table", "cannot cross"},
		},
		{
			name: "minimal error",
			err: &Error{
				Phase: PhaseGateway,
				Kind:  KindLookup,
			},
			contains: []string{"[gateway]", "lookup"},
		},
		{
			name: "module attribution",
			err: &Error{
				Phase:  PhaseLoad,
				Kind:   KindLoad,
				Module: "url.lua",
				Detail: "evaluate module",
			},
			contains: []string{"[load]", "in url.lua", "evaluate module"},
		},
		{
			name: "error with cause",
			err: &Error{
				Phase:  PhaseGateway,
				Kind:   KindInvocation,
				Detail: "call failed",
				Cause:  errors.New("boom"),
			},
			contains: []string{"[gateway]", "invocation", "call failed", "caused by", "boom"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.err.Error()
			for _, s := range tt.contains {
				if !strings.Contains(msg, s) {
					t.Errorf("error message %q does not contain %q", msg, s)
				}
			}
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := &Error{
		Phase: PhaseLoad,
		Kind:  KindLoad,
		Cause: cause,
	}

	if !errors.Is(err.Unwrap(), cause) {
		t.Error("Unwrap did not return cause")
	}
	if !errors.Is(errors.Unwrap(err), cause) {
		t.Error("errors.Unwrap did not return cause")
	}
}

func TestError_Is(t *testing.T) {
	err := &Error{
		Phase: PhaseGateway,
		Kind:  KindLookup,
		Path:  []string{"ns", "fn"},
	}

	if !err.Is(&Error{Phase: PhaseGateway, Kind: KindLookup}) {
		t.Error("Is should match same phase and kind")
	}
	if err.Is(&Error{Phase: PhaseLoad, Kind: KindLookup}) {
		t.Error("Is should not match different phase")
	}
	if err.Is(&Error{Phase: PhaseGateway, Kind: KindInvocation}) {
		t.Error("Is should not match different kind")
	}
	if !errors.Is(err, ErrLookup) {
		t.Error("errors.Is should match the kind sentinel")
	}
	if errors.Is(err, ErrInvocation) {
		t.Error("errors.Is should not match another kind sentinel")
	}
}

func TestError_UnresolvedIsLoad(t *testing.T) {
	err := Unresolved("core/url", "reference to a symbol no loaded module defines", nil)

	if !errors.Is(err, ErrUnresolved) {
		t.Error("errors.Is should match ErrUnresolved")
	}
	if !errors.Is(err, ErrLoad) {
		t.Error("unresolved references are load failures")
	}
	if !err.Is(&Error{Phase: PhaseLoad, Kind: KindLoad}) {
		t.Error("Is should match a load target in the same phase")
	}
	if errors.Is(Load("core/url", nil), ErrUnresolved) {
		t.Error("a plain load error is not an unresolved reference")
	}
}

func TestError_IsThroughWrapping(t *testing.T) {
	inner := Lookup("ns", "missing", "function not defined")
	outer := Wrap(PhaseLifecycle, KindInitialization, inner, "activate")

	if !errors.Is(outer, ErrLookup) {
		t.Error("errors.Is should find the wrapped lookup error")
	}
	if !errors.Is(outer, ErrInitialization) {
		t.Error("errors.Is should match the outer kind")
	}
}

func TestError_Message(t *testing.T) {
	script := errors.New("core/url.lua:3: bad remote")
	err := Wrap(PhaseLifecycle, KindLoad, Load("url.lua", script), "activate")

	if got := err.Message(); got != script.Error() {
		t.Errorf("Message() = %q, want %q", got, script.Error())
	}

	plain := InvalidInput(PhaseGateway, "empty function name")
	if got := plain.Message(); got != "empty function name" {
		t.Errorf("Message() = %q, want detail", got)
	}
}

func TestBuilder(t *testing.T) {
	cause := errors.New("root")
	err := New(PhaseEncode, KindConversion).
		Module("git.lua").
		Path("args", "0").
		GoType("complex128").
		ScriptType("number").
		Value(42).
		Cause(cause).
		Detail("expected %s, got %s", "number", "complex").
		Build()

	if err.Phase != PhaseEncode {
		t.Errorf("Phase = %v, want %v", err.Phase, PhaseEncode)
	}
	if err.Kind != KindConversion {
		t.Errorf("Kind = %v, want %v", err.Kind, KindConversion)
	}
	if err.Module != "git.lua" {
		t.Errorf("Module = %v, want git.lua", err.Module)
	}
	if len(err.Path) != 2 || err.Path[0] != "args" || err.Path[1] != "0" {
		t.Errorf("Path = %v, want [args 0]", err.Path)
	}
	if err.GoType != "complex128" {
		t.Errorf("GoType = %v, want 'complex128'", err.GoType)
	}
	if err.ScriptType != "number" {
		t.Errorf("ScriptType = %v, want 'number'", err.ScriptType)
	}
	if err.Value != 42 {
		t.Errorf("Value = %v, want 42", err.Value)
	}
	if !errors.Is(err.Cause, cause) {
		t.Errorf("Cause = %v, want %v", err.Cause, cause)
	}
	if err.Detail != "expected number, got complex" {
		t.Errorf("Detail = %v, want 'expected number, got complex'", err.Detail)
	}
}

func TestConvenienceConstructors(t *testing.T) {
	t.Run("Initialization", func(t *testing.T) {
		err := Initialization("lua", errors.New("no memory"))
		if err.Kind != KindInitialization || err.Phase != PhaseInit {
			t.Errorf("got %v/%v", err.Phase, err.Kind)
		}
		if !strings.Contains(err.Error(), "lua") {
			t.Errorf("Error() = %q, should name the engine", err.Error())
		}
	})

	t.Run("Load", func(t *testing.T) {
		err := Load("config.lua", errors.New("syntax"))
		if err.Kind != KindLoad || err.Module != "config.lua" {
			t.Errorf("got kind=%v module=%v", err.Kind, err.Module)
		}
	})

	t.Run("Unresolved", func(t *testing.T) {
		err := Unresolved("url.lua", "undefined global 'browsher_config'", nil)
		if !errors.Is(err, ErrUnresolved) {
			t.Error("should match ErrUnresolved")
		}
	})

	t.Run("Lookup", func(t *testing.T) {
		err := Lookup("browsher_platform", "nope", "function not defined")
		if !strings.Contains(err.Error(), "browsher_platform.nope") {
			t.Errorf("Error() = %q, should contain path", err.Error())
		}
	})

	t.Run("Invocation", func(t *testing.T) {
		err := Invocation("setup", errors.New("attempt to call a nil value"))
		if !errors.Is(err, ErrInvocation) {
			t.Error("should match ErrInvocation")
		}
		if !strings.Contains(err.Error(), "attempt to call a nil value") {
			t.Errorf("Error() = %q, should carry the script message", err.Error())
		}
	})

	t.Run("Conversion", func(t *testing.T) {
		err := Conversion(PhaseDecode, []string{"result"}, "", "function", "functions cannot be returned")
		if err.Kind != KindConversion || err.ScriptType != "function" {
			t.Errorf("got kind=%v scriptType=%v", err.Kind, err.ScriptType)
		}
	})

	t.Run("InvalidState", func(t *testing.T) {
		err := InvalidState("invoke", "deactivated")
		if !errors.Is(err, ErrInvalidState) {
			t.Error("should match ErrInvalidState")
		}
		if !strings.Contains(err.Detail, "deactivated") {
			t.Errorf("Detail = %q, should name the state", err.Detail)
		}
	})

	t.Run("NotFound", func(t *testing.T) {
		err := NotFound(PhaseLoad, "module source", "core/git.lua")
		if err.Kind != KindNotFound {
			t.Errorf("Kind = %v, want %v", err.Kind, KindNotFound)
		}
	})

	t.Run("Canceled", func(t *testing.T) {
		err := Canceled(PhaseGateway, errors.New("context deadline exceeded"))
		if !errors.Is(err, ErrCanceled) {
			t.Error("should match ErrCanceled")
		}
	})
}

func TestSequenceError(t *testing.T) {
	t.Run("lists problems", func(t *testing.T) {
		err := &SequenceError{Problems: []UnresolvedModule{
			{Module: "url", Requires: "config", Reason: "required module is loaded later"},
			{Module: "platform", Requires: "missing", Reason: "unknown module"},
		}}
		msg := err.Error()
		for _, s := range []string{"2 problem", "url -> config", "platform -> missing", "unknown module"} {
			if !strings.Contains(msg, s) {
				t.Errorf("error %q does not contain %q", msg, s)
			}
		}
	})

	t.Run("empty", func(t *testing.T) {
		err := &SequenceError{}
		if !strings.Contains(err.Error(), "empty sequence error") {
			t.Errorf("unexpected message: %s", err.Error())
		}
	})

	t.Run("errors.Is", func(t *testing.T) {
		err := &SequenceError{Problems: []UnresolvedModule{{Module: "a", Reason: "duplicate"}}}
		if !errors.Is(err, &SequenceError{}) {
			t.Error("errors.Is should match SequenceError")
		}
		if !errors.Is(err, ErrUnresolved) {
			t.Error("errors.Is should match ErrUnresolved")
		}
		if !errors.Is(err, ErrLoad) {
			t.Error("errors.Is should match ErrLoad")
		}
		if errors.Is(err, ErrLookup) {
			t.Error("errors.Is should not match ErrLookup")
		}
	})
}
