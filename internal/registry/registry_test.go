package registry

import (
	"context"
	"reflect"
	"testing"

	"github.com/vexlio/courier/internal/fault"
)

func noop(context.Context, *Invocation) (any, error) { return nil, nil }

func TestRegisterAndResolve(t *testing.T) {
	r := New()
	r.Register(&Operation{Name: "a.b", Handler: noop})

	op, err := r.Resolve("a.b")
	if err != nil || op.Name != "a.b" {
		t.Fatalf("resolve = %v, %v", op, err)
	}
}

func TestResolveUnknown(t *testing.T) {
	r := New()
	_, err := r.Resolve("no.such")
	if fault.KindOf(err) != fault.KindUnknownFunction {
		t.Fatalf("kind = %q", fault.KindOf(err))
	}
}

func TestRegisterDuplicatePanics(t *testing.T) {
	r := New()
	r.Register(&Operation{Name: "a.b", Handler: noop})
	defer func() {
		if recover() == nil {
			t.Fatal("duplicate registration must panic")
		}
	}()
	r.Register(&Operation{Name: "a.b", Handler: noop})
}

func TestNamesSorted(t *testing.T) {
	r := New()
	for _, name := range []string{"c.c", "a.a", "b.b"} {
		r.Register(&Operation{Name: name, Handler: noop})
	}
	if got := r.Names(); !reflect.DeepEqual(got, []string{"a.a", "b.b", "c.c"}) {
		t.Fatalf("names = %v", got)
	}
}

func TestDocsPrefixFilter(t *testing.T) {
	r := New()
	r.Register(&Operation{Name: "status.ping", Doc: "ping", Handler: noop})
	r.Register(&Operation{Name: "jobs.active", Doc: "active", Handler: noop})

	docs := r.Docs("status.")
	if len(docs) != 1 || docs["status.ping"] != "ping" {
		t.Fatalf("docs = %v", docs)
	}
	if len(r.Docs("")) != 2 {
		t.Fatal("empty prefix must list everything")
	}
}

func TestInvocationArg(t *testing.T) {
	in := &Invocation{Positional: []any{"a", 2}}
	if in.Arg(0) != "a" || in.Arg(1) != 2 {
		t.Fatal("Arg mismatch")
	}
	if in.Arg(2) != nil || in.Arg(-1) != nil {
		t.Fatal("out-of-range Arg must be nil")
	}
}
