package validate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/primus/primacron/errors"
)

func TestEmit_NoValidatorRegistered(t *testing.T) {
	p := New(nil)
	p.Emit("foo", []interface{}{"meh"}, "user-1", `"meh"`)

	select {
	case ev := <-p.Errors():
		kind, ok := errors.KindOf(ev.Err)
		require.True(t, ok)
		require.Equal(t, errors.KindNoValidator, kind)
		require.Equal(t, "foo", ev.Event)
	case <-time.After(time.Second):
		t.Fatal("expected an error event")
	}

	select {
	case <-p.Stream():
		t.Fatal("no stream event should have been emitted")
	default:
	}
}

func TestEmit_ValidatorRejects(t *testing.T) {
	p := New(nil)
	p.Register("foo", ValidatorFunc(func(args Args, done Completion) {
		done(nil, false)
	}))

	p.Emit("foo", []interface{}{"meh"}, "user-1", `"meh"`)

	select {
	case ev := <-p.Errors():
		require.Equal(t, "foo", ev.Event)
		require.Equal(t, "user-1", ev.User)
	case <-time.After(time.Second):
		t.Fatal("expected an error event")
	}

	select {
	case <-p.Stream():
		t.Fatal("no stream event should have been emitted")
	default:
	}
}

func TestEmit_ValidatorAccepts(t *testing.T) {
	p := New(nil)
	p.Register("foo", ValidatorFunc(func(args Args, done Completion) {
		done(nil, true, args.Data...)
	}))

	p.Emit("foo", []interface{}{"bar"}, "user-1", `"bar"`)

	select {
	case ev := <-p.Stream():
		require.Equal(t, "foo", ev.Event)
		require.Equal(t, []interface{}{"bar"}, ev.Data)
		require.Equal(t, `"bar"`, ev.Raw)
		require.Equal(t, "user-1", ev.User)
	case <-time.After(time.Second):
		t.Fatal("expected a stream event")
	}
}

func TestEmit_LegacyValidator_VariedArity(t *testing.T) {
	p := New(nil)

	var seen []interface{}
	p.RegisterLegacy("foo", 5, func(data []interface{}, done Completion) {
		seen = data
		done(nil, true)
	})

	p.Emit("foo", []interface{}{"foo"}, "user-1", `"foo"`)

	require.Len(t, seen, 4)
	require.Equal(t, "foo", seen[0])
	require.Nil(t, seen[1])
	require.Nil(t, seen[2])
	require.Nil(t, seen[3])

	select {
	case ev := <-p.Stream():
		require.Equal(t, "foo", ev.Event)
		require.Equal(t, `"foo"`, ev.Raw)
	case <-time.After(time.Second):
		t.Fatal("expected a stream event")
	}
}

func TestEmit_MultipleRegistrations(t *testing.T) {
	p := New(nil)
	calls := 0
	p.Register("foo", ValidatorFunc(func(args Args, done Completion) {
		calls++
		done(nil, true, args.Data...)
	}))
	p.Register("foo", ValidatorFunc(func(args Args, done Completion) {
		calls++
		done(nil, true, args.Data...)
	}))

	p.Emit("foo", []interface{}{"x"}, "user-1", `"x"`)

	require.Equal(t, 2, calls)
	for i := 0; i < 2; i++ {
		select {
		case <-p.Stream():
		case <-time.After(time.Second):
			t.Fatal("expected two stream events")
		}
	}
}
