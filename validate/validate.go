// Package validate implements the validation pipeline: the sole channel
// from a decoded inbound message to a "stream::<event>" emission that
// application and Tail Fan-out code may observe. No message reaches
// downstream delivery without first passing a registered Validator.
package validate

import (
	"sync"

	"go.uber.org/zap"

	"github.com/primus/primacron/errors"
	"github.com/primus/primacron/logger"
)

// Args is the structured argument record passed to a Validator: the data
// fields carried by the originating message, the opaque user/session
// context, and the raw wire-format string the message decoded from.
type Args struct {
	Data []interface{}
	User interface{}
	Raw  string
}

// Completion is the continuation a Validator calls exactly once to approve
// or reject a message. transformed, if non-empty, replaces Data in the
// resulting stream event; if empty, the original Data is used unchanged.
type Completion func(err error, ok bool, transformed ...interface{})

// Validator is the preferred, structured validator shape: one call in, one
// Completion call out.
type Validator interface {
	Validate(args Args, done Completion)
}

// ValidatorFunc adapts a plain function to Validator.
type ValidatorFunc func(Args, Completion)

// Validate implements Validator.
func (f ValidatorFunc) Validate(args Args, done Completion) { f(args, done) }

// LegacyValidator re-expresses the source system's arity-based validator
// registration: a validator declares how many positional data arguments it
// expects (arity, counting the trailing completion slot), and the pipeline
// pads or truncates the caller's data to arity-1 slots before invoking Fn.
// Missing positions are passed as nil; extra positions are dropped. This
// exists to host validators ported in their original positional shape;
// new validators should implement Validator directly instead.
type LegacyValidator struct {
	Arity int
	Fn    func(data []interface{}, done Completion)
}

// Validate implements Validator, applying the arity truncation rule to both
// the inbound data and the outbound stream data (the padded inbound data, or
// the transformed values when given, cut to arity-1).
func (l LegacyValidator) Validate(args Args, done Completion) {
	slots := l.Arity - 1
	if slots < 0 {
		slots = 0
	}
	padded := fitToArity(args.Data, slots)
	l.Fn(padded, func(err error, ok bool, transformed ...interface{}) {
		if err != nil || !ok {
			done(err, ok)
			return
		}
		out := padded
		if len(transformed) > 0 {
			out = transformed
		}
		if len(out) > slots {
			out = out[:slots]
		}
		done(nil, true, out...)
	})
}

func fitToArity(data []interface{}, slots int) []interface{} {
	out := make([]interface{}, slots)
	copy(out, data)
	return out
}

// StreamEvent is a validated emission: the only shape application code and
// Tail Fan-out should ever observe.
type StreamEvent struct {
	Event string
	Data  []interface{}
	Raw   string
	User  interface{}
}

// ErrorEvent is the sum-typed observability channel replacing the ambient
// "error::…" event bus of the source system.
type ErrorEvent struct {
	Kind  errors.Kind
	Event string
	Raw   string
	User  interface{}
	Err   error
}

const channelBuffer = 256

// Pipeline is the per-node validator registry plus the two typed channels
// ("stream" and "error") it feeds. Registration and Emit are safe for
// concurrent use; the channels themselves must be drained by the caller
// (Tail Fan-out for stream, an observability sink for errors) or sends will
// be dropped and logged rather than block the caller indefinitely.
type Pipeline struct {
	mu         sync.Mutex
	validators map[string][]Validator

	stream chan StreamEvent
	errs   chan ErrorEvent

	log *zap.SugaredLogger
}

// New builds an empty Pipeline. A nil log defaults to the package logger.
func New(log *zap.SugaredLogger) *Pipeline {
	if log == nil {
		log = logger.Logger
	}
	return &Pipeline{
		validators: make(map[string][]Validator),
		stream:     make(chan StreamEvent, channelBuffer),
		errs:       make(chan ErrorEvent, channelBuffer),
		log:        log,
	}
}

// Stream returns the validated-emission channel.
func (p *Pipeline) Stream() <-chan StreamEvent { return p.stream }

// Errors returns the observability channel for dropped and rejected
// messages.
func (p *Pipeline) Errors() <-chan ErrorEvent { return p.errs }

// Register attaches v as an additional, independent listener for event.
// Multiple registrations for the same event are permitted; the pipeline
// invokes every one of them for every Emit.
func (p *Pipeline) Register(event string, v Validator) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.validators[event] = append(p.validators[event], v)
}

// RegisterLegacy is a convenience wrapper registering a LegacyValidator.
func (p *Pipeline) RegisterLegacy(event string, arity int, fn func([]interface{}, Completion)) {
	p.Register(event, LegacyValidator{Arity: arity, Fn: fn})
}

// Emit runs every validator registered for event against data, user, and
// raw. A missing registration is itself a rejection: validation-before-emit
// is the central safety invariant, so an unvalidated message never reaches
// the stream channel.
func (p *Pipeline) Emit(event string, data []interface{}, user interface{}, raw string) {
	p.mu.Lock()
	vs := p.validators[event]
	p.mu.Unlock()

	if len(vs) == 0 {
		p.pushError(ErrorEvent{
			Kind:  errors.KindNoValidator,
			Event: event,
			Raw:   raw,
			User:  user,
			Err:   errors.WithKind(errors.Newf("no validator registered for event %q", event), errors.KindNoValidator),
		})
		return
	}

	for _, v := range vs {
		v.Validate(Args{Data: data, User: user, Raw: raw}, func(err error, ok bool, transformed ...interface{}) {
			if err != nil || !ok {
				p.pushError(ErrorEvent{
					Kind:  errors.KindValidatorRejected,
					Event: event,
					Raw:   raw,
					User:  user,
					Err:   err,
				})
				return
			}
			out := data
			if len(transformed) > 0 {
				out = transformed
			}
			p.pushStream(StreamEvent{Event: event, Data: out, Raw: raw, User: user})
		})
	}
}

// EmitError publishes an ErrorEvent directly, for producers upstream of the
// validator registry (decode and shape failures) that never reach Emit.
func (p *Pipeline) EmitError(kind errors.Kind, event, raw string, user interface{}, err error) {
	p.pushError(ErrorEvent{Kind: kind, Event: event, Raw: raw, User: user, Err: err})
}

func (p *Pipeline) pushStream(ev StreamEvent) {
	select {
	case p.stream <- ev:
	default:
		p.log.Warnw("stream channel full, dropping validated event", "event", ev.Event)
	}
}

func (p *Pipeline) pushError(ev ErrorEvent) {
	select {
	case p.errs <- ev:
	default:
		p.log.Warnw("error channel full, dropping error event", "event", ev.Event, "kind", ev.Kind)
	}
}
