// Package json implements the JSON union CRDT: a single replicated value
// that can hold a number, a boolean, a string, an object, or an array,
// each backed by the matching sibling CRDT (spec.md §4.9's "Recursive
// JSON union" row). The first write to a fresh instance commits it to one
// variant; a later write of a different variant concurrent with the first
// is kept as a conflict rather than arbitrarily discarded, so replicas
// converge on the same ambiguity instead of silently picking a winner.
//
// Grounded on _examples/original_source/src/crdt/union/mod.rs's
// make_union! macro expansion (JsonLog's Container enum: Unset, a single
// Value, or Conflicts). Rust generates the union via a declarative macro
// over five (variant, type, log) triples; Go has no equivalent
// compile-time enum generation, so the five variants are hand-written
// here as a closed Kind switch, with each variant's child held behind a
// small jsonChild wrapper that adapts that sibling CRDT's Op/Value types
// to the union's own dispatch. Object and Array recurse into Json itself
// (UWMap<String, Box<Json>> and NestedList<Box<Json>> in the Rust
// source); the recursion is closed here with a *Op field exactly where
// the Rust source uses Box<Json> — both exist solely to give the
// otherwise self-referential Op struct a finite size.
package json

import (
	"sort"

	"github.com/CEA-LIST/Moirai-sub000/clock"
	"github.com/CEA-LIST/Moirai-sub000/crdt/counter"
	"github.com/CEA-LIST/Moirai-sub000/crdt/flag"
	"github.com/CEA-LIST/Moirai-sub000/crdt/list"
	"github.com/CEA-LIST/Moirai-sub000/crdt/uwmap"
	"github.com/CEA-LIST/Moirai-sub000/crdtlog"
)

// Kind names which sibling CRDT a Json value or operation belongs to.
type Kind uint8

const (
	KindNumber Kind = iota
	KindBoolean
	KindString
	KindObject
	KindArray
)

// Op is the union operation. Exactly one of its payload fields is
// meaningful, selected by kind; construct one with Number, Boolean,
// String, Object, or Array rather than building it directly.
type Op struct {
	kind    Kind
	number  counter.Op[int]
	boolean flag.Op
	str     list.Op[rune]
	object  uwmap.Op[string, *Op]
	array   list.NestedOp[*Op]
}

func Number(op counter.Op[int]) *Op      { return &Op{kind: KindNumber, number: op} }
func Boolean(op flag.Op) *Op             { return &Op{kind: KindBoolean, boolean: op} }
func String(op list.Op[rune]) *Op        { return &Op{kind: KindString, str: op} }
func Object(op uwmap.Op[string, *Op]) *Op { return &Op{kind: KindObject, object: op} }
func Array(op list.NestedOp[*Op]) *Op    { return &Op{kind: KindArray, array: op} }

// ChildValue is the resolved value of one variant (spec.md's
// JsonChildValue): exactly the fields matching Kind are populated.
type ChildValue struct {
	Kind    Kind
	Number  int
	Boolean bool
	String  string
	Object  map[string]Value
	Array   []Value
}

func (c ChildValue) rank() int { return int(c.Kind) }

func (c ChildValue) less(other ChildValue) bool {
	if c.Kind != other.Kind {
		return c.rank() < other.rank()
	}
	switch c.Kind {
	case KindNumber:
		return c.Number < other.Number
	case KindBoolean:
		return !c.Boolean && other.Boolean
	case KindString:
		return c.String < other.String
	default:
		return len(c.Object) < len(other.Object) || len(c.Array) < len(other.Array)
	}
}

// Value is a Json log's query result: empty when the log has never been
// written (Unset), a single ChildValue once committed to one variant, or
// more than one when a concurrent write of a different variant produced
// an unresolved conflict (spec.md's JsonValue::Conflict).
type Value struct {
	Values []ChildValue
}

func (v Value) IsConflict() bool { return len(v.Values) > 1 }

// ToJSON renders v as a plain Go value suitable for encoding/json:
// nil for Unset, the scalar/map/slice for a resolved value, and a JSON
// array of the competing values for a conflict — mirroring
// union::to_json's handling of JsonValue::Conflict.
func ToJSON(v Value) interface{} {
	switch len(v.Values) {
	case 0:
		return nil
	case 1:
		return childToJSON(v.Values[0])
	default:
		out := make([]interface{}, len(v.Values))
		for i, c := range v.Values {
			out[i] = childToJSON(c)
		}
		return out
	}
}

func childToJSON(c ChildValue) interface{} {
	switch c.Kind {
	case KindNumber:
		return c.Number
	case KindBoolean:
		return c.Boolean
	case KindString:
		return c.String
	case KindObject:
		out := make(map[string]interface{}, len(c.Object))
		for k, v := range c.Object {
			out[k] = ToJSON(v)
		}
		return out
	default:
		out := make([]interface{}, len(c.Array))
		for i, v := range c.Array {
			out[i] = ToJSON(v)
		}
		return out
	}
}

// jsonChild adapts one sibling CRDT log to the union's dispatch.
type jsonChild interface {
	kind() Kind
	effect(e clock.Event[*Op])
	stabilize(version *clock.Version)
	redundantByParent(version *clock.Version, conservative bool)
	isEnabled(op *Op) bool
	read() ChildValue
}

type numberChild struct{ log crdtlog.Log[counter.Op[int], int] }

func newNumberChild() *numberChild { return &numberChild{log: counter.New[int]()} }
func (c *numberChild) kind() Kind  { return KindNumber }
func (c *numberChild) effect(e clock.Event[*Op]) {
	c.log.Effect(clock.Unfold(e, e.Op.number))
}
func (c *numberChild) stabilize(v *clock.Version) { c.log.Stabilize(v) }
func (c *numberChild) redundantByParent(v *clock.Version, conservative bool) {
	c.log.RedundantByParent(v, conservative)
}
func (c *numberChild) isEnabled(op *Op) bool { return c.log.IsEnabled(op.number) }
func (c *numberChild) read() ChildValue      { return ChildValue{Kind: KindNumber, Number: c.log.Read()} }

type booleanChild struct{ log crdtlog.Log[flag.Op, bool] }

func newBooleanChild() *booleanChild { return &booleanChild{log: flag.New()} }
func (c *booleanChild) kind() Kind   { return KindBoolean }
func (c *booleanChild) effect(e clock.Event[*Op]) {
	c.log.Effect(clock.Unfold(e, e.Op.boolean))
}
func (c *booleanChild) stabilize(v *clock.Version) { c.log.Stabilize(v) }
func (c *booleanChild) redundantByParent(v *clock.Version, conservative bool) {
	c.log.RedundantByParent(v, conservative)
}
func (c *booleanChild) isEnabled(op *Op) bool { return c.log.IsEnabled(op.boolean) }
func (c *booleanChild) read() ChildValue {
	return ChildValue{Kind: KindBoolean, Boolean: c.log.Read()}
}

type stringChild struct{ log *list.Log[rune] }

func newStringChild() *stringChild { return &stringChild{log: list.New[rune]()} }
func (c *stringChild) kind() Kind  { return KindString }
func (c *stringChild) effect(e clock.Event[*Op]) {
	c.log.Effect(clock.Unfold(e, e.Op.str))
}
func (c *stringChild) stabilize(v *clock.Version) { c.log.Stabilize(v) }
func (c *stringChild) redundantByParent(v *clock.Version, conservative bool) {
	c.log.RedundantByParent(v, conservative)
}
func (c *stringChild) isEnabled(op *Op) bool { return c.log.IsEnabled(op.str) }
func (c *stringChild) read() ChildValue {
	return ChildValue{Kind: KindString, String: string(c.log.Read())}
}

type objectChild struct {
	log crdtlog.Log[uwmap.Op[string, *Op], map[string]Value]
}

func newObjectChild() *objectChild {
	return &objectChild{log: uwmap.New[string, *Op, Value](newChildLog)}
}
func (c *objectChild) kind() Kind { return KindObject }
func (c *objectChild) effect(e clock.Event[*Op]) {
	c.log.Effect(clock.Unfold(e, e.Op.object))
}
func (c *objectChild) stabilize(v *clock.Version) { c.log.Stabilize(v) }
func (c *objectChild) redundantByParent(v *clock.Version, conservative bool) {
	c.log.RedundantByParent(v, conservative)
}
func (c *objectChild) isEnabled(op *Op) bool { return c.log.IsEnabled(op.object) }
func (c *objectChild) read() ChildValue {
	return ChildValue{Kind: KindObject, Object: c.log.Read()}
}

type arrayChild struct {
	log *list.Nested[*Op, Value]
}

func newArrayChild() *arrayChild {
	return &arrayChild{log: list.NewNested[*Op, Value](newChildLog)}
}
func (c *arrayChild) kind() Kind { return KindArray }
func (c *arrayChild) effect(e clock.Event[*Op]) {
	c.log.Effect(clock.Unfold(e, e.Op.array))
}
func (c *arrayChild) stabilize(v *clock.Version) { c.log.Stabilize(v) }
func (c *arrayChild) redundantByParent(v *clock.Version, conservative bool) {
	c.log.RedundantByParent(v, conservative)
}
func (c *arrayChild) isEnabled(op *Op) bool { return c.log.IsEnabled(op.array) }
func (c *arrayChild) read() ChildValue      { return ChildValue{Kind: KindArray, Array: c.log.Read()} }

func newChildByKind(k Kind) jsonChild {
	switch k {
	case KindNumber:
		return newNumberChild()
	case KindBoolean:
		return newBooleanChild()
	case KindString:
		return newStringChild()
	case KindObject:
		return newObjectChild()
	default:
		return newArrayChild()
	}
}

// newChildLog is passed to uwmap.New/list.NewNested as the recursive
// "child of a child" factory: an Object's values and an Array's elements
// are themselves whole Json logs.
func newChildLog() crdtlog.Log[*Op, Value] { return New() }

type containerKind uint8

const (
	containerUnset containerKind = iota
	containerValue
	containerConflicts
)

// Log is a Json union CRDT instance.
type Log struct {
	state    containerKind
	child    jsonChild   // containerValue
	children []jsonChild // containerConflicts
}

// New constructs an empty, unset Json value.
func New() *Log { return &Log{} }

func (l *Log) Effect(e clock.Event[*Op]) {
	k := e.Op.kind
	switch l.state {
	case containerUnset:
		child := newChildByKind(k)
		child.effect(e)
		l.state = containerValue
		l.child = child
	case containerValue:
		if l.child.kind() == k {
			l.child.effect(e)
			return
		}
		child := newChildByKind(k)
		child.effect(e)
		l.children = []jsonChild{l.child, child}
		l.child = nil
		l.state = containerConflicts
	case containerConflicts:
		for _, c := range l.children {
			if c.kind() == k {
				c.effect(e)
				return
			}
		}
		child := newChildByKind(k)
		child.effect(e)
		l.children = append(l.children, child)
	}
}

func (l *Log) Stabilize(version *clock.Version) {
	switch l.state {
	case containerValue:
		l.child.stabilize(version)
	case containerConflicts:
		for _, c := range l.children {
			c.stabilize(version)
		}
	}
}

func (l *Log) RedundantByParent(version *clock.Version, conservative bool) {
	switch l.state {
	case containerValue:
		l.child.redundantByParent(version, conservative)
	case containerConflicts:
		for _, c := range l.children {
			c.redundantByParent(version, conservative)
		}
	}
}

// IsEnabled mirrors is_enabled: an unset log accepts any first write. A
// log that already knows its own kind — committed to a single value, or
// already a conflict — only accepts a further write matching one of the
// kinds it already holds; a genuinely new kind is refused locally. This
// is what makes the "Value" and "Conflict" outcomes differ from a race:
// two replicas each send a different kind while their own copy is still
// Unset (both locally enabled), and only discover each other's choice
// when Effect delivers the other's op, at which point it folds into an
// (unsorted by is_enabled) Conflict rather than being refused — Effect
// never consults IsEnabled, since causally-ready deliveries always
// apply.
func (l *Log) IsEnabled(op *Op) bool {
	switch l.state {
	case containerUnset:
		return true
	case containerValue:
		return l.child.kind() == op.kind && l.child.isEnabled(op)
	default:
		for _, c := range l.children {
			if c.kind() == op.kind {
				return c.isEnabled(op)
			}
		}
		return false
	}
}

func (l *Log) IsDefault() bool { return l.state == containerUnset }

func (l *Log) Read() Value {
	switch l.state {
	case containerValue:
		return Value{Values: []ChildValue{l.child.read()}}
	case containerConflicts:
		out := make([]ChildValue, len(l.children))
		for i, c := range l.children {
			out[i] = c.read()
		}
		sort.Slice(out, func(i, j int) bool { return out[i].less(out[j]) })
		return Value{Values: out}
	default:
		return Value{}
	}
}

// StringLog returns the live list log backing the String variant, so a
// caller can resolve Insert/Delete positions via its Prepare* methods
// before wrapping the result with String.
func (l *Log) StringLog() *list.Log[rune] {
	return l.childOf(KindString).(*stringChild).log
}

// ArrayLog returns the live nested-list log backing the Array variant,
// so a caller can resolve Insert/Set/Delete positions via its Prepare*
// methods before wrapping the result with Array.
func (l *Log) ArrayLog() *list.Nested[*Op, Value] {
	return l.childOf(KindArray).(*arrayChild).log
}

// childOf returns the log's existing child of kind k, or — if the log is
// unset, or committed to a different kind, or a conflict holding no such
// variant yet — a throwaway instance of the right shape. A throwaway
// instance is always empty, so resolving a position against it (e.g.
// PrepareInsert at position 0) is always correct for the first op of a
// brand new variant.
func (l *Log) childOf(k Kind) jsonChild {
	switch l.state {
	case containerValue:
		if l.child.kind() == k {
			return l.child
		}
	case containerConflicts:
		for _, c := range l.children {
			if c.kind() == k {
				return c
			}
		}
	}
	return newChildByKind(k)
}
