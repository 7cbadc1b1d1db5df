// Package list implements the list-shaped CRDTs of spec.md §4.9 and
// SPEC_FULL.md §4's supplemented features: a Fugue-style text CRDT, a
// generic position-addressed list built on event-graph storage, and a
// nested list whose elements are themselves child CRDT logs.
//
// Grounded on _examples/original_source/src/crdt/list/fugue.rs,
// .../eg_walker.rs, and .../nested_list.rs.
package list

import (
	"strings"

	"github.com/CEA-LIST/Moirai-sub000/clock"
	"github.com/CEA-LIST/Moirai-sub000/crdtlog"
)

type fugueKind uint8

const (
	fugueInsert fugueKind = iota
	fugueDelete
)

// FugueOp is a Fugue text operation: Insert a character between two
// existing items (either may be absent, meaning start/end of document),
// or Delete an existing item by id.
type FugueOp struct {
	kind        fugueKind
	content     rune
	originLeft  *clock.EventID
	originRight *clock.EventID
	target      clock.EventID
}

// InsertRune constructs an Insert op. originLeft/originRight may be nil
// for "start of document"/"end of document".
func InsertRune(content rune, originLeft, originRight *clock.EventID) FugueOp {
	return FugueOp{kind: fugueInsert, content: content, originLeft: originLeft, originRight: originRight}
}

// DeleteRune constructs a Delete op targeting the item inserted by id.
func DeleteRune(id clock.EventID) FugueOp {
	return FugueOp{kind: fugueDelete, target: id}
}

type fugueItem struct {
	id          clock.EventID
	content     rune
	originLeft  *clock.EventID
	originRight *clock.EventID
	deleted     bool
}

type fugueDoc struct {
	items []fugueItem
}

func (d *fugueDoc) indexOf(id clock.EventID) (int, bool) {
	for i, it := range d.items {
		if it.id == id {
			return i, true
		}
	}
	return 0, false
}

func (d *fugueDoc) indexOfOpt(id *clock.EventID, fallback int) int {
	if id == nil {
		return fallback
	}
	if i, ok := d.indexOf(*id); ok {
		return i
	}
	return fallback
}

// integrate places new_item using the Fugue ordering rule: scan forward
// from just right of origin_left until either the right boundary or an
// item whose own origin places it strictly before new_item.
func (d *fugueDoc) integrate(item fugueItem) {
	leftIdx := -1
	if item.originLeft != nil {
		if i, ok := d.indexOf(*item.originLeft); ok {
			leftIdx = i
		}
	}
	rightIdx := d.indexOfOpt(item.originRight, len(d.items))

	destIdx := 0
	if leftIdx != -1 {
		destIdx = leftIdx + 1
	}
	scanning := false

	for i := destIdx; ; i++ {
		if !scanning {
			destIdx = i
		}
		if i == len(d.items) {
			break
		}
		if i == rightIdx {
			break
		}
		other := d.items[i]
		otherLeft := -1
		if other.originLeft != nil {
			if oi, ok := d.indexOf(*other.originLeft); ok {
				otherLeft = oi
			}
		}
		otherRight := d.indexOfOpt(other.originRight, len(d.items))

		if otherLeft < leftIdx || (otherLeft == leftIdx && otherRight == rightIdx && idLess(item.id, other.id)) {
			break
		}
		if otherLeft == leftIdx {
			scanning = otherRight < rightIdx
		}
	}

	d.items = append(d.items, fugueItem{})
	copy(d.items[destIdx+1:], d.items[destIdx:])
	d.items[destIdx] = item
}

func idLess(a, b clock.EventID) bool {
	if a.Origin != b.Origin {
		return a.Origin < b.Origin
	}
	return a.Seq < b.Seq
}

func (d *fugueDoc) applyDelete(id clock.EventID) {
	if i, ok := d.indexOf(id); ok {
		d.items[i].deleted = true
	}
}

func (d *fugueDoc) text() string {
	var b strings.Builder
	for _, it := range d.items {
		if !it.deleted {
			b.WriteRune(it.content)
		}
	}
	return b.String()
}

type fugueRules struct{}

// RedundantItself is always false: per the Rust source's
// DISABLE_R_WHEN_NOT_R/DISABLE_R_WHEN_R/DISABLE_STABILIZE flags, every
// op (insert or delete) is kept forever; the document is rebuilt from
// scratch by replaying the full unstable log on every Read.
func (fugueRules) RedundantItself(clock.Tag, FugueOp, struct{}, []crdtlog.TaggedOp[FugueOp]) bool {
	return false
}
func (fugueRules) RedundantByWhenRedundant(crdtlog.TaggedOp[FugueOp], bool, clock.Tag, FugueOp) bool {
	return false
}
func (fugueRules) RedundantByWhenNotRedundant(crdtlog.TaggedOp[FugueOp], bool, clock.Tag, FugueOp) bool {
	return false
}

type fugueEvaluator struct{}

func (fugueEvaluator) Eval(_ struct{}, unstable []crdtlog.TaggedOp[FugueOp]) string {
	doc := &fugueDoc{}
	for _, t := range unstable {
		switch t.Op.kind {
		case fugueInsert:
			doc.integrate(fugueItem{
				id:          t.Tag.ID,
				content:     t.Op.content,
				originLeft:  t.Op.originLeft,
				originRight: t.Op.originRight,
			})
		case fugueDelete:
			doc.applyDelete(t.Op.target)
		}
	}
	return doc.text()
}

// Fugue is a Fugue-style text CRDT instance. It never stabilizes (the
// underlying Rust CRDT declares DISABLE_STABILIZE), so Stabilize is a
// deliberate no-op — every item, live or deleted, stays in the unstable
// log and is replayed on every Read.
type Fugue struct {
	*crdtlog.VecLog[FugueOp, struct{}, string]
}

// NewFugue constructs an empty Fugue document.
func NewFugue() *Fugue {
	return &Fugue{crdtlog.NewVecLog[FugueOp, struct{}, string](
		fugueRules{}, nil, nil, fugueEvaluator{}, func() struct{} { return struct{}{} })}
}

// Stabilize is a no-op: Fugue never compresses history (spec.md §4.9's
// Fugue row; DISABLE_STABILIZE in the Rust source).
func (f *Fugue) Stabilize(*clock.Version) {}

func (f *Fugue) IsDefault() bool { return f.Read() == "" }
