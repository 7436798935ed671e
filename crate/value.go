package crate

import (
	"fmt"
	"strings"
)

// Kind identifies which variant a Value holds.
type Kind int

const (
	// Absent marks a property that is not set (or set to null).
	Absent Kind = iota
	// Text is a plain string (or a scalar rendered as a string).
	Text
	// EntityRef is a structured record, either inline or referenced by @id.
	EntityRef
	// List is an ordered sequence of values.
	List
)

func (k Kind) String() string {
	switch k {
	case Absent:
		return "absent"
	case Text:
		return "text"
	case EntityRef:
		return "entity"
	case List:
		return "list"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Value is the value of an entity property: absent, free text, an entity or a
// list of values. Consumers switch on Kind and use the matching accessor.
type Value struct {
	kind   Kind
	text   string
	entity *Entity
	list   []Value
}

// TextValue returns a Value holding the given string.
func TextValue(s string) Value {
	return Value{kind: Text, text: s}
}

// EntityValue returns a Value holding the given entity. A nil entity yields an
// absent value.
func EntityValue(e *Entity) Value {
	if e == nil {
		return Value{}
	}
	return Value{kind: EntityRef, entity: e}
}

// ListValue returns a Value holding the given values in order. Absent
// elements are dropped; an empty list is absent.
func ListValue(values ...Value) Value {
	list := make([]Value, 0, len(values))
	for _, v := range values {
		if v.kind != Absent {
			list = append(list, v)
		}
	}
	if len(list) == 0 {
		return Value{}
	}
	return Value{kind: List, list: list}
}

// Kind returns the variant held by the value.
func (v Value) Kind() Kind {
	return v.kind
}

// IsZero is true for absent values and for empty text.
func (v Value) IsZero() bool {
	switch v.kind {
	case Absent:
		return true
	case Text:
		return strings.TrimSpace(v.text) == ""
	default:
		return false
	}
}

// Text returns the string of a Text value.
func (v Value) Text() (string, bool) {
	if v.kind != Text {
		return "", false
	}
	return v.text, true
}

// Entity returns the entity of an EntityRef value.
func (v Value) Entity() (*Entity, bool) {
	if v.kind != EntityRef {
		return nil, false
	}
	return v.entity, true
}

// Items returns the elements of a List value. Any other present value is
// returned as a one-element slice and an absent value as nil, so callers that
// accept "one or many" can range over Items directly.
func (v Value) Items() []Value {
	switch v.kind {
	case Absent:
		return nil
	case List:
		items := make([]Value, len(v.list))
		copy(items, v.list)
		return items
	default:
		return []Value{v}
	}
}

// String renders the value for log and error messages. Entities are shown by
// their @id.
func (v Value) String() string {
	switch v.kind {
	case Text:
		return v.text
	case EntityRef:
		return v.entity.ID()
	case List:
		parts := make([]string, len(v.list))
		for idx, item := range v.list {
			parts[idx] = item.String()
		}
		return "[" + strings.Join(parts, ", ") + "]"
	default:
		return ""
	}
}
