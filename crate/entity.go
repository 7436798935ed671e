package crate

import (
	"fmt"
	"sort"
	"strconv"
)

// Entity is a read-only view of one node of the crate's @graph (or of an
// inline object nested in a property). Property values that reference other
// nodes by @id are resolved against the graph on access.
type Entity struct {
	id    string
	types []string
	props map[string]interface{}
	graph map[string]*Entity
}

// NewEntity builds a detached entity from a decoded JSON object. It is used
// for inline objects and in tests; references to other nodes by @id resolve to
// id-only entities.
func NewEntity(obj map[string]interface{}) *Entity {
	return newEntity(obj, nil)
}

func newEntity(obj map[string]interface{}, graph map[string]*Entity) *Entity {
	e := &Entity{props: make(map[string]interface{}, len(obj)), graph: graph}
	for key, val := range obj {
		switch key {
		case "@id":
			if id, ok := val.(string); ok {
				e.id = id
			}
		case "@type":
			e.types = stringList(val)
		default:
			e.props[key] = val
		}
	}
	return e
}

// ID returns the @id of the entity; empty if the node has none.
func (e *Entity) ID() string {
	if e == nil {
		return ""
	}
	return e.id
}

// Types returns the @type values of the entity.
func (e *Entity) Types() []string {
	if e == nil {
		return nil
	}
	return append([]string(nil), e.types...)
}

// HasType reports whether the entity lists the given @type.
func (e *Entity) HasType(typ string) bool {
	for _, t := range e.Types() {
		if t == typ {
			return true
		}
	}
	return false
}

// Has reports whether the property is set to a non-null value.
func (e *Entity) Has(key string) bool {
	if e == nil {
		return false
	}
	val, ok := e.props[key]
	return ok && val != nil
}

// Keys returns the sorted property names of the entity, without @id and
// @type.
func (e *Entity) Keys() []string {
	if e == nil {
		return nil
	}
	keys := make([]string, 0, len(e.props))
	for key := range e.props {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Get returns the property as a Value. Missing properties and nulls are
// Absent.
func (e *Entity) Get(key string) Value {
	if e == nil {
		return Value{}
	}
	return e.value(e.props[key])
}

// GetString returns the property if it holds text, or the empty string.
// Numbers and booleans are rendered as text.
func (e *Entity) GetString(key string) string {
	s, _ := e.Get(key).Text()
	return s
}

func (e *Entity) value(raw interface{}) Value {
	switch val := raw.(type) {
	case nil:
		return Value{}
	case string:
		return TextValue(val)
	case float64:
		return TextValue(strconv.FormatFloat(val, 'f', -1, 64))
	case bool:
		return TextValue(strconv.FormatBool(val))
	case []interface{}:
		items := make([]Value, 0, len(val))
		for _, item := range val {
			items = append(items, e.value(item))
		}
		return ListValue(items...)
	case map[string]interface{}:
		return EntityValue(e.resolve(val))
	default:
		return TextValue(fmt.Sprintf("%v", val))
	}
}

// resolve turns a JSON object into an entity. An object holding nothing but
// an @id is a reference: it resolves to the graph node of that id, or to an
// id-only entity if the graph has none.
func (e *Entity) resolve(obj map[string]interface{}) *Entity {
	id, _ := obj["@id"].(string)
	if id != "" && len(obj) == 1 {
		if node, ok := e.graph[id]; ok {
			return node
		}
		return &Entity{id: id, props: map[string]interface{}{}, graph: e.graph}
	}
	return newEntity(obj, e.graph)
}

func stringList(raw interface{}) []string {
	switch val := raw.(type) {
	case string:
		return []string{val}
	case []interface{}:
		list := make([]string, 0, len(val))
		for _, item := range val {
			if s, ok := item.(string); ok {
				list = append(list, s)
			}
		}
		return list
	default:
		return nil
	}
}
