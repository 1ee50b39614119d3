package httpclient

import (
	"maps"
	"reflect"
	"strings"

	"github.com/gaborage/bridgekit/validation"
)

// Slot names one part of a resolved request.
type Slot string

const (
	SlotBody    Slot = "body"
	SlotHeaders Slot = "headers"
	SlotPath    Slot = "path"
	SlotQuery   Slot = "query"
)

// FieldSpec is either a Field or a Fields group.
type FieldSpec interface {
	isFieldSpec()
}

// Field binds one positional argument, or one named entry of a group, to a
// slot. An empty Key on a body field makes the whole argument the body.
type Field struct {
	In  Slot
	Key string
	// Map renames the key inside the slot.
	Map string
}

// Fields spreads an object argument's entries across slots by key.
type Fields struct {
	Args []FieldSpec
	// AllowExtra lists the slots unknown keys may fall into, first match wins.
	AllowExtra []Slot
}

func (Field) isFieldSpec()  {}
func (Fields) isFieldSpec() {}

// FieldsConfig describes the positional arguments of an operation.
type FieldsConfig []FieldSpec

// Params is the resolved, slot-organized form of a call's arguments. Empty
// object slots are nil.
type Params struct {
	Body    any
	Headers map[string]any
	Path    map[string]any
	Query   map[string]any
}

var extraPrefixes = []struct {
	prefix string
	slot   Slot
}{
	{"$body_", SlotBody},
	{"$headers_", SlotHeaders},
	{"$path_", SlotPath},
	{"$query_", SlotQuery},
}

type fieldTarget struct {
	in     Slot
	rename string
}

func (t fieldTarget) name(key string) string {
	if t.rename != "" {
		return t.rename
	}
	return key
}

type argEntry struct {
	key   string
	value any
	// slot is set when struct tags already route the entry.
	slot Slot
}

// BuildClientParams maps positional arguments onto request slots. Argument i
// is read with fields[i]; when fields is shorter than args, the last config
// seen keeps applying. A keyed field takes its whole argument, unless the
// argument is an object carrying that key. Entries of group arguments that
// match no known key are routed by reserved prefix, then by the group's
// AllowExtra, else dropped. Caller maps are never written to.
func BuildClientParams(args []any, fields FieldsConfig) Params {
	p := Params{
		Body:    map[string]any{},
		Headers: map[string]any{},
		Path:    map[string]any{},
		Query:   map[string]any{},
	}
	lookup := buildKeyMap(fields, map[string]fieldTarget{})

	var active FieldSpec
	for i, arg := range args {
		if i < len(fields) && fields[i] != nil {
			active = fields[i]
		}

		switch cfg := deref(active).(type) {
		case Field:
			if cfg.Key == "" {
				p.Body = ownBody(arg)
				continue
			}
			value := arg
			if named, ok := namedEntry(arg, cfg.Key); ok {
				value = named
			}
			target := lookup[cfg.Key]
			p.set(target.in, target.name(cfg.Key), value)
		case Fields:
			for _, entry := range objectArgEntries(arg) {
				p.route(entry, cfg, lookup)
			}
		}
	}

	StripEmptySlots(&p)
	return p
}

func (p *Params) route(entry argEntry, group Fields, lookup map[string]fieldTarget) {
	if target, ok := lookup[entry.key]; ok {
		p.set(target.in, target.name(entry.key), entry.value)
		return
	}
	for _, extra := range extraPrefixes {
		if strings.HasPrefix(entry.key, extra.prefix) {
			p.set(extra.slot, strings.TrimPrefix(entry.key, extra.prefix), entry.value)
			return
		}
	}
	if entry.slot != "" {
		p.set(entry.slot, entry.key, entry.value)
		return
	}
	if len(group.AllowExtra) > 0 {
		p.set(group.AllowExtra[0], entry.key, entry.value)
	}
}

func (p *Params) set(slot Slot, key string, value any) {
	switch slot {
	case SlotBody:
		if body, ok := p.Body.(map[string]any); ok {
			body[key] = value
		}
	case SlotHeaders:
		p.Headers = setKey(p.Headers, key, value)
	case SlotPath:
		p.Path = setKey(p.Path, key, value)
	case SlotQuery:
		p.Query = setKey(p.Query, key, value)
	}
}

// ownBody copies map bodies so later keyed writes stay local to Params.
func ownBody(arg any) any {
	if m, ok := arg.(map[string]any); ok && m != nil {
		return maps.Clone(m)
	}
	return arg
}

func setKey(m map[string]any, key string, value any) map[string]any {
	if m == nil {
		m = map[string]any{}
	}
	m[key] = value
	return m
}

// StripEmptySlots removes slots holding an empty object. The body is removed
// only when it is itself an empty map or slice.
func StripEmptySlots(p *Params) {
	if p == nil {
		return
	}
	if len(p.Headers) == 0 {
		p.Headers = nil
	}
	if len(p.Path) == 0 {
		p.Path = nil
	}
	if len(p.Query) == 0 {
		p.Query = nil
	}
	if p.Body == nil {
		return
	}
	rv := reflect.ValueOf(p.Body)
	if (rv.Kind() == reflect.Map || rv.Kind() == reflect.Slice) && rv.Len() == 0 {
		p.Body = nil
	}
}

// buildKeyMap collects keyed fields, recursing into groups. Later declarations
// of a key replace earlier ones.
func buildKeyMap(fields []FieldSpec, into map[string]fieldTarget) map[string]fieldTarget {
	for _, spec := range fields {
		switch cfg := deref(spec).(type) {
		case Field:
			if cfg.Key != "" {
				into[cfg.Key] = fieldTarget{in: cfg.In, rename: cfg.Map}
			}
		case Fields:
			buildKeyMap(cfg.Args, into)
		}
	}
	return into
}

func deref(spec FieldSpec) FieldSpec {
	switch cfg := spec.(type) {
	case *Field:
		if cfg != nil {
			return *cfg
		}
		return nil
	case *Fields:
		if cfg != nil {
			return *cfg
		}
		return nil
	}
	return spec
}

// objectArgEntries lists the entries of a group argument. Maps are visited in
// sorted key order, structs in field order. Anything else has no entries.
func objectArgEntries(arg any) []argEntry {
	switch m := arg.(type) {
	case nil:
		return nil
	case map[string]any:
		entries := make([]argEntry, 0, len(m))
		for _, k := range sortedKeys(m) {
			entries = append(entries, argEntry{key: k, value: m[k]})
		}
		return entries
	case map[string]string:
		entries := make([]argEntry, 0, len(m))
		for _, k := range sortedKeys(m) {
			entries = append(entries, argEntry{key: k, value: m[k]})
		}
		return entries
	}

	values := validation.Values(arg)
	entries := make([]argEntry, 0, len(values))
	for _, fv := range values {
		entries = append(entries, argEntry{key: fv.Tag.Key(), value: fv.Value, slot: slotFor(fv.Tag.In, true)})
	}
	return entries
}

// namedEntry unwraps an object argument that carries the field's own key, so
// {"id": "1"} bound to the "id" field contributes "1".
func namedEntry(arg any, key string) (any, bool) {
	switch m := arg.(type) {
	case map[string]any:
		v, ok := m[key]
		return v, ok
	case map[string]string:
		v, ok := m[key]
		return v, ok
	}
	for _, fv := range validation.Values(arg) {
		if fv.Tag.Key() == key {
			return fv.Value, true
		}
	}
	return nil, false
}

// FieldsFromStruct derives a single group config from the binding tags of a
// struct: param → path, query → query, header → headers, the rest → body.
func FieldsFromStruct(v any) FieldsConfig {
	var t reflect.Type
	if rt, ok := v.(reflect.Type); ok {
		t = rt
	} else {
		t = reflect.TypeOf(v)
	}

	var args []FieldSpec
	for _, tag := range validation.ParseTags(t) {
		if tag.Skipped() {
			continue
		}
		args = append(args, Field{In: slotFor(tag.In, false), Key: tag.Key()})
	}
	return FieldsConfig{Fields{Args: args}}
}

// slotFor maps a tag location onto a slot. With hintOnly, body fields map to no
// slot so they follow the group's own routing.
func slotFor(in validation.Location, hintOnly bool) Slot {
	switch in {
	case validation.LocationPath:
		return SlotPath
	case validation.LocationQuery:
		return SlotQuery
	case validation.LocationHeader:
		return SlotHeaders
	}
	if hintOnly {
		return ""
	}
	return SlotBody
}

// ApplyParams merges resolved params into per-call options. Headers go through
// MergeHeaders, so a nil header value removes that header.
func ApplyParams(opts RequestOptions, p Params) RequestOptions {
	if p.Body != nil {
		opts.Body = p.Body
	}
	if len(p.Headers) > 0 {
		opts.Headers = MergeHeaders(opts.Headers, p.Headers)
	}
	if len(p.Path) > 0 {
		opts.Path = mergeMaps(opts.Path, p.Path)
	}
	if len(p.Query) > 0 {
		opts.Query = mergeMaps(opts.Query, p.Query)
	}
	return opts
}

func mergeMaps(a, b map[string]any) map[string]any {
	out := make(map[string]any, len(a)+len(b))
	for k, v := range a {
		out[k] = v
	}
	for k, v := range b {
		out[k] = v
	}
	return out
}
