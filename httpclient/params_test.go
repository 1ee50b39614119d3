package httpclient

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type listMembersArgs struct {
	OrgID  string `param:"org"`
	Limit  int    `query:"limit"`
	Tenant string `header:"X-Tenant"`
	Name   string `json:"name,omitempty"`
	Secret string `json:"-"`
}

func TestBuildClientParams_PositionalExample(t *testing.T) {
	p := BuildClientParams(
		[]any{map[string]any{"id": "1"}, "hello"},
		FieldsConfig{Field{In: SlotPath, Key: "id"}, Field{In: SlotBody}},
	)

	assert.Equal(t, Params{Path: map[string]any{"id": "1"}, Body: "hello"}, p)
	assert.Nil(t, p.Headers)
	assert.Nil(t, p.Query)
}

func TestBuildClientParams_ScalarKeyedArgument(t *testing.T) {
	p := BuildClientParams([]any{"42", true}, FieldsConfig{
		Field{In: SlotPath, Key: "id"},
		Field{In: SlotHeaders, Key: "dryRun", Map: "X-Dry-Run"},
	})

	assert.Equal(t, map[string]any{"id": "42"}, p.Path)
	assert.Equal(t, map[string]any{"X-Dry-Run": true}, p.Headers)
	assert.Nil(t, p.Body)
}

func TestBuildClientParams_UnknownKeysDropped(t *testing.T) {
	fields := FieldsConfig{Fields{Args: []FieldSpec{Field{In: SlotQuery, Key: "a"}}}}

	p := BuildClientParams([]any{map[string]any{"a": 1, "b": 2}}, fields)

	assert.Equal(t, map[string]any{"a": 1}, p.Query)
	assert.Nil(t, p.Body)
	assert.Nil(t, p.Headers)
	assert.Nil(t, p.Path)
}

func TestBuildClientParams_AllowExtraFirstSlotWins(t *testing.T) {
	fields := FieldsConfig{Fields{
		Args:       []FieldSpec{Field{In: SlotQuery, Key: "a"}},
		AllowExtra: []Slot{SlotHeaders, SlotQuery},
	}}

	p := BuildClientParams([]any{map[string]any{"a": 1, "X-Extra": "v"}}, fields)

	assert.Equal(t, map[string]any{"a": 1}, p.Query)
	assert.Equal(t, map[string]any{"X-Extra": "v"}, p.Headers)
}

func TestBuildClientParams_ReservedPrefixes(t *testing.T) {
	fields := FieldsConfig{Fields{Args: []FieldSpec{Field{In: SlotPath, Key: "id"}}}}

	p := BuildClientParams([]any{map[string]any{
		"id":            "7",
		"$query_foo":    "v",
		"$body_note":    "n",
		"$headers_X-Id": "h",
		"$path_version": "v2",
	}}, fields)

	assert.Equal(t, map[string]any{"foo": "v"}, p.Query)
	assert.Equal(t, map[string]any{"note": "n"}, p.Body)
	assert.Equal(t, map[string]any{"X-Id": "h"}, p.Headers)
	assert.Equal(t, map[string]any{"id": "7", "version": "v2"}, p.Path)
}

func TestBuildClientParams_PrefixDoesNotShadowDeclaredKey(t *testing.T) {
	fields := FieldsConfig{Fields{Args: []FieldSpec{Field{In: SlotHeaders, Key: "$query_foo"}}}}

	p := BuildClientParams([]any{map[string]any{"$query_foo": "v"}}, fields)

	assert.Equal(t, map[string]any{"$query_foo": "v"}, p.Headers)
	assert.Nil(t, p.Query)
}

func TestBuildClientParams_CarryForward(t *testing.T) {
	p := BuildClientParams([]any{"x", "y", "z"}, FieldsConfig{Field{In: SlotQuery, Key: "a"}})

	assert.Equal(t, map[string]any{"a": "z"}, p.Query)
}

func TestBuildClientParams_CarryForwardGroup(t *testing.T) {
	fields := FieldsConfig{
		Field{In: SlotPath, Key: "id"},
		Fields{Args: []FieldSpec{Field{In: SlotQuery, Key: "page"}}, AllowExtra: []Slot{SlotQuery}},
	}

	p := BuildClientParams([]any{"9", map[string]any{"page": 1}, map[string]any{"sort": "asc"}}, fields)

	assert.Equal(t, map[string]any{"id": "9"}, p.Path)
	assert.Equal(t, map[string]any{"page": 1, "sort": "asc"}, p.Query)
}

func TestBuildClientParams_LaterDeclarationWinsLookup(t *testing.T) {
	fields := FieldsConfig{
		Fields{Args: []FieldSpec{Field{In: SlotQuery, Key: "id"}}},
		Field{In: SlotPath, Key: "id"},
	}

	p := BuildClientParams([]any{map[string]any{"id": "a"}}, fields)

	assert.Equal(t, map[string]any{"id": "a"}, p.Path)
	assert.Nil(t, p.Query)
}

func TestBuildClientParams_KeyedBodyWriteOnScalarBodyDropped(t *testing.T) {
	fields := FieldsConfig{
		Field{In: SlotBody},
		Fields{Args: []FieldSpec{Field{In: SlotBody, Key: "name"}}},
	}

	p := BuildClientParams([]any{"raw", map[string]any{"name": "x"}}, fields)

	assert.Equal(t, "raw", p.Body)
}

func TestBuildClientParams_WholeBodyIsCopied(t *testing.T) {
	caller := map[string]any{"a": 1}
	fields := FieldsConfig{
		Field{In: SlotBody},
		Fields{AllowExtra: []Slot{SlotBody}},
	}

	p := BuildClientParams([]any{caller, map[string]any{"b": 2}}, fields)

	assert.Equal(t, map[string]any{"a": 1, "b": 2}, p.Body)
	assert.Equal(t, map[string]any{"a": 1}, caller)
}

func TestBuildClientParams_NoConfig(t *testing.T) {
	p := BuildClientParams([]any{"a", map[string]any{"b": 1}}, nil)
	assert.Equal(t, Params{}, p)
}

func TestBuildClientParams_PointerSpecs(t *testing.T) {
	p := BuildClientParams([]any{"v"}, FieldsConfig{&Field{In: SlotQuery, Key: "q"}})
	assert.Equal(t, map[string]any{"q": "v"}, p.Query)
}

func TestBuildClientParams_StructArgumentUsesTags(t *testing.T) {
	args := listMembersArgs{OrgID: "acme", Limit: 10, Tenant: "t1", Name: "jo", Secret: "s"}

	p := BuildClientParams([]any{args}, FieldsConfig{Fields{}})
	assert.Equal(t, map[string]any{"org": "acme"}, p.Path)
	assert.Equal(t, map[string]any{"limit": 10}, p.Query)
	assert.Equal(t, map[string]any{"X-Tenant": "t1"}, p.Headers)
	assert.Nil(t, p.Body, "untagged body fields need a declared key or AllowExtra")

	p = BuildClientParams([]any{&args}, FieldsConfig{Fields{AllowExtra: []Slot{SlotBody}}})
	assert.Equal(t, map[string]any{"name": "jo"}, p.Body)
}

func TestFieldsFromStruct(t *testing.T) {
	fields := FieldsFromStruct(listMembersArgs{})
	require.Len(t, fields, 1)
	group, ok := fields[0].(Fields)
	require.True(t, ok)
	assert.Equal(t, []FieldSpec{
		Field{In: SlotPath, Key: "org"},
		Field{In: SlotQuery, Key: "limit"},
		Field{In: SlotHeaders, Key: "X-Tenant"},
		Field{In: SlotBody, Key: "name"},
	}, group.Args)

	p := BuildClientParams([]any{map[string]any{"org": "o", "limit": 5, "name": "n", "other": 1}}, fields)
	assert.Equal(t, map[string]any{"org": "o"}, p.Path)
	assert.Equal(t, map[string]any{"limit": 5}, p.Query)
	assert.Equal(t, map[string]any{"name": "n"}, p.Body)
}

func TestStripEmptySlots(t *testing.T) {
	p := Params{
		Body:    map[string]any{},
		Headers: map[string]any{},
		Path:    map[string]any{"id": 1},
		Query:   map[string]any{},
	}

	StripEmptySlots(&p)
	once := p
	StripEmptySlots(&p)

	assert.Equal(t, once, p)
	assert.Equal(t, Params{Path: map[string]any{"id": 1}}, p)

	scalar := Params{Body: ""}
	StripEmptySlots(&scalar)
	assert.Equal(t, "", scalar.Body, "only empty objects are stripped")

	StripEmptySlots(nil)
}

func TestApplyParams(t *testing.T) {
	opts := RequestOptions{
		Config: Config{Headers: http.Header{"X-Keep": {"1"}, "X-Drop": {"1"}}},
		Query:  map[string]any{"page": 1},
	}
	p := Params{
		Body:    map[string]any{"name": "n"},
		Headers: map[string]any{"X-Drop": nil, "X-New": "v"},
		Path:    map[string]any{"id": "7"},
		Query:   map[string]any{"sort": "asc"},
	}

	out := ApplyParams(opts, p)

	assert.Equal(t, map[string]any{"name": "n"}, out.Body)
	assert.Equal(t, "1", out.Headers.Get("X-Keep"))
	assert.Empty(t, out.Headers.Values("X-Drop"))
	assert.Equal(t, "v", out.Headers.Get("X-New"))
	assert.Equal(t, map[string]any{"id": "7"}, out.Path)
	assert.Equal(t, map[string]any{"page": 1, "sort": "asc"}, out.Query)
	assert.Equal(t, map[string]any{"page": 1}, opts.Query, "input options are not mutated")
}
