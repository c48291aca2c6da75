package fusion

import (
	"errors"
	"testing"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/google/go-cmp/cmp"
)

func TestNewSession(t *testing.T) {
	tests := []struct {
		name              string
		ops               func(t *testing.T) []*QueryOperation
		expectedDocument  string
		expectedName      string
		expectedVariables map[string]interface{}
	}{
		{
			name: "basic",
			ops: func(t *testing.T) []*QueryOperation {
				return []*QueryOperation{
					op(t, "A", `query A { a { id } }`, nil),
					op(t, "B", `query B { a { name } b { id } }`, nil),
				}
			},
			expectedDocument: heredoc.Doc(`
				query A_B {
					a {
						id
						name
					}
					b {
						id
					}
				}
			`),
			expectedName:      "A_B",
			expectedVariables: map[string]interface{}{},
		},
		{
			name: "nested",
			ops: func(t *testing.T) []*QueryOperation {
				return []*QueryOperation{
					op(t, "A", `query A { a { b1 { c1 c2 { d } } b2 } }`, nil),
					op(t, "B", `query B { a { b1 { c3 c2 { d e } } } }`, nil),
				}
			},
			expectedDocument: heredoc.Doc(`
				query A_B {
					a {
						b1 {
							c1
							c2 {
								d
								e
							}
							c3
						}
						b2
					}
				}
			`),
			expectedName:      "A_B",
			expectedVariables: map[string]interface{}{},
		},
		{
			name: "aliases are merged into the plain field",
			ops: func(t *testing.T) []*QueryOperation {
				return []*QueryOperation{
					op(t, "A", `query A { a { id } }`, nil),
					op(t, "B", `query B($foo: String) { a { name } another: a { id foo } }`, map[string]interface{}{"foo": "bar"}),
				}
			},
			expectedDocument: heredoc.Doc(`
				query A_B($foo: String) {
					a {
						id
						name
						foo
					}
				}
			`),
			expectedName:      "A_B",
			expectedVariables: map[string]interface{}{"foo": "bar"},
		},
		{
			name: "argument conflicts are aliased",
			ops: func(t *testing.T) []*QueryOperation {
				return []*QueryOperation{
					op(t, "A", `query A { products(first: 10) { id name } }`, nil),
					op(t, "B", `query B { products(first: 1, after: 10) { id isActive } }`, nil),
				}
			},
			expectedDocument: heredoc.Doc(`
				query A_B {
					products(first: 10) {
						id
						name
					}
					_products: products(first: 1, after: 10) {
						id
						isActive
					}
				}
			`),
			expectedName:      "A_B",
			expectedVariables: map[string]interface{}{},
		},
		{
			name: "identical arguments share one field",
			ops: func(t *testing.T) []*QueryOperation {
				return []*QueryOperation{
					op(t, "A", `query A { product(id: 5) { id } }`, nil),
					op(t, "B", `query B { product(id: 5) { name } }`, nil),
				}
			},
			expectedDocument: heredoc.Doc(`
				query A_B {
					product(id: 5) {
						id
						name
					}
				}
			`),
			expectedName:      "A_B",
			expectedVariables: map[string]interface{}{},
		},
		{
			name: "every conflict mints a new alias",
			ops: func(t *testing.T) []*QueryOperation {
				return []*QueryOperation{
					op(t, "A", `query A { products(first: 10) { id } }`, nil),
					op(t, "B", `query B { products(first: 1) { id } }`, nil),
					op(t, "C", `query C { products(first: 2) { id } }`, nil),
					op(t, "D", `query D { products(first: 1) { name } }`, nil),
				}
			},
			expectedDocument: heredoc.Doc(`
				query A_B_C_D {
					products(first: 10) {
						id
					}
					_products: products(first: 1) {
						id
						name
					}
					__products: products(first: 2) {
						id
					}
				}
			`),
			expectedName:      "A_B_C_D",
			expectedVariables: map[string]interface{}{},
		},
		{
			name: "list arguments are never merged",
			ops: func(t *testing.T) []*QueryOperation {
				return []*QueryOperation{
					op(t, "A", `query A { users(ids: [1, 2]) { id } }`, nil),
					op(t, "B", `query B { users(ids: [1, 2]) { id } }`, nil),
				}
			},
			expectedDocument: heredoc.Doc(`
				query A_B {
					users(ids: [1, 2]) {
						id
					}
					_users: users(ids: [1, 2]) {
						id
					}
				}
			`),
			expectedName:      "A_B",
			expectedVariables: map[string]interface{}{},
		},
		{
			name: "directives are not merged away",
			ops: func(t *testing.T) []*QueryOperation {
				return []*QueryOperation{
					op(t, "A", `query A { a { id } }`, nil),
					op(t, "B", `query B { a @skip(if: true) { id } }`, nil),
				}
			},
			expectedDocument: heredoc.Doc(`
				query A_B {
					a {
						id
					}
					_a: a @skip(if: true) {
						id
					}
				}
			`),
			expectedName:      "A_B",
			expectedVariables: map[string]interface{}{},
		},
		{
			name: "variables",
			ops: func(t *testing.T) []*QueryOperation {
				return []*QueryOperation{
					op(t, "A", `query A { a { id } }`, nil),
					op(t, "B", `query B($fooFirst: String) { a { name } b(first: $fooFirst) { id } }`, map[string]interface{}{"fooFirst": "bar"}),
				}
			},
			expectedDocument: heredoc.Doc(`
				query A_B($fooFirst: String) {
					a {
						id
						name
					}
					b(first: $fooFirst) {
						id
					}
				}
			`),
			expectedName:      "A_B",
			expectedVariables: map[string]interface{}{"fooFirst": "bar"},
		},
		{
			name: "colliding variables",
			ops: func(t *testing.T) []*QueryOperation {
				return []*QueryOperation{
					op(t, "A", `query A($foo: String) { a(foo: $foo) { id } }`, map[string]interface{}{"foo": "barA"}),
					op(t, "B", `query B($foo: String) { b(foo: $foo) { id } }`, map[string]interface{}{"foo": "barB"}),
				}
			},
			expectedDocument: heredoc.Doc(`
				query A_B($foo: String, $_foo: String) {
					a(foo: $foo) {
						id
					}
					b(foo: $_foo) {
						id
					}
				}
			`),
			expectedName:      "A_B",
			expectedVariables: map[string]interface{}{"foo": "barA", "_foo": "barB"},
		},
		{
			name: "variables in nested values and directives",
			ops: func(t *testing.T) []*QueryOperation {
				return []*QueryOperation{
					op(t, "A", `query A($id: ID, $on: Boolean) { a(filter: {id: $id}) @include(if: $on) { id } }`, map[string]interface{}{"id": "1", "on": true}),
					op(t, "B", `query B($id: ID, $on: Boolean) { b(filter: {ids: [$id]}) @include(if: $on) { id } }`, map[string]interface{}{"id": "2", "on": false}),
				}
			},
			expectedDocument: heredoc.Doc(`
				query A_B($id: ID, $on: Boolean, $_id: ID, $_on: Boolean) {
					a(filter: {id:$id}) @include(if: $on) {
						id
					}
					b(filter: {ids:[$_id]}) @include(if: $_on) {
						id
					}
				}
			`),
			expectedName:      "A_B",
			expectedVariables: map[string]interface{}{"id": "1", "on": true, "_id": "2", "_on": false},
		},
		{
			name: "expands fragments",
			ops: func(t *testing.T) []*QueryOperation {
				return []*QueryOperation{
					op(t, "AuthorName", heredoc.Doc(`
						query AuthorName { author { ...nameDetails } }
						fragment nameDetails on Author { firstName lastName }
					`), nil),
					op(t, "AuthorLocation", heredoc.Doc(`
						query AuthorLocation { author { ...locationDetails } }
						fragment locationDetails on Author { address phone }
					`), nil),
				}
			},
			expectedDocument: heredoc.Doc(`
				query AuthorName_AuthorLocation {
					author {
						firstName
						lastName
						address
						phone
					}
				}
			`),
			expectedName:      "AuthorName_AuthorLocation",
			expectedVariables: map[string]interface{}{},
		},
		{
			name: "merges fragments",
			ops: func(t *testing.T) []*QueryOperation {
				return []*QueryOperation{
					op(t, "AuthorName", heredoc.Doc(`
						query AuthorName { author { ...names } }
						fragment names on Author { name { first last } }
					`), nil),
					op(t, "AuthorLocation", heredoc.Doc(`
						query AuthorLocation { author { ...location } }
						fragment location on Author { address phone name { full } }
					`), nil),
				}
			},
			expectedDocument: heredoc.Doc(`
				query AuthorName_AuthorLocation {
					author {
						name {
							first
							last
							full
						}
						address
						phone
					}
				}
			`),
			expectedName:      "AuthorName_AuthorLocation",
			expectedVariables: map[string]interface{}{},
		},
		{
			name: "nested fragments",
			ops: func(t *testing.T) []*QueryOperation {
				return []*QueryOperation{
					op(t, "A", heredoc.Doc(`
						query A { a { ...aFragment ...aFragment2 } }
						fragment aFragment on A { b { ...bFragment c { e } } }
						fragment bFragment on B { c { d } }
						fragment aFragment2 on A { b { ...bFragment } }
					`), nil),
				}
			},
			expectedDocument: heredoc.Doc(`
				query A {
					a {
						b {
							c {
								d
								e
							}
						}
					}
				}
			`),
			expectedName:      "A",
			expectedVariables: map[string]interface{}{},
		},
		{
			name: "fragments are shared between documents",
			ops: func(t *testing.T) []*QueryOperation {
				return []*QueryOperation{
					op(t, "A", heredoc.Doc(`
						query A { a { ...common } }
						fragment common on A { id }
					`), nil),
					op(t, "B", `query B { b { ...common } }`, nil),
				}
			},
			expectedDocument: heredoc.Doc(`
				query A_B {
					a {
						id
					}
					b {
						id
					}
				}
			`),
			expectedName:      "A_B",
			expectedVariables: map[string]interface{}{},
		},
		{
			name: "spread with directives keeps them on an inline fragment",
			ops: func(t *testing.T) []*QueryOperation {
				return []*QueryOperation{
					op(t, "A", heredoc.Doc(`
						query A($on: Boolean) { a { id ...extra @include(if: $on) } }
						fragment extra on A { name }
					`), map[string]interface{}{"on": true}),
				}
			},
			expectedDocument: heredoc.Doc(`
				query A($on: Boolean) {
					a {
						id
						... on A @include(if: $on) {
							name
						}
					}
				}
			`),
			expectedName:      "A",
			expectedVariables: map[string]interface{}{"on": true},
		},
		{
			name: "inline fragments are merged by type condition",
			ops: func(t *testing.T) []*QueryOperation {
				return []*QueryOperation{
					op(t, "A", `query A { node { ... on User { id } } }`, nil),
					op(t, "B", `query B { node { ... on User { name } ... on Bot { id } } }`, nil),
				}
			},
			expectedDocument: heredoc.Doc(`
				query A_B {
					node {
						... on User {
							id
							name
						}
						... on Bot {
							id
						}
					}
				}
			`),
			expectedName:      "A_B",
			expectedVariables: map[string]interface{}{},
		},
		{
			name: "fields in inline fragments conflict with the parent level",
			ops: func(t *testing.T) []*QueryOperation {
				return []*QueryOperation{
					op(t, "A", `query A { node(id: 1) { ... on User { name(upper: true) } } }`, nil),
					op(t, "B", `query B { node(id: 1) { name } }`, nil),
				}
			},
			expectedDocument: heredoc.Doc(`
				query A_B {
					node(id: 1) {
						... on User {
							name(upper: true)
						}
						_name: name
					}
				}
			`),
			expectedName:      "A_B",
			expectedVariables: map[string]interface{}{},
		},
		{
			name: "spread with directives conflicts with the parent level",
			ops: func(t *testing.T) []*QueryOperation {
				return []*QueryOperation{
					op(t, "A", heredoc.Doc(`
						query A($x: Boolean) { user { ...F @include(if: $x) } }
						fragment F on User { name(upper: true) }
					`), map[string]interface{}{"x": true}),
					op(t, "B", `query B { user { name } }`, nil),
				}
			},
			expectedDocument: heredoc.Doc(`
				query A_B($x: Boolean) {
					user {
						... on User @include(if: $x) {
							name(upper: true)
						}
						_name: name
					}
				}
			`),
			expectedName:      "A_B",
			expectedVariables: map[string]interface{}{"x": true},
		},
		{
			name: "fields in sibling inline fragments conflict",
			ops: func(t *testing.T) []*QueryOperation {
				return []*QueryOperation{
					op(t, "A", `query A { node { ... on User { name(upper: true) } } }`, nil),
					op(t, "B", `query B { node { ... on Bot { name } } }`, nil),
				}
			},
			expectedDocument: heredoc.Doc(`
				query A_B {
					node {
						... on User {
							name(upper: true)
						}
						... on Bot {
							_name: name
						}
					}
				}
			`),
			expectedName:      "A_B",
			expectedVariables: map[string]interface{}{},
		},
		{
			name: "fields of one response key share their selections",
			ops: func(t *testing.T) []*QueryOperation {
				return []*QueryOperation{
					op(t, "A", `query A { node { owner { a: id } } }`, nil),
					op(t, "B", `query B { node { ... on User { owner { a: name } } } }`, nil),
				}
			},
			expectedDocument: heredoc.Doc(`
				query A_B {
					node {
						owner {
							id
							name
						}
						... on User {
							owner {
								id
								name
							}
						}
					}
				}
			`),
			expectedName:      "A_B",
			expectedVariables: map[string]interface{}{},
		},
		{
			name: "operation names are joined in input order",
			ops: func(t *testing.T) []*QueryOperation {
				return []*QueryOperation{
					op(t, "C", `query C { c }`, nil),
					op(t, "A", `query A { a }`, nil),
					op(t, "B", `query B { b }`, nil),
				}
			},
			expectedDocument: heredoc.Doc(`
				query C_A_B {
					c
					a
					b
				}
			`),
			expectedName:      "C_A_B",
			expectedVariables: map[string]interface{}{},
		},
		{
			name: "operation name falls back to the definition",
			ops: func(t *testing.T) []*QueryOperation {
				return []*QueryOperation{
					op(t, "", `query First { a }`, nil),
					op(t, "Second", `query { b }`, nil),
				}
			},
			expectedDocument: heredoc.Doc(`
				query First_Second {
					a
					b
				}
			`),
			expectedName:      "First_Second",
			expectedVariables: map[string]interface{}{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestSession(t, tt.ops(t)...)

			checkDocument(t, s.Document, tt.expectedDocument)
			if s.OperationName != tt.expectedName {
				t.Errorf("unexpected operation name: %s", s.OperationName)
			}
			if diff := cmp.Diff(tt.expectedVariables, s.Variables); diff != "" {
				t.Errorf("unexpected variables (-want +got):\n%s", diff)
			}
			if len(s.Document.Operations) != 1 {
				t.Errorf("unexpected operation count: %d", len(s.Document.Operations))
			}
			if len(s.Document.Fragments) != 0 {
				t.Errorf("unexpected fragments: %d", len(s.Document.Fragments))
			}
		})
	}
}

func TestNewSession_errors(t *testing.T) {
	t.Run("unknown fragment", func(t *testing.T) {
		_, err := NewSession(testContext(t), []*QueryOperation{
			op(t, "A", `query A { a { ...missing } }`, nil),
		})
		var target *UnknownFragmentError
		if !errors.As(err, &target) {
			t.Fatalf("unexpected error: %v", err)
		}
		if target.Name != "missing" {
			t.Errorf("unexpected fragment name: %s", target.Name)
		}
	})

	t.Run("cyclic fragments", func(t *testing.T) {
		_, err := NewSession(testContext(t), []*QueryOperation{
			op(t, "A", heredoc.Doc(`
				query A { a { ...one } }
				fragment one on A { id ...two }
				fragment two on A { name ...one }
			`), nil),
		})
		var target *CyclicFragmentError
		if !errors.As(err, &target) {
			t.Fatalf("unexpected error: %v", err)
		}
		if diff := cmp.Diff([]string{"one", "two", "one"}, target.Cycle); diff != "" {
			t.Errorf("unexpected cycle (-want +got):\n%s", diff)
		}
	})

	t.Run("no operation", func(t *testing.T) {
		_, err := NewSession(testContext(t), []*QueryOperation{
			op(t, "A", `query A { a }`, nil),
			op(t, "B", `fragment f on A { id }`, nil),
		})
		var target *MissingOperationError
		if !errors.As(err, &target) {
			t.Fatalf("unexpected error: %v", err)
		}
		if target.Index != 1 {
			t.Errorf("unexpected index: %d", target.Index)
		}
	})

	t.Run("ambiguous operation", func(t *testing.T) {
		_, err := NewSession(testContext(t), []*QueryOperation{
			op(t, "C", `query A { a } query B { b }`, nil),
		})
		var target *MissingOperationError
		if !errors.As(err, &target) {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("mutation", func(t *testing.T) {
		_, err := NewSession(testContext(t), []*QueryOperation{
			op(t, "M", `mutation M { a }`, nil),
		})
		var target *MissingOperationError
		if !errors.As(err, &target) {
			t.Fatalf("unexpected error: %v", err)
		}
	})
}

func TestNewSession_operationSelection(t *testing.T) {
	t.Run("named operation", func(t *testing.T) {
		s := newTestSession(t, op(t, "B", `query A { a } query B { b }`, nil))
		checkDocument(t, s.Document, `query B { b }`)
	})

	t.Run("single operation whatever its name", func(t *testing.T) {
		s := newTestSession(t, op(t, "Other", `query A { a }`, nil))
		checkDocument(t, s.Document, `query Other { a }`)
		if s.OperationName != "Other" {
			t.Errorf("unexpected operation name: %s", s.OperationName)
		}
	})
}

func TestNewSession_bookkeeping(t *testing.T) {
	s := newTestSession(t,
		op(t, "A", `query A($foo: String) { products(first: 10) { id } a(foo: $foo) }`, map[string]interface{}{"foo": "x"}),
		op(t, "B", `query B($foo: String, $_foo: String) { list: products(first: 1) { id } b(foo: $foo, bar: $_foo) }`, map[string]interface{}{"foo": "y", "_foo": "z"}),
	)

	if diff := cmp.Diff(map[string]string{"foo": "foo"}, s.VariableRenames(0)); diff != "" {
		t.Errorf("unexpected renames of A (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(map[string]string{"foo": "_foo", "_foo": "__foo"}, s.VariableRenames(1)); diff != "" {
		t.Errorf("unexpected renames of B (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(map[string]interface{}{"foo": "x", "_foo": "y", "__foo": "z"}, s.Variables); diff != "" {
		t.Errorf("unexpected variables (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(map[string]string{"_products": "list"}, s.AliasToOriginalKey()); diff != "" {
		t.Errorf("unexpected aliases (-want +got):\n%s", diff)
	}
	if s.QueryCount() != 2 {
		t.Errorf("unexpected query count: %d", s.QueryCount())
	}
}

func TestNewSession_inputsAreNotModified(t *testing.T) {
	a := op(t, "A", heredoc.Doc(`
		query A($foo: Int) { products(first: $foo) { ...f } }
		fragment f on Product { id }
	`), map[string]interface{}{"foo": 1})
	b := op(t, "B", `query B($foo: Int) { products(first: $foo) { name } }`, map[string]interface{}{"foo": 2})

	beforeA := formatDocument(a.Document)
	beforeB := formatDocument(b.Document)

	newTestSession(t, a, b)

	if got := formatDocument(a.Document); got != beforeA {
		t.Errorf("document A was modified:\n%s", got)
	}
	if got := formatDocument(b.Document); got != beforeB {
		t.Errorf("document B was modified:\n%s", got)
	}
}
