package testutils

import (
	"testing"

	"github.com/MakeNowJust/heredoc/v2"
)

func TestFindOption(t *testing.T) {
	source := heredoc.Doc(`
		# option:operationName: AuthorName
		# option:variables: {"id":"1","first":10}
		# option:skip: true
		query AuthorName { author { id } }
	`)

	if v := FindOptionString(t, "operationName", source); v != "AuthorName" {
		t.Errorf("unexpected operationName: %s", v)
	}
	if v := FindOptionString(t, "missing", source); v != "" {
		t.Errorf("unexpected value: %s", v)
	}
	if !FindOptionBool(t, "skip", source) {
		t.Error("skip option must be true")
	}

	var variables map[string]interface{}
	if !FindOptionJSON(t, "variables", source, &variables) {
		t.Fatal("variables option is not found")
	}
	if variables["id"] != "1" || variables["first"] != float64(10) {
		t.Errorf("unexpected variables: %v", variables)
	}
}
