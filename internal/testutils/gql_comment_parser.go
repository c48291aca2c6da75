package testutils

import (
	"encoding/json"
	"fmt"
	"regexp"
)

// FindOptionString returns the value of a `# option:<name>: <value>` comment
// in source. Values can't contain whitespace.
func FindOptionString(t TestingT, optionName, source string) string {
	t.Helper()

	pattern := fmt.Sprintf("(?m)^# option:%s:\\s*([^\\s]+)$", regexp.QuoteMeta(optionName))
	re, err := regexp.Compile(pattern)
	if err != nil {
		t.Fatal(err)
	}

	ss := re.FindStringSubmatch(source)
	if len(ss) != 2 {
		t.Logf("option %s value is not found", optionName)
		return ""
	}

	return ss[1]
}

func FindOptionBool(t TestingT, optionName, source string) bool {
	t.Helper()

	return FindOptionString(t, optionName, source) == "true"
}

// FindOptionJSON decodes the option value as JSON into v. It reports whether
// the option exists.
func FindOptionJSON(t TestingT, optionName, source string, v interface{}) bool {
	t.Helper()

	value := FindOptionString(t, optionName, source)
	if value == "" {
		return false
	}
	err := json.Unmarshal([]byte(value), v)
	if err != nil {
		t.Fatalf("option %s has invalid JSON value: %s", optionName, err)
	}

	return true
}
