package testutils

import (
	"os"
	"path"

	"github.com/pmezard/go-difflib/difflib"
)

// CheckGoldenFile compares actual with the file at expectFilePath. A missing
// file is created from actual, and GOLDEN_UPDATE=true rewrites existing ones.
func CheckGoldenFile(t TestingT, actual []byte, expectFilePath string) {
	t.Helper()

	expectFileDir := path.Dir(expectFilePath)

	expect, err := os.ReadFile(expectFilePath)
	if os.IsNotExist(err) || (err == nil && os.Getenv("GOLDEN_UPDATE") == "true") {
		err = os.MkdirAll(expectFileDir, 0755)
		if err != nil {
			t.Fatal(err)
		}
		err = os.WriteFile(expectFilePath, actual, 0644)
		if err != nil {
			t.Fatal(err)
		}
		t.Logf("golden file written: %s", expectFilePath)
		return
	} else if err != nil {
		t.Error(err)
		return
	}

	if string(expect) != string(actual) {
		diff := difflib.UnifiedDiff{
			A:        difflib.SplitLines(string(expect)),
			B:        difflib.SplitLines(string(actual)),
			FromFile: expectFilePath,
			ToFile:   "actual",
			Context:  5,
		}
		d, err := difflib.GetUnifiedDiffString(diff)
		if err != nil {
			t.Fatal(err)
		}
		t.Error(d)
	}
}
