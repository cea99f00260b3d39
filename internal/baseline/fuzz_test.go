//go:build fuzz
// +build fuzz

package baseline

import (
	"os"
	"testing"
)

func FuzzLoad(f *testing.F) {
	// Add seed corpora
	seeds := []string{
		"{}",
		`{"findings":[]}`,
		`{"findings":[{"path":"test.txt","line":1,"rule":"test-rule","fingerprint":"00000000deadbeef"}]}`,
		`{"findings":null}`,
		// Invalid JSON
		"{",
		// Huge JSON
		string(make([]byte, 10*1024*1024)), // 10MB
	}

	for _, seed := range seeds {
		f.Add([]byte(seed))
	}

	f.Fuzz(func(t *testing.T, data []byte) {
		dir := t.TempDir()

		// Write the fuzzed data as the baseline file
		if err := os.WriteFile(Path(dir), data, 0644); err != nil {
			t.Fatalf("failed to write test file: %v", err)
		}

		baseline, err := Load(dir)
		if err != nil {
			// We expect some errors from invalid JSON, but we want to catch
			// panics and other unexpected errors
			return
		}

		if baseline == nil {
			t.Error("nil baseline returned")
			return
		}

		// Every loaded fingerprint must suppress its own entry
		for _, finding := range baseline.Findings {
			if _, ok := baseline.index[finding.Fingerprint]; !ok {
				t.Errorf("fingerprint %q not indexed", finding.Fingerprint)
			}
		}

		if err := baseline.Save(dir); err != nil {
			t.Fatalf("failed to save loaded baseline: %v", err)
		}
	})
}
