package cache

import (
	"fmt"
	"strconv"
	"strings"
)

// TestKey identifies one test evaluation of one sample.
type TestKey struct {
	Fingerprint string
	Test        string
	Alpha       float64
	Intervals   int
	Model       int
}

// String renders the key as sample:<fingerprint>|test:<name>|a:<alpha>|i:<n>|mo:<m>
func (k TestKey) String() string {
	return fmt.Sprintf("%s|test:%s|a:%s|i:%d|mo:%d",
		SamplePrefix(k.Fingerprint), k.Test, strconv.FormatFloat(k.Alpha, 'g', -1, 64), k.Intervals, k.Model)
}

// SamplePrefix is the key prefix shared by every entry of one sample.
func SamplePrefix(fingerprint string) string {
	return "sample:" + fingerprint
}

// IsSampleKey checks if key belongs to the sample with the given fingerprint
func IsSampleKey(key, fingerprint string) bool {
	prefix := SamplePrefix(fingerprint)
	if !strings.HasPrefix(key, prefix) {
		return false
	}
	remainder := strings.TrimPrefix(key, prefix)
	return remainder == "" || strings.HasPrefix(remainder, "|")
}

// KindFromKey extracts the test kind from a key
func KindFromKey(key string) string {
	for _, part := range strings.Split(key, "|") {
		if name, ok := strings.CutPrefix(part, "test:"); ok {
			return name
		}
	}
	return ""
}
