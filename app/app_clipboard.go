package app

import (
	"bytes"
	"fmt"

	"github.com/ohler55/ojg/oj"
	clipboard "golang.design/x/clipboard"

	"numviz/app/export"
	"numviz/app/histogram"
	"numviz/app/interfaces"
)

// Maximum clipboard size in bytes (10MB) - helps avoid X11 BadLength errors on Linux
const maxClipboardSize = 10 * 1024 * 1024

// safeClipboardWrite attempts to write data to clipboard with panic recovery.
// Returns an error if the write fails or data is too large.
func safeClipboardWrite(format clipboard.Format, data []byte) (err error) {
	if len(data) > maxClipboardSize {
		return fmt.Errorf("data too large for clipboard (%d bytes, max %d bytes / %.1f MB). Try a narrower bucket",
			len(data), maxClipboardSize, float64(maxClipboardSize)/(1024*1024))
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("clipboard write failed: %v", r)
		}
	}()

	clipboard.Write(format, data)
	return nil
}

// CopySelectedBucket puts the members of the selected bucket on the system
// clipboard, as lines or as a JSON array, and returns how many were copied.
func (a *App) CopySelectedBucket(asJSON bool) (int, error) {
	v := a.View()
	if v == nil {
		return 0, fmt.Errorf("no sample loaded")
	}
	id, ok := v.Selection.ID()
	if !ok {
		return 0, interfaces.NewValidationError("bucket", "no bucket is selected")
	}
	b, ok := v.Histogram.Bucket(id)
	if !ok || !b.HasMembers() {
		return 0, fmt.Errorf("bucket %d has no members available", id)
	}

	data, err := bucketClipboardData(b, asJSON)
	if err != nil {
		return 0, err
	}

	// Lazy init clipboard
	a.clipOnce.Do(func() {
		if err := clipboard.Init(); err == nil {
			a.clipOK = true
		} else {
			a.Log("error", fmt.Sprintf("Clipboard init failed: %v", err))
		}
	})
	if !a.clipOK {
		return 0, fmt.Errorf("clipboard not available")
	}

	if err := safeClipboardWrite(clipboard.FmtText, data); err != nil {
		return 0, err
	}
	a.Log("info", fmt.Sprintf("[CLIPBOARD] Copied %d values from bucket %s", len(b.Members), b.Label()))
	return len(b.Members), nil
}

// bucketClipboardData renders bucket members in export notation
func bucketClipboardData(b histogram.Bucket, asJSON bool) ([]byte, error) {
	if asJSON {
		list := make([]any, len(b.Members))
		for i, m := range b.Members {
			list[i] = m
		}
		return []byte(oj.JSON(list)), nil
	}

	var buf bytes.Buffer
	buf.WriteString(export.Header)
	buf.WriteByte('\n')
	for _, m := range b.Members {
		s, err := export.FormatValue(m)
		if err != nil {
			return nil, err
		}
		buf.WriteString(s)
		buf.WriteByte('\n')
	}
	return buf.Bytes(), nil
}
