package bench

import (
	"os"
	"path/filepath"
	"strconv"
)

func ensureDir(path string) error {
	d := filepath.Dir(path)
	if d == "." || d == "" {
		return nil
	}
	return os.MkdirAll(d, 0o755)
}

func itoa(v int) string { return strconv.Itoa(v) }

func ftoa(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}

func btoa(v bool) string { return strconv.FormatBool(v) }

func optFtoa(v *float64) string {
	if v == nil {
		return ""
	}
	return ftoa(*v)
}
