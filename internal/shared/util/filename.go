package util

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
)

var whitespaceRun = regexp.MustCompile(`\s+`)

// ReportFileName builds the stored name for an uploaded report:
// <Company_Name>_<year>_<unixMillis>.pdf.
func ReportFileName(companyName string, reportYear int, now time.Time) (string, error) {
	company := whitespaceRun.ReplaceAllString(strings.TrimSpace(companyName), "_")
	name := fmt.Sprintf("%s_%d_%d.pdf", company, reportYear, now.UnixMilli())
	return SanitizeFileName(name)
}

// SanitizeFileName removes path separators and rejects traversal patterns.
func SanitizeFileName(name string) (string, error) {
	if strings.Contains(name, "..") {
		return "", errors.New("invalid file name")
	}
	s := strings.TrimSpace(name)
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	if strings.Trim(s, "_") == "" {
		return "", errors.New("invalid file name")
	}
	return s, nil
}

// HashKey returns a stable hex digest, used for opaque limiter keys.
func HashKey(parts ...string) string {
	sum := sha256.Sum256([]byte(strings.Join(parts, "\x00")))
	return hex.EncodeToString(sum[:])
}
