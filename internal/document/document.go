// Package document turns uploaded resumes and job descriptions into plain text.
package document

import (
	"bytes"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/pkg/errors"
)

// MaxDocumentBytes caps the size of an uploaded or fetched document.
const MaxDocumentBytes = 5 << 20

// ErrUnsupportedFormat is returned for binary documents such as PDF or DOCX.
var ErrUnsupportedFormat = errors.New("unsupported document format")

var textExtensions = map[string]bool{
	"":          true,
	".txt":      true,
	".text":     true,
	".md":       true,
	".markdown": true,
	".rst":      true,
	".org":      true,
	".adoc":     true,
	".json":     true,
	".yaml":     true,
	".yml":      true,
	".tex":      true,
}

var htmlExtensions = map[string]bool{
	".html": true,
	".htm":  true,
}

var blankLines = regexp.MustCompile(`\n{3,}`)

// ExtractResume reads an uploaded resume and returns its text.
func ExtractResume(filename string, r io.Reader) (text string, err error) {
	data, err := readLimited(r)
	if err != nil {
		err = errors.Wrapf(err, "failed to read resume %q", filename)
		return text, err
	}

	ext := strings.ToLower(filepath.Ext(filename))
	switch {
	case htmlExtensions[ext]:
		text = HTMLToText(string(data))
	case textExtensions[ext] && isText(data):
		text = string(data)
	case !textExtensions[ext] && isText(data) && strings.HasPrefix(http.DetectContentType(data), "text/"):
		text = string(data)
	default:
		err = errors.Wrapf(ErrUnsupportedFormat, "resume %q (%s)", filename, http.DetectContentType(data))
		return text, err
	}

	text = Normalize(text)
	if text == "" {
		err = errors.Errorf("resume %q is empty", filename)
		return text, err
	}

	return text, err
}

// ReadResumeFile extracts a resume stored on disk.
func ReadResumeFile(path string) (text string, err error) {
	var f *os.File
	f, err = os.Open(path)
	if err != nil {
		err = errors.Wrapf(err, "failed to open resume: %s", path)
		return text, err
	}
	defer f.Close()

	return ExtractResume(filepath.Base(path), f)
}

// Normalize unifies line endings, trims trailing spaces and collapses runs of blank lines.
func Normalize(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = strings.TrimPrefix(text, "\ufeff")

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}

	text = strings.Join(lines, "\n")
	text = blankLines.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

func readLimited(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxDocumentBytes+1))
	if err != nil {
		return nil, err
	}
	if len(data) > MaxDocumentBytes {
		return nil, errors.Errorf("document exceeds %d bytes", MaxDocumentBytes)
	}
	return data, nil
}

func isText(data []byte) bool {
	return utf8.Valid(data) && !bytes.ContainsRune(data, 0)
}
