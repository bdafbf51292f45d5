package csvimport

import (
	"github.com/gabriel-vasile/mimetype"
)

var allowedUploadTypes = []string{"text/csv", "text/plain"}

// SniffUpload detects the content type of an upload from its leading bytes and
// rejects anything that is not text. The detected MIME type is returned either way.
func SniffUpload(data []byte) (string, error) {
	if len(data) == 0 {
		return "", ErrEmptyFile
	}
	if _, ok := guessUTF16(data); ok {
		return "text/plain; charset=utf-16", nil
	}
	detected := mimetype.Detect(data)
	for m := detected; m != nil; m = m.Parent() {
		for _, allowed := range allowedUploadTypes {
			if m.Is(allowed) {
				return detected.String(), nil
			}
		}
	}
	return detected.String(), ErrUnsupportedFileType
}
