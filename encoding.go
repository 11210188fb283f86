package main

import (
	"bytes"
	"fmt"
	"os"
	"unicode/utf8"

	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/simplifiedchinese"
)

// Charset detection runs over a bounded prefix so huge files stay cheap.
const detectSampleSize = 32 << 10

// DecodeBytes converts raw file bytes to text and never fails. The chain:
// strict UTF-8, then strict GBK, then statistical detection over a prefix
// sample, and finally UTF-8 with invalid bytes replaced.
func DecodeBytes(raw []byte) string {
	if len(raw) == 0 {
		return ""
	}
	if utf8.Valid(raw) {
		return string(raw)
	}
	if text, ok := decodeStrict(raw, simplifiedchinese.GBK); ok {
		return text
	}
	sample := raw
	if len(sample) > detectSampleSize {
		sample = sample[:detectSampleSize]
	}
	if enc, _, _ := charset.DetermineEncoding(sample, ""); enc != nil {
		if text, ok := decodeStrict(raw, enc); ok {
			return text
		}
	}
	return string(bytes.ToValidUTF8(raw, []byte(string(utf8.RuneError))))
}

// decodeStrict decodes raw with enc and rejects the result if the decoder
// had to substitute replacement characters, since x/text decoders replace
// undecodable input instead of returning an error.
func decodeStrict(raw []byte, enc encoding.Encoding) (string, bool) {
	out, err := enc.NewDecoder().Bytes(raw)
	if err != nil {
		return "", false
	}
	if bytes.ContainsRune(out, utf8.RuneError) {
		return "", false
	}
	return string(out), true
}

// readFileText reads and decodes one file. Read errors are absorbed here and
// yield empty text so a single unreadable file never aborts the pipeline.
func readFileText(path string) string {
	raw, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not read %s: %v\n", path, err)
		return ""
	}
	return DecodeBytes(raw)
}
