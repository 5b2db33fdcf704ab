// Package ingest discovers candidate receipt URLs in an exported SMS message
// dump. The dump is a line-per-row text export ("Row: N ... address=X, ...
// body=Y, ...") that phones commonly write as UTF-16; decoding tolerates
// that.
package ingest

import (
	"bufio"
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// rowRe captures the sender address and message body of one exported row.
var rowRe = regexp.MustCompile(`Row:\s*\d+\s*.*address=([^,]+),\s*.*body=([^,]+)`)

// Scanner filters an SMS dump down to receipt URLs from one sender.
type Scanner struct {
	sender    string
	urlPrefix string
	logger    *slog.Logger
}

func NewScanner(sender, urlPrefix string, logger *slog.Logger) *Scanner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scanner{sender: sender, urlPrefix: urlPrefix, logger: logger}
}

// ScanFile extracts receipt URLs from the dump at path, in file order.
func (s *Scanner) ScanFile(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading message dump: %w", err)
	}
	return s.scan(data)
}

func (s *Scanner) scan(data []byte) ([]string, error) {
	decoded, err := decodeDump(data)
	if err != nil {
		return nil, err
	}

	var urls []string
	sc := bufio.NewScanner(strings.NewReader(decoded))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		m := rowRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		address := strings.TrimSpace(m[1])
		body := strings.TrimSpace(m[2])
		if address != s.sender || !strings.HasPrefix(body, s.urlPrefix) {
			continue
		}
		s.logger.Debug("receipt url found", slog.String("url", body))
		urls = append(urls, body)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("scanning message dump: %w", err)
	}
	return urls, nil
}

// decodeDump converts the raw dump bytes to UTF-8 text. A BOM decides the
// encoding when present; BOM-less UTF-16LE (the common phone export) is
// recognized by its NUL density.
func decodeDump(data []byte) (string, error) {
	var decoder transform.Transformer
	switch {
	case bytes.HasPrefix(data, []byte{0xFF, 0xFE}) || bytes.HasPrefix(data, []byte{0xFE, 0xFF}):
		decoder = unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewDecoder()
	case looksUTF16LE(data):
		decoder = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewDecoder()
	default:
		decoder = unicode.UTF8BOM.NewDecoder()
	}

	decoded, _, err := transform.Bytes(decoder, data)
	if err != nil {
		return "", fmt.Errorf("decoding message dump: %w", err)
	}
	return string(decoded), nil
}

func looksUTF16LE(data []byte) bool {
	if len(data) < 4 {
		return false
	}
	sample := data
	if len(sample) > 1024 {
		sample = sample[:1024]
	}
	nuls := bytes.Count(sample, []byte{0})
	return nuls*5 >= len(sample) // at least 20% NUL bytes
}
