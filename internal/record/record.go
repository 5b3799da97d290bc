// Package record decodes the data records of hex encoded SRAM memory dumps.
package record

import (
	"encoding/hex"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// PayloadSize is the number of raw bytes carried by every data record.
const PayloadSize = 16

// ErrFormat is returned for lines that do not have the data record shape.
// Dump files contain header and footer lines, callers skip these lines.
var ErrFormat = errors.New("not a data record")

// recordPattern matches ':' + length 0x10 + 4 address + 2 type + 32 payload + 2 checksum hex digits.
var recordPattern = regexp.MustCompile(`^:10[0-9A-F]{6}([0-9A-F]{32})[0-9A-F]{2}$`)

// Decode returns the 16 payload bytes of a data record line.
// The checksum of the record is not verified.
func Decode(line string) ([]byte, error) {
	line = strings.TrimSpace(line)

	match := recordPattern.FindStringSubmatch(line)
	if match == nil {
		return nil, fmt.Errorf("%w: %q", ErrFormat, shorten(line))
	}

	payload, err := hex.DecodeString(match[1])
	if err != nil {
		return nil, fmt.Errorf("%w: decoding payload: %w", ErrFormat, err)
	}
	return payload, nil
}

// Encode returns a data record line for the given address, record type and payload.
// The checksum is the two's complement of the sum of all record bytes.
func Encode(address uint16, recordType byte, payload []byte) (string, error) {
	if len(payload) != PayloadSize {
		return "", fmt.Errorf("payload has %d bytes, expected %d", len(payload), PayloadSize)
	}

	sum := byte(PayloadSize) + byte(address>>8) + byte(address) + recordType
	for _, b := range payload {
		sum += b
	}
	checksum := -sum

	return fmt.Sprintf(":%02X%04X%02X%s%02X", PayloadSize, address, recordType,
		strings.ToUpper(hex.EncodeToString(payload)), checksum), nil
}

func shorten(s string) string {
	const maxLen = 48
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
