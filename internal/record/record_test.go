package record

import (
	"errors"
	"testing"

	"github.com/retroenv/retrogolib/assert"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		want    []byte
		wantErr bool
	}{
		{
			name: "valid record",
			line: ":10000000000102030405060708090A0B0C0D0E0F78",
			want: []byte{0x00, 0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08, 0x09, 0x0a, 0x0b, 0x0c, 0x0d, 0x0e, 0x0f},
		},
		{
			name: "trailing carriage return",
			line: ":1000100000000000000000000000000000000000E0\r\n",
			want: make([]byte, PayloadSize),
		},
		{
			name: "checksum is not verified",
			line: ":10000000FFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFF00",
			want: []byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff},
		},
		{
			name:    "end of file record",
			line:    ":00000001FF",
			wantErr: true,
		},
		{
			name:    "extended address record",
			line:    ":020000040800F2",
			wantErr: true,
		},
		{
			name:    "wrong record length",
			line:    ":0800000000000000000000000000000000000000F8",
			wantErr: true,
		},
		{
			name:    "missing start marker",
			line:    "10000000000102030405060708090A0B0C0D0E0F78",
			wantErr: true,
		},
		{
			name:    "lower case hex",
			line:    ":10000000000102030405060708090a0b0c0d0e0f78",
			wantErr: true,
		},
		{
			name:    "empty line",
			line:    "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode(tt.line)
			if tt.wantErr {
				assert.Error(t, err)
				assert.True(t, errors.Is(err, ErrFormat))
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	payload := []byte{0xde, 0xad, 0xbe, 0xef, 0x00, 0x80, 0x01, 0x7f, 0x55, 0xaa, 0x10, 0x20, 0x30, 0x40, 0x50, 0x60}

	line, err := Encode(0x2000, 0x00, payload)
	assert.NoError(t, err)
	assert.Equal(t, 43, len(line))

	got, err := Decode(line)
	assert.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestEncodeChecksum(t *testing.T) {
	payload := []byte{0x00, 0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08, 0x09, 0x0a, 0x0b, 0x0c, 0x0d, 0x0e, 0x0f}

	line, err := Encode(0x0000, 0x00, payload)
	assert.NoError(t, err)
	assert.Equal(t, ":10000000000102030405060708090A0B0C0D0E0F78", line)
}

func TestEncodeInvalidPayload(t *testing.T) {
	_, err := Encode(0, 0, []byte{0x01})
	assert.ErrorContains(t, err, "expected 16")
}
