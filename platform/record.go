package platform

import (
	"encoding/binary"

	"github.com/sigurn/crc16"
)

// Counter record layout in a flash sector:
//
//	[0]      magic
//	[1]      cell count n
//	[2..2+n] cells
//	[2+n..]  CRC-16/ARC over bytes 0..2+n, little endian
//
// An erased sector (all 0xFF) or a torn write fails the check and decodes
// as erased cells, which the counter store resets to zero.
const recordMagic = 0xC5

var crcTable = crc16.MakeTable(crc16.CRC16_ARC)

func recordSize(n int) int { return 2 + n + 2 }

func encodeRecord(cells []byte) []byte {
	out := make([]byte, 0, recordSize(len(cells)))
	out = append(out, recordMagic, byte(len(cells)))
	out = append(out, cells...)
	return binary.LittleEndian.AppendUint16(out, crc16.Checksum(out, crcTable))
}

// decodeRecord fills cells from raw. It reports false, leaving cells
// untouched, when raw does not hold a valid record.
func decodeRecord(raw, cells []byte) bool {
	if len(raw) < 2 || raw[0] != recordMagic {
		return false
	}
	n := int(raw[1])
	if len(raw) < recordSize(n) {
		return false
	}
	body := raw[:2+n]
	if binary.LittleEndian.Uint16(raw[2+n:]) != crc16.Checksum(body, crcTable) {
		return false
	}
	copy(cells, body[2:])
	return true
}
