package telegram

import (
	"fmt"
	"strings"

	"github.com/sigurn/crc16"
)

// CRC16/ARC as used by DSMR 4+ meters.
var crcTable = crc16.MakeTable(crc16.CRC16_ARC)

// ComputeChecksum returns the CRC of body (header through '!') as four hex digits.
func ComputeChecksum(body string) string {
	return fmt.Sprintf("%04X", crc16.Checksum([]byte(body), crcTable))
}

// VerifyChecksum reports whether the given checksum matches body. It is only
// used for reporting; telegrams are never rejected on it.
func VerifyChecksum(body, checksum string) bool {
	return strings.EqualFold(ComputeChecksum(body), checksum)
}
