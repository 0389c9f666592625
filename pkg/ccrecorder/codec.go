package ccrecorder

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
)

// NoState is the value of a state key for a channel without captured data.
const NoState = "false"

const stateKeyPrefix = "ch-"

// StateKey returns the state key of a channel: "ch-00" through "ch-15".
func StateKey(ch int) string {
	return fmt.Sprintf("%s%02d", stateKeyPrefix, ch)
}

// ParseStateKey returns the channel addressed by a state key.
func ParseStateKey(key string) (int, bool) {
	digits, ok := strings.CutPrefix(key, stateKeyPrefix)
	if !ok || digits == "" {
		return 0, false
	}
	ch, err := strconv.Atoi(digits)
	if err != nil || ch < 0 || ch >= NumChannels {
		return 0, false
	}
	return ch, true
}

// Export encodes one channel row as base64 text. Sentinel cells are kept
// so the row can be restored exactly.
func Export(t *Table, ch int) string {
	if ch < 0 || ch >= NumChannels {
		return NoState
	}
	return base64.StdEncoding.EncodeToString(t[ch][:])
}

// Import decodes a blob produced by Export into one channel row. Decoded
// bytes overwrite the start of the row; cells past the end of a short blob
// keep their value. NoState and undecodable blobs leave the row untouched
// and return false.
func Import(t *Table, ch int, blob string) bool {
	if ch < 0 || ch >= NumChannels || blob == "" || blob == NoState {
		return false
	}
	data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(blob))
	if err != nil || len(data) == 0 {
		return false
	}
	copy(t[ch][:], data)
	return true
}
