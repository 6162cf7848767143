package util

import (
	"fmt"
	"strconv"
)

// SnowflakeToUint64 parses a Discord snowflake id.
func SnowflakeToUint64(s string) (uint64, error) {
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse snowflake %q: %w", s, err)
	}
	return n, nil
}

// Uint64ToSnowflake formats an id back to its wire form.
func Uint64ToSnowflake(n uint64) string {
	return strconv.FormatUint(n, 10)
}

// SnowflakeTime extracts the creation time of a snowflake in unix
// milliseconds. Discord epoch is 2015-01-01T00:00:00Z.
func SnowflakeTime(id uint64) int64 {
	const discordEpochMs = 1420070400000
	return int64(id>>22) + discordEpochMs
}
