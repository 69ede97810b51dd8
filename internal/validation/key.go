package validation

import (
	"strconv"
	"strings"
	"time"
)

// GenerateSessionKey returns "{userID}-{offenseID}-{epochMillis}".
// Two calls for the same pair within one millisecond return the same key.
func GenerateSessionKey(userID, offenseID string) string {
	return SessionKeyAt(userID, offenseID, time.Now())
}

// SessionKeyAt builds a session key stamped with t.
func SessionKeyAt(userID, offenseID string, t time.Time) string {
	return userID + "-" + offenseID + "-" + strconv.FormatInt(t.UnixMilli(), 10)
}

// ParseSessionKeyTime extracts the trailing epoch-millis segment of a key.
// It reports false when the key has no '-' or the trailing segment is not a
// non-negative integer.
func ParseSessionKeyTime(key string) (time.Time, bool) {
	millis, ok := parseTrailingMillis(key)
	if !ok {
		return time.Time{}, false
	}
	return time.UnixMilli(millis), true
}

func parseTrailingMillis(key string) (int64, bool) {
	idx := strings.LastIndexByte(key, '-')
	if idx < 0 || idx == len(key)-1 {
		return 0, false
	}
	suffix := key[idx+1:]
	for _, r := range suffix {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	millis, err := strconv.ParseInt(suffix, 10, 64)
	if err != nil {
		return 0, false
	}
	return millis, true
}

// OffenseForUser returns the offense segment of a key generated for userID.
// It reports false when the key does not start with userID, lacks a valid
// timestamp, or has an empty offense segment. User IDs may contain '-', so
// callers should still check the returned offense against known offense IDs.
func OffenseForUser(key, userID string) (string, bool) {
	userID = strings.TrimSpace(userID)
	if userID == "" || !strings.HasPrefix(key, userID+"-") {
		return "", false
	}
	if _, ok := parseTrailingMillis(key); !ok {
		return "", false
	}
	rest := key[len(userID)+1:]
	idx := strings.LastIndexByte(rest, '-')
	if idx <= 0 {
		return "", false
	}
	return rest[:idx], true
}

// isStale applies the sweep rule: evict when now - t > maxAge. Keys without a
// parsable timestamp are treated as age zero and never evicted here.
func isStale(key string, maxAge time.Duration, now time.Time) bool {
	millis, ok := parseTrailingMillis(key)
	if !ok {
		return false
	}
	return now.UnixMilli()-millis > maxAge.Milliseconds()
}
