package points

import (
	"fmt"
	"strconv"
	"time"
)

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// webhookLedgerID composes the ledger's unique external id for a webhook
// award from the raw event id and the normalized tag, so the same logical
// completion can never produce two entries.
func webhookLedgerID(externalEventID string, tagNormalized string) string {
	return "lms:" + externalEventID + ":" + tagNormalized
}

func submissionLedgerID(submissionID uint64) string {
	return "submission:" + strconv.FormatUint(submissionID, 10)
}

func userScoreCacheKey(userID uint64) string {
	return fmt.Sprintf("user_score:%d", userID)
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
