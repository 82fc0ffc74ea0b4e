package gemini

import (
	"bytes"
	"net/http"

	"github.com/dskvich/homework-telegram-bot/pkg/domain"
)

var invalidKeyMarkers = [][]byte{
	[]byte("API key not valid"),
	[]byte("API_KEY_INVALID"),
}

type retryPolicy struct {
	retry   bool
	backoff bool
}

// retryPolicies maps an attempt failure to what the retry loop does next.
// Kinds missing from the table are terminal.
var retryPolicies = map[domain.FailureKind]retryPolicy{
	domain.FailureCredentialInvalid: {retry: true},
	domain.FailureRateLimited:       {retry: true, backoff: true},
	domain.FailureTransient:         {retry: true, backoff: true},
}

// classifyStatus maps a non-2xx HTTP response to a failure kind.
func classifyStatus(status int, body []byte) domain.FailureKind {
	switch status {
	case http.StatusBadRequest:
		for _, marker := range invalidKeyMarkers {
			if bytes.Contains(body, marker) {
				return domain.FailureCredentialInvalid
			}
		}
		return domain.FailureMalformed
	case http.StatusTooManyRequests:
		return domain.FailureRateLimited
	default:
		return domain.FailureTransient
	}
}
