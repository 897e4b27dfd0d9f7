// Package pipeline holds the back-pressure retry policy shared by every
// stage that publishes onto an outbound bus.Channel.
package pipeline

import (
	"time"

	"github.com/yanun0323/dc-trading-pipeline/internal/bus"
)

// BackPressureMaxAttempts bounds the number of Offer attempts, the first
// one included, a stage spends on a single message before dropping it.
const BackPressureMaxAttempts = 5

// BackPressureRetryDelay is the micro-sleep between retry attempts.
const BackPressureRetryDelay = 50 * time.Microsecond

// OfferWithRetry publishes fragment onto ch, retrying a bounded number of
// times with a micro-sleep when the channel reports back-pressure. It
// returns true once the fragment is accepted, or false if the retry
// budget is exhausted or the channel is not connected.
func OfferWithRetry(ch *bus.Channel, fragment []byte) bool {
	for attempt := 0; attempt < BackPressureMaxAttempts; attempt++ {
		switch ch.Offer(fragment) {
		case bus.OfferNotConnected:
			return false
		case bus.OfferBackPressured:
			time.Sleep(BackPressureRetryDelay)
		default:
			return true
		}
	}
	return false
}
