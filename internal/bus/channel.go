// Package bus implements the fixed-layout, back-pressure-aware publish/
// subscribe transport that connects the three pipeline stages. Each stage
// owns exactly one inbound Channel and one outbound Channel; the pack
// spans no cross-stage state beyond the bytes handed through Offer/Poll.
package bus

import (
	"sync/atomic"
)

// connState is the lifecycle of a Channel.
type connState int32

const (
	stateInit connState = iota
	stateConnected
	stateClosed
)

// Offer/Poll follow the vocabulary used by real aeron-style pub/sub
// transports: a positive Offer result is the number of bytes accepted,
// non-positive results are named failure codes.
const (
	// OfferBackPressured means the channel's buffer is full; the caller
	// should retry with a bounded spin.
	OfferBackPressured = -1
	// OfferNotConnected means Connect has not been called (or Close has).
	OfferNotConnected = -2
	// PollConnectionLost is returned by Poll once the channel is closed
	// and fully drained.
	PollConnectionLost = -1
)

// Channel is a bounded, single-publisher single-consumer byte-message
// queue with at-least-once delivery within a connected session and
// per-publisher FIFO ordering.
type Channel struct {
	buf   chan []byte
	state atomic.Int32
}

// NewChannel allocates a channel with the given fragment capacity.
func NewChannel(capacity int) *Channel {
	if capacity <= 0 {
		capacity = 1
	}
	return &Channel{buf: make(chan []byte, capacity)}
}

// Connect marks the channel ready to accept and deliver fragments. It is
// idempotent.
func (c *Channel) Connect() {
	c.state.CompareAndSwap(int32(stateInit), int32(stateConnected))
}

// Connected reports whether Connect has been called and Close has not.
func (c *Channel) Connected() bool {
	return connState(c.state.Load()) == stateConnected
}

// Close stops the channel from accepting new fragments. Fragments already
// buffered remain pollable until drained.
func (c *Channel) Close() {
	for {
		cur := connState(c.state.Load())
		if cur == stateClosed {
			return
		}
		if c.state.CompareAndSwap(int32(cur), int32(stateClosed)) {
			close(c.buf)
			return
		}
	}
}

// Offer publishes a fragment without blocking. It returns the number of
// bytes accepted (n>0) on success, OfferNotConnected if Connect has not
// been called, or OfferBackPressured if the buffer is full.
func (c *Channel) Offer(fragment []byte) int {
	if !c.Connected() {
		return OfferNotConnected
	}
	select {
	case c.buf <- fragment:
		return len(fragment)
	default:
		return OfferBackPressured
	}
}

// Poll delivers up to maxFragments buffered fragments to handler and
// returns the number delivered. It returns PollConnectionLost once the
// channel has been closed and drained.
func (c *Channel) Poll(handler func([]byte), maxFragments int) int {
	if maxFragments <= 0 {
		maxFragments = 1
	}
	count := 0
	for count < maxFragments {
		select {
		case fragment, ok := <-c.buf:
			if !ok {
				if count > 0 {
					return count
				}
				return PollConnectionLost
			}
			handler(fragment)
			count++
		default:
			return count
		}
	}
	return count
}
