/*
Package wal is a small write-ahead audit log for exactly the two event
types the pipeline persists: confirmed DC signals and execution
records. It exists for offline replay (cmd/replay) and post-hoc audit,
never on a stage's hot decision path, and is disabled entirely when a
stage is constructed without a Writer.

# Module
  - Writer: buffers AppendDCSignal/AppendExecutionRecord calls onto a
    queue and appends them to size-rotated segment files from a single
    background goroutine
  - Replay: reads a directory of segments in chronological order and
    dispatches each decoded record to typed Handlers, optionally paced
    by the recorded event timestamps

# Source
  - DC signals from the market-data stage
  - execution records from the execution stage

# Produce
  - none; Replay drives caller-supplied Handlers
*/
package wal
