package graphcore

import "errors"

// ErrOutOfCapacity is returned by AddRealTime on a full pool, and by
// Reschedule when the scratch arena or bus pool cannot hold the new
// schedule and an earlier Reschedule has already succeeded (a failing
// first Reschedule returns ErrInvalidGraph instead).
var ErrOutOfCapacity = errors.New("graphcore: out of capacity")

// ErrFeedbackLoop is returned by Connect when producer and consumer are
// the same unit; only this trivial self-loop is rejected, per the
// engine's non-goal of not discovering general cycles at connect time.
var ErrFeedbackLoop = errors.New("graphcore: feedback loop")

// ErrInvalidGraph marks a graph whose first Reschedule never produced a
// usable schedule; Run on such a graph emits silence until a later
// Remove/Reschedule succeeds.
var ErrInvalidGraph = errors.New("graphcore: invalid graph")
