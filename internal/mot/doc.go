// Package mot owns the data-association core of a frame-by-frame
// multi-object tracker.
//
// Responsibilities: minimum-cost bipartite assignment (Hungarian
// algorithm, Jonker-Volgenant variant), single-pass gated matching,
// the staleness-prioritised matching cascade, chi-square gating of
// cost matrices against a motion model, and the track lifecycle that
// ties them together.
// Key types: Track, Detection, Match, Metric, KalmanFilter, Tracker.
//
// The matching functions are pure: they read track state but never
// mutate it. All mutation happens in the Tracker, which the host may
// replace entirely while keeping the matching layer.
package mot
