package mot

// TrackerConfig holds configuration parameters for the tracker.
type TrackerConfig struct {
	MaxIoUDistance     float64 // IoU round threshold (cost = 1 − IoU)
	MaxAge             int     // Frames a confirmed track may coast before deletion
	NInit              int     // Hits needed to confirm a tentative track
	GatingOnlyPosition bool    // Gate on (x, y) only instead of the full box
	MaxCost            float64 // Cascade acceptance threshold; 0 means the chi-square gate value
	CostMetric         Metric  // Cascade cost; nil means motion-only Mahalanobis
}

// DefaultTrackerConfig returns default tracker configuration.
func DefaultTrackerConfig() TrackerConfig {
	return TrackerConfig{
		MaxIoUDistance: 0.7,
		MaxAge:         30,
		NInit:          3,
	}
}

// Tracker owns the track lifecycle: it predicts all tracks each frame,
// associates detections via the matching cascade plus an IoU round,
// updates matched tracks and creates or deletes the rest. Single
// threaded by contract, the caller owns frame sequencing.
type Tracker struct {
	Tracks []*Track

	kf     *KalmanFilter
	config TrackerConfig
}

// NewTracker creates a tracker with the specified configuration. Zero
// values fall back to the defaults.
func NewTracker(config TrackerConfig) *Tracker {
	defaults := DefaultTrackerConfig()
	if config.MaxIoUDistance == 0 {
		config.MaxIoUDistance = defaults.MaxIoUDistance
	}
	if config.MaxAge == 0 {
		config.MaxAge = defaults.MaxAge
	}
	if config.NInit == 0 {
		config.NInit = defaults.NInit
	}
	return &Tracker{kf: NewKalmanFilter(), config: config}
}

// Predict propagates all track states one frame forward. Call once per
// frame, before Update.
func (t *Tracker) Predict() {
	for _, track := range t.Tracks {
		track.Predict(t.kf)
	}
}

// Update runs one frame of association and lifecycle maintenance
// against the current detections.
func (t *Tracker) Update(detections []Detection) error {
	matches, unmatchedTracks, unmatchedDetections, err := t.match(detections)
	if err != nil {
		return err
	}

	for _, m := range matches {
		if err := t.Tracks[m.TrackIdx].Update(t.kf, detections[m.DetectionIdx]); err != nil {
			return err
		}
	}
	for _, ti := range unmatchedTracks {
		t.Tracks[ti].MarkMissed()
	}
	for _, di := range unmatchedDetections {
		t.initiate(detections[di])
	}

	survivors := make([]*Track, 0, len(t.Tracks))
	for _, track := range t.Tracks {
		if track.IsDeleted() {
			Logf("track %s deleted after %d frames (%d hits)", track.ID, track.Age, track.Hits)
			continue
		}
		survivors = append(survivors, track)
	}
	t.Tracks = survivors
	return nil
}

// match splits association into two rounds: the matching cascade over
// confirmed tracks with a gated motion cost, then a single IoU round
// that mops up tentative tracks and confirmed tracks that just missed
// one frame.
func (t *Tracker) match(detections []Detection) ([]Match, []int, []int, error) {
	// Non-nil even when empty: nil index lists mean "all" to the
	// matching layer.
	confirmed := make([]int, 0, len(t.Tracks))
	unconfirmed := make([]int, 0)
	for i, track := range t.Tracks {
		if track.IsConfirmed() {
			confirmed = append(confirmed, i)
		} else {
			unconfirmed = append(unconfirmed, i)
		}
	}

	base := t.config.CostMetric
	if base == nil {
		base = MahalanobisMetric(t.kf, t.config.GatingOnlyPosition)
	}
	metric := GatedMetric(t.kf, base, DefaultGatedCost, t.config.GatingOnlyPosition)

	maxCost := t.config.MaxCost
	if maxCost == 0 {
		gatingDim := 4
		if t.config.GatingOnlyPosition {
			gatingDim = 2
		}
		maxCost = Chi2Inv95[gatingDim]
	}

	matches, unmatchedCascade, unmatchedDetections, err := MatchingCascade(
		metric, maxCost, t.config.MaxAge, t.Tracks, detections, confirmed, nil)
	if err != nil {
		return nil, nil, nil, err
	}

	// Tracks that coasted exactly one frame still have a fresh enough
	// box for IoU; older ones wait for the next cascade.
	iouCandidates := append(make([]int, 0, len(unconfirmed)), unconfirmed...)
	var unmatchedTracks []int
	for _, ti := range unmatchedCascade {
		if t.Tracks[ti].TimeSinceUpdate == 1 {
			iouCandidates = append(iouCandidates, ti)
		} else {
			unmatchedTracks = append(unmatchedTracks, ti)
		}
	}

	iouMatches, iouUnmatchedTracks, unmatchedDetections, err := MinCostMatching(
		IoUMetric, t.config.MaxIoUDistance, t.Tracks, detections, iouCandidates, unmatchedDetections)
	if err != nil {
		return nil, nil, nil, err
	}

	matches = append(matches, iouMatches...)
	unmatchedTracks = append(unmatchedTracks, iouUnmatchedTracks...)
	return matches, unmatchedTracks, unmatchedDetections, nil
}

func (t *Tracker) initiate(det Detection) {
	mean, covariance := t.kf.Initiate(det.XYAH())
	track := newTrack(mean, covariance, t.config.NInit, t.config.MaxAge, det.Feature)
	t.Tracks = append(t.Tracks, track)
	Logf("track %s created at %.1f,%.1f", track.ID, det.TLWH[0], det.TLWH[1])
}
