package capture

import "math"

// StageID identifies a conditioning stage in the signal chain.
type StageID string

// Conditioning stages, in signal order.
const (
	StagePreamp     StageID = "preamp"     // slider-driven input trim
	StageCompressor StageID = "compressor" // fixed dynamics, evens the trimmed signal
	StageMainGain   StageID = "main_gain"  // fixed makeup trim after compression
	StageLimiter    StageID = "limiter"    // fast ceiling ahead of the taps
)

// StageOrder defines the conditioning path from source to taps. The
// order is load-bearing: the preamp feeds every detector downstream,
// makeup gain applies to the compressor's evened signal, and the
// limiter sits last so neither tap sees a hotter signal than the one
// clip detection observed.
var StageOrder = []StageID{
	StagePreamp,
	StageCompressor,
	StageMainGain,
	StageLimiter,
}

// Fixed dynamics parameters. Values are tunable; the stage ordering is
// what guarantees capture headroom.
const (
	compressorThresholdDB = -24.0 // dBFS, onset of gain reduction
	compressorKneeDB      = 30.0  // dB, soft knee width
	compressorRatio       = 12.0  // reduction slope above threshold
	compressorAttackSec   = 0.003 // s, detector rise
	compressorReleaseSec  = 0.25  // s, detector fall

	limiterThresholdDB = -3.0  // dBFS
	limiterKneeDB      = 0.0   // hard knee
	limiterRatio       = 20.0  // near brick-wall
	limiterAttackSec   = 0.001 // s
	limiterReleaseSec  = 0.05  // s

	// paramRampSec smooths gain-stage parameter changes so a moving
	// slider glides instead of clicking.
	paramRampSec = 0.05

	// mainGainDB is the fixed makeup trim applied after compression.
	mainGainDB = 2.0
)

// stage is one conditioning step. process runs per sample on the stream
// goroutine; implementations keep their own state and never block.
type stage interface {
	id() StageID
	process(sample float32) float32
}

// gainStage multiplies by a smoothed gain. The target moves instantly;
// the applied gain follows with a one-pole ramp.
type gainStage struct {
	stageID StageID
	gain    float64
	target  float64
	coeff   float64
}

func newGainStage(id StageID, gain float64, sampleRate int) *gainStage {
	return &gainStage{
		stageID: id,
		gain:    gain,
		target:  gain,
		coeff:   rampCoeff(paramRampSec, sampleRate),
	}
}

func (g *gainStage) id() StageID { return g.stageID }

func (g *gainStage) setTarget(gain float64) {
	g.target = gain
}

func (g *gainStage) process(sample float32) float32 {
	g.gain = g.target + (g.gain-g.target)*g.coeff
	return float32(float64(sample) * g.gain)
}

// dynamicsStage is a feed-forward compressor: an envelope detector with
// separate attack and release, driving gain reduction with a quadratic
// soft knee. A hard knee and a steep ratio make it the limiter.
type dynamicsStage struct {
	stageID     StageID
	thresholdDB float64
	kneeDB      float64
	ratio       float64

	attackCoeff  float64
	releaseCoeff float64
	envelope     float64
}

func newDynamicsStage(id StageID, thresholdDB, kneeDB, ratio, attackSec, releaseSec float64, sampleRate int) *dynamicsStage {
	return &dynamicsStage{
		stageID:      id,
		thresholdDB:  thresholdDB,
		kneeDB:       kneeDB,
		ratio:        ratio,
		attackCoeff:  rampCoeff(attackSec, sampleRate),
		releaseCoeff: rampCoeff(releaseSec, sampleRate),
	}
}

func (d *dynamicsStage) id() StageID { return d.stageID }

func (d *dynamicsStage) process(sample float32) float32 {
	level := math.Abs(float64(sample))
	if level > d.envelope {
		d.envelope = level + (d.envelope-level)*d.attackCoeff
	} else {
		d.envelope = level + (d.envelope-level)*d.releaseCoeff
	}

	reduction := d.gainReductionDB(linearToDB(d.envelope))
	if reduction == 0 {
		return sample
	}
	return float32(float64(sample) * dbToLinear(reduction))
}

// gainReductionDB returns the negative dB gain for a detector level,
// quadratic inside the knee and linear above it.
func (d *dynamicsStage) gainReductionDB(levelDB float64) float64 {
	over := levelDB - d.thresholdDB
	switch {
	case d.kneeDB > 0 && math.Abs(over) < d.kneeDB/2:
		t := over + d.kneeDB/2
		return (1/d.ratio - 1) * t * t / (2 * d.kneeDB)
	case over > 0:
		return (1/d.ratio - 1) * over
	default:
		return 0
	}
}

// rampCoeff returns the per-sample feedback coefficient of a one-pole
// smoother with time constant tau seconds.
func rampCoeff(tau float64, sampleRate int) float64 {
	if tau <= 0 || sampleRate <= 0 {
		return 0
	}
	return math.Exp(-1.0 / (tau * float64(sampleRate)))
}

func dbToLinear(db float64) float64 {
	return math.Pow(10, db/20)
}

// linearToDB floors at -120 dB so silence never yields -Inf.
func linearToDB(linear float64) float64 {
	if linear <= 0 {
		return -120.0
	}
	db := 20 * math.Log10(linear)
	if db < -120.0 {
		return -120.0
	}
	return db
}
