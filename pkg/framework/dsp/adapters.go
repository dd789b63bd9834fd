// Package dsp adapts the standalone algorithms in pkg/dsp to the
// graph.Processor interface, so a compiled schedule can dispatch to real
// DSP instead of a test double. Each adapter owns exactly one pkg/dsp
// instance and reads/writes through the graph.Buffers window its node
// was bound to, sample by sample, with no allocation on the audio
// thread.
package dsp

import (
	"github.com/justyntemme/audiograph/pkg/dsp/delay"
	"github.com/justyntemme/audiograph/pkg/dsp/dynamics"
	"github.com/justyntemme/audiograph/pkg/dsp/filter"
	"github.com/justyntemme/audiograph/pkg/dsp/gain"
	"github.com/justyntemme/audiograph/pkg/dsp/mix"
	"github.com/justyntemme/audiograph/pkg/dsp/oscillator"
	"github.com/justyntemme/audiograph/pkg/dsp/utility"

	"github.com/justyntemme/audiograph/pkg/framework/graph"
)

// Waveform selects which of oscillator.Oscillator's generators an
// OscillatorAdapter drives.
type Waveform int

const (
	WaveSine Waveform = iota
	WaveSaw
	WaveSquare
	WaveTriangle
)

// OscillatorAdapter is a source node (no input) driving
// oscillator.Oscillator into its single output. It has no intrinsic
// latency.
type OscillatorAdapter struct {
	osc       *oscillator.Oscillator
	frequency float64
	wave      Waveform
}

// NewOscillatorAdapter returns an adapter generating wave at frequency
// Hz. The underlying oscillator.Oscillator is constructed in Initialize,
// once the node's sample rate is known.
func NewOscillatorAdapter(frequency float64, wave Waveform) *OscillatorAdapter {
	return &OscillatorAdapter{frequency: frequency, wave: wave}
}

func (a *OscillatorAdapter) Initialize(sampleRate float64, maxBlockSize, maxClusters int) uint64 {
	a.osc = oscillator.New(sampleRate)
	a.osc.SetFrequency(a.frequency)
	return 0
}

func (a *OscillatorAdapter) Process(buffers *graph.Buffers, clusterIdx int, voiceMask graph.VoiceMask) graph.VoiceMask {
	out, ok := buffers.Output(0)
	if !ok {
		return voiceMask
	}
	switch a.wave {
	case WaveSaw:
		a.osc.ProcessSaw(out)
	case WaveSquare:
		a.osc.ProcessSquare(out)
	case WaveTriangle:
		a.osc.ProcessTriangle(out)
	default:
		a.osc.ProcessSine(out)
	}
	return voiceMask
}

func (a *OscillatorAdapter) Reset() { a.osc.Reset() }

// GainAdapter applies a fixed dB gain from input 0 to output 0. No
// intrinsic latency.
type GainAdapter struct {
	db float32
}

// NewGainAdapter returns an adapter applying db decibels of gain.
func NewGainAdapter(db float32) *GainAdapter {
	return &GainAdapter{db: db}
}

func (a *GainAdapter) Initialize(sampleRate float64, maxBlockSize, maxClusters int) uint64 {
	return 0
}

func (a *GainAdapter) Process(buffers *graph.Buffers, clusterIdx int, voiceMask graph.VoiceMask) graph.VoiceMask {
	in, ok := buffers.Input(0)
	out, ok2 := buffers.Output(0)
	if !ok || !ok2 {
		return voiceMask
	}
	for i := range out {
		out[i] = gain.ApplyDb(in.At(i), a.db)
	}
	return voiceMask
}

// DelayAdapter wraps delay.Line with a fixed delay. Its Initialize
// return value must match whatever latency the caller registered on the
// node's output (Node.AddOutput) when building the graph - this core
// does not discover latency dynamically.
type DelayAdapter struct {
	line            *delay.Line
	delaySamples    float64
	maxDelaySeconds float64
}

// NewDelayAdapter returns an adapter holding signals back by
// delaySamples, with enough headroom for up to maxDelaySeconds at the
// eventual sample rate (0 selects a 2-second default).
func NewDelayAdapter(delaySamples float64, maxDelaySeconds float64) *DelayAdapter {
	if maxDelaySeconds <= 0 {
		maxDelaySeconds = 2.0
	}
	return &DelayAdapter{delaySamples: delaySamples, maxDelaySeconds: maxDelaySeconds}
}

// Latency reports the sample count this adapter's node output must be
// declared with so the scheduler's delay compensation accounts for it.
func (a *DelayAdapter) Latency() uint64 { return uint64(a.delaySamples) }

func (a *DelayAdapter) Initialize(sampleRate float64, maxBlockSize, maxClusters int) uint64 {
	a.line = delay.New(a.maxDelaySeconds, sampleRate)
	return uint64(a.delaySamples)
}

func (a *DelayAdapter) Process(buffers *graph.Buffers, clusterIdx int, voiceMask graph.VoiceMask) graph.VoiceMask {
	in, ok := buffers.Input(0)
	out, ok2 := buffers.Output(0)
	if !ok || !ok2 {
		return voiceMask
	}
	for i := range out {
		out[i] = a.line.Process(in.At(i), a.delaySamples)
	}
	return voiceMask
}

func (a *DelayAdapter) Reset() { a.line.Reset() }

// LowpassAdapter wraps a single-channel filter.Biquad configured as a
// lowpass. No intrinsic latency.
type LowpassAdapter struct {
	biquad    *filter.Biquad
	frequency float64
	q         float64
}

// NewLowpassAdapter returns a lowpass adapter at the given cutoff
// frequency (Hz) and Q.
func NewLowpassAdapter(frequency, q float64) *LowpassAdapter {
	return &LowpassAdapter{frequency: frequency, q: q}
}

func (a *LowpassAdapter) Initialize(sampleRate float64, maxBlockSize, maxClusters int) uint64 {
	a.biquad = filter.NewBiquad(1)
	a.biquad.SetLowpass(sampleRate, a.frequency, a.q)
	return 0
}

func (a *LowpassAdapter) Process(buffers *graph.Buffers, clusterIdx int, voiceMask graph.VoiceMask) graph.VoiceMask {
	in, ok := buffers.Input(0)
	out, ok2 := buffers.Output(0)
	if !ok || !ok2 {
		return voiceMask
	}
	for i := range out {
		out[i] = in.At(i)
	}
	a.biquad.Process(out, 0)
	return voiceMask
}

func (a *LowpassAdapter) Reset() { a.biquad.Reset() }

// DryWetAdapter mixes a dry signal (input 0) against a wet signal
// (input 1) into its single output, using mix.DryWet. Unlike the
// compiler's own Sum tasks, which add two producers claiming the same
// port, this node takes two distinct input ports and blends them by a
// ratio rather than summing them.
type DryWetAdapter struct {
	amount float32
}

// NewDryWetAdapter returns an adapter blending dry/wet by amount (0 =
// fully dry, 1 = fully wet).
func NewDryWetAdapter(amount float32) *DryWetAdapter {
	return &DryWetAdapter{amount: amount}
}

func (a *DryWetAdapter) Initialize(sampleRate float64, maxBlockSize, maxClusters int) uint64 {
	return 0
}

func (a *DryWetAdapter) Process(buffers *graph.Buffers, clusterIdx int, voiceMask graph.VoiceMask) graph.VoiceMask {
	dry, ok := buffers.Input(0)
	wet, ok2 := buffers.Input(1)
	out, ok3 := buffers.Output(0)
	if !ok || !ok2 || !ok3 {
		return voiceMask
	}
	for i := range out {
		out[i] = mix.DryWet(dry.At(i), wet.At(i), a.amount)
	}
	return voiceMask
}

// CompressorAdapter adapts dynamics.Compressor to graph.Processor: one
// input, one output, no intrinsic latency.
type CompressorAdapter struct {
	comp                          *dynamics.Compressor
	thresholdDB, ratio            float64
	attackSeconds, releaseSeconds float64
}

// NewCompressorAdapter returns an adapter with the given threshold (dB),
// ratio, and attack/release times (seconds).
func NewCompressorAdapter(thresholdDB, ratio, attackSeconds, releaseSeconds float64) *CompressorAdapter {
	return &CompressorAdapter{
		thresholdDB:    thresholdDB,
		ratio:          ratio,
		attackSeconds:  attackSeconds,
		releaseSeconds: releaseSeconds,
	}
}

func (a *CompressorAdapter) Initialize(sampleRate float64, maxBlockSize, maxClusters int) uint64 {
	a.comp = dynamics.NewCompressor(sampleRate)
	a.comp.SetThreshold(a.thresholdDB)
	a.comp.SetRatio(a.ratio)
	a.comp.SetAttack(a.attackSeconds)
	a.comp.SetRelease(a.releaseSeconds)
	return 0
}

func (a *CompressorAdapter) Process(buffers *graph.Buffers, clusterIdx int, voiceMask graph.VoiceMask) graph.VoiceMask {
	in, ok := buffers.Input(0)
	out, ok2 := buffers.Output(0)
	if !ok || !ok2 {
		return voiceMask
	}
	for i := range out {
		out[i] = a.comp.Process(in.At(i))
	}
	return voiceMask
}

func (a *CompressorAdapter) Reset() { a.comp.Reset() }

// GateAdapter adapts dynamics.Gate to graph.Processor: one input, one
// output, no intrinsic latency.
type GateAdapter struct {
	gate                 *dynamics.Gate
	thresholdDB, rangeDB float64
}

// NewGateAdapter returns an adapter with the given threshold and
// attenuation range, both in dB.
func NewGateAdapter(thresholdDB, rangeDB float64) *GateAdapter {
	return &GateAdapter{thresholdDB: thresholdDB, rangeDB: rangeDB}
}

func (a *GateAdapter) Initialize(sampleRate float64, maxBlockSize, maxClusters int) uint64 {
	a.gate = dynamics.NewGate(sampleRate)
	a.gate.SetThreshold(a.thresholdDB)
	a.gate.SetRange(a.rangeDB)
	return 0
}

func (a *GateAdapter) Process(buffers *graph.Buffers, clusterIdx int, voiceMask graph.VoiceMask) graph.VoiceMask {
	in, ok := buffers.Input(0)
	out, ok2 := buffers.Output(0)
	if !ok || !ok2 {
		return voiceMask
	}
	for i := range out {
		out[i] = a.gate.Process(in.At(i))
	}
	return voiceMask
}

func (a *GateAdapter) Reset() { a.gate.Reset() }

// DCBlockerAdapter adapts utility.SimpleDCBlocker to graph.Processor:
// one input, one output, no intrinsic latency.
type DCBlockerAdapter struct {
	blocker *utility.SimpleDCBlocker
}

// NewDCBlockerAdapter returns a DC-blocking adapter.
func NewDCBlockerAdapter() *DCBlockerAdapter {
	return &DCBlockerAdapter{}
}

func (a *DCBlockerAdapter) Initialize(sampleRate float64, maxBlockSize, maxClusters int) uint64 {
	a.blocker = utility.NewSimpleDCBlocker(sampleRate)
	return 0
}

func (a *DCBlockerAdapter) Process(buffers *graph.Buffers, clusterIdx int, voiceMask graph.VoiceMask) graph.VoiceMask {
	in, ok := buffers.Input(0)
	out, ok2 := buffers.Output(0)
	if !ok || !ok2 {
		return voiceMask
	}
	for i := range out {
		out[i] = a.blocker.Process(in.At(i))
	}
	return voiceMask
}

func (a *DCBlockerAdapter) Reset() { a.blocker.Reset() }

// NoiseAdapter adapts utility.NoiseGenerator to graph.Processor: it
// mixes noise onto its single input, writing the sum into its single
// output. No intrinsic latency.
type NoiseAdapter struct {
	noise     *utility.NoiseGenerator
	noiseType utility.NoiseType
	amount    float32
}

// NewNoiseAdapter returns an adapter adding noiseType noise at the given
// linear mix amount onto its input.
func NewNoiseAdapter(noiseType utility.NoiseType, amount float32) *NoiseAdapter {
	return &NoiseAdapter{noiseType: noiseType, amount: amount}
}

func (a *NoiseAdapter) Initialize(sampleRate float64, maxBlockSize, maxClusters int) uint64 {
	a.noise = utility.NewNoiseGenerator(a.noiseType)
	return 0
}

func (a *NoiseAdapter) Process(buffers *graph.Buffers, clusterIdx int, voiceMask graph.VoiceMask) graph.VoiceMask {
	in, ok := buffers.Input(0)
	out, ok2 := buffers.Output(0)
	if !ok || !ok2 {
		return voiceMask
	}
	for i := range out {
		out[i] = in.At(i)
	}
	a.noise.GenerateAdd(out, a.amount)
	return voiceMask
}

func (a *NoiseAdapter) Reset() { a.noise.Reset() }
