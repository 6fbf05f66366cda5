package midi

import (
	"gitlab.com/gomidi/midi/v2/smf"

	"github.com/shaban/jfxrig/effects"
)

// General MIDI percussion key numbers this importer recognizes. Notes
// outside this set are ignored rather than rejected — a drum file
// commonly carries fills and rides we have no lane for yet.
const (
	gmKick        = 36
	gmSnare       = 38
	gmClosedHiHat = 42
)

func laneForNote(key uint8) (effects.DrumVoice, bool) {
	switch key {
	case gmKick:
		return effects.VoiceKick, true
	case gmSnare:
		return effects.VoiceSnare, true
	case gmClosedHiHat:
		return effects.VoiceHiHat, true
	default:
		return 0, false
	}
}

// accentVelocity marks a hit accented once its velocity crosses this
// threshold (out of 127), the same cutoff a drummer would call "hard".
const accentVelocity = 100

// ImportPattern folds the note-on events of every track of a Standard
// MIDI File onto one bar of effects.DrumSteps 16th-note steps (step =
// 16th-note index modulo DrumSteps; the MIDI channel is not checked) and
// returns it as a Pattern ready to hand to a drumMachine node via
// SetPattern. A later hit on the same lane and step overwrites an earlier
// one. Only the recognized General MIDI kick/snare/closed-hihat keys are
// mapped; everything else in the file is read but discarded.
func ImportPattern(path string) (effects.Pattern, error) {
	var pattern effects.Pattern

	ticksPerQuarter := 480.0 // fallback for non-metric time divisions
	s, err := smf.ReadFile(path)
	if err != nil {
		return pattern, err
	}
	if tf, ok := s.TimeFormat.(smf.MetricTicks); ok {
		ticksPerQuarter = float64(tf.Ticks4th())
	}
	ticksPerStep := ticksPerQuarter / 4 // one Pattern step is a 16th note

	for _, track := range s.Tracks {
		var absTicks int64
		for _, ev := range track {
			absTicks += int64(ev.Delta)

			var channel, key, velocity uint8
			if !ev.Message.GetNoteOn(&channel, &key, &velocity) || velocity == 0 {
				continue
			}
			lane, ok := laneForNote(key)
			if !ok {
				continue
			}
			step := int(float64(absTicks)/ticksPerStep) % effects.DrumSteps
			pattern.Lanes[lane][step] = effects.Hit{
				Active:   true,
				Velocity: float32(velocity) / 127,
				Accent:   velocity >= accentVelocity,
			}
		}
	}
	return pattern, nil
}
