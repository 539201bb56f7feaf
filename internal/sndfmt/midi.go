// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package sndfmt

import "strconv"

var noteFrequencies [128]float64

func init() {
	var gamme [12]float64
	gamme[0] = 1
	for i := 1; i < 12; i++ {
		gamme[i] = gamme[i-1] * 1.059630943592952646
	}
	for i := range noteFrequencies {
		octave := 1 + (i+3)/12 // A440 is in octave 7
		semitone := (i + 3) % 12
		var f float32
		if octave < 7 {
			f = float32(gamme[semitone] * 440 / float64(int(1)<<(7-octave)))
		} else {
			f = float32(gamme[semitone] * 440 * float64(int(1)<<(octave-7)))
		}
		noteFrequencies[i] = float64(f)
	}
}

// NoteFrequency is in Hz. Notes outside 0-127 give 440.
func NoteFrequency(note int) float64 {
	if note < 0 || note >= len(noteFrequencies) {
		return 440
	}
	return noteFrequencies[note]
}

var noteNames = [12]string{"A", "A#", "B", "C", "C#", "D", "D#", "E", "F", "F#", "G", "G#"}

// NoteName numbers octaves from A, as Inside Macintosh does,
// so it disagrees with scientific pitch notation
func NoteName(note int) string {
	if note < 0 {
		return "?"
	}
	return noteNames[(note+3)%12] + strconv.Itoa(1+(note+3)/12)
}
