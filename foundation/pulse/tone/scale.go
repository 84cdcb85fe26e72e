package tone

// scale is the fixed set of consonant frequencies every transaction pitch is
// drawn from. Three octaves of the A minor pentatonic, low register first so
// large values (which invert the index) land on the low notes.
var scale = []float64{
	110.00, // A2
	130.81, // C3
	146.83, // D3
	164.81, // E3
	196.00, // G3
	220.00, // A3
	261.63, // C4
	293.66, // D4
	329.63, // E4
	392.00, // G4
	440.00, // A4
	523.25, // C5
	587.33, // D5
	659.26, // E5
	783.99, // G5
}

// strikeStack is the fixed harmonic stack for the block gong. Not derived
// from any transaction value.
var strikeStack = []float64{
	55.00,  // A1 fundamental
	110.00, // octave
	164.81, // twelfth
	220.00, // double octave
	329.63, // major seventeenth
}
