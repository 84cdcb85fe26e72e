package particle

import (
	"testing"
)

func TestSlidePastTallerPile(t *testing.T) {
	t.Log("Given a particle drifting sideways into a taller settled column.")
	{
		t.Logf("\tTest 0:\tWhen the column's top surface is above the particle.")
		{
			f := New(Config{Width: 200, Height: 100}, 1, nil)

			column := &Particle{ID: "aa01", X: 100, Y: 50, Radius: 10, Alpha: 1, Settled: true, seq: 1}
			slider := &Particle{ID: "aa02", X: 88, Y: 95, VX: 4, Radius: 5, Alpha: 1, seq: 2}
			f.particles = append(f.particles, column, slider)
			f.seq = 2

			for i := 0; i < 10; i++ {
				f.Tick()

				if slider.Y < 95 {
					t.Fatalf("\t✗\tTest 0:\tShould never snap the particle upward, got Y %f.", slider.Y)
				}
			}
			t.Logf("\t✓\tTest 0:\tShould never snap the particle upward.")

			if slider.Y != 95 {
				t.Fatalf("\t✗\tTest 0:\tShould keep the particle resting on the floor, got Y %f.", slider.Y)
			}
			t.Logf("\t✓\tTest 0:\tShould keep the particle resting on the floor.")
		}
	}
}
