package particle

import "math"

// Tick advances the simulation one frame. Physics runs in the normal phase;
// the converging and dissolving phases run the block transition instead. A
// failure updating one particle is contained and must not halt the tick for
// the others.
func (f *Field) Tick() {
	switch f.phase {
	case PhaseConverging:
		f.tickConverge()
	case PhaseDissolving:
		f.tickDissolve()
	default:
		f.tickPhysics()
	}
}

// Converge commands the field into the block transition. Live particles
// interpolate toward the container center while their alpha decays.
func (f *Field) Converge() {
	f.phase = PhaseConverging
	f.progress = 0
}

// tickPhysics integrates gravity, walls, settling, fades and overflow for
// one frame.
func (f *Field) tickPhysics() {
	for _, p := range f.particles {
		f.updateParticle(p)
	}

	f.removeFaded()
	f.checkOverflow()
}

// updateParticle advances a single particle, containing any failure so one
// bad particle can't halt the frame.
func (f *Field) updateParticle(p *Particle) {
	defer func() {
		if r := recover(); r != nil {
			f.ev("particle: update: contained failure: id[%s]: %v", p.ID, r)
		}
	}()

	if p.fading {
		p.Alpha -= f.cfg.FadeStep
		return
	}

	if p.Settled {
		return
	}

	fromY := p.Y

	p.VY += f.cfg.Gravity
	p.Y += p.VY
	p.X += p.VX

	// Damped bounce off the container walls.
	if p.X < p.Radius {
		p.X = p.Radius
		p.VX = -p.VX * f.cfg.Restitution
	}
	if p.X > f.cfg.Width-p.Radius {
		p.X = f.cfg.Width - p.Radius
		p.VX = -p.VX * f.cfg.Restitution
	}

	// The particle rests on the container floor or on the top surface of
	// the nearest settled particle directly below it.
	rest := f.restY(p, fromY)
	if p.Y >= rest {
		p.Y = rest
		p.VY = 0
		p.VX *= 0.5

		if math.Abs(p.VX) < settleEpsilon {
			p.VX = 0
			p.Settled = true
		}
	}
}

// restY computes the vertical position where the particle would come to
// rest given the current pile. fromY is the particle's position before this
// tick's integration: a surface the particle was already below can't catch
// it, so drifting sideways into a taller column slides past instead of
// snapping upward.
func (f *Field) restY(p *Particle, fromY float64) float64 {
	rest := f.cfg.Height - p.Radius

	for _, sp := range f.particles {
		if !sp.Settled || sp == p {
			continue
		}
		if math.Abs(p.X-sp.X) >= p.Radius+sp.Radius {
			continue
		}

		top := sp.Y - sp.Radius - p.Radius
		if top < fromY {
			continue
		}
		if top < rest {
			rest = top
		}
	}

	return rest
}

// removeFaded drops particles whose alpha reached zero.
func (f *Field) removeFaded() {
	keep := f.particles[:0]
	for _, p := range f.particles {
		if p.Alpha > 0 {
			keep = append(keep, p)
			continue
		}
	}
	f.particles = keep
}

// checkOverflow starts fading out the oldest settled particles when the
// pile height crosses the fill-ratio threshold. This bounds memory and
// visual clutter during sustained high load.
func (f *Field) checkOverflow() {
	var settled []*Particle
	pileTop := f.cfg.Height

	for _, p := range f.particles {
		if !p.Settled || p.fading {
			continue
		}
		settled = append(settled, p)
		if top := p.Y - p.Radius; top < pileTop {
			pileTop = top
		}
	}

	if len(settled) == 0 {
		return
	}

	height := f.cfg.Height - pileTop
	if height <= f.cfg.FillRatio*f.cfg.Height {
		return
	}

	evict := int(math.Ceil(float64(len(settled)) * f.cfg.EvictShare))
	for i := 0; i < evict; i++ {
		oldest := -1
		for j, p := range settled {
			if p.fading {
				continue
			}
			if oldest == -1 || p.seq < settled[oldest].seq {
				oldest = j
			}
		}
		if oldest == -1 {
			break
		}
		settled[oldest].fading = true
	}
}

// tickConverge interpolates every particle toward the container center and
// decays alpha. When progress reaches 1 the dissolve phase takes over.
func (f *Field) tickConverge() {
	cx := f.cfg.Width / 2
	cy := f.cfg.Height / 2

	// Fixed interpolation rate per tick toward the center.
	const pull = 0.08

	for _, p := range f.particles {
		p.X += (cx - p.X) * pull
		p.Y += (cy - p.Y) * pull
		p.Alpha = math.Max(p.Alpha-f.cfg.FadeStep/4, 0.15)
	}

	f.progress += f.cfg.ConvergeRate
	if f.progress >= 1 {
		f.phase = PhaseDissolving
	}
}

// tickDissolve continues the alpha decay to zero; at completion the entire
// set is cleared and normal behavior resumes with an empty container.
func (f *Field) tickDissolve() {
	for _, p := range f.particles {
		p.Alpha = math.Max(p.Alpha-f.cfg.FadeStep, 0)
	}

	f.progress += f.cfg.DissolveRate
	if f.progress >= 2 {
		f.particles = nil
		f.phase = PhaseNormal
		f.progress = 0
	}
}
