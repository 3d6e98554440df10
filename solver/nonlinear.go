package solver

// mulI multiplies z by the imaginary unit.
func mulI(z complex128) complex128 { return complex(-imag(z), real(z)) }

// curl writes the spectral vorticity i k x Vel into the Curl slot.
func (in *Integrator) curl() {
	s, wn := in.state, in.wn
	u, v, w := s.Vel[0], s.Vel[1], s.Vel[2]
	cx, cy, cz := s.Curl[0], s.Curl[1], s.Curl[2]

	in.pool.Map(s.modes, func(lo, hi int) {
		for l := lo; l < hi; l++ {
			kx := complex(wn.KX[l], 0)
			ky := complex(wn.KY[l], 0)
			kz := complex(wn.KZ[l], 0)

			cx[l] = mulI(ky*w[l] - kz*v[l])
			cy[l] = mulI(kz*u[l] - kx*w[l])
			cz[l] = mulI(kx*v[l] - ky*u[l])
		}
	})
}

// backward materializes the normalized physical form of a spectral vector
// field.
func (in *Integrator) backward(dst Physical, src Spectral) {
	for c := range src {
		in.tr.Backward(dst[c], src[c])
	}

	norm := in.g.InvN3()
	in.pool.Map(in.state.points, func(lo, hi int) {
		for i := lo; i < hi; i++ {
			dst[0][i] *= norm
			dst[1][i] *= norm
			dst[2][i] *= norm
		}
	})
}

// materialize makes sure the Phys slot holds the physical velocity of Vel.
func (in *Integrator) materialize() {
	if in.state.physValid {
		return
	}
	in.backward(in.state.Phys, in.state.Vel)
	in.state.physValid = true
}

// nonlinear evaluates the rotational form of the advection term, u x ω, at
// the current working state and writes its spectral form into Inc. The
// physical velocity must already be materialized.
func (in *Integrator) nonlinear() {
	s := in.state
	in.curl()
	in.backward(s.PhysCurl, s.Curl)

	u, v, w := s.Phys[0], s.Phys[1], s.Phys[2]
	ox, oy, oz := s.PhysCurl[0], s.PhysCurl[1], s.PhysCurl[2]
	lx, ly, lz := s.Lamb[0], s.Lamb[1], s.Lamb[2]

	in.pool.Map(s.points, func(lo, hi int) {
		for i := lo; i < hi; i++ {
			lx[i] = v[i]*oz[i] - w[i]*oy[i]
			ly[i] = w[i]*ox[i] - u[i]*oz[i]
			lz[i] = u[i]*oy[i] - v[i]*ox[i]
		}
	})

	for c := range s.Lamb {
		in.tr.Forward(s.Inc[c], s.Lamb[c])
	}
}
