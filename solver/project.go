package solver

// dealias removes the modes outside the 2/3-rule cutoff from Inc and scales
// the rest by the time step.
func (in *Integrator) dealias() {
	s, wn := in.state, in.wn
	dt := complex(in.params.TimeStep, 0)
	du, dv, dw := s.Inc[0], s.Inc[1], s.Inc[2]

	in.pool.Map(s.modes, func(lo, hi int) {
		for l := lo; l < hi; l++ {
			if wn.Dealias[l] {
				du[l] *= dt
				dv[l] *= dt
				dw[l] *= dt
			} else {
				du[l], dv[l], dw[l] = 0, 0, 0
			}
		}
	})
}

// project removes the component of Inc parallel to k and subtracts the
// explicit viscous term ν dt |k|² Vel. The mean mode has no direction to
// project along and receives no pressure correction.
func (in *Integrator) project() {
	s, wn := in.state, in.wn
	nuDt := in.params.Viscosity * in.params.TimeStep
	u, v, w := s.Vel[0], s.Vel[1], s.Vel[2]
	du, dv, dw := s.Inc[0], s.Inc[1], s.Inc[2]
	pHat := s.P

	in.pool.Map(s.modes, func(lo, hi int) {
		for l := lo; l < hi; l++ {
			kk := wn.KK[l]
			kx := complex(wn.KX[l], 0)
			ky := complex(wn.KY[l], 0)
			kz := complex(wn.KZ[l], 0)

			var p complex128
			if kk > 0 {
				p = (du[l]*kx + dv[l]*ky + dw[l]*kz) / complex(kk, 0)
			}
			pHat[l] = p

			visc := complex(nuDt*kk, 0)
			du[l] -= p*kx + visc*u[l]
			dv[l] -= p*ky + visc*v[l]
			dw[l] -= p*kz + visc*w[l]
		}
	})
}
