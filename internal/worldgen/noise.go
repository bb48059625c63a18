package worldgen

import "math"

// Deterministic lattice-hash value noise, ported from the teacher's
// internal/world/noise.go. The teacher never reached for an external noise
// library (simplex/perlin packages exist in the ecosystem but the teacher's
// own terrain generator is hand-rolled), so this package stays hand-rolled
// too rather than introduce a dependency the teacher itself didn't use.

func fade(t float64) float64 {
	return t * t * t * (t*(t*6-15) + 10)
}

func lerp(a, b, t float64) float64 { return a + (b-a)*t }

func hash2(x, z, seed int64) uint64 {
	v := uint64(x) + (uint64(z) << 1) + uint64(seed)*0x9E3779B97F4A7C15
	v += 0x9E3779B97F4A7C15
	v = (v ^ (v >> 30)) * 0xBF58476D1CE4E5B9
	v = (v ^ (v >> 27)) * 0x94D049BB133111EB
	v ^= v >> 31
	return v
}

func hash3(x, y, z, seed int64) uint64 {
	v := uint64(x) + uint64(y)*0x100000001B3 + (uint64(z) << 1) + uint64(seed)*0x9E3779B97F4A7C15
	v += 0x9E3779B97F4A7C15
	v = (v ^ (v >> 30)) * 0xBF58476D1CE4E5B9
	v = (v ^ (v >> 27)) * 0x94D049BB133111EB
	v ^= v >> 31
	return v
}

func latticeValue2(x, z, seed int64) float64 {
	return float64(hash2(x, z, seed)&0xFFFFFFFF) / float64(0xFFFFFFFF)
}

func latticeValue3(x, y, z, seed int64) float64 {
	return float64(hash3(x, y, z, seed)&0xFFFFFFFF) / float64(0xFFFFFFFF)
}

// valueNoise2D returns deterministic, continuous-across-lattice noise in [0,1].
func valueNoise2D(x, z float64, seed int64) float64 {
	x0 := math.Floor(x)
	z0 := math.Floor(z)
	x1, z1 := x0+1, z0+1

	fx := fade(x - x0)
	fz := fade(z - z0)

	v00 := latticeValue2(int64(x0), int64(z0), seed)
	v10 := latticeValue2(int64(x1), int64(z0), seed)
	v01 := latticeValue2(int64(x0), int64(z1), seed)
	v11 := latticeValue2(int64(x1), int64(z1), seed)

	i0 := lerp(v00, v10, fx)
	i1 := lerp(v01, v11, fx)
	return lerp(i0, i1, fz)
}

// valueNoise3D is the 3D counterpart used by the cavern density channel.
func valueNoise3D(x, y, z float64, seed int64) float64 {
	x0, y0, z0 := math.Floor(x), math.Floor(y), math.Floor(z)
	x1, y1, z1 := x0+1, y0+1, z0+1

	fx, fy, fz := fade(x-x0), fade(y-y0), fade(z-z0)

	c000 := latticeValue3(int64(x0), int64(y0), int64(z0), seed)
	c100 := latticeValue3(int64(x1), int64(y0), int64(z0), seed)
	c010 := latticeValue3(int64(x0), int64(y1), int64(z0), seed)
	c110 := latticeValue3(int64(x1), int64(y1), int64(z0), seed)
	c001 := latticeValue3(int64(x0), int64(y0), int64(z1), seed)
	c101 := latticeValue3(int64(x1), int64(y0), int64(z1), seed)
	c011 := latticeValue3(int64(x0), int64(y1), int64(z1), seed)
	c111 := latticeValue3(int64(x1), int64(y1), int64(z1), seed)

	x00 := lerp(c000, c100, fx)
	x10 := lerp(c010, c110, fx)
	x01 := lerp(c001, c101, fx)
	x11 := lerp(c011, c111, fx)

	y0i := lerp(x00, x10, fy)
	y1i := lerp(x01, x11, fy)
	return lerp(y0i, y1i, fz)
}

// octaveNoise2D sums octaves of valueNoise2D, normalized back into [0,1].
func octaveNoise2D(x, z float64, seed int64, octaves int, persistence, lacunarity float64) float64 {
	amplitude, frequency := 1.0, 1.0
	sum, norm := 0.0, 0.0
	for i := 0; i < octaves; i++ {
		v := valueNoise2D(x*frequency, z*frequency, seed+int64(i*131))
		sum += v * amplitude
		norm += amplitude
		amplitude *= persistence
		frequency *= lacunarity
	}
	if norm == 0 {
		return 0
	}
	return sum / norm
}

// octaveNoise3D is the 3D counterpart, used for the cavern density channel.
func octaveNoise3D(x, y, z float64, seed int64, octaves int, persistence, lacunarity float64) float64 {
	amplitude, frequency := 1.0, 1.0
	sum, norm := 0.0, 0.0
	for i := 0; i < octaves; i++ {
		v := valueNoise3D(x*frequency, y*frequency, z*frequency, seed+int64(i*257))
		sum += v * amplitude
		norm += amplitude
		amplitude *= persistence
		frequency *= lacunarity
	}
	if norm == 0 {
		return 0
	}
	return sum / norm
}
