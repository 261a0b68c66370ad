package geo

import (
	"fmt"
	"math"

	"github.com/couchcryptid/reach-hydroline-service/internal/domain"
)

// Smoothing defaults, tuned for degree-unit hydrolines. The basin tracer's
// output is blocky at its source raster resolution; densifying first keeps
// the spline from cutting corners, and simplifying afterwards strips the
// redundant vertices oversampling introduces.
const (
	DefaultSmoothingFactor = 0.0005
	DefaultSplineOrder     = 2
	splineOversample       = 5
)

// Densify inserts vertices so that no segment exceeds maxSegmentLength.
func Densify(line *domain.Polyline, maxSegmentLength float64) (*domain.Polyline, error) {
	if maxSegmentLength <= 0 {
		return nil, fmt.Errorf("%w: densify requires a positive segment length", domain.ErrGeometry)
	}
	out := &domain.Polyline{Paths: make([][]domain.Coord, 0, len(line.Paths)), SR: line.SR}
	for _, path := range line.Paths {
		if len(path) < 2 {
			out.Paths = append(out.Paths, path)
			continue
		}
		dense := []domain.Coord{path[0]}
		for i := 0; i+1 < len(path); i++ {
			a, b := path[i], path[i+1]
			segLen := dist(a, b)
			steps := int(math.Ceil(segLen / maxSegmentLength))
			for s := 1; s <= steps; s++ {
				t := float64(s) / float64(steps)
				dense = append(dense, domain.Coord{
					a.X() + t*(b.X()-a.X()),
					a.Y() + t*(b.Y()-a.Y()),
				})
			}
		}
		out.Paths = append(out.Paths, dense)
	}
	return out, nil
}

// Simplify removes vertices that deviate from the line by less than the
// tolerance, using Douglas-Peucker per path. Endpoints are always kept.
func Simplify(line *domain.Polyline, tolerance float64) *domain.Polyline {
	out := &domain.Polyline{Paths: make([][]domain.Coord, 0, len(line.Paths)), SR: line.SR}
	for _, path := range line.Paths {
		out.Paths = append(out.Paths, douglasPeucker(path, tolerance))
	}
	return out
}

// Smooth densifies the line to the given maximum segment length, fits a
// smoothing spline over the vertex sequence oversampled 5x, and simplifies
// the result. Lines with three or fewer vertices are returned unchanged:
// not enough points to fit a spline safely.
func Smooth(line *domain.Polyline, maxSegmentLength, smoothingFactor float64, splineOrder int) (*domain.Polyline, error) {
	if line.VertexCount() <= 3 {
		return line, nil
	}
	if splineOrder < 1 {
		return nil, fmt.Errorf("%w: spline order must be at least 1", domain.ErrGeometry)
	}

	dense, err := Densify(line, maxSegmentLength)
	if err != nil {
		return nil, err
	}

	smoothed := &domain.Polyline{Paths: make([][]domain.Coord, 0, len(dense.Paths)), SR: dense.SR}
	for _, path := range dense.Paths {
		if len(path) <= splineOrder+1 {
			smoothed.Paths = append(smoothed.Paths, path)
			continue
		}
		smoothed.Paths = append(smoothed.Paths, evalBSpline(path, splineOrder, len(path)*splineOversample))
	}
	return Simplify(smoothed, smoothingFactor), nil
}

// evalBSpline evaluates a clamped uniform B-spline of the given degree with
// the path vertices as control points, sampled at n evenly spaced parameter
// values. Clamped knots pin the curve to the original endpoints, which the
// trim step depends on.
func evalBSpline(ctrl []domain.Coord, degree, n int) []domain.Coord {
	m := len(ctrl)
	if n < 2 {
		n = 2
	}

	// Knot vector: degree+1 repeats at each end, uniform interior.
	knotCount := m + degree + 1
	knots := make([]float64, knotCount)
	interior := knotCount - 2*(degree+1)
	for i := 0; i < knotCount; i++ {
		switch {
		case i <= degree:
			knots[i] = 0
		case i >= knotCount-degree-1:
			knots[i] = 1
		default:
			knots[i] = float64(i-degree) / float64(interior+1)
		}
	}

	out := make([]domain.Coord, 0, n)
	for s := 0; s < n; s++ {
		t := float64(s) / float64(n-1)
		out = append(out, deBoor(ctrl, knots, degree, t))
	}
	return out
}

// deBoor evaluates the spline at parameter t via de Boor's algorithm.
func deBoor(ctrl []domain.Coord, knots []float64, degree int, t float64) domain.Coord {
	m := len(ctrl)

	// Find the knot span containing t.
	k := degree
	for k < m-1 && t >= knots[k+1] {
		k++
	}

	d := make([]domain.Coord, degree+1)
	for j := 0; j <= degree; j++ {
		d[j] = ctrl[k-degree+j]
	}
	for r := 1; r <= degree; r++ {
		for j := degree; j >= r; j-- {
			i := k - degree + j
			denom := knots[i+degree+1-r] - knots[i]
			var alpha float64
			if denom != 0 {
				alpha = (t - knots[i]) / denom
			}
			d[j] = domain.Coord{
				(1-alpha)*d[j-1].X() + alpha*d[j].X(),
				(1-alpha)*d[j-1].Y() + alpha*d[j].Y(),
			}
		}
	}
	return d[degree]
}

// douglasPeucker simplifies a path to within the given perpendicular
// distance tolerance.
func douglasPeucker(path []domain.Coord, tolerance float64) []domain.Coord {
	if len(path) < 3 {
		return path
	}
	maxDist := 0.0
	maxIdx := 0
	for i := 1; i < len(path)-1; i++ {
		if d := perpendicularDistance(path[i], path[0], path[len(path)-1]); d > maxDist {
			maxDist = d
			maxIdx = i
		}
	}
	if maxDist <= tolerance {
		return []domain.Coord{path[0], path[len(path)-1]}
	}
	left := douglasPeucker(path[:maxIdx+1], tolerance)
	right := douglasPeucker(path[maxIdx:], tolerance)
	out := make([]domain.Coord, 0, len(left)+len(right)-1)
	out = append(out, left[:len(left)-1]...)
	return append(out, right...)
}

func perpendicularDistance(p, a, b domain.Coord) float64 {
	dx, dy := b.X()-a.X(), b.Y()-a.Y()
	segLen := math.Hypot(dx, dy)
	if segLen == 0 {
		return dist(p, a)
	}
	return math.Abs(dx*(a.Y()-p.Y())-dy*(a.X()-p.X())) / segLen
}
