package domain

// SpatialRef identifies a coordinate reference system by well-known ID.
type SpatialRef struct {
	WKID int `json:"wkid"`
}

// WGS84 is the geographic coordinate system used throughout: decimal degrees,
// x = longitude, y = latitude.
var WGS84 = SpatialRef{WKID: 4326}

// Coord is a single x,y coordinate pair.
type Coord [2]float64

// X returns the first ordinate (longitude).
func (c Coord) X() float64 { return c[0] }

// Y returns the second ordinate (latitude).
func (c Coord) Y() float64 { return c[1] }

// Point is a 2D point geometry.
type Point struct {
	X  float64    `json:"x"`
	Y  float64    `json:"y"`
	SR SpatialRef `json:"spatialReference"`
}

// Polyline is a line geometry as one or more coordinate paths. Traced
// hydrolines are always merged into a single continuous path.
type Polyline struct {
	Paths [][]Coord  `json:"paths"`
	SR    SpatialRef `json:"spatialReference"`
}

// VertexCount returns the total number of vertices across all paths.
func (p *Polyline) VertexCount() int {
	n := 0
	for _, path := range p.Paths {
		n += len(path)
	}
	return n
}

// IsEmpty reports whether the polyline has no vertices.
func (p *Polyline) IsEmpty() bool {
	return p == nil || p.VertexCount() == 0
}

// Polygon is an area geometry as one or more rings.
type Polygon struct {
	Rings [][]Coord  `json:"rings"`
	SR    SpatialRef `json:"spatialReference"`
}

// Envelope is a bounding box as (xmin, ymin, xmax, ymax).
type Envelope struct {
	XMin float64 `json:"xmin"`
	YMin float64 `json:"ymin"`
	XMax float64 `json:"xmax"`
	YMax float64 `json:"ymax"`
}

// Polygon converts the envelope to a closed five-vertex ring.
func (e Envelope) Polygon(sr SpatialRef) *Polygon {
	return &Polygon{
		Rings: [][]Coord{{
			{e.XMin, e.YMin},
			{e.XMin, e.YMax},
			{e.XMax, e.YMax},
			{e.XMax, e.YMin},
			{e.XMin, e.YMin},
		}},
		SR: sr,
	}
}
