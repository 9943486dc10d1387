package geo

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// Intersects reports whether a and b share at least one point in the plane.
// Touching boundaries count as intersecting.
func Intersects(a, b orb.Geometry) bool {
	if a == nil || b == nil {
		return false
	}
	if !a.Bound().Intersects(b.Bound()) {
		return false
	}
	pa, pb := explode(a), explode(b)

	for _, p := range pa.points {
		if pb.covers(p) {
			return true
		}
	}
	for _, p := range pb.points {
		if pa.covers(p) {
			return true
		}
	}
	for _, la := range pa.lines {
		for _, lb := range pb.lines {
			if linesCross(la, lb) {
				return true
			}
		}
	}
	// A line or ring lying wholly inside a polygon crosses no edge.
	for _, l := range pa.lines {
		if len(l) > 0 && pb.inPolygon(l[0]) {
			return true
		}
	}
	for _, l := range pb.lines {
		if len(l) > 0 && pa.inPolygon(l[0]) {
			return true
		}
	}
	return false
}

// parts is a geometry broken into points, polylines (polygon rings
// included) and polygons.
type parts struct {
	points   []orb.Point
	lines    [][]orb.Point
	polygons []orb.Polygon
}

func explode(g orb.Geometry) parts {
	var p parts
	p.add(g)
	return p
}

func (p *parts) add(g orb.Geometry) {
	switch g := g.(type) {
	case orb.Point:
		p.points = append(p.points, g)
	case orb.MultiPoint:
		p.points = append(p.points, g...)
	case orb.LineString:
		p.addLine(g)
	case orb.MultiLineString:
		for _, l := range g {
			p.addLine(l)
		}
	case orb.Ring:
		p.addPolygon(orb.Polygon{g})
	case orb.Polygon:
		p.addPolygon(g)
	case orb.MultiPolygon:
		for _, poly := range g {
			p.addPolygon(poly)
		}
	case orb.Bound:
		p.addPolygon(g.ToPolygon())
	case orb.Collection:
		for _, sub := range g {
			p.add(sub)
		}
	}
}

func (p *parts) addLine(l []orb.Point) {
	switch len(l) {
	case 0:
	case 1:
		p.points = append(p.points, l[0])
	default:
		p.lines = append(p.lines, l)
	}
}

func (p *parts) addPolygon(poly orb.Polygon) {
	if len(poly) == 0 {
		return
	}
	p.polygons = append(p.polygons, poly)
	for _, r := range poly {
		p.addLine(r)
	}
}

// covers reports whether pt lies on any part.
func (p parts) covers(pt orb.Point) bool {
	for _, q := range p.points {
		if q.Equal(pt) {
			return true
		}
	}
	for _, l := range p.lines {
		for i := 1; i < len(l); i++ {
			if onSegment(pt, l[i-1], l[i]) {
				return true
			}
		}
	}
	return p.inPolygon(pt)
}

func (p parts) inPolygon(pt orb.Point) bool {
	for _, poly := range p.polygons {
		if planar.PolygonContains(poly, pt) {
			return true
		}
	}
	return false
}

func linesCross(a, b []orb.Point) bool {
	for i := 1; i < len(a); i++ {
		for j := 1; j < len(b); j++ {
			if segmentsIntersect(a[i-1], a[i], b[j-1], b[j]) {
				return true
			}
		}
	}
	return false
}

func orientation(a, b, c orb.Point) float64 {
	return (b[0]-a[0])*(c[1]-a[1]) - (b[1]-a[1])*(c[0]-a[0])
}

// onSegment reports whether p lies on the closed segment ab.
func onSegment(p, a, b orb.Point) bool {
	if orientation(a, b, p) != 0 {
		return false
	}
	return p[0] >= math.Min(a[0], b[0]) && p[0] <= math.Max(a[0], b[0]) &&
		p[1] >= math.Min(a[1], b[1]) && p[1] <= math.Max(a[1], b[1])
}

func segmentsIntersect(p1, p2, q1, q2 orb.Point) bool {
	d1 := orientation(q1, q2, p1)
	d2 := orientation(q1, q2, p2)
	d3 := orientation(p1, p2, q1)
	d4 := orientation(p1, p2, q2)

	if ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) &&
		((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0)) {
		return true
	}
	return onSegment(p1, q1, q2) || onSegment(p2, q1, q2) ||
		onSegment(q1, p1, p2) || onSegment(q2, p1, p2)
}
