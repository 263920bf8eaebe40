package location

import (
	"fmt"
	"os"

	"github.com/tkrajina/gpxgo/gpx"
)

// LoadGPX reads every track point of a GPX file, in document order.
func LoadGPX(path string) ([]Coordinate, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read gpx %s: %w", path, err)
	}
	return ParseGPX(data)
}

func ParseGPX(data []byte) ([]Coordinate, error) {
	doc, err := gpx.ParseBytes(data)
	if err != nil {
		return nil, fmt.Errorf("parse gpx: %w", err)
	}

	var coords []Coordinate
	for _, track := range doc.Tracks {
		for _, segment := range track.Segments {
			for i := range segment.Points {
				p := &segment.Points[i]
				c := Coordinate{
					Latitude:  p.Latitude,
					Longitude: p.Longitude,
				}
				if !p.Timestamp.IsZero() {
					c.Timestamp = p.Timestamp.UnixMilli()
				}
				if p.Elevation.NotNull() {
					elev := p.Elevation.Value()
					c.Altitude = &elev
				}
				coords = append(coords, c)
			}
		}
	}
	return coords, nil
}
