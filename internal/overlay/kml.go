// Package overlay renders analysis reports for visual inspection: KML and
// GeoJSON documents for map viewers, a PNG plan plot, and an HTML chart page.
package overlay

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/banshee-data/ribbon/internal/ribbon"
)

const kmlNamespace = "http://www.opengis.net/kml/2.2"

// ErrIndexOutOfRange is returned when a report references a point index the
// point sequence does not have, i.e. the report belongs to another ribbon.
var ErrIndexOutOfRange = errors.New("overlay: report index outside point sequence")

// KML colours are aabbggrr.
const (
	colorRed    = "ff0000ff"
	colorOrange = "ff00a5ff"
	colorYellow = "ff00ffff"
	colorGrey   = "ff888888"

	placemarkCircleIcon = "http://maps.google.com/mapfiles/kml/shapes/placemark_circle.png"
)

// KML is a KML 2.2 document.
type KML struct {
	XMLName   xml.Name `xml:"kml"`
	Namespace string   `xml:"xmlns,attr"`
	Document  Document `xml:"Document"`
}

// Document holds the shared styles and placemarks.
type Document struct {
	Name        string      `xml:"name"`
	Description string      `xml:"description,omitempty"`
	Styles      []Style     `xml:"Style"`
	Placemarks  []Placemark `xml:"Placemark"`
}

// Style is a named line or icon style referenced by placemarks.
type Style struct {
	ID        string     `xml:"id,attr"`
	LineStyle *LineStyle `xml:"LineStyle,omitempty"`
	IconStyle *IconStyle `xml:"IconStyle,omitempty"`
}

type LineStyle struct {
	Color string  `xml:"color,omitempty"`
	Width float64 `xml:"width"`
}

type IconStyle struct {
	Color string  `xml:"color,omitempty"`
	Scale float64 `xml:"scale"`
	Icon  Icon    `xml:"Icon"`
}

type Icon struct {
	Href string `xml:"href"`
}

// Placemark carries either a LineString or a Point.
type Placemark struct {
	Name        string      `xml:"name"`
	Description *CDATA      `xml:"description,omitempty"`
	StyleURL    string      `xml:"styleUrl,omitempty"`
	LineString  *LineString `xml:"LineString,omitempty"`
	Point       *Point      `xml:"Point,omitempty"`
}

// CDATA keeps HTML descriptions unescaped for map viewers.
type CDATA struct {
	Text string `xml:",cdata"`
}

type LineString struct {
	Tessellate  int    `xml:"tessellate"`
	Coordinates string `xml:"coordinates"`
}

type Point struct {
	Coordinates string `xml:"coordinates"`
}

func newKML(name string) *KML {
	return &KML{Namespace: kmlNamespace, Document: Document{Name: name}}
}

// Encode writes the XML declaration followed by the indented document.
func (k *KML) Encode(w io.Writer) error {
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(k); err != nil {
		return fmt.Errorf("encode kml: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("encode kml: %w", err)
	}
	_, err := io.WriteString(w, "\n")
	return err
}

func (d *Document) addLineStyle(id, color string, width float64) {
	d.Styles = append(d.Styles, Style{ID: id, LineStyle: &LineStyle{Color: color, Width: width}})
}

func (d *Document) addIconStyle(id, color string, scale float64) {
	d.Styles = append(d.Styles, Style{ID: id, IconStyle: &IconStyle{Color: color, Scale: scale, Icon: Icon{Href: placemarkCircleIcon}}})
}

func (d *Document) addLine(name, styleID, coords string, desc ...string) {
	d.Placemarks = append(d.Placemarks, Placemark{
		Name:        name,
		Description: description(desc),
		StyleURL:    "#" + styleID,
		LineString:  &LineString{Tessellate: 1, Coordinates: coords},
	})
}

func (d *Document) addPoint(name, styleID string, p ribbon.RibbonPoint, desc ...string) {
	pm := Placemark{
		Name:        name,
		Description: description(desc),
		Point:       &Point{Coordinates: coord(p)},
	}
	if styleID != "" {
		pm.StyleURL = "#" + styleID
	}
	d.Placemarks = append(d.Placemarks, pm)
}

func description(lines []string) *CDATA {
	if len(lines) == 0 {
		return nil
	}
	return &CDATA{Text: strings.Join(lines, "<br/>")}
}

func coord(p ribbon.RibbonPoint) string {
	return strconv.FormatFloat(p.Lon, 'f', -1, 64) + "," + strconv.FormatFloat(p.Lat, 'f', -1, 64) + ",0"
}

// coordsRange renders points[start..end] taking every step-th index. The
// last index is always included so decimated lines reach the end.
func coordsRange(points []ribbon.RibbonPoint, start, end, step int) string {
	step = max(1, step)
	var b strings.Builder
	for i := start; i <= end; i += step {
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(coord(points[i]))
		if i < end && i+step > end {
			b.WriteByte(' ')
			b.WriteString(coord(points[end]))
		}
	}
	return b.String()
}

func checkPacket(points []ribbon.RibbonPoint, p ribbon.Packet) error {
	if p.Start < 0 || p.End >= len(points) || p.Start > p.End {
		return fmt.Errorf("%w: packet %d..%d over %d points", ErrIndexOutOfRange, p.Start, p.End, len(points))
	}
	for _, idx := range p.AmbiguousIdx {
		if idx < 0 || idx >= len(points) {
			return fmt.Errorf("%w: ambiguous index %d over %d points", ErrIndexOutOfRange, idx, len(points))
		}
	}
	for _, h := range p.SampleHits {
		if h.I < 0 || h.I >= len(points) || h.J < 0 || h.J >= len(points) {
			return fmt.Errorf("%w: hit %d->%d over %d points", ErrIndexOutOfRange, h.I, h.J, len(points))
		}
	}
	return nil
}

func packetDescription(p ribbon.Packet) []string {
	return []string{
		fmt.Sprintf("idx: %d → %d (span=%d)", p.Start, p.End, p.Span()),
		fmt.Sprintf("ambiguous: %d", p.CountAmbiguous),
		fmt.Sprintf("density≈%.2f", p.Density()),
		fmt.Sprintf("sampleHits: %d", len(p.SampleHits)),
	}
}

func pointDescription(idx int, p ribbon.RibbonPoint) []string {
	return []string{
		fmt.Sprintf("idx=%d", idx),
		"s_km=" + strconv.FormatFloat(p.SKm, 'f', -1, 64),
	}
}
