package keypoint

import (
	"bytes"
	"encoding/xml"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/YuminosukeSato/posegrid/pkg/errors"
)

// The export format:
//
//	<sequence>
//	  <frame index="0">
//	    <keypoint name="nose" x="312.5" y="140.0" score="0.91"/>
//	  </frame>
//	</sequence>
//
// The root element name is not checked. Every <frame> child of the root is one
// time step, in document order.
type xmlDocument struct {
	XMLName xml.Name
	Frames  []xmlFrame `xml:"frame"`
}

type xmlFrame struct {
	Index     string        `xml:"index,attr"`
	Keypoints []xmlKeypoint `xml:"keypoint"`
}

type xmlKeypoint struct {
	Name  string `xml:"name,attr"`
	X     string `xml:"x,attr"`
	Y     string `xml:"y,attr"`
	Score string `xml:"score,attr"`
}

// Parser extracts the used keypoints from XML exports.
type Parser struct {
	set             Set
	minScore        float64
	originIsMissing bool
}

// ParserOption configures a Parser.
type ParserOption func(*Parser)

// WithMinScore treats detections whose score attribute is below minScore as
// Missing. Keypoints without a score attribute are never filtered.
func WithMinScore(minScore float64) ParserOption {
	return func(p *Parser) {
		p.minScore = minScore
	}
}

// WithOriginAsMissing controls whether (0, 0) is read as "not detected",
// the convention of common pose estimators. Enabled by default.
func WithOriginAsMissing(enabled bool) ParserOption {
	return func(p *Parser) {
		p.originIsMissing = enabled
	}
}

// NewParser creates a parser for the given used-keypoint set.
func NewParser(set Set, opts ...ParserOption) *Parser {
	p := &Parser{set: set, originIsMissing: true}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Parse reads one XML file.
func (p *Parser) Parse(path string) (Sequence, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Sequence{}, errors.NewParseError(path, "unreadable file", err)
	}
	return p.ParseReader(bytes.NewReader(data), path)
}

// ParseReader reads one XML document from r; source names it in errors.
func (p *Parser) ParseReader(r io.Reader, source string) (Sequence, error) {
	dec := xml.NewDecoder(r)

	var doc xmlDocument
	if err := dec.Decode(&doc); err != nil {
		if err == io.EOF {
			return Sequence{}, errors.NewParseError(source, "empty document", nil)
		}
		return Sequence{}, errors.NewParseError(source, "malformed XML", err)
	}
	if err := checkTrailing(dec); err != nil {
		return Sequence{}, errors.NewParseError(source, "malformed XML", err)
	}
	if len(doc.Frames) == 0 {
		return Sequence{}, errors.NewParseError(source, "no <frame> elements under <"+doc.XMLName.Local+">", nil)
	}

	seq := Sequence{Source: source, Set: p.set, Frames: make([]Frame, 0, len(doc.Frames))}
	for i, xf := range doc.Frames {
		frame, err := p.frame(xf)
		if err != nil {
			return Sequence{}, errors.NewParseError(source, "frame "+strconv.Itoa(i), err)
		}
		seq.Frames = append(seq.Frames, frame)
	}
	return seq, nil
}

func (p *Parser) frame(xf xmlFrame) (Frame, error) {
	points := make([]Point, p.set.Len())
	seen := make([]bool, p.set.Len())
	for i := range points {
		points[i] = Missing
	}

	for _, kp := range xf.Keypoints {
		if kp.Name == "" {
			return Frame{}, errors.New("keypoint without name attribute")
		}
		idx, used := p.set.Index(kp.Name)
		if !used {
			continue
		}
		if seen[idx] {
			return Frame{}, errors.Newf("duplicate keypoint %q", kp.Name)
		}
		seen[idx] = true

		pt, err := p.point(kp)
		if err != nil {
			return Frame{}, err
		}
		points[idx] = pt
	}
	return Frame{set: p.set, points: points}, nil
}

func (p *Parser) point(kp xmlKeypoint) (Point, error) {
	x, okX, err := parseCoordinate(kp.X)
	if err != nil {
		return Point{}, errors.Wrapf(err, "keypoint %q: x", kp.Name)
	}
	y, okY, err := parseCoordinate(kp.Y)
	if err != nil {
		return Point{}, errors.Wrapf(err, "keypoint %q: y", kp.Name)
	}
	if !okX || !okY {
		return Missing, nil
	}
	if p.originIsMissing && x == 0 && y == 0 {
		return Missing, nil
	}
	if s := strings.TrimSpace(kp.Score); s != "" {
		score, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return Point{}, errors.Wrapf(err, "keypoint %q: score", kp.Name)
		}
		if score < p.minScore {
			return Missing, nil
		}
	}
	return Point{X: x, Y: y}, nil
}

// parseCoordinate returns ok=false for an empty, NaN or infinite value and an
// error for text that is not a number.
func parseCoordinate(s string) (float64, bool, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false, err
	}
	if !errors.IsFinite(v) {
		return 0, false, nil
	}
	return v, true, nil
}

// checkTrailing rejects anything but whitespace, comments and processing
// instructions after the root element.
func checkTrailing(dec *xml.Decoder) error {
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.CharData:
			if len(bytes.TrimSpace(t)) > 0 {
				return errors.New("text after root element")
			}
		case xml.StartElement:
			return errors.Newf("second root element <%s>", t.Name.Local)
		}
	}
}
