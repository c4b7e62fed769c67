package sensors

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	serial "github.com/jacobsa/go-serial/serial"

	"github.com/relabs-tech/motion_monitor/internal/motion"
)

// LineSource reads one sample per text line: "x,y,z", or "t,x,y,z" with a
// leading timestamp that is ignored. Blank lines and lines starting with '#'
// are skipped.
type LineSource struct {
	r      *bufio.Reader
	closer io.Closer
}

// NewLineSource reads samples from r.
func NewLineSource(r io.Reader) *LineSource {
	ls := &LineSource{r: bufio.NewReader(r)}
	if c, ok := r.(io.Closer); ok {
		ls.closer = c
	}
	return ls
}

// NewSerialSource opens a serial port streaming accelerometer lines, e.g. a
// microcontroller printing "ax,ay,az" at a fixed rate.
func NewSerialSource(portName string, baudRate uint) (*LineSource, error) {
	port, err := serial.Open(serial.OpenOptions{
		PortName:              portName,
		BaudRate:              baudRate,
		DataBits:              8,
		StopBits:              1,
		MinimumReadSize:       1,
		ParityMode:            serial.PARITY_NONE,
		InterCharacterTimeout: 0,
	})
	if err != nil {
		return nil, fmt.Errorf("serial %s: %w", portName, err)
	}
	return NewLineSource(port), nil
}

// NextSample returns the next parsable line as a sample. Lines that fail to
// parse are returned as errors; the caller decides whether to skip them.
func (l *LineSource) NextSample() (motion.Sample, error) {
	for {
		line, err := l.r.ReadString('\n')
		line = strings.TrimSpace(line)
		if line != "" && !strings.HasPrefix(line, "#") {
			return ParseLine(line)
		}
		if err != nil {
			return motion.Sample{}, err
		}
	}
}

// Close closes the underlying port, if any.
func (l *LineSource) Close() error {
	if l.closer == nil {
		return nil
	}
	return l.closer.Close()
}

// ParseLine parses "x,y,z" or "t,x,y,z". Fields may be separated by commas,
// semicolons or whitespace.
func ParseLine(line string) (motion.Sample, error) {
	fields := strings.FieldsFunc(line, func(r rune) bool {
		return r == ',' || r == ';' || r == ' ' || r == '\t'
	})
	switch len(fields) {
	case 3:
	case 4:
		fields = fields[1:]
	default:
		return motion.Sample{}, fmt.Errorf("sample line %q: want 3 or 4 fields, got %d", line, len(fields))
	}
	var v [3]float64
	for i, f := range fields {
		x, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return motion.Sample{}, fmt.Errorf("sample line %q: %w", line, err)
		}
		v[i] = x
	}
	return motion.Sample{X: v[0], Y: v[1], Z: v[2]}, nil
}
