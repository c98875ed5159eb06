package mesh

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Point is a single mesh vertex.
type Point struct {
	X, Y, Z float64
}

var (
	// ErrFormat reports bytes that cannot be interpreted in the claimed format.
	ErrFormat = errors.New("unrecognized mesh format")
	// ErrEmptyMesh reports a decode that produced no vertices.
	ErrEmptyMesh = errors.New("mesh contains no vertices")
)

const (
	binarySTLHeaderSize = 84
	binarySTLRecordSize = 50
)

// Decode turns raw mesh bytes into an ordered vertex sequence. The claimed
// extension ("stl" or "obj", case-insensitive) selects the parser; STL input
// is probed as binary first and falls back to ASCII.
func Decode(data []byte, claimedExt string) ([]Point, error) {
	var (
		points []Point
		err    error
	)

	switch strings.ToLower(strings.TrimPrefix(claimedExt, ".")) {
	case "stl":
		points, err = decodeSTL(data)
	case "obj":
		points = decodeOBJ(data)
	default:
		return nil, fmt.Errorf("%w: unsupported extension %q", ErrFormat, claimedExt)
	}

	if err != nil {
		return nil, err
	}

	if len(points) == 0 {
		return nil, ErrEmptyMesh
	}

	return points, nil
}

func decodeSTL(data []byte) ([]Point, error) {
	if isBinarySTL(data) {
		return decodeBinarySTL(data), nil
	}

	text := string(data)
	lower := strings.ToLower(text)

	if !strings.Contains(lower, "solid") || !strings.Contains(lower, "facet") {
		return nil, fmt.Errorf("%w: not a binary STL and ASCII markers are missing", ErrFormat)
	}

	return decodeASCIISTL(text), nil
}

// isBinarySTL checks the declared triangle count at offset 80 against the
// actual byte length. ASCII files that happen to start with "solid" fail
// this check and take the text path.
func isBinarySTL(data []byte) bool {
	if len(data) <= binarySTLHeaderSize {
		return false
	}

	count := binary.LittleEndian.Uint32(data[80:84])

	return int64(len(data)) == binarySTLHeaderSize+int64(count)*binarySTLRecordSize
}

func decodeBinarySTL(data []byte) []Point {
	count := binary.LittleEndian.Uint32(data[80:84])
	points := make([]Point, 0, int(count)*3)

	for i := 0; i < int(count); i++ {
		record := data[binarySTLHeaderSize+i*binarySTLRecordSize:]

		// 12-byte normal skipped, then three vertices of three
		// little-endian float32 each; 2-byte attribute count skipped.
		for v := 0; v < 3; v++ {
			offset := 12 + v*12
			points = append(points, Point{
				X: float64(math.Float32frombits(binary.LittleEndian.Uint32(record[offset:]))),
				Y: float64(math.Float32frombits(binary.LittleEndian.Uint32(record[offset+4:]))),
				Z: float64(math.Float32frombits(binary.LittleEndian.Uint32(record[offset+8:]))),
			})
		}
	}

	return points
}

func decodeASCIISTL(text string) []Point {
	var points []Point

	scanner := bufio.NewScanner(strings.NewReader(text))
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) != 4 || fields[0] != "vertex" {
			continue
		}

		point, ok := parsePoint(fields[1], fields[2], fields[3])
		if !ok {
			continue
		}

		points = append(points, point)
	}

	return points
}

func decodeOBJ(data []byte) []Point {
	var points []Point

	scanner := bufio.NewScanner(strings.NewReader(string(data)))
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 4 || fields[0] != "v" {
			continue
		}

		point, ok := parsePoint(fields[1], fields[2], fields[3])
		if !ok {
			continue
		}

		points = append(points, point)
	}

	return points
}

func parsePoint(xs, ys, zs string) (Point, bool) {
	x, errX := strconv.ParseFloat(xs, 64)
	y, errY := strconv.ParseFloat(ys, 64)
	z, errZ := strconv.ParseFloat(zs, 64)

	if errX != nil || errY != nil || errZ != nil {
		return Point{}, false
	}

	return Point{X: x, Y: y, Z: z}, true
}
