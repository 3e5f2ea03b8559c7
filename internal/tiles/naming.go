package tiles

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"stitcher/internal/stitcherr"
)

// NamingScheme describes how coordinates are encoded in tile file names.
type NamingScheme struct {
	Delimiter    string
	ColumnPrefix string
	RowPrefix    string
}

// DefaultScheme matches names like shotA_x0_y1.png.
func DefaultScheme() NamingScheme {
	return NamingScheme{Delimiter: "_", ColumnPrefix: "x", RowPrefix: "y"}
}

// ParsedName is the result of parsing one tile file name.
type ParsedName struct {
	Identifier string
	Column     int
	Row        int
	Extension  string
}

// Parse splits name into identifier, column and row. Any deviation from the
// scheme returns an error wrapping stitcherr.ErrMalformedInput.
func (s NamingScheme) Parse(name string) (ParsedName, error) {
	if strings.TrimSpace(name) == "" {
		return ParsedName{}, malformed(name, "empty file name")
	}
	fields := strings.Split(name, s.Delimiter)
	if len(fields) != 3 {
		return ParsedName{}, malformed(name, fmt.Sprintf("expected 3 %q-separated fields, found %d", s.Delimiter, len(fields)))
	}
	identifier, columnToken, rowToken := fields[0], fields[1], fields[2]
	if identifier == "" {
		return ParsedName{}, malformed(name, "empty identifier")
	}

	column, err := s.coordinate(columnToken, s.ColumnPrefix)
	if err != nil {
		return ParsedName{}, malformed(name, "column: "+err.Error())
	}

	dot := strings.LastIndexByte(rowToken, '.')
	if dot < 0 || dot == len(rowToken)-1 {
		return ParsedName{}, malformed(name, "missing file extension")
	}
	row, err := s.coordinate(rowToken[:dot], s.RowPrefix)
	if err != nil {
		return ParsedName{}, malformed(name, "row: "+err.Error())
	}

	return ParsedName{
		Identifier: identifier,
		Column:     column,
		Row:        row,
		Extension:  strings.ToLower(rowToken[dot+1:]),
	}, nil
}

func (s NamingScheme) coordinate(token, prefix string) (int, error) {
	digits, ok := strings.CutPrefix(token, prefix)
	if !ok {
		return 0, fmt.Errorf("token %q lacks prefix %q", token, prefix)
	}
	if digits == "" {
		return 0, fmt.Errorf("token %q has no digits", token)
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return 0, fmt.Errorf("token %q is not a decimal integer", token)
		}
	}
	value, err := strconv.ParseInt(digits, 10, 32)
	if err != nil || value > math.MaxInt32 {
		return 0, fmt.Errorf("token %q is out of range", token)
	}
	return int(value), nil
}

func malformed(name, reason string) error {
	return stitcherr.Wrap(stitcherr.ErrMalformedInput, "scan", "parse name", fmt.Sprintf("%q: %s", name, reason), nil)
}
