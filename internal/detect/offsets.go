package detect

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// OffsetVector holds the translation and bounding-box midpoint components the
// origin detector reports for a model.
type OffsetVector struct {
	XTrans float64
	YTrans float64
	ZTrans float64
	XMid   float64
	YMid   float64
	ZMid   float64
}

// Translation returns the per-axis centering translation: TRANS minus MID.
// A model already centered at the origin yields (0, 0, 0).
func (v OffsetVector) Translation() (x, y, z float64) {
	return v.XTrans - v.XMid, v.YTrans - v.YMid, v.ZTrans - v.ZMid
}

// ParseOffsets reads the detector's script-like artifact as structured data.
// Exactly the six known fields must appear, each a well-formed number, and
// nothing else. The artifact is never executed as code.
func ParseOffsets(r io.Reader) (OffsetVector, error) {
	var vector OffsetVector
	fields := map[string]*float64{
		"XTRANS": &vector.XTrans,
		"YTRANS": &vector.YTrans,
		"ZTRANS": &vector.ZTrans,
		"XMID":   &vector.XMid,
		"YMID":   &vector.YMid,
		"ZMID":   &vector.ZMid,
	}
	seen := make(map[string]struct{}, len(fields))

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return OffsetVector{}, fmt.Errorf("line %d: not a key=value pair: %q", lineNo, line)
		}
		key = strings.TrimSpace(key)
		target, known := fields[key]
		if !known {
			return OffsetVector{}, fmt.Errorf("line %d: unknown field %q", lineNo, key)
		}
		if _, dup := seen[key]; dup {
			return OffsetVector{}, fmt.Errorf("line %d: duplicate field %q", lineNo, key)
		}
		parsed, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return OffsetVector{}, fmt.Errorf("line %d: field %s: malformed number %q", lineNo, key, strings.TrimSpace(value))
		}
		*target = parsed
		seen[key] = struct{}{}
	}
	if err := scanner.Err(); err != nil {
		return OffsetVector{}, fmt.Errorf("read offsets: %w", err)
	}

	if len(seen) != len(fields) {
		missing := make([]string, 0, len(fields))
		for _, key := range []string{"XTRANS", "YTRANS", "ZTRANS", "XMID", "YMID", "ZMID"} {
			if _, ok := seen[key]; !ok {
				missing = append(missing, key)
			}
		}
		return OffsetVector{}, fmt.Errorf("missing fields: %s", strings.Join(missing, ", "))
	}

	return vector, nil
}
