package detect

import (
	"strings"
	"testing"
)

const validArtifact = `# generated by scad-origin
XTRANS=12.5
YTRANS=-3.25
ZTRANS=0
XMID=12.5
YMID=-3.25
ZMID=0
`

func TestParseOffsetsValid(t *testing.T) {
	vector, err := ParseOffsets(strings.NewReader(validArtifact))
	if err != nil {
		t.Fatalf("ParseOffsets: %v", err)
	}
	if vector.XTrans != 12.5 || vector.YTrans != -3.25 || vector.ZTrans != 0 {
		t.Fatalf("translation components: %+v", vector)
	}
	if vector.XMid != 12.5 || vector.YMid != -3.25 || vector.ZMid != 0 {
		t.Fatalf("midpoint components: %+v", vector)
	}
}

func TestTranslationZeroForCenteredModel(t *testing.T) {
	// A model already centered at the origin reports TRANS == MID per axis.
	vector, err := ParseOffsets(strings.NewReader(validArtifact))
	if err != nil {
		t.Fatalf("ParseOffsets: %v", err)
	}
	x, y, z := vector.Translation()
	if x != 0 || y != 0 || z != 0 {
		t.Fatalf("translation = (%v, %v, %v), want zero", x, y, z)
	}
}

func TestTranslationSubtractsMidpoint(t *testing.T) {
	vector := OffsetVector{XTrans: 10, YTrans: 4, ZTrans: -2, XMid: 3, YMid: 4, ZMid: 1}
	x, y, z := vector.Translation()
	if x != 7 || y != 0 || z != -3 {
		t.Fatalf("translation = (%v, %v, %v)", x, y, z)
	}
}

func TestParseOffsetsRejectsUnknownField(t *testing.T) {
	artifact := validArtifact + "WMID=1\n"
	if _, err := ParseOffsets(strings.NewReader(artifact)); err == nil {
		t.Fatal("expected unknown field error")
	}
}

func TestParseOffsetsRejectsMalformedNumber(t *testing.T) {
	artifact := strings.Replace(validArtifact, "XTRANS=12.5", "XTRANS=$(rm -rf /)", 1)
	_, err := ParseOffsets(strings.NewReader(artifact))
	if err == nil {
		t.Fatal("expected malformed number error")
	}
	if !strings.Contains(err.Error(), "malformed number") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestParseOffsetsRejectsMissingFields(t *testing.T) {
	artifact := "XTRANS=1\nYTRANS=2\n"
	_, err := ParseOffsets(strings.NewReader(artifact))
	if err == nil {
		t.Fatal("expected missing field error")
	}
	if !strings.Contains(err.Error(), "ZMID") {
		t.Fatalf("error should name missing fields: %v", err)
	}
}

func TestParseOffsetsRejectsDuplicates(t *testing.T) {
	artifact := validArtifact + "XTRANS=9\n"
	if _, err := ParseOffsets(strings.NewReader(artifact)); err == nil {
		t.Fatal("expected duplicate field error")
	}
}
