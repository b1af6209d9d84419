package mvtwire

import (
	"bytes"
	"testing"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/tilecore/vtrender/internal/clip"
)

func TestEncodeLineStringMatchesCommandEncoding(t *testing.T) {
	line := clip.TileLine{{X: 0, Y: 0}, {X: 5, Y: 5}}
	got := EncodeLineString(line)
	want := []byte{9, 0, 0, 10, 10, 10}
	if !bytes.Equal(got, want) {
		t.Errorf("EncodeLineString() = %v, want %v", got, want)
	}
}

func TestEncodeLineStringRejectsShortLine(t *testing.T) {
	if got := EncodeLineString(clip.TileLine{{X: 0, Y: 0}}); got != nil {
		t.Errorf("expected nil for a 1-point line, got %v", got)
	}
}

func TestEncodePointAbsoluteCoordinates(t *testing.T) {
	got := EncodePoint(clip.TilePoint{X: 3, Y: -2})
	want := []byte{9, 6, 3} // moveto(1,1)=9; zigzag(3)=6; zigzag(-2)=3
	if !bytes.Equal(got, want) {
		t.Errorf("EncodePoint() = %v, want %v", got, want)
	}
}

func TestLayerAndTileRoundTrip(t *testing.T) {
	layer := NewLayerBuilder("speeds", 2, 4096)
	feature := BuildFeature(1, GeomTypeLine, []uint32{0, 50}, EncodeLineString(clip.TileLine{{X: 0, Y: 0}, {X: 1, Y: 1}}))
	layer.AddFeature(feature)
	layer.AddKey("speed")
	layer.AddValue(UintValue(50))

	var tile TileBuilder
	tile.AddLayer(layer.Bytes())

	buf := tile.Bytes()

	// Decode the outer tile: a single layer field (tag 3, bytes).
	num, typ, n := protowire.ConsumeTag(buf)
	if num != tileLayerField || typ != protowire.BytesType {
		t.Fatalf("unexpected outer tag: num=%d type=%v", num, typ)
	}
	buf = buf[n:]
	layerBytes, n := protowire.ConsumeBytes(buf)
	if n < 0 {
		t.Fatalf("failed to consume layer bytes")
	}
	buf = buf[n:]
	if len(buf) != 0 {
		t.Fatalf("trailing bytes after single layer: %d", len(buf))
	}

	// Walk the layer fields and confirm every field parses as a valid tag.
	rest := layerBytes
	var sawName, sawFeature, sawKey, sawValue bool
	for len(rest) > 0 {
		num, typ, n := protowire.ConsumeTag(rest)
		if n < 0 {
			t.Fatalf("invalid tag in layer")
		}
		rest = rest[n:]
		switch typ {
		case protowire.VarintType:
			_, n := protowire.ConsumeVarint(rest)
			if n < 0 {
				t.Fatalf("invalid varint field %d", num)
			}
			rest = rest[n:]
		case protowire.BytesType:
			payload, n := protowire.ConsumeBytes(rest)
			if n < 0 {
				t.Fatalf("invalid bytes field %d", num)
			}
			rest = rest[n:]
			switch num {
			case layerNameField:
				sawName = true
				if string(payload) != "speeds" {
					t.Errorf("layer name = %q, want speeds", payload)
				}
			case layerFeatureField:
				sawFeature = true
			case layerKeyField:
				sawKey = true
			case layerValueField:
				sawValue = true
			}
		default:
			t.Fatalf("unexpected wire type %v for field %d", typ, num)
		}
	}

	if !sawName || !sawFeature || !sawKey || !sawValue {
		t.Errorf("missing expected fields: name=%v feature=%v key=%v value=%v", sawName, sawFeature, sawKey, sawValue)
	}
}
