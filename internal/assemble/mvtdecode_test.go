package assemble

import (
	"math"
	"testing"

	"google.golang.org/protobuf/encoding/protowire"
)

// Minimal MVT reader used only by this package's tests to check that
// Render's output is well-formed and carries the expected attribute
// values. It mirrors the field-number table mvtwire.LayerBuilder writes
// against, so it is a direct cross-check of the encoder rather than an
// independent implementation.

type decodedValue struct {
	kind   byte // 's' string, 'd' double, 'u' uint, 'b' bool
	str    string
	dbl    float64
	u      uint64
	boolv  bool
}

type decodedFeature struct {
	id       uint64
	typ      uint64
	tags     []uint32
	geometry []uint32
}

type decodedLayer struct {
	name     string
	version  uint64
	extent   uint64
	features []decodedFeature
	keys     []string
	values   []decodedValue
}

func decodeTile(t *testing.T, buf []byte) []decodedLayer {
	t.Helper()
	var layers []decodedLayer
	for len(buf) > 0 {
		num, typ, n := protowire.ConsumeTag(buf)
		if n < 0 {
			t.Fatalf("bad tile tag")
		}
		buf = buf[n:]
		if num != 3 || typ != protowire.BytesType {
			t.Fatalf("unexpected tile field %d/%v", num, typ)
		}
		payload, n := protowire.ConsumeBytes(buf)
		if n < 0 {
			t.Fatalf("bad layer bytes")
		}
		buf = buf[n:]
		layers = append(layers, decodeLayer(t, payload))
	}
	return layers
}

func decodeLayer(t *testing.T, buf []byte) decodedLayer {
	t.Helper()
	var l decodedLayer
	for len(buf) > 0 {
		num, typ, n := protowire.ConsumeTag(buf)
		if n < 0 {
			t.Fatalf("bad layer tag")
		}
		buf = buf[n:]
		switch typ {
		case protowire.VarintType:
			v, n := protowire.ConsumeVarint(buf)
			if n < 0 {
				t.Fatalf("bad varint in layer field %d", num)
			}
			buf = buf[n:]
			switch num {
			case 15:
				l.version = v
			case 5:
				l.extent = v
			}
		case protowire.BytesType:
			payload, n := protowire.ConsumeBytes(buf)
			if n < 0 {
				t.Fatalf("bad bytes in layer field %d", num)
			}
			buf = buf[n:]
			switch num {
			case 1:
				l.name = string(payload)
			case 2:
				l.features = append(l.features, decodeFeature(t, payload))
			case 3:
				l.keys = append(l.keys, string(payload))
			case 4:
				l.values = append(l.values, decodeValue(t, payload))
			}
		default:
			t.Fatalf("unexpected wire type in layer: %v", typ)
		}
	}
	return l
}

func decodeFeature(t *testing.T, buf []byte) decodedFeature {
	t.Helper()
	var f decodedFeature
	for len(buf) > 0 {
		num, typ, n := protowire.ConsumeTag(buf)
		if n < 0 {
			t.Fatalf("bad feature tag")
		}
		buf = buf[n:]
		switch typ {
		case protowire.VarintType:
			v, n := protowire.ConsumeVarint(buf)
			if n < 0 {
				t.Fatalf("bad feature varint")
			}
			buf = buf[n:]
			switch num {
			case 1:
				f.id = v
			case 3:
				f.typ = v
			}
		case protowire.BytesType:
			payload, n := protowire.ConsumeBytes(buf)
			if n < 0 {
				t.Fatalf("bad feature bytes")
			}
			buf = buf[n:]
			switch num {
			case 2:
				f.tags = decodePackedVarints(t, payload)
			case 4:
				f.geometry = decodePackedVarints(t, payload)
			}
		default:
			t.Fatalf("unexpected wire type in feature: %v", typ)
		}
	}
	return f
}

func decodePackedVarints(t *testing.T, buf []byte) []uint32 {
	t.Helper()
	var out []uint32
	for len(buf) > 0 {
		v, n := protowire.ConsumeVarint(buf)
		if n < 0 {
			t.Fatalf("bad packed varint")
		}
		out = append(out, uint32(v))
		buf = buf[n:]
	}
	return out
}

func decodeValue(t *testing.T, buf []byte) decodedValue {
	t.Helper()
	var v decodedValue
	for len(buf) > 0 {
		num, typ, n := protowire.ConsumeTag(buf)
		if n < 0 {
			t.Fatalf("bad value tag")
		}
		buf = buf[n:]
		switch typ {
		case protowire.VarintType:
			vv, n := protowire.ConsumeVarint(buf)
			if n < 0 {
				t.Fatalf("bad value varint")
			}
			buf = buf[n:]
			switch num {
			case 5:
				v.kind = 'u'
				v.u = vv
			case 7:
				v.kind = 'b'
				v.boolv = vv != 0
			}
		case protowire.Fixed64Type:
			vv, n := protowire.ConsumeFixed64(buf)
			if n < 0 {
				t.Fatalf("bad value fixed64")
			}
			buf = buf[n:]
			if num == 3 {
				v.kind = 'd'
				v.dbl = math.Float64frombits(vv)
			}
		case protowire.BytesType:
			payload, n := protowire.ConsumeBytes(buf)
			if n < 0 {
				t.Fatalf("bad value bytes")
			}
			buf = buf[n:]
			if num == 1 {
				v.kind = 's'
				v.str = string(payload)
			}
		default:
			t.Fatalf("unexpected wire type in value: %v", typ)
		}
	}
	return v
}

func findLayer(layers []decodedLayer, name string) *decodedLayer {
	for i := range layers {
		if layers[i].name == name {
			return &layers[i]
		}
	}
	return nil
}
