package queryir

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"slices"
	"strconv"

	"github.com/roach88/cropq/internal/geom"
)

// FingerprintDomain prefixes the hashed form of a document.
// The version suffix changes whenever the canonical encoding does.
const FingerprintDomain = "cropq/query/v1"

// Fingerprint returns a stable identity for a parsed document.
//
// Documents that mean the same thing hash the same regardless of source
// format, key order, number spelling (2, 2.0, 2e0) or the order and
// repetition of one_of_groups entries.
//
// Format: hex(SHA256(FingerprintDomain + 0x00 + canonical(doc)))
func Fingerprint(doc Document) string {
	h := sha256.New()
	h.Write([]byte(FingerprintDomain))
	h.Write([]byte{0x00}) // Null separator
	h.Write(Canonical(doc))
	return hex.EncodeToString(h.Sum(nil))
}

// Canonical encodes doc as compact JSON with sorted keys, shortest float
// formatting and absent optional fields omitted.
func Canonical(doc Document) []byte {
	var b bytes.Buffer
	b.WriteString(`{"query":`)
	writeNode(&b, doc.Query)
	b.WriteString(`,"valid_region":`)
	writeRegion(&b, doc.ValidRegion)
	b.WriteByte('}')
	return b.Bytes()
}

func writeNode(b *bytes.Buffer, n Node) {
	switch node := n.(type) {
	case *Crop:
		b.WriteString(`{"operator_crop":`)
		writeCrop(b, node.Query)
		b.WriteByte('}')
	case *And:
		b.WriteString(`{"operator_and":`)
		writeNodes(b, node.Children)
		b.WriteByte('}')
	case *Or:
		b.WriteString(`{"operator_or":`)
		writeNodes(b, node.Children)
		b.WriteByte('}')
	default:
		b.WriteString("null")
	}
}

func writeNodes(b *bytes.Buffer, nodes []Node) {
	b.WriteByte('[')
	for i, n := range nodes {
		if i > 0 {
			b.WriteByte(',')
		}
		writeNode(b, n)
	}
	b.WriteByte(']')
}

// writeCrop emits keys in sorted order: category, one_of_groups, proper, region.
func writeCrop(b *bytes.Buffer, q CropQuery) {
	b.WriteByte('{')
	if q.Category != nil {
		b.WriteString(`"category":`)
		b.WriteString(strconv.Itoa(*q.Category))
		b.WriteByte(',')
	}
	if q.HasGroupFilter() {
		groups := slices.Clone(q.OneOfGroups)
		slices.Sort(groups)
		groups = slices.Compact(groups)

		b.WriteString(`"one_of_groups":[`)
		for i, g := range groups {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(strconv.FormatInt(g, 10))
		}
		b.WriteString("],")
	}
	if q.Proper {
		b.WriteString(`"proper":true,`)
	}
	b.WriteString(`"region":`)
	writeRegion(b, q.Region)
	b.WriteByte('}')
}

func writeRegion(b *bytes.Buffer, r geom.Region) {
	b.WriteString(`{"p_max":`)
	writeCorner(b, r.MaxX, r.MaxY)
	b.WriteString(`,"p_min":`)
	writeCorner(b, r.MinX, r.MinY)
	b.WriteByte('}')
}

func writeCorner(b *bytes.Buffer, x, y float64) {
	b.WriteString(`{"x":`)
	b.WriteString(formatFloat(x))
	b.WriteString(`,"y":`)
	b.WriteString(formatFloat(y))
	b.WriteByte('}')
}

// formatFloat uses the shortest round-trip form. Negative zero prints as 0.
func formatFloat(f float64) string {
	if f == 0 {
		return "0"
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}
