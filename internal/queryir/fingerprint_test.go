package queryir

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/cropq/internal/geom"
)

func TestCanonical(t *testing.T) {
	category := 3
	doc := Document{
		ValidRegion: geom.NewRegion(0, 0, 10, 10),
		Query: NewOr(
			NewCrop(CropQuery{Region: geom.NewRegion(0.5, -1, 2, 3e6)}),
			NewAnd(),
			NewCrop(CropQuery{
				Region:      geom.NewRegion(0, 0, 1, 1),
				Category:    &category,
				OneOfGroups: []int64{7, 2, 7},
				Proper:      true,
			}),
		),
	}

	want := `{"query":{"operator_or":[` +
		`{"operator_crop":{"region":{"p_max":{"x":2,"y":3e+06},"p_min":{"x":0.5,"y":-1}}}},` +
		`{"operator_and":[]},` +
		`{"operator_crop":{"category":3,"one_of_groups":[2,7],"proper":true,"region":{"p_max":{"x":1,"y":1},"p_min":{"x":0,"y":0}}}}` +
		`]},"valid_region":{"p_max":{"x":10,"y":10},"p_min":{"x":0,"y":0}}}`
	assert.Equal(t, want, string(Canonical(doc)))
}

func TestCanonical_EmptyGroupFilterKept(t *testing.T) {
	doc := Document{
		ValidRegion: geom.NewRegion(0, 0, 1, 1),
		Query:       NewCrop(CropQuery{Region: geom.NewRegion(0, 0, 1, 1), OneOfGroups: []int64{}}),
	}
	assert.Contains(t, string(Canonical(doc)), `"one_of_groups":[]`)
}

func TestFingerprint(t *testing.T) {
	region := geom.NewRegion(0, 0, 5, 5)
	base := Document{
		ValidRegion: geom.NewRegion(0, 0, 10, 10),
		Query:       NewCrop(CropQuery{Region: region, OneOfGroups: []int64{1, 2}}),
	}
	reordered := Document{
		ValidRegion: geom.NewRegion(0, 0, 10, 10),
		Query:       NewCrop(CropQuery{Region: region, OneOfGroups: []int64{2, 1, 2}}),
	}
	negativeZero := Document{
		ValidRegion: geom.NewRegion(0, 0, 10, 10),
		Query:       NewCrop(CropQuery{Region: geom.NewRegion(negZero(), 0, 5, 5), OneOfGroups: []int64{1, 2}}),
	}
	otherValid := Document{
		ValidRegion: geom.NewRegion(0, 0, 10, 11),
		Query:       NewCrop(CropQuery{Region: region, OneOfGroups: []int64{1, 2}}),
	}
	unfiltered := Document{
		ValidRegion: geom.NewRegion(0, 0, 10, 10),
		Query:       NewCrop(CropQuery{Region: region}),
	}

	fp := Fingerprint(base)
	assert.Len(t, fp, 64)
	assert.Equal(t, fp, Fingerprint(reordered))
	assert.Equal(t, fp, Fingerprint(negativeZero))
	assert.NotEqual(t, fp, Fingerprint(otherValid))
	assert.NotEqual(t, fp, Fingerprint(unfiltered))
}

func negZero() float64 {
	z := 0.0
	return -z
}
