package records

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/stacbuilder/internal/foundation"
)

func themeRow(fields map[string]string) Row {
	return Row{Kind: KindTheme, Line: 1, Fields: fields}
}

func TestNormalizeAcceptsMinimalRows(t *testing.T) {
	raw := RawSet{
		Themes: []Row{themeRow(map[string]string{"id": "land", "title": "Land"})},
		Projects: []Row{{Kind: KindProject, Line: 1, Fields: map[string]string{
			"id": "p1", "theme": "land", "title": "Project One",
			"consortium": "Alpha, Beta",
		}}},
		Products: []Row{{Kind: KindProduct, Line: 1, Fields: map[string]string{
			"id": "prod1", "project": "p1", "title": "Product One",
			"keywords": "soil; moisture", "released": "2021-03-01",
		}}},
		Items: []Row{{Kind: KindItem, Line: 1, Fields: map[string]string{
			"id": "i1", "product": "prod1", "datetime": "2021-03-02",
		}}},
	}

	set, errs := Normalize(raw)
	require.Empty(t, errs)
	require.Len(t, set.Themes, 1)
	require.Len(t, set.Projects, 1)
	require.Len(t, set.Products, 1)
	require.Len(t, set.Items, 1)

	assert.Equal(t, []string{"Alpha", "Beta"}, set.Projects[0].Consortium)
	assert.Equal(t, StatusOngoing, set.Projects[0].Status, "missing status defaults to ongoing")
	assert.Equal(t, []string{"soil", "moisture"}, set.Products[0].Keywords)
	require.NotNil(t, set.Products[0].Released)
	require.NotNil(t, set.Items[0].Datetime)
}

func TestNormalizeSkipsBadRowsAndContinues(t *testing.T) {
	raw := RawSet{
		Themes: []Row{
			themeRow(map[string]string{"title": "No id"}),
			themeRow(map[string]string{"id": "ok", "title": "Fine"}),
		},
	}

	set, errs := Normalize(raw)
	require.Len(t, errs, 1)
	require.Len(t, set.Themes, 1)
	assert.Equal(t, "ok", set.Themes[0].ID)

	var classified *foundation.ClassifiedError
	require.True(t, foundation.AsClassified(errs[0], &classified))
	assert.Equal(t, foundation.ErrorCodeValidation, classified.Code)
}

func TestNormalizeRejectsUnknownStatus(t *testing.T) {
	raw := RawSet{
		Projects: []Row{{Kind: KindProject, Line: 3, Fields: map[string]string{
			"id": "p1", "theme": "t", "title": "P", "status": "paused",
		}}},
	}
	set, errs := Normalize(raw)
	require.Len(t, errs, 1)
	assert.Empty(t, set.Projects)
	assert.Contains(t, errs[0].Error(), "status")
}

func TestNormalizeItemNeedsTemporalCoverage(t *testing.T) {
	raw := RawSet{
		Items: []Row{{Kind: KindItem, Line: 1, Fields: map[string]string{
			"id": "i1", "product": "prod",
		}}},
	}
	_, errs := Normalize(raw)
	require.Len(t, errs, 1)

	// A start/end interval alone satisfies the requirement.
	raw.Items[0].Fields["start"] = "2020"
	set, errs := Normalize(raw)
	require.Empty(t, errs)
	require.Len(t, set.Items, 1)
	assert.Nil(t, set.Items[0].Interval.End)
}

func TestNormalizePlannedRelease(t *testing.T) {
	raw := RawSet{
		Products: []Row{{Kind: KindProduct, Line: 1, Fields: map[string]string{
			"id": "prod", "project": "p", "title": "T", "released": "Planned",
		}}},
	}
	set, errs := Normalize(raw)
	require.Empty(t, errs)
	assert.True(t, set.Products[0].ReleasePlanned)
	assert.Nil(t, set.Products[0].Released)
}

func TestParseDate(t *testing.T) {
	cases := []struct {
		in   string
		want time.Time
	}{
		{"2021-06-15", time.Date(2021, 6, 15, 0, 0, 0, 0, time.UTC)},
		{"2021-06-15T12:30:00Z", time.Date(2021, 6, 15, 12, 30, 0, 0, time.UTC)},
		{"2020", time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)},
		{"2020.06", time.Date(2020, 6, 1, 0, 0, 0, 0, time.UTC)},
		{"2020.06.15", time.Date(2020, 6, 15, 0, 0, 0, 0, time.UTC)},
	}
	for _, c := range cases {
		got, err := ParseDate(c.in)
		require.NoError(t, err, c.in)
		assert.Equal(t, c.want, got, c.in)
	}

	for _, bad := range []string{"soon", "2020.06.15.12", "20-20"} {
		if _, err := ParseDate(bad); err == nil {
			t.Errorf("ParseDate(%q) accepted garbage", bad)
		}
	}
}

func TestNormalizeRejectsPathUnsafeIDs(t *testing.T) {
	for _, bad := range []string{"a/b", `a\b`, ".", ".."} {
		raw := RawSet{
			Items: []Row{{Kind: KindItem, Line: 1, Fields: map[string]string{
				"id": bad, "product": "prod", "datetime": "2020",
			}}},
		}
		set, errs := Normalize(raw)
		require.Len(t, errs, 1, "id %q must be rejected", bad)
		assert.Empty(t, set.Items)
	}
}

func TestParseDateEnd(t *testing.T) {
	cases := []struct {
		in   string
		want time.Time
	}{
		{"2020", time.Date(2020, 12, 31, 23, 59, 59, 0, time.UTC)},
		{"2020.06", time.Date(2020, 6, 30, 23, 59, 59, 0, time.UTC)},
		{"2020.06.15", time.Date(2020, 6, 15, 23, 59, 59, 0, time.UTC)},
		{"2021-02-28", time.Date(2021, 2, 28, 23, 59, 59, 0, time.UTC)},
		{"2021-06-15T12:30:00Z", time.Date(2021, 6, 15, 12, 30, 0, 0, time.UTC)},
	}
	for _, c := range cases {
		got, err := ParseDateEnd(c.in)
		require.NoError(t, err, c.in)
		assert.Equal(t, c.want, got, c.in)
	}

	if _, err := ParseDateEnd("soon"); err == nil {
		t.Error("ParseDateEnd accepted garbage")
	}
}

func TestNormalizeIntervalEndCoversWholePeriod(t *testing.T) {
	raw := RawSet{
		Items: []Row{{Kind: KindItem, Line: 1, Fields: map[string]string{
			"id": "i1", "product": "prod", "start": "2018", "end": "2020",
		}}},
	}
	set, errs := Normalize(raw)
	require.Empty(t, errs)
	require.Len(t, set.Items, 1)

	iv := set.Items[0].Interval
	require.NotNil(t, iv.Start)
	require.NotNil(t, iv.End)
	assert.Equal(t, time.Date(2018, 1, 1, 0, 0, 0, 0, time.UTC), *iv.Start)
	assert.Equal(t, time.Date(2020, 12, 31, 23, 59, 59, 0, time.UTC), *iv.End)
}

func TestNormalizeGeometryAndBBox(t *testing.T) {
	raw := RawSet{
		Items: []Row{{Kind: KindItem, Line: 1, Fields: map[string]string{
			"id": "i1", "product": "prod", "datetime": "2020",
			"geometry": "[[[0,0],[2,0],[2,2],[0,2],[0,0]]]",
		}}},
	}
	set, errs := Normalize(raw)
	require.Empty(t, errs)
	require.NotNil(t, set.Items[0].Geometry)
	assert.Nil(t, set.Items[0].BBox)

	raw.Items[0].Fields["geometry"] = "nonsense"
	_, errs = Normalize(raw)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Error(), "geometry")
}
