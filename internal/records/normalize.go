package records

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"git.home.luguber.info/inful/stacbuilder/internal/foundation"
	"git.home.luguber.info/inful/stacbuilder/internal/geometry"
)

// RawSet groups the raw rows per entity type, in input order.
type RawSet struct {
	Themes   []Row
	Projects []Row
	Products []Row
	Items    []Row
}

// Normalize converts raw rows into typed records. Validation failures are
// collected per record, not raised: a malformed record is skipped and the
// remaining rows continue, so callers see every problem in one pass. The
// returned error list being non-empty means the overall build must fail.
func Normalize(raw RawSet) (*Set, []error) {
	var errs []error
	set := &Set{}

	for _, row := range raw.Themes {
		theme, rowErrs := normalizeTheme(row)
		if len(rowErrs) > 0 {
			errs = append(errs, rowErrs...)
			continue
		}
		set.Themes = append(set.Themes, theme)
	}
	for _, row := range raw.Projects {
		project, rowErrs := normalizeProject(row)
		if len(rowErrs) > 0 {
			errs = append(errs, rowErrs...)
			continue
		}
		set.Projects = append(set.Projects, project)
	}
	for _, row := range raw.Products {
		product, rowErrs := normalizeProduct(row)
		if len(rowErrs) > 0 {
			errs = append(errs, rowErrs...)
			continue
		}
		set.Products = append(set.Products, product)
	}
	for _, row := range raw.Items {
		item, rowErrs := normalizeItem(row)
		if len(rowErrs) > 0 {
			errs = append(errs, rowErrs...)
			continue
		}
		set.Items = append(set.Items, item)
	}

	return set, errs
}

func normalizeTheme(row Row) (Theme, []error) {
	v := newRowValidator(row)
	theme := Theme{
		ID:          v.id("id"),
		Title:       row.Get("title"),
		Description: row.Get("description"),
		Link:        row.Get("link"),
		Image:       row.Get("image"),
	}
	// The legacy theme sheet has no separate title column.
	if theme.Title == "" {
		theme.Title = theme.ID
	}
	return theme, v.errs
}

func normalizeProject(row Row) (Project, []error) {
	v := newRowValidator(row)
	project := Project{
		ID:          v.id("id"),
		Theme:       v.require("theme"),
		Title:       row.Get("title"),
		Description: row.Get("description"),
		Status:      v.status("status"),
		Website:     row.Get("website"),
		Consortium:  parseList(row.Get("consortium"), ","),
		TechnicalOfficer: Contact{
			Name:  row.Get("technical_officer"),
			Email: row.Get("technical_officer_email"),
		},
		Interval: v.interval("start", "end"),
		BBox:     v.bbox("bbox"),
	}
	// The legacy variables sheet has no title column; the id doubles as one.
	if project.Title == "" {
		project.Title = project.ID
	}
	return project, v.errs
}

func normalizeProduct(row Row) (Product, []error) {
	v := newRowValidator(row)
	product := Product{
		ID:          v.id("id"),
		Project:     v.require("project"),
		Title:       v.require("title"),
		Description: row.Get("description"),
		License:     row.Get("license"),
		Providers:   parseList(row.Get("providers"), ";"),
		Keywords:    parseList(row.Get("keywords"), ";"),
		Region:      row.Get("region"),
		Website:     row.Get("website"),
		Access:      row.Get("access"),
		DOI:         row.Get("doi"),
		Interval:    v.interval("start", "end"),
		BBox:        v.bbox("bbox"),
	}
	if released := row.Get("released"); released != "" {
		if strings.EqualFold(released, "planned") {
			product.ReleasePlanned = true
		} else {
			product.Released = v.date("released")
		}
	}
	return product, v.errs
}

func normalizeItem(row Row) (Item, []error) {
	v := newRowValidator(row)
	item := Item{
		ID:        v.id("id"),
		Product:   v.require("product"),
		Title:     row.Get("title"),
		Datetime:  v.date("datetime"),
		Interval:  v.interval("start", "end"),
		BBox:      v.bbox("bbox"),
		AssetHref: row.Get("asset_href"),
		AssetType: row.Get("asset_type"),
	}
	if src := row.Get("geometry"); src != "" {
		geom, err := geometry.Parse(src)
		if err != nil {
			v.fieldErr("geometry", err)
		} else {
			item.Geometry = geom
		}
	}
	if item.Datetime == nil && item.Interval.IsZero() {
		v.fieldErr("datetime", fmt.Errorf("item needs a datetime or a start/end interval"))
	}
	return item, v.errs
}

// rowValidator accumulates field-level validation errors for one row.
type rowValidator struct {
	row  Row
	errs []error
}

func newRowValidator(row Row) *rowValidator { return &rowValidator{row: row} }

func (v *rowValidator) entity() string {
	if id := v.row.Get("id"); id != "" {
		return id
	}
	return fmt.Sprintf("%s row %d", v.row.Kind, v.row.Line)
}

func (v *rowValidator) fieldErr(field string, cause error) {
	v.errs = append(v.errs, foundation.ValidationError(fmt.Sprintf("field %q invalid", field)).
		WithEntity(v.entity()).
		WithComponent("normalizer").
		WithContext(foundation.Fields{"kind": string(v.row.Kind), "line": v.row.Line, "field": field}).
		WithCause(cause).
		Build())
}

func (v *rowValidator) require(field string) string {
	value := strings.TrimSpace(v.row.Get(field))
	if value == "" {
		v.fieldErr(field, fmt.Errorf("required field missing"))
	}
	return value
}

// id requires the field and rejects values that cannot serve as a single
// path segment in the output tree.
func (v *rowValidator) id(field string) string {
	value := v.require(field)
	if value == "" {
		return value
	}
	if strings.ContainsAny(value, `/\`) || value == "." || value == ".." {
		v.fieldErr(field, fmt.Errorf("id %q is not a valid path segment", value))
	}
	return value
}

func (v *rowValidator) status(field string) Status {
	value := strings.ToLower(strings.TrimSpace(v.row.Get(field)))
	switch Status(value) {
	case StatusPlanned, StatusOngoing, StatusCompleted:
		return Status(value)
	case "":
		return StatusOngoing
	default:
		v.fieldErr(field, fmt.Errorf("unknown status %q", v.row.Get(field)))
		return StatusOngoing
	}
}

func (v *rowValidator) date(field string) *time.Time {
	value := strings.TrimSpace(v.row.Get(field))
	if value == "" {
		return nil
	}
	t, err := ParseDate(value)
	if err != nil {
		v.fieldErr(field, err)
		return nil
	}
	return &t
}

// dateEnd parses an interval end, resolving the value to the end of its
// period so coarse dates do not truncate temporal extents.
func (v *rowValidator) dateEnd(field string) *time.Time {
	value := strings.TrimSpace(v.row.Get(field))
	if value == "" {
		return nil
	}
	t, err := ParseDateEnd(value)
	if err != nil {
		v.fieldErr(field, err)
		return nil
	}
	return &t
}

func (v *rowValidator) interval(startField, endField string) Interval {
	return Interval{Start: v.date(startField), End: v.dateEnd(endField)}
}

func (v *rowValidator) bbox(field string) *geometry.BBox {
	value := strings.TrimSpace(v.row.Get(field))
	if value == "" {
		return nil
	}
	box, err := geometry.ParseBBox(value)
	if err != nil {
		v.fieldErr(field, err)
		return nil
	}
	return &box
}

// ParseDate accepts RFC 3339 timestamps, plain dates, and the decimal date
// notation of the source data: "2020", "2020.06" (year and month) or
// "2020.06.15".
func ParseDate(value string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), nil
		}
	}
	parts := strings.Split(value, ".")
	nums := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return time.Time{}, fmt.Errorf("unparseable date %q", value)
		}
		nums = append(nums, n)
	}
	switch len(nums) {
	case 1:
		return time.Date(nums[0], time.January, 1, 0, 0, 0, 0, time.UTC), nil
	case 2:
		return time.Date(nums[0], time.Month(nums[1]), 1, 0, 0, 0, 0, time.UTC), nil
	case 3:
		return time.Date(nums[0], time.Month(nums[1]), nums[2], 0, 0, 0, 0, time.UTC), nil
	}
	return time.Time{}, fmt.Errorf("unparseable date %q", value)
}

// ParseDateEnd parses like ParseDate but resolves the value to the end of
// the period it names: "2020" covers through 2020-12-31T23:59:59Z, "2020.06"
// through the end of June, and day-granular values through 23:59:59. Full
// timestamps are taken as-is.
func ParseDateEnd(value string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t.UTC(), nil
	}
	start, err := ParseDate(value)
	if err != nil {
		return time.Time{}, err
	}
	var end time.Time
	switch strings.Count(value, ".") {
	case 0:
		if strings.Contains(value, "-") {
			end = start.AddDate(0, 0, 1) // yyyy-mm-dd
		} else {
			end = start.AddDate(1, 0, 0) // yyyy
		}
	case 1:
		end = start.AddDate(0, 1, 0) // yyyy.mm
	default:
		end = start.AddDate(0, 0, 1) // yyyy.mm.dd
	}
	return end.Add(-time.Second), nil
}

func parseList(value, delimiter string) []string {
	if value == "" {
		return nil
	}
	var out []string
	for _, item := range strings.Split(value, delimiter) {
		if stripped := strings.TrimSpace(item); stripped != "" {
			out = append(out, stripped)
		}
	}
	return out
}
