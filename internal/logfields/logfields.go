package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyEntity   = "entity"
	KeyEntityID = "entity_id"
	KeyKind     = "kind"
	KeyTheme    = "theme"
	KeyProject  = "project"
	KeyProduct  = "product"
	KeyStage    = "stage"
	KeyPath     = "path"
	KeyCount    = "count"
	KeyError    = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func Entity(id string) slog.Attr   { return slog.String(KeyEntity, id) }
func EntityID(id string) slog.Attr { return slog.String(KeyEntityID, id) }
func Kind(k string) slog.Attr      { return slog.String(KeyKind, k) }
func Theme(t string) slog.Attr     { return slog.String(KeyTheme, t) }
func Project(p string) slog.Attr   { return slog.String(KeyProject, p) }
func Product(p string) slog.Attr   { return slog.String(KeyProduct, p) }
func Stage(name string) slog.Attr  { return slog.String(KeyStage, name) }
func Path(p string) slog.Attr      { return slog.String(KeyPath, p) }
func Count(n int) slog.Attr        { return slog.Int(KeyCount, n) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
