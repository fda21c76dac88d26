package importer

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Canonical column names of an equipment roster.
const (
	ColEquipment       = "equipo"
	ColBrand           = "marca"
	ColModel           = "modelo"
	ColCode            = "codigo"
	ColLocation        = "ubicacion"
	ColResponsible     = "responsable"
	ColFrequencyMonths = "frecuencia_meses"
	ColLastMaintenance = "ultimo_mantenimiento"
)

// RequiredColumns lists the canonical columns every roster must provide,
// in the order they are reported when missing.
var RequiredColumns = []string{
	ColEquipment,
	ColBrand,
	ColModel,
	ColCode,
	ColLocation,
	ColResponsible,
	ColFrequencyMonths,
	ColLastMaintenance,
}

// HeaderAliases maps normalized header spellings to canonical names.
// Keys are produced by NormalizeHeader: lower-case, no accents, only
// letters and digits.
var HeaderAliases = map[string]string{
	// Equipment
	"equipo":       ColEquipment,
	"equipos":      ColEquipment,
	"nombreequipo": ColEquipment,
	"equipment":    ColEquipment,

	// Brand
	"marca":      ColBrand,
	"fabricante": ColBrand,
	"brand":      ColBrand,

	// Model
	"modelo": ColModel,
	"model":  ColModel,

	// Code
	"codigo":           ColCode,
	"cod":              ColCode,
	"codigoinventario": ColCode,
	"code":             ColCode,

	// Location
	"ubicacion":   ColLocation,
	"laboratorio": ColLocation,
	"lab":         ColLocation,
	"location":    ColLocation,

	// Responsible
	"responsable": ColResponsible,
	"encargado":   ColResponsible,
	"responsible": ColResponsible,

	// Frequency
	"frecuenciameses":   ColFrequencyMonths,
	"frecuencia":        ColFrequencyMonths,
	"frecuenciamensual": ColFrequencyMonths,
	"frequencymonths":   ColFrequencyMonths,

	// Last maintenance
	"ultimomantenimiento":      ColLastMaintenance,
	"fechaultimomantenimiento": ColLastMaintenance,
	"fechaultimomant":          ColLastMaintenance,
	"lastmaintenance":          ColLastMaintenance,
}

// NormalizeHeader lower-cases a header, strips diacritics and drops every
// character that is not a letter or digit ("Frecuencia (meses)" ->
// "frecuenciameses", "Código" -> "codigo").
func NormalizeHeader(h string) string {
	// transform.Chain keeps per-call state; each call gets its own.
	stripAccents := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(stripAccents, strings.ToLower(strings.TrimSpace(h)))
	if err != nil {
		stripped = strings.ToLower(h)
	}

	var b strings.Builder
	b.Grow(len(stripped))
	for _, r := range stripped {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Canonical returns the canonical column for a raw header, or "" when the
// header is unknown.
func Canonical(header string) string {
	return HeaderAliases[NormalizeHeader(header)]
}
