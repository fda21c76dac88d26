package sqlite

import (
	"database/sql"

	"github.com/warp/maintenance-plan/maintenance"
)

// recordRow mirrors a plan_mantenimiento row. Every column is nullable
// because rows written before a column was added carry NULLs.
type recordRow struct {
	ID                  int64          `db:"id"`
	Equipo              sql.NullString `db:"equipo"`
	Marca               sql.NullString `db:"marca"`
	Modelo              sql.NullString `db:"modelo"`
	Codigo              sql.NullString `db:"codigo"`
	Ubicacion           sql.NullString `db:"ubicacion"`
	Responsable         sql.NullString `db:"responsable"`
	FechaTentativa      sql.NullString `db:"fecha_tentativa"`
	Cumplido            sql.NullBool   `db:"cumplido"`
	FechaCumplimiento   sql.NullString `db:"fecha_cumplimiento"`
	UltimoMantenimiento sql.NullString `db:"ultimo_mantenimiento"`
	// Scanned as text: legacy files may hold "6.0" or free text.
	FrecuenciaMeses sql.NullString `db:"frecuencia_meses"`
}

func (r recordRow) toRecord() maintenance.Record {
	rec := maintenance.Record{
		ID:              r.ID,
		Equipment:       r.Equipo.String,
		Brand:           r.Marca.String,
		Model:           r.Modelo.String,
		Code:            r.Codigo.String,
		Location:        r.Ubicacion.String,
		Responsible:     r.Responsable.String,
		TentativeDate:   r.FechaTentativa.String,
		Completed:       r.Cumplido.Valid && r.Cumplido.Bool,
		CompletionDate:  optString(r.FechaCumplimiento),
		LastMaintenance: optString(r.UltimoMantenimiento),
	}
	if r.FrecuenciaMeses.Valid {
		if n, ok := maintenance.ParseFrequency(r.FrecuenciaMeses.String); ok {
			rec.FrequencyMonths = &n
		}
	}
	return rec
}

// insertRow carries the named parameters of insertQuery.
type insertRow struct {
	Equipo              string  `db:"equipo"`
	Marca               string  `db:"marca"`
	Modelo              string  `db:"modelo"`
	Codigo              string  `db:"codigo"`
	Ubicacion           string  `db:"ubicacion"`
	Responsable         string  `db:"responsable"`
	FechaTentativa      string  `db:"fecha_tentativa"`
	UltimoMantenimiento *string `db:"ultimo_mantenimiento"`
	FrecuenciaMeses     *int    `db:"frecuencia_meses"`
}

func toRow(rec maintenance.Record) insertRow {
	return insertRow{
		Equipo:              rec.Equipment,
		Marca:               rec.Brand,
		Modelo:              rec.Model,
		Codigo:              rec.Code,
		Ubicacion:           rec.Location,
		Responsable:         rec.Responsible,
		FechaTentativa:      rec.TentativeDate,
		UltimoMantenimiento: rec.LastMaintenance,
		FrecuenciaMeses:     rec.FrequencyMonths,
	}
}

func optString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func nullable(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
