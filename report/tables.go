/*
Package report renders the maintenance plan as LaTeX tables.

PURPOSE:
  Produces one booktabs table per location for the maintenance report and
  splices it into a LaTeX template.

OUTPUT SHAPE (per location):
  \begin{table}[htbp]                     caption + \label{tab:plan_mant_<slug>}
    Equipo | Cantidad | Ubicación | Responsable | Fecha
    one group per (equipo, responsable), first four cells spanning
    \multirow{n}{*} over the group's distinct tentative dates
  \end{table}

  Output is byte-stable for a given record set: locations, groups and
  dates are all sorted.

SEE ALSO:
  - render.go: template substitution
  - generator.go: store -> template -> output file
*/
package report

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/warp/maintenance-plan/maintenance"
)

// DefaultResponsible is printed when a record has no responsible person.
const DefaultResponsible = "Téc. de Laboratorio"

const captionPrefix = "Plan de mantenimiento preventivo de equipos / "

var latexReplacer = strings.NewReplacer(
	`&`, `\&`,
	`%`, `\%`,
	`#`, `\#`,
	`_`, `\_`,
	`{`, `\{`,
	`}`, `\}`,
	`$`, `\$`,
	`~`, `\textasciitilde{}`,
	`^`, `\textasciicircum{}`,
	`\`, `\textbackslash{}`,
)

// Escape makes text safe inside LaTeX body text. Every special character is
// replaced in a single pass, so replacements are never escaped twice.
func Escape(text string) string {
	return latexReplacer.Replace(text)
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

// Label returns the \label key for a location's table.
func Label(location string) string {
	slug := strings.Trim(nonSlug.ReplaceAllString(strings.ToLower(location), "_"), "_")
	if slug == "" {
		slug = "lab"
	}
	return "tab:plan_mant_" + slug
}

// =============================================================================
// GROUPING
// =============================================================================

type groupKey struct {
	equipment   string
	responsible string
}

type group struct {
	count int
	dates map[string]struct{}
}

// sortedDates returns the distinct non-blank dates in string order, or a
// single blank entry so every group still prints one row.
func (g *group) sortedDates() []string {
	out := make([]string, 0, len(g.dates))
	for d := range g.dates {
		out = append(out, d)
	}
	sort.Strings(out)
	if len(out) == 0 {
		return []string{""}
	}
	return out
}

func groupByLocation(records []maintenance.Record) (map[string]map[groupKey]*group, []string) {
	byLocation := make(map[string]map[groupKey]*group)
	for _, r := range records {
		resp := r.Responsible
		if strings.TrimSpace(resp) == "" {
			resp = DefaultResponsible
		}

		groups, ok := byLocation[r.Location]
		if !ok {
			groups = make(map[groupKey]*group)
			byLocation[r.Location] = groups
		}
		key := groupKey{equipment: r.Equipment, responsible: resp}
		g, ok := groups[key]
		if !ok {
			g = &group{dates: make(map[string]struct{})}
			groups[key] = g
		}
		g.count++
		if strings.TrimSpace(r.TentativeDate) != "" {
			g.dates[r.TentativeDate] = struct{}{}
		}
	}

	locations := make([]string, 0, len(byLocation))
	for loc := range byLocation {
		locations = append(locations, loc)
	}
	sort.Strings(locations)
	return byLocation, locations
}

// =============================================================================
// TABLES
// =============================================================================

// Tables renders every location's table block, blocks joined by newlines.
// An empty record set renders as "".
func Tables(records []maintenance.Record) string {
	byLocation, locations := groupByLocation(records)

	var lines []string
	for _, loc := range locations {
		lines = append(lines, tableLines(loc, byLocation[loc])...)
	}
	return strings.Join(lines, "\n")
}

func tableLines(location string, groups map[groupKey]*group) []string {
	loc := Escape(location)

	lines := []string{
		`\begin{table}[htbp]`,
		`    \centering`,
		`    \caption{` + captionPrefix + loc + `}`,
		`    \label{` + Label(location) + `}`,
		`    {\footnotesize`,
		`    \begin{tabular}{p{3.9cm}p{1.3cm}p{3.0cm}p{4.0cm}p{1.5cm}}`,
		`        \toprule`,
		`        \textbf{Equipo} & \textbf{Cantidad} & \textbf{Ubicación} & \textbf{Responsable} & \textbf{Fecha} \\`,
		`        \midrule`,
	}

	keys := make([]groupKey, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].equipment != keys[j].equipment {
			return keys[i].equipment < keys[j].equipment
		}
		return keys[i].responsible < keys[j].responsible
	})

	for _, k := range keys {
		g := groups[k]
		dates := g.sortedDates()
		span := func(v string) string { return fmt.Sprintf(`\multirow{%d}{*}{%s}`, len(dates), v) }

		for i, d := range dates {
			if i == 0 {
				lines = append(lines, fmt.Sprintf(`        %s & %s & %s & %s & %s \\`,
					span(Escape(k.equipment)), span(fmt.Sprint(g.count)), span(loc), span(Escape(k.responsible)), Escape(d)))
				continue
			}
			lines = append(lines, `        & & & & `+Escape(d)+` \\`)
		}
	}

	return append(lines,
		`        \bottomrule`,
		`    \end{tabular}`,
		`    }`,
		`\end{table}`,
		``,
	)
}
