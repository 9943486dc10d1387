package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/paulmach/orb"

	"github.com/mesh-intelligence/strata/pkg/cti"
	"github.com/mesh-intelligence/strata/pkg/geo"
	"github.com/mesh-intelligence/strata/pkg/things"
)

var headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
var cellStyle = lipgloss.NewStyle().Padding(0, 1)

// withSession opens a session, runs fn and closes the session.
func withSession(migrate bool, fn func(*session) error) error {
	s, err := openSession(migrate)
	if err != nil {
		return err
	}
	defer s.Close()
	return fn(s)
}

func writeJSON(w io.Writer, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(b))
	return err
}

// writeRecords prints one JSON object per line in JSON mode and a table
// otherwise.
func writeRecords(w io.Writer, records []*cti.Record) error {
	if flags.jsonMode {
		for _, r := range records {
			if err := writeJSON(w, r); err != nil {
				return err
			}
		}
		return nil
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("ID", "KIND", "NAME", "MESSAGE", "GEOM").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	for _, r := range records {
		t.Row(
			strconv.FormatInt(r.ID(), 10),
			kindOf(r),
			r.GetString(things.AttrName),
			r.GetString(things.AttrMessage),
			geometryText(r.GetGeometry(things.AttrGeom)),
		)
	}
	_, err := fmt.Fprintln(w, t.Render())
	return err
}

func geometryText(g orb.Geometry) string {
	if g == nil {
		return ""
	}
	return geo.WKT(g)
}

// kindOf names the concrete type of r, or "" when it is not loaded.
func kindOf(r *cti.Record) string {
	if m := r.Concrete(); m != nil {
		return m.Name()
	}
	return ""
}
