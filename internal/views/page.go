package views

import (
	"maps"
	"slices"

	"github.com/odyssey-erp/backoffice/internal/filterview"
	"github.com/odyssey-erp/backoffice/internal/savedfilters"
)

// FieldView is one filter input.
type FieldView struct {
	Name     string   `json:"name"`
	Kind     string   `json:"kind"`
	Value    string   `json:"value,omitempty"`
	Values   []string `json:"values,omitempty"`
	Options  []string `json:"options,omitempty"`
	Required bool     `json:"required"`
	Enabled  bool     `json:"enabled"`
	Error    string   `json:"error,omitempty"`
}

// StatusView is the load status shown next to the data.
type StatusView struct {
	Phase      string `json:"phase"`
	Loading    bool   `json:"loading"`
	Pending    bool   `json:"pending"`
	Valid      bool   `json:"valid"`
	Error      string `json:"error,omitempty"`
	Attempts   int    `json:"attempts"`
	Generation uint64 `json:"generation"`
}

// Page is the presentation model of a view, rendered as HTML and JSON.
type Page struct {
	View    string                     `json:"view"`
	Title   string                     `json:"title"`
	Path    string                     `json:"path"`
	Query   string                     `json:"query"`
	Fields  []FieldView                `json:"fields"`
	Toggles []ToggleState              `json:"toggles,omitempty"`
	Actions []string                   `json:"actions,omitempty"`
	Status  StatusView                 `json:"status"`
	HasData bool                       `json:"has_data"`
	Data    any                        `json:"data,omitempty"`
	Saved   []savedfilters.SavedFilter `json:"saved,omitempty"`
}

// BuildPage reads the session once and assembles its page.
func BuildPage[D any](def Definition[D], s *Session[D]) Page {
	v := s.Controller.View()
	page := Page{
		View:    def.Name,
		Title:   def.Title,
		Path:    "/" + def.Name,
		Query:   s.Location.Query().Encode(),
		Toggles: s.ToggleStates(),
		Status:  statusView(v.Status),
		HasData: v.HasData,
	}
	page.Actions = slices.Sorted(maps.Keys(def.Actions))
	for _, fs := range v.Fields {
		f, _ := s.schema.Field(fs.Name)
		fv := FieldView{
			Name:     fs.Name,
			Kind:     fs.Kind.String(),
			Options:  f.Options,
			Required: f.Required,
			Enabled:  fs.Enabled,
		}
		if fs.Err != nil {
			fv.Error = fs.Err.Error()
		}
		if fs.Value != nil {
			encoded := s.codec.Encode(filterview.Values{fs.Name: fs.Value})[fs.Name]
			if fs.Kind == filterview.KindStrings {
				fv.Values = encoded
			} else if len(encoded) > 0 {
				fv.Value = encoded[0]
			}
		}
		page.Fields = append(page.Fields, fv)
	}
	if v.HasData {
		if def.Present != nil {
			page.Data = def.Present(v)
		} else {
			page.Data = v.Data
		}
	}
	return page
}

func statusView(st filterview.Status) StatusView {
	out := StatusView{
		Phase:      st.Phase.String(),
		Loading:    st.Loading,
		Pending:    st.Pending,
		Valid:      st.Valid,
		Attempts:   st.Attempts,
		Generation: st.Generation,
	}
	if st.Err != nil {
		out.Error = st.Err.Error()
	}
	return out
}
