package reports

import "sort"

// Offense describes a report type and the fields it must capture.
type Offense struct {
	ID             string   `json:"id"`
	Title          string   `json:"title"`
	Statute        string   `json:"statute"`
	RequiredFields []string `json:"required_fields"`
}

// Offense ids must not contain '-' since they are embedded in session keys.
var catalogue = map[string]Offense{
	"burglary": {
		ID:             "burglary",
		Title:          "Burglary",
		Statute:        "PC 459",
		RequiredFields: []string{"date", "time", "location", "point_of_entry", "items_taken", "suspect_description"},
	},
	"theft": {
		ID:             "theft",
		Title:          "Theft",
		Statute:        "PC 484",
		RequiredFields: []string{"date", "time", "location", "items_taken", "estimated_value"},
	},
	"assault": {
		ID:             "assault",
		Title:          "Assault",
		Statute:        "PC 240",
		RequiredFields: []string{"date", "time", "location", "victim_name", "injuries", "suspect_description"},
	},
	"vandalism": {
		ID:             "vandalism",
		Title:          "Vandalism",
		Statute:        "PC 594",
		RequiredFields: []string{"date", "location", "property_damaged", "estimated_damage"},
	},
	"dui": {
		ID:             "dui",
		Title:          "Driving Under the Influence",
		Statute:        "VC 23152",
		RequiredFields: []string{"date", "time", "location", "driver_name", "vehicle", "bac_result"},
	},
	"traffic_collision": {
		ID:             "traffic_collision",
		Title:          "Traffic Collision",
		Statute:        "VC 20001",
		RequiredFields: []string{"date", "time", "location", "vehicles_involved", "injuries"},
	},
}

// LookupOffense returns the catalogue entry for id.
func LookupOffense(id string) (Offense, bool) {
	o, ok := catalogue[id]
	return o, ok
}

// Offenses lists the catalogue ordered by id.
func Offenses() []Offense {
	out := make([]Offense, 0, len(catalogue))
	for _, o := range catalogue {
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (o Offense) requires(field string) bool {
	for _, f := range o.RequiredFields {
		if f == field {
			return true
		}
	}
	return false
}
