// Package status contains the pure read-side projections over case and
// target state: dashboard aggregate counts and the presentation mapping
// used to render a status as a badge.
//
// Nothing in this package touches storage or mutates its input. Aggregates
// are recomputed on every listing request rather than persisted — a stored
// copy would be a second source of truth that can drift from the case rows.
package status

import "github.com/sakif/contentguard/internal/model"

// Counts is the dashboard summary over a user's case list.
type Counts struct {
	Total   int `json:"total"`
	Filed   int `json:"filed"`
	Removed int `json:"removed"`
	Pending int `json:"pending"`
}

// AggregateCounts computes the dashboard counters over a case list.
//
// Filed counts cases in {filed, in_review} — from the client's point of
// view both mean "the notice is with the other side". Pending counts
// submitted cases, Removed counts removed ones. Denied cases appear only
// in Total. The result is independent of input order.
func AggregateCounts(cases []model.Case) Counts {
	c := Counts{Total: len(cases)}
	for _, k := range cases {
		switch k.Status {
		case model.CaseFiled, model.CaseInReview:
			c.Filed++
		case model.CaseRemoved:
			c.Removed++
		case model.CaseSubmitted:
			c.Pending++
		}
	}
	return c
}

// Label is the presentation mapping for a status value: a CSS color class,
// an icon identifier, and the human-readable text the UI shows. The color
// classes and icon names match what the dashboard frontend renders.
type Label struct {
	ColorClass string `json:"color_class"`
	Icon       string `json:"icon"`
	Text       string `json:"label"`
}

// labels covers every defined case and target status. The two lifecycles
// share the "filed", "removed" and "denied" names, which intentionally map
// to the same presentation.
var labels = map[string]Label{
	"submitted": {ColorClass: "bg-yellow-100 text-yellow-800", Icon: "clock", Text: "Submitted"},
	"filed":     {ColorClass: "bg-blue-100 text-blue-800", Icon: "file-text", Text: "Filed"},
	"in_review": {ColorClass: "bg-purple-100 text-purple-800", Icon: "clock", Text: "In Review"},
	"removed":   {ColorClass: "bg-green-100 text-green-800", Icon: "check-circle", Text: "Removed"},
	"denied":    {ColorClass: "bg-red-100 text-red-800", Icon: "alert-circle", Text: "Denied"},
	"pending":   {ColorClass: "bg-gray-100 text-gray-800", Icon: "clock", Text: "Pending"},
	"failed":    {ColorClass: "bg-red-100 text-red-800", Icon: "alert-circle", Text: "Failed"},
}

// DisplayLabel returns the presentation mapping for a status string.
// Unrecognized values degrade to pending's mapping so the UI never breaks
// on a status it doesn't know about.
func DisplayLabel(status string) Label {
	if l, ok := labels[status]; ok {
		return l
	}
	return labels["pending"]
}
