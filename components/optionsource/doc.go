// Package optionsource serves a static option list over net/http in the shape
// field option sources return: a JSON array of {value, label_en, label_ar}
// objects. Mount it and point a field's apiData.url at it.
//
// The handler answers GET and HEAD, and supports q and limit parameters to
// filter results. An empty query returns the head of the list.
package optionsource
