// Package template is the seam between the HTML preview host and the
// template engine that draws it. The pongo subpackage is the default engine.
package template
