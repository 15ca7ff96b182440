// Package common holds enumerations shared between configuration and the
// rendering packages so that media and docx do not have to depend on config.
package common

// Specification of how SVG images are embedded into the document.
// ENUM(convert, native, auto)
type SVGMode int

// Specification of page orientation.
// ENUM(portrait, landscape)
type Orientation int

// Specification of default table border line style.
// ENUM(single, dashed, dotted, double)
type BorderStroke int
