// Package domain models whitewater river reaches and their access points.
//
// # Data Source
//
// Reach records originate from the American Whitewater (AW) river inventory,
// fetched as nested JSON per reach ID. AW text fields are user-authored HTML
// with inconsistent whitespace; the fetch adapter converts them to plain text
// and collapses blank values to empty strings before a Reach is built.
//
// # Difficulty Grades
//
// Whitewater difficulty uses the international scale, class I through VI,
// with an alternate "5.x" decimal notation for hard creek runs. A combined
// grade string encodes up to three components:
//
//	"IV-V(V+)"  →  minimum "IV", maximum "V", outlier "V+"
//	"III"       →  maximum "III" only
//
// A leading token followed by a hyphen is the range minimum, the required
// middle token is the working maximum, and a parenthesized trailing token is
// an outlier rating for a single rapid harder than the rest of the run.
// Tokens may carry a "+" or "-" modifier. See [ParseDifficulty].
//
// # Gauge Ranges and Stages
//
// Each reach carries up to ten ordered range boundaries (r0 low through r9
// high) describing its historical runnable flow window, plus a live gauge
// observation. [GaugeStage] bands the observation into a human-readable
// stage label ("too low", "medium", "very high", ...) using a labeling table
// keyed by how many distinct boundaries the reach actually defines. Sparse
// boundary sets are normal; most reaches define two to four.
//
// # Hydrography Network Fields
//
// Access points are snapped onto a canonical hydrography network before
// tracing. A snapped point records the network edge identifier and the
// linear-referenced measure along that edge, both required as trace inputs.
// The resolver mutates access point geometry in place when snapping; the
// pre-snap coordinates are whatever the data source reported, often tens of
// meters off the channel.
package domain
