// Package muffle hides posts, comments and video cards that mention
// user-configured blocked words on a small set of supported sites, and
// tracks how many units it removed per word and per site.
//
// This package contains domain types and interfaces following Ben Johnson's
// Standard Package Layout. Implementations live in subdirectories named
// after their primary dependency (e.g., goquery/, rod/, sqlite/).
package muffle
