// Package notes holds the note list controller: the component that turns
// form input into platform requests and keeps the rendered note list fresh.
//
// A Controller is not safe for concurrent use. Callers serialize actions per
// UI session; the controller itself only fans out during list refresh, when
// temporary image URLs are resolved for all notes at once.
package notes
