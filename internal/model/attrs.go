package model

// Attribute keys written onto every synced target document. AttrExternalID
// is the correlation key; AttrModified gates the update decision; the rest
// is denormalized metadata for display.
const (
	AttrExternalID = "external_id"
	AttrModified   = "modified"
	AttrURL        = "url"
	AttrTags       = "tags"
	AttrSummary    = "summary"
	AttrFavourite  = "favourite"
	AttrArchived   = "archived"
)
