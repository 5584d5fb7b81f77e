package models

// User is the projection of a portal account kept in the exported roster.
// JSON tags mirror the upstream API field names exactly; any extra fields the
// portal returns are dropped at decode time. Fields the portal omits decode
// to their zero values and are serialized as "" / 0 rather than null, keeping
// the output schema stable.
type User struct {
	ID        int64  `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
}
