package domain

// ExternalIdentity is a verified identity asserted by an external provider.
type ExternalIdentity struct {
	Provider string
	Subject  string
	Email    string
	Name     string
}
