// Package content models the portfolio data rendered into the site pages:
// who the owner is, what they know, where they worked, what they built.
package content

import "strings"

// Content is the full data set backing the portfolio pages.
type Content struct {
	Profile    Profile      `json:"profile"`
	Skills     []SkillGroup `json:"skills"`
	Experience []Experience `json:"experience"`
	Projects   []Project    `json:"projects"`
	Education  []Education  `json:"education"`
	Contact    ContactInfo  `json:"contact"`
}

// Profile is the hero/about block.
type Profile struct {
	Name     string   `json:"name"`
	Headline string   `json:"headline"`
	Summary  string   `json:"summary"`
	Location string   `json:"location"`
	Avatar   string   `json:"avatar"`
	Roles    []string `json:"roles"`
}

// SkillGroup clusters related skills under one heading.
type SkillGroup struct {
	Category string   `json:"category"`
	Items    []string `json:"items"`
}

// Experience is one work history entry.
type Experience struct {
	Company    string   `json:"company"`
	Role       string   `json:"role"`
	Start      string   `json:"start"`
	End        string   `json:"end"`
	Summary    string   `json:"summary"`
	Highlights []string `json:"highlights"`
}

// Project is one portfolio project card.
type Project struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	URL         string   `json:"url"`
	RepoURL     string   `json:"repo_url"`
	Image       string   `json:"image"`
	Tags        []string `json:"tags"`
}

// Education is one study entry.
type Education struct {
	School string `json:"school"`
	Degree string `json:"degree"`
	Start  string `json:"start"`
	End    string `json:"end"`
	Notes  string `json:"notes"`
}

// ContactInfo holds the direct-contact details shown alongside the form and
// used as the fallback address in degraded-mode responses.
type ContactInfo struct {
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	GitHubURL   string `json:"github_url"`
	LinkedInURL string `json:"linkedin_url"`
}

// Normalize trims whitespace on the fields templates interpolate directly.
func (c *Content) Normalize() {
	if c == nil {
		return
	}
	c.Profile.Name = strings.TrimSpace(c.Profile.Name)
	c.Profile.Headline = strings.TrimSpace(c.Profile.Headline)
	c.Profile.Summary = strings.TrimSpace(c.Profile.Summary)
	c.Contact.Email = strings.TrimSpace(c.Contact.Email)
	c.Contact.Phone = strings.TrimSpace(c.Contact.Phone)
}

// HasContactEmail reports whether a direct-contact fallback address exists.
func (c *Content) HasContactEmail() bool {
	return c != nil && strings.Contains(c.Contact.Email, "@")
}
