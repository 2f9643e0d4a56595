// Package types provides type definitions for structured data used throughout the portfolio site.
//
//nolint:revive // types is a standard Go package name pattern
package types

import "time"

// PortfolioSnapshot is the complete profile payload served by GET /api/portfolio.
// Every sub-section is required; views render from it without nil guards.
type PortfolioSnapshot struct {
	ID             string           `json:"id" yaml:"id"`
	Personal       PersonalInfo     `json:"personal" yaml:"personal"`
	About          AboutInfo        `json:"about" yaml:"about"`
	Skills         SkillsInfo       `json:"skills" yaml:"skills"`
	Experience     []ExperienceItem `json:"experience" yaml:"experience"`
	Projects       []ProjectItem    `json:"projects" yaml:"projects"`
	Certifications []string         `json:"certifications" yaml:"certifications"`
	Achievements   []Achievement    `json:"achievements" yaml:"achievements"`
	LastUpdated    time.Time        `json:"lastUpdated" yaml:"lastUpdated"`
}

// PersonalInfo holds the hero and contact details.
type PersonalInfo struct {
	Name            string `json:"name" yaml:"name"`
	Title           string `json:"title" yaml:"title"`
	Tagline         string `json:"tagline" yaml:"tagline"`
	Location        string `json:"location" yaml:"location"`
	Email           string `json:"email" yaml:"email"`
	Phone           string `json:"phone" yaml:"phone"`
	LinkedIn        string `json:"linkedin" yaml:"linkedin"`
	ProfileImage    string `json:"profileImage" yaml:"profileImage"`
	YearsExperience string `json:"yearsExperience" yaml:"yearsExperience"`
	Domain          string `json:"domain" yaml:"domain"`
}

// AboutInfo is the biography summary.
type AboutInfo struct {
	Summary    string   `json:"summary" yaml:"summary"`
	Highlights []string `json:"highlights" yaml:"highlights"`
}

// SkillsInfo groups skills under a fixed set of categories.
type SkillsInfo struct {
	ProductManagement []string `json:"productManagement" yaml:"productManagement"`
	ProgramDelivery   []string `json:"programDelivery" yaml:"programDelivery"`
	DataAndAI         []string `json:"dataAndAI" yaml:"dataAndAI"`
	Leadership        []string `json:"leadership" yaml:"leadership"`
	Technical         []string `json:"technical" yaml:"technical"`
}

// SkillCategory is one labelled group of skills, in display order.
type SkillCategory struct {
	Label  string
	Skills []string
}

// Categories returns the skill groups in their fixed display order.
func (s SkillsInfo) Categories() []SkillCategory {
	return []SkillCategory{
		{Label: "Product Management", Skills: s.ProductManagement},
		{Label: "Program Delivery", Skills: s.ProgramDelivery},
		{Label: "Data & AI", Skills: s.DataAndAI},
		{Label: "Leadership", Skills: s.Leadership},
		{Label: "Technical", Skills: s.Technical},
	}
}

// ExperienceItem is a single role. Lists are kept in the order served (newest first).
type ExperienceItem struct {
	ID         int      `json:"id" yaml:"id"`
	Title      string   `json:"title" yaml:"title"`
	Company    string   `json:"company" yaml:"company"`
	Location   string   `json:"location" yaml:"location"`
	Duration   string   `json:"duration" yaml:"duration"`
	Type       string   `json:"type" yaml:"type"`
	Highlights []string `json:"highlights" yaml:"highlights"`
}

// ProjectItem is a portfolio project tagged with one of ProjectCategories.
type ProjectItem struct {
	ID           int            `json:"id" yaml:"id"`
	Title        string         `json:"title" yaml:"title"`
	Category     string         `json:"category" yaml:"category"`
	Description  string         `json:"description" yaml:"description"`
	Achievements []string       `json:"achievements" yaml:"achievements"`
	Technologies []string       `json:"technologies" yaml:"technologies"`
	Impact       string         `json:"impact" yaml:"impact"`
	Metrics      map[string]any `json:"metrics" yaml:"metrics"`
}

// Achievement is a titled award or recognition.
type Achievement struct {
	Title       string `json:"title" yaml:"title"`
	Description string `json:"description" yaml:"description"`
}

// CategoryAll is the pseudo-category that disables project filtering.
const CategoryAll = "All"

// ProjectCategories is the fixed set of project categories.
var ProjectCategories = []string{
	"Product Strategy & Analytics",
	"Program Management & Operations",
	"Innovation & AI Implementation",
	"Healthcare Product Development",
	"Data Analytics & Governance",
	"Leadership & Program Management",
}

// IsProjectCategory reports whether c is one of ProjectCategories.
func IsProjectCategory(c string) bool {
	for _, known := range ProjectCategories {
		if known == c {
			return true
		}
	}
	return false
}
