// Package testutil holds fixtures shared by package tests.
package testutil

import (
	"encoding/json"
	"time"

	"github.com/jonathan/portfolio-site/internal/types"
)

// SampleSnapshot returns a small but complete portfolio snapshot.
func SampleSnapshot() *types.PortfolioSnapshot {
	return &types.PortfolioSnapshot{
		ID: "c2a9d7a4-0c3e-4d8e-9b55-0d1f1b1e9a01",
		Personal: types.PersonalInfo{
			Name:            "Jordan Avery",
			Title:           "Senior Technical Program Manager",
			Tagline:         "Strategy • Delivery • Outcomes",
			Location:        "Remote",
			Email:           "jordan@example.com",
			Phone:           "+1-555-0100",
			LinkedIn:        "https://www.linkedin.com/in/jordan-avery/",
			ProfileImage:    "https://example.com/jordan.jpg",
			YearsExperience: "12+",
			Domain:          "SaaS • Healthcare",
		},
		About: types.AboutInfo{
			Summary:    "Program leader shipping regulated SaaS products.",
			Highlights: []string{"Cross-functional leadership", "Data-driven delivery"},
		},
		Skills: types.SkillsInfo{
			ProductManagement: []string{"Roadmapping"},
			ProgramDelivery:   []string{"Agile Delivery", "Risk Tracking"},
			DataAndAI:         []string{"SQL"},
			Leadership:        []string{"Mentoring"},
			Technical:         []string{"JIRA"},
		},
		Experience: []types.ExperienceItem{
			{
				ID:         1,
				Title:      "Senior TPM",
				Company:    "Acme",
				Location:   "Remote",
				Duration:   "2023–Present",
				Type:       "Full-time",
				Highlights: []string{"Cut cost 30%"},
			},
		},
		Projects: []types.ProjectItem{
			{
				ID:           1,
				Title:        "Analytics Platform",
				Category:     "Data Analytics & Governance",
				Description:  "Unified reporting for clinical ops.",
				Achievements: []string{"Launched in 6 months"},
				Technologies: []string{"Power BI"},
				Impact:       "25% faster decisions",
				Metrics:      map[string]any{"adoption": "25%"},
			},
			{
				ID:           2,
				Title:        "Delivery Governance",
				Category:     "Program Management & Operations",
				Description:  "Release governance across 8 teams.",
				Achievements: []string{"On-time delivery up 40%"},
				Technologies: []string{"Azure DevOps"},
				Impact:       "40% predictability gain",
				Metrics:      map[string]any{"teams": 8},
			},
		},
		Certifications: []string{"PMP", "CSM"},
		Achievements: []types.Achievement{
			{Title: "Delivery Excellence", Description: "Recognised for program turnaround."},
		},
		LastUpdated: time.Date(2025, 9, 10, 12, 0, 0, 0, time.UTC),
	}
}

// SampleJSON returns SampleSnapshot encoded as JSON.
func SampleJSON() []byte {
	data, err := json.Marshal(SampleSnapshot())
	if err != nil {
		panic(err)
	}
	return data
}
