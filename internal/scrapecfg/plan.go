package scrapecfg

// FieldSource says where a field's text comes from within a card element.
type FieldSource struct {
	// Selector is a CSS selector scoped to the card. Empty means the
	// card element itself.
	Selector string
	// Attr names an attribute to read instead of the element text.
	Attr string
}

// ExtractionPlan describes how to pull job cards out of a listing page.
// It is interpreted by the scrape engines, so custom selectors never pass
// through a code-generation step and need no escaping.
type ExtractionPlan struct {
	Card     string
	Title    FieldSource
	Company  FieldSource
	Location FieldSource
	Posted   FieldSource
	Salary   FieldSource
	// JobIDRegex extracts the job ID from the title link's href.
	// The first capture group is the ID.
	JobIDRegex string
}

// BuildPlan merges config selectors over a default plan, field by field.
// A config without a card selector keeps the default plan wholesale, so a
// partial override cannot silently extract nothing.
func BuildPlan(c *Config, def ExtractionPlan) ExtractionPlan {
	if c == nil {
		return def
	}
	if c.Selector("card", "") == "" {
		return def
	}

	plan := ExtractionPlan{
		Card:       c.Selector("card", def.Card),
		Title:      FieldSource{Selector: c.Selector("title", "a")},
		Company:    FieldSource{Selector: c.Selector("company", ".company")},
		Location:   FieldSource{Selector: c.Selector("location", ".location")},
		Posted:     FieldSource{Selector: c.Selector("posted", "time")},
		Salary:     FieldSource{Selector: c.Selector("salary", "")},
		JobIDRegex: c.StringValue("url_pattern.job_id_regex", `/jobs/(\d+)`),
	}
	return plan
}
