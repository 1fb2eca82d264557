package ingest

import (
	"strconv"
	"strings"
)

// RawJob is one posting as handed over by the scraping collaborator, reduced
// to the fields the core cares about.
type RawJob struct {
	Title         string
	Company       string
	Location      string
	Description   string
	URL           string
	ExternalJobID string
	ApplyURL      string
}

// Upstream payloads are free-form maps whose key names vary per source.
// Each semantic field lists its candidate keys in priority order; the first
// key holding a non-empty value wins. Extending a source means extending a
// row here, not writing parsing code.
var candidateKeys = map[string][]string{
	"title":       {"title", "job_title", "jobTitle", "position", "role", "name"},
	"company":     {"company", "company_name", "companyName", "employer", "organization"},
	"location":    {"location", "job_location", "jobLocation", "city", "region"},
	"description": {"description", "job_description", "jobDescription", "summary", "details", "body"},
	"url":         {"url", "link", "job_url", "jobUrl", "source_url", "sourceUrl", "href"},
	"externalId":  {"external_job_id", "externalJobId", "job_id", "jobId", "posting_id", "id"},
	"applyUrl":    {"apply_url", "applyUrl", "apply_link", "applyLink", "application_url"},
}

// Extract maps a free-form payload onto a RawJob via the candidate-key table.
func Extract(payload map[string]any) RawJob {
	return RawJob{
		Title:         pick(payload, candidateKeys["title"]),
		Company:       pick(payload, candidateKeys["company"]),
		Location:      pick(payload, candidateKeys["location"]),
		Description:   pick(payload, candidateKeys["description"]),
		URL:           pick(payload, candidateKeys["url"]),
		ExternalJobID: pick(payload, candidateKeys["externalId"]),
		ApplyURL:      pick(payload, candidateKeys["applyUrl"]),
	}
}

// Usable reports whether the posting carries enough identity to ingest.
func (r RawJob) Usable() bool {
	if strings.TrimSpace(r.URL) != "" {
		return true
	}
	return strings.TrimSpace(r.Title) != "" && strings.TrimSpace(r.Company) != ""
}

func pick(payload map[string]any, keys []string) string {
	for _, k := range keys {
		v, ok := payload[k]
		if !ok {
			continue
		}
		if s := coerce(v); s != "" {
			return s
		}
	}
	return ""
}

func coerce(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		// JSON numbers decode as float64; ids are integral in practice.
		if t == float64(int64(t)) {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	default:
		return ""
	}
}
