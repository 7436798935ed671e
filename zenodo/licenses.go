package zenodo

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// License is an entry of the Zenodo license vocabulary.
type License struct {
	ID    string
	Title string
	URL   string
}

// Matches reports whether the query names this license: its id, title or URL
// equal the query, ignoring case.
func (l License) Matches(query string) bool {
	query = strings.TrimSpace(query)
	if query == "" {
		return false
	}
	for _, candidate := range []string{l.ID, l.Title, l.URL} {
		if candidate != "" && strings.EqualFold(candidate, query) {
			return true
		}
	}
	return false
}

type vocabularyResponse struct {
	Hits struct {
		Hits []struct {
			ID    string            `json:"id"`
			Title map[string]string `json:"title"`
			Props struct {
				URL string `json:"url"`
			} `json:"props"`
		} `json:"hits"`
		Total int `json:"total"`
	} `json:"hits"`
}

// SearchLicenses queries the license vocabulary of Zenodo with a free text
// query.
func (c *Client) SearchLicenses(ctx context.Context, query string) ([]License, error) {
	target := fmt.Sprintf("%s/vocabularies/licenses?q=%s", c.baseURL, url.QueryEscape(query))
	var vresp vocabularyResponse
	if err := c.callJSON(ctx, http.MethodGet, target, nil, &vresp); err != nil {
		return nil, err
	}
	licenses := make([]License, 0, len(vresp.Hits.Hits))
	for _, hit := range vresp.Hits.Hits {
		licenses = append(licenses, License{ID: hit.ID, Title: hit.Title["en"], URL: hit.Props.URL})
	}
	return licenses, nil
}

// FindLicense returns the vocabulary entry matching the query, or nil if the
// search returned no exact match.
func (c *Client) FindLicense(ctx context.Context, query string) (*License, error) {
	licenses, err := c.SearchLicenses(ctx, query)
	if err != nil {
		return nil, err
	}
	for idx := range licenses {
		if licenses[idx].Matches(query) {
			return &licenses[idx], nil
		}
	}
	return nil, nil
}
