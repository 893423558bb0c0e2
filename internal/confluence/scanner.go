package confluence

import (
	"context"
	"fmt"
	"time"
)

// PageInfo is one row of the scan inventory.
type PageInfo struct {
	ID            string   `json:"id"`
	Title         string   `json:"title"`
	SpaceKey      string   `json:"space_key"`
	SpaceName     string   `json:"space_name"`
	Status        string   `json:"status"`
	Version       int      `json:"version"`
	CreatedDate   string   `json:"created_date"`
	CreatedBy     string   `json:"created_by"`
	UpdatedDate   string   `json:"last_updated_date"`
	UpdatedBy     string   `json:"last_updated_by"`
	ParentID      string   `json:"parent_id"`
	ParentTitle   string   `json:"parent_title"`
	AncestorCount int      `json:"ancestors_count"`
	URL           string   `json:"url"`
	GliffyCount   int      `json:"gliffy_count"`
	GliffyTitles  []string `json:"gliffy_titles"`
}

// Scanner builds a page inventory over a Confluence instance, flagging
// pages that embed Gliffy diagrams.
type Scanner struct {
	api    API
	urlFor func(pageID string) string

	// Spaces restricts the scan to these space keys; empty means all.
	Spaces []string
	// PageID, when set, scans that single page instead of spaces.
	PageID string
	// OnPage, when set, receives each page with its extracted macros as
	// the scan progresses. Returning an error aborts the scan.
	OnPage func(info PageInfo, macros []GliffyMacro) error
}

// NewScanner wraps a client. When the API is a *Client its PageURL is
// used for inventory links.
func NewScanner(api API) *Scanner {
	s := &Scanner{api: api, urlFor: func(string) string { return "" }}
	if c, ok := api.(*Client); ok {
		s.urlFor = c.PageURL
	}
	return s
}

// Scan walks the configured scope and returns one PageInfo per page.
func (s *Scanner) Scan(ctx context.Context) ([]PageInfo, error) {
	if s.PageID != "" {
		page, err := s.api.GetPage(ctx, s.PageID)
		if err != nil {
			return nil, fmt.Errorf("scan page %s: %w", s.PageID, err)
		}
		info, err := s.collect(page, page.Space.Key, page.Space.Name)
		if err != nil {
			return nil, err
		}
		return []PageInfo{info}, nil
	}

	spaces, err := s.api.GetSpaces(ctx, s.Spaces)
	if err != nil {
		return nil, fmt.Errorf("list spaces: %w", err)
	}

	var inventory []PageInfo
	for _, space := range spaces {
		pages, err := s.api.GetPages(ctx, space.Key)
		if err != nil {
			return nil, fmt.Errorf("list pages of %s: %w", space.Key, err)
		}
		for i := range pages {
			info, err := s.collect(&pages[i], space.Key, space.Name)
			if err != nil {
				return nil, err
			}
			inventory = append(inventory, info)
		}
	}
	return inventory, nil
}

func (s *Scanner) collect(page *Page, spaceKey, spaceName string) (PageInfo, error) {
	macros := ExtractGliffyMacros(page.StorageBody())
	info := s.pageInfo(page, spaceKey, spaceName, macros)
	if s.OnPage != nil {
		if err := s.OnPage(info, macros); err != nil {
			return info, fmt.Errorf("page %s: %w", info.ID, err)
		}
	}
	return info, nil
}

func (s *Scanner) pageInfo(page *Page, spaceKey, spaceName string, macros []GliffyMacro) PageInfo {
	info := PageInfo{
		ID:            page.ID,
		Title:         page.Title,
		SpaceKey:      spaceKey,
		SpaceName:     spaceName,
		Status:        page.Status,
		Version:       page.Version.Number,
		CreatedDate:   formatDate(page.History.CreatedDate),
		CreatedBy:     displayName(page.History.CreatedBy.DisplayName, page.History.CreatedBy.Username),
		UpdatedDate:   formatDate(page.History.LastUpdated.When),
		UpdatedBy:     displayName(page.History.LastUpdated.By.DisplayName, page.History.LastUpdated.By.Username),
		AncestorCount: len(page.Ancestors),
		URL:           s.urlFor(page.ID),
	}
	if info.Title == "" {
		info.Title = "(untitled)"
	}
	if info.Status == "" {
		info.Status = "current"
	}
	// Pages never edited after creation have no lastUpdated entry.
	if info.UpdatedDate == "" {
		info.UpdatedDate = info.CreatedDate
		info.UpdatedBy = info.CreatedBy
	}
	if n := len(page.Ancestors); n > 0 {
		info.ParentID = page.Ancestors[n-1].ID
		info.ParentTitle = page.Ancestors[n-1].Title
	}

	for _, m := range macros {
		info.GliffyTitles = append(info.GliffyTitles, m.Name)
	}
	info.GliffyCount = len(info.GliffyTitles)
	return info
}

func displayName(display, username string) string {
	if display != "" {
		return display
	}
	return username
}

// formatDate normalizes Confluence's ISO timestamps to a readable
// local-agnostic form, passing unparseable values through untouched.
func formatDate(iso string) string {
	if iso == "" {
		return ""
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05.000-07:00"} {
		if t, err := time.Parse(layout, iso); err == nil {
			return t.Format("2006-01-02 15:04:05")
		}
	}
	return iso
}
