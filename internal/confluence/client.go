// Package confluence talks to the Confluence REST API to locate Gliffy
// diagrams: space and page listing with pagination, Gliffy macro
// extraction from page storage bodies, and attachment download.
package confluence

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const pageLimit = 100

// Space is a Confluence space as returned by /rest/api/space.
type Space struct {
	ID   json.Number `json:"id"`
	Key  string      `json:"key"`
	Name string      `json:"name"`
}

// Page is a content item with its storage body expanded.
type Page struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Status  string `json:"status"`
	Version struct {
		Number int `json:"number"`
	} `json:"version"`
	Space struct {
		Key  string `json:"key"`
		Name string `json:"name"`
	} `json:"space"`
	History struct {
		CreatedDate string `json:"createdDate"`
		CreatedBy   struct {
			DisplayName string `json:"displayName"`
			Username    string `json:"username"`
		} `json:"createdBy"`
		LastUpdated struct {
			When string `json:"when"`
			By   struct {
				DisplayName string `json:"displayName"`
				Username    string `json:"username"`
			} `json:"by"`
		} `json:"lastUpdated"`
	} `json:"history"`
	Ancestors []struct {
		ID    string `json:"id"`
		Title string `json:"title"`
	} `json:"ancestors"`
	Body struct {
		Storage struct {
			Value string `json:"value"`
		} `json:"storage"`
	} `json:"body"`
}

// StorageBody returns the page's storage-format HTML, empty when the
// body was not expanded.
func (p *Page) StorageBody() string {
	return p.Body.Storage.Value
}

// API is the slice of the Confluence surface the scanner needs,
// satisfied by Client and by test doubles.
type API interface {
	GetSpaces(ctx context.Context, keys []string) ([]Space, error)
	GetPages(ctx context.Context, spaceKey string) ([]Page, error)
	GetPage(ctx context.Context, pageID string) (*Page, error)
	DownloadAttachment(ctx context.Context, pageID, attachmentID string, draft bool) ([]byte, string, error)
}

// Client is a Confluence REST client. Cloud instances (atlassian.net)
// authenticate with basic auth, Server/Data Center with a bearer
// personal access token.
type Client struct {
	baseURL  string
	apiBase  string
	username string
	token    string
	cloud    bool
	http     *http.Client
}

// NewClient builds a client for the given instance. The API base is
// derived from the URL: cloud instances live under /wiki/rest/api,
// Server under /rest/api.
func NewClient(baseURL, username, token string) *Client {
	baseURL = strings.TrimRight(baseURL, "/")
	cloud := strings.Contains(strings.ToLower(baseURL), "atlassian.net")

	apiBase := baseURL + "/rest/api"
	if cloud && !strings.Contains(strings.ToLower(baseURL), "/wiki") {
		apiBase = baseURL + "/wiki/rest/api"
	}

	return &Client{
		baseURL:  baseURL,
		apiBase:  apiBase,
		username: username,
		token:    token,
		cloud:    cloud,
		http:     &http.Client{Timeout: 60 * time.Second},
	}
}

// BaseURL returns the instance URL the client was built with.
func (c *Client) BaseURL() string { return c.baseURL }

// PageURL returns the canonical view URL for a page.
func (c *Client) PageURL(pageID string) string {
	if c.cloud {
		return strings.TrimSuffix(c.baseURL, "/wiki") + "/wiki/pages/viewpage.action?pageId=" + pageID
	}
	return c.baseURL + "/pages/viewpage.action?pageId=" + pageID
}

func (c *Client) newRequest(ctx context.Context, path string, query url.Values) (*http.Request, error) {
	u := c.apiBase + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	if c.cloud {
		req.SetBasicAuth(c.username, c.token)
	} else {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	req.Header.Set("Accept", "application/json")
	return req, nil
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out interface{}) error {
	req, err := c.newRequest(ctx, path, query)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("confluence GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("confluence GET %s: status %d: %s", path, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("confluence GET %s: decode: %w", path, err)
	}
	return nil
}

type resultsPage[T any] struct {
	Results []T `json:"results"`
	Size    int `json:"size"`
}

// GetSpaces lists all spaces visible to the account, paginating until a
// short page. keys, when non-empty, filters the result to those space
// keys.
func (c *Client) GetSpaces(ctx context.Context, keys []string) ([]Space, error) {
	var spaces []Space
	for start := 0; ; start += pageLimit {
		q := url.Values{
			"start":  {strconv.Itoa(start)},
			"limit":  {strconv.Itoa(pageLimit)},
			"expand": {"name,key"},
		}
		var page resultsPage[Space]
		if err := c.getJSON(ctx, "/space", q, &page); err != nil {
			return nil, err
		}
		spaces = append(spaces, page.Results...)
		if len(page.Results) < pageLimit {
			break
		}
	}

	if len(keys) == 0 {
		return spaces, nil
	}
	want := make(map[string]bool, len(keys))
	for _, k := range keys {
		want[k] = true
	}
	filtered := spaces[:0]
	for _, s := range spaces {
		if want[s.Key] {
			filtered = append(filtered, s)
		}
	}
	return filtered, nil
}

// GetPages lists every page of a space with its storage body, published
// pages first, then drafts not already seen.
func (c *Client) GetPages(ctx context.Context, spaceKey string) ([]Page, error) {
	const expand = "space,version,history,ancestors,body.storage"

	fetch := func(status string) ([]Page, error) {
		var pages []Page
		for start := 0; ; start += pageLimit {
			q := url.Values{
				"spaceKey": {spaceKey},
				"type":     {"page"},
				"start":    {strconv.Itoa(start)},
				"limit":    {strconv.Itoa(pageLimit)},
				"expand":   {expand},
			}
			if status != "" {
				q.Set("status", status)
			}
			var page resultsPage[Page]
			if err := c.getJSON(ctx, "/content", q, &page); err != nil {
				return nil, err
			}
			pages = append(pages, page.Results...)
			if len(page.Results) < pageLimit {
				break
			}
		}
		return pages, nil
	}

	pages, err := fetch("")
	if err != nil {
		return nil, err
	}

	// Drafts are fetched separately; a failure here leaves the
	// published inventory intact.
	drafts, err := fetch("draft")
	if err != nil {
		return pages, nil
	}
	seen := make(map[string]bool, len(pages))
	for _, p := range pages {
		seen[p.ID] = true
	}
	for _, d := range drafts {
		if !seen[d.ID] {
			pages = append(pages, d)
		}
	}
	return pages, nil
}

// GetPage fetches one page by ID with its storage body.
func (c *Client) GetPage(ctx context.Context, pageID string) (*Page, error) {
	q := url.Values{"expand": {"space,version,history,ancestors,body.storage"}}
	var page Page
	if err := c.getJSON(ctx, "/content/"+pageID, q, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// DownloadAttachment fetches an attachment's bytes and reports its MIME
// type, sniffed from the payload when the server's content-type is
// unhelpful.
func (c *Client) DownloadAttachment(ctx context.Context, pageID, attachmentID string, draft bool) ([]byte, string, error) {
	path := fmt.Sprintf("/content/%s/child/attachment/%s/download", pageID, attachmentID)
	q := url.Values{}
	if draft {
		q.Set("status", "draft")
	}
	req, err := c.newRequest(ctx, path, q)
	if err != nil {
		return nil, "", err
	}
	req.Header.Del("Accept")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("download attachment %s: %w", attachmentID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("download attachment %s: status %d", attachmentID, resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("download attachment %s: %w", attachmentID, err)
	}

	mime := strings.ToLower(resp.Header.Get("Content-Type"))
	switch {
	case strings.Contains(mime, "svg") || strings.HasPrefix(string(data), "<svg"):
		mime = "image/svg+xml"
	case strings.Contains(mime, "png") || strings.HasPrefix(string(data), "\x89PNG"):
		mime = "image/png"
	case strings.HasPrefix(mime, "image/"):
		// keep as reported
	default:
		mime = "application/octet-stream"
	}
	return data, mime, nil
}
