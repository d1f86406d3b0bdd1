package drive

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"regexp"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gdrive "google.golang.org/api/drive/v3"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"anggaran/internal/grid"
	ports "anggaran/internal/sheets"
)

// DefaultRange bounds the cell fetch. Budget sheets never grow past
// column Z, and an unbounded read of a big sheet is slow.
const DefaultRange = "A:Z"

const listPageSize = 100

// Config selects the Drive folder to read and how to authenticate.
// Credentials resolve in order: inline service account JSON, service
// account file, OAuth client plus stored token, and finally Application
// Default Credentials.
type Config struct {
	FolderID           string // bare folder id or a full Drive folder URL
	Range              string
	ServiceAccountJSON string
	ServiceAccountFile string
	OAuthClientFile    string
	OAuthTokenFile     string
}

// Client reads monthly budget documents out of one Google Drive folder.
// Listing goes through the Drive API, cell values through the Sheets
// API; only native Google Sheets documents are listed.
type Client struct {
	drive     *gdrive.Service
	sheets    *gsheet.Service
	folderID  string
	readRange string
}

// Ensure interface conformance
var (
	_ ports.DocumentLister = (*Client)(nil)
	_ ports.GridFetcher    = (*Client)(nil)
)

func New(ctx context.Context, cfg Config) (*Client, error) {
	folderID := ExtractFolderID(cfg.FolderID)
	if folderID == "" {
		return nil, errors.New("missing Drive folder id")
	}
	readRange := strings.TrimSpace(cfg.Range)
	if readRange == "" {
		readRange = DefaultRange
	}

	opts, err := buildOptions(ctx, cfg, gdrive.DriveReadonlyScope, gsheet.SpreadsheetsReadonlyScope)
	if err != nil {
		return nil, err
	}
	driveSvc, err := gdrive.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("drive service: %w", err)
	}
	sheetSvc, err := gsheet.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	slog.InfoContext(ctx, "Initialized Drive source", "folder_id", folderID, "range", readRange)

	return &Client{
		drive:     driveSvc,
		sheets:    sheetSvc,
		folderID:  folderID,
		readRange: readRange,
	}, nil
}

// ListDocuments returns every spreadsheet in the folder, name ordered.
func (c *Client) ListDocuments(ctx context.Context) ([]ports.File, error) {
	if c.drive == nil {
		return nil, errors.New("drive service not initialized")
	}
	query := fmt.Sprintf(
		"'%s' in parents and trashed = false and mimeType = 'application/vnd.google-apps.spreadsheet'",
		c.folderID)

	var files []ports.File
	pageToken := ""
	for {
		call := c.drive.Files.List().
			Q(query).
			Fields("nextPageToken, files(id, name, mimeType, size)").
			OrderBy("name").
			PageSize(listPageSize).
			Context(ctx)
		if pageToken != "" {
			call.PageToken(pageToken)
		}
		resp, err := call.Do()
		if err != nil {
			return nil, fmt.Errorf("list folder %s: %w", c.folderID, err)
		}
		for _, f := range resp.Files {
			files = append(files, ports.File{
				ID:       f.Id,
				Name:     f.Name,
				MimeType: f.MimeType,
				Size:     f.Size,
			})
		}
		if resp.NextPageToken == "" {
			return files, nil
		}
		pageToken = resp.NextPageToken
	}
}

// FetchGrid reads the first sheet of the document, bounded by the
// configured range.
func (c *Client) FetchGrid(ctx context.Context, fileID string) (grid.Grid, error) {
	if c.sheets == nil {
		return grid.Grid{}, errors.New("sheets service not initialized")
	}
	resp, err := c.sheets.Spreadsheets.Values.Get(fileID, c.readRange).Context(ctx).Do()
	if err != nil {
		return grid.Grid{}, fmt.Errorf("read values %s: %w", fileID, err)
	}
	if len(resp.Values) == 0 {
		return grid.Grid{}, fmt.Errorf("%s: %w", fileID, ports.ErrNoData)
	}
	return grid.FromValues(resp.Values), nil
}

func buildOptions(ctx context.Context, cfg Config, scopes ...string) ([]goption.ClientOption, error) {
	switch {
	case strings.TrimSpace(cfg.ServiceAccountJSON) != "":
		slog.InfoContext(ctx, "Using inline service account credentials")
		return []goption.ClientOption{
			goption.WithCredentialsJSON([]byte(cfg.ServiceAccountJSON)),
			goption.WithScopes(scopes...),
		}, nil
	case strings.TrimSpace(cfg.ServiceAccountFile) != "":
		slog.InfoContext(ctx, "Reading service account credentials", "path", cfg.ServiceAccountFile)
		raw, err := os.ReadFile(cfg.ServiceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return []goption.ClientOption{
			goption.WithCredentialsJSON(raw),
			goption.WithScopes(scopes...),
		}, nil
	case strings.TrimSpace(cfg.OAuthClientFile) != "" && strings.TrimSpace(cfg.OAuthTokenFile) != "":
		slog.InfoContext(ctx, "Using OAuth client credentials",
			"client_file", cfg.OAuthClientFile,
			"token_file", cfg.OAuthTokenFile)
		ts, err := tokenSourceFromFiles(ctx, cfg.OAuthClientFile, cfg.OAuthTokenFile, scopes)
		if err != nil {
			return nil, err
		}
		return []goption.ClientOption{goption.WithTokenSource(ts)}, nil
	default:
		slog.InfoContext(ctx, "Falling back to Application Default Credentials")
		return []goption.ClientOption{goption.WithScopes(scopes...)}, nil
	}
}

func tokenSourceFromFiles(ctx context.Context, clientFile, tokenFile string, scopes []string) (oauth2.TokenSource, error) {
	clientJSON, err := os.ReadFile(clientFile)
	if err != nil {
		return nil, fmt.Errorf("read oauth client file: %w", err)
	}
	oc, err := google.ConfigFromJSON(clientJSON, scopes...)
	if err != nil {
		return nil, fmt.Errorf("parse oauth client: %w", err)
	}
	tokenJSON, err := os.ReadFile(tokenFile)
	if err != nil {
		return nil, fmt.Errorf("read oauth token file: %w", err)
	}
	var tok oauth2.Token
	if err := json.Unmarshal(tokenJSON, &tok); err != nil {
		return nil, fmt.Errorf("parse oauth token: %w", err)
	}
	return oc.TokenSource(ctx, &tok), nil
}

var folderIDPattern = regexp.MustCompile(`folders/([A-Za-z0-9_-]+)`)

// ExtractFolderID accepts a bare Drive folder id or any of the folder
// URL shapes the Drive UI hands out and returns the id.
func ExtractFolderID(s string) string {
	s = strings.TrimSpace(s)
	if m := folderIDPattern.FindStringSubmatch(s); m != nil {
		return m[1]
	}
	if u, err := url.Parse(s); err == nil {
		if id := u.Query().Get("id"); id != "" {
			return id
		}
	}
	return s
}
