// Package sheets provides a typed client for the hosted spreadsheet API:
// bounded snapshot fetches for rendering, plus the row-level operations
// the workflow layer is built on.
package sheets

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

const sheetsBase = "https://sheets.googleapis.com/v4/spreadsheets"

// Client performs spreadsheet operations with an authenticated HTTP client.
type Client struct {
	HTTP *http.Client
}

// NewClient creates a spreadsheet client.
func NewClient(httpClient *http.Client) *Client {
	return &Client{HTTP: httpClient}
}

// Snapshot fetches exactly one bounded rectangular range with full grid
// data: values, effective formats, merges, and row/column pixel sizes.
// A transport or non-2xx failure is an error; an empty range is not —
// callers detect that through Snapshot.Grid.
func (c *Client) Snapshot(ctx context.Context, spreadsheetID, rangeA1 string) (*Snapshot, error) {
	params := url.Values{}
	params.Set("ranges", rangeA1)
	params.Set("includeGridData", "true")
	params.Set("fields", "sheets(properties,merges,data(rowData(values(effectiveValue,formattedValue,hyperlink,effectiveFormat)),rowMetadata(pixelSize),columnMetadata(pixelSize)))")

	endpoint := sheetsBase + "/" + url.PathEscape(spreadsheetID) + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, "GET", endpoint, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("could not fetch snapshot: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("snapshot request failed (%d): %s", resp.StatusCode, string(body))
	}

	var snap Snapshot
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		return nil, fmt.Errorf("could not parse snapshot response: %w", err)
	}
	return &snap, nil
}

type valueRange struct {
	Range  string     `json:"range,omitempty"`
	Values [][]string `json:"values"`
}

// ReadRows returns the display values of a range as rows of strings.
// Rows may be ragged; trailing empty cells are not padded.
func (c *Client) ReadRows(ctx context.Context, spreadsheetID, rangeA1 string) ([][]string, error) {
	endpoint := sheetsBase + "/" + url.PathEscape(spreadsheetID) + "/values/" + url.PathEscape(rangeA1)
	req, err := http.NewRequestWithContext(ctx, "GET", endpoint, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("could not read rows: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("read rows failed (%d): %s", resp.StatusCode, string(body))
	}

	var vr valueRange
	if err := json.NewDecoder(resp.Body).Decode(&vr); err != nil {
		return nil, fmt.Errorf("could not parse values response: %w", err)
	}
	return vr.Values, nil
}

// AppendRow appends one row of values after the last data row of a range.
func (c *Client) AppendRow(ctx context.Context, spreadsheetID, rangeA1 string, row []string) error {
	payload := valueRange{Values: [][]string{row}}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	endpoint := sheetsBase + "/" + url.PathEscape(spreadsheetID) + "/values/" + url.PathEscape(rangeA1) +
		":append?valueInputOption=USER_ENTERED&insertDataOption=INSERT_ROWS"
	req, err := http.NewRequestWithContext(ctx, "POST", endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("could not append row: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("append row failed (%d): %s", resp.StatusCode, string(respBody))
	}
	return nil
}

// UpdateRow overwrites the values of a range with a single row.
func (c *Client) UpdateRow(ctx context.Context, spreadsheetID, rangeA1 string, row []string) error {
	payload := valueRange{Values: [][]string{row}}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	endpoint := sheetsBase + "/" + url.PathEscape(spreadsheetID) + "/values/" + url.PathEscape(rangeA1) +
		"?valueInputOption=USER_ENTERED"
	req, err := http.NewRequestWithContext(ctx, "PUT", endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("could not update row: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("update row failed (%d): %s", resp.StatusCode, string(respBody))
	}
	return nil
}

// ListSheets returns the worksheets of a spreadsheet in tab order.
func (c *Client) ListSheets(ctx context.Context, spreadsheetID string) ([]SheetProperties, error) {
	endpoint := sheetsBase + "/" + url.PathEscape(spreadsheetID) + "?fields=sheets(properties(sheetId,title))"
	req, err := http.NewRequestWithContext(ctx, "GET", endpoint, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("could not list sheets: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("list sheets failed (%d): %s", resp.StatusCode, string(body))
	}

	var snap Snapshot
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		return nil, fmt.Errorf("could not parse sheet list: %w", err)
	}

	props := make([]SheetProperties, 0, len(snap.Sheets))
	for _, s := range snap.Sheets {
		props = append(props, s.Properties)
	}
	return props, nil
}

// SheetID resolves a worksheet title to its numeric sheet ID.
func (c *Client) SheetID(ctx context.Context, spreadsheetID, title string) (int, error) {
	props, err := c.ListSheets(ctx, spreadsheetID)
	if err != nil {
		return 0, err
	}

	available := make([]string, 0, len(props))
	for _, p := range props {
		if p.Title == title {
			return p.SheetID, nil
		}
		available = append(available, p.Title)
	}
	return 0, fmt.Errorf("sheet %q not found — available sheets: %v", title, available)
}

// DeleteRows removes rows [startRow, endRow) from a worksheet.
// Indices are 0-based, end-exclusive.
func (c *Client) DeleteRows(ctx context.Context, spreadsheetID string, sheetID, startRow, endRow int) error {
	payload := map[string]any{
		"requests": []any{
			map[string]any{
				"deleteDimension": map[string]any{
					"range": map[string]any{
						"sheetId":    sheetID,
						"dimension":  "ROWS",
						"startIndex": startRow,
						"endIndex":   endRow,
					},
				},
			},
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	endpoint := sheetsBase + "/" + url.PathEscape(spreadsheetID) + ":batchUpdate"
	req, err := http.NewRequestWithContext(ctx, "POST", endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("could not delete rows: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("delete rows failed (%d): %s", resp.StatusCode, string(respBody))
	}
	return nil
}
