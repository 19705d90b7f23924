// Package qbo provides the QuickBooks Online operations behind estimate
// creation: customer lookup and estimates built from priced line items.
package qbo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

const (
	productionBase = "https://quickbooks.api.intuit.com/v3/company"
	sandboxBase    = "https://sandbox-quickbooks.api.intuit.com/v3/company"
)

// Client calls the QuickBooks Online API for one company (realm).
type Client struct {
	HTTP    *http.Client
	RealmID string

	base string
}

// NewClient creates a QuickBooks client. environment is "production" or
// "sandbox".
func NewClient(httpClient *http.Client, realmID, environment string) *Client {
	base := productionBase
	if strings.EqualFold(environment, "sandbox") {
		base = sandboxBase
	}
	return &Client{HTTP: httpClient, RealmID: realmID, base: base}
}

// Customer is a QuickBooks customer record.
type Customer struct {
	ID          string `json:"Id"`
	DisplayName string `json:"DisplayName"`
	Email       struct {
		Address string `json:"Address"`
	} `json:"PrimaryEmailAddr"`
}

// Line is one priced line item on an estimate.
type Line struct {
	Description string
	Quantity    float64
	UnitPrice   float64
}

// Amount returns the line total.
func (l Line) Amount() float64 {
	return l.Quantity * l.UnitPrice
}

// Estimate is a created estimate as returned by the API.
type Estimate struct {
	ID        string  `json:"Id"`
	DocNumber string  `json:"DocNumber"`
	TotalAmt  float64 `json:"TotalAmt"`
}

type queryResponse struct {
	QueryResponse struct {
		Customer []Customer `json:"Customer"`
	} `json:"QueryResponse"`
}

type estimateResponse struct {
	Estimate Estimate `json:"Estimate"`
}

type apiError struct {
	Fault struct {
		Error []struct {
			Message string `json:"Message"`
			Detail  string `json:"Detail"`
		} `json:"Error"`
	} `json:"Fault"`
}

// FindCustomer looks up a customer by exact display name.
func (c *Client) FindCustomer(ctx context.Context, displayName string) (*Customer, error) {
	// QBO query syntax escapes single quotes by doubling them.
	escaped := strings.ReplaceAll(displayName, "'", "''")
	query := fmt.Sprintf("select * from Customer where DisplayName = '%s'", escaped)

	endpoint := fmt.Sprintf("%s/%s/query?query=%s", c.base, c.RealmID, url.QueryEscape(query))
	req, err := http.NewRequestWithContext(ctx, "GET", endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("could not query customers: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.readError("customer query", resp)
	}

	var result queryResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("could not parse customer query: %w", err)
	}

	customers := result.QueryResponse.Customer
	if len(customers) == 0 {
		return nil, fmt.Errorf("no QuickBooks customer named %q — create the customer first or check the spelling", displayName)
	}
	return &customers[0], nil
}

type estimateLine struct {
	Description string  `json:"Description,omitempty"`
	Amount      float64 `json:"Amount"`
	DetailType  string  `json:"DetailType"`
	Detail      struct {
		Qty       float64 `json:"Qty"`
		UnitPrice float64 `json:"UnitPrice"`
	} `json:"SalesItemLineDetail"`
}

type estimateRequest struct {
	CustomerRef struct {
		Value string `json:"value"`
	} `json:"CustomerRef"`
	Lines []estimateLine `json:"Line"`
}

// CreateEstimate creates an estimate for the customer from the given lines.
func (c *Client) CreateEstimate(ctx context.Context, customerID string, lines []Line) (*Estimate, error) {
	if customerID == "" {
		return nil, fmt.Errorf("customer ID is required")
	}
	if len(lines) == 0 {
		return nil, fmt.Errorf("estimate needs at least one line item")
	}

	var payload estimateRequest
	payload.CustomerRef.Value = customerID
	for _, l := range lines {
		el := estimateLine{
			Description: l.Description,
			Amount:      l.Amount(),
			DetailType:  "SalesItemLineDetail",
		}
		el.Detail.Qty = l.Quantity
		el.Detail.UnitPrice = l.UnitPrice
		payload.Lines = append(payload.Lines, el)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/%s/estimate", c.base, c.RealmID)
	req, err := http.NewRequestWithContext(ctx, "POST", endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("could not create estimate: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.readError("create estimate", resp)
	}

	var result estimateResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("could not parse estimate response: %w", err)
	}
	return &result.Estimate, nil
}

// readError extracts the first fault message from an error response.
func (c *Client) readError(op string, resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)

	var fault apiError
	if json.Unmarshal(body, &fault) == nil && len(fault.Fault.Error) > 0 {
		e := fault.Fault.Error[0]
		if e.Detail != "" {
			return fmt.Errorf("%s failed (%d): %s: %s", op, resp.StatusCode, e.Message, e.Detail)
		}
		return fmt.Errorf("%s failed (%d): %s", op, resp.StatusCode, e.Message)
	}
	return fmt.Errorf("%s failed (%d): %s", op, resp.StatusCode, string(body))
}
