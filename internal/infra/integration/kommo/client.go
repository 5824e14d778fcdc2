package kommo

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/xavierca1/lead-crm/internal/infra/queue"
)

var ErrNotConfigured = errors.New("kommo: api token not configured")

// Client mirrors CRM leads into a Kommo account as contact + lead pairs.
type Client struct {
	apiToken string
	baseURL  string
	statusID int
	http     *http.Client
	logger   *zap.Logger
}

func NewClient(baseURL, apiToken string, statusID int, logger *zap.Logger) *Client {
	return &Client{
		apiToken: apiToken,
		baseURL:  strings.TrimRight(baseURL, "/"),
		statusID: statusID,
		http:     &http.Client{Timeout: 10 * time.Second},
		logger:   logger,
	}
}

// SyncLead creates a Kommo lead for event, reusing an existing contact with the same email.
func (c *Client) SyncLead(ctx context.Context, event queue.LeadEvent) error {
	if c.apiToken == "" {
		return ErrNotConfigured
	}

	contactID, err := c.findOrCreateContact(ctx, event)
	if err != nil {
		return fmt.Errorf("kommo contact: %w", err)
	}

	name := event.Name
	if event.Company != "" {
		name = fmt.Sprintf("%s - %s", event.Name, event.Company)
	}

	var out embeddedResponse
	err = c.do(ctx, http.MethodPost, "/leads", []leadRequest{{
		Name:     name,
		StatusID: c.statusID,
		Embedded: leadEmbedded{
			Tags:     []tag{{Name: "crm"}, {Name: "stage:" + event.Stage}},
			Contacts: []contactRef{{ID: contactID}},
		},
	}}, &out)
	if err != nil {
		return fmt.Errorf("kommo lead: %w", err)
	}
	if len(out.Embedded.Leads) == 0 {
		return errors.New("kommo lead: empty response")
	}

	c.logger.Info("lead mirrored to kommo",
		zap.String("lead_id", event.LeadID),
		zap.Int("kommo_lead_id", out.Embedded.Leads[0].ID),
		zap.Int("kommo_contact_id", contactID))
	return nil
}

func (c *Client) findOrCreateContact(ctx context.Context, event queue.LeadEvent) (int, error) {
	id, err := c.findContact(ctx, event.Email)
	if err != nil {
		c.logger.Debug("kommo contact lookup failed", zap.Error(err))
	}
	if id > 0 {
		return id, nil
	}
	return c.createContact(ctx, event)
}

func (c *Client) findContact(ctx context.Context, email string) (int, error) {
	var out embeddedResponse
	err := c.do(ctx, http.MethodGet, "/contacts?query="+url.QueryEscape(email), nil, &out)
	if err != nil {
		return 0, err
	}
	if len(out.Embedded.Contacts) == 0 {
		return 0, nil
	}
	return out.Embedded.Contacts[0].ID, nil
}

func (c *Client) createContact(ctx context.Context, event queue.LeadEvent) (int, error) {
	var out embeddedResponse
	err := c.do(ctx, http.MethodPost, "/contacts", []contactRequest{{
		Name: event.Name,
		CustomFields: []customField{{
			FieldCode: "EMAIL",
			Values:    []customFieldValue{{Value: event.Email, EnumCode: "WORK"}},
		}},
	}}, &out)
	if err != nil {
		return 0, err
	}
	if len(out.Embedded.Contacts) == 0 {
		return 0, errors.New("contact id missing from response")
	}
	return out.Embedded.Contacts[0].ID, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	c.addAuthHeaders(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(resp.Body)

	// Kommo answers an empty search with 204.
	if resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("%s %s: status %d: %s", method, path, resp.StatusCode, string(data))
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(data, out)
}

func (c *Client) addAuthHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.apiToken)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
}
