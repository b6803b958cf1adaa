package nutshell

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"leadsync_backend/platform/apperr"
	"leadsync_backend/platform/sanitize"
)

const defaultLeadDescription = "New Lead"

type listedContact struct {
	ID     ID `json:"id"`
	Emails []struct {
		Value string `json:"value"`
		Email string `json:"email"`
	} `json:"emails"`
}

// FindContactByEmail searches contacts and returns the id of the first one
// holding email exactly (case-insensitive).
func (c *Client) FindContactByEmail(ctx context.Context, email string) (string, bool, error) {
	email = sanitize.Email(email)
	if email == "" {
		return "", false, nil
	}
	var data struct {
		Contacts []listedContact `json:"contacts"`
	}
	resp := c.Do(ctx, http.MethodGet, "contacts?q="+url.QueryEscape(email), nil)
	if err := decodeData(resp, "nutshell.FindContactByEmail", &data); err != nil {
		return "", false, err
	}
	for _, contact := range data.Contacts {
		for _, e := range contact.Emails {
			candidate := e.Value
			if candidate == "" {
				candidate = e.Email
			}
			if strings.EqualFold(strings.TrimSpace(candidate), email) && contact.ID != "" {
				return contact.ID.String(), true, nil
			}
		}
	}
	return "", false, nil
}

type contactCreate struct {
	ContactPayload
	Links *struct {
		Owner string `json:"owner"`
	} `json:"links,omitempty"`
}

// CreateContact creates a contact, owned by ownerID when it is set.
func (c *Client) CreateContact(ctx context.Context, contact ContactPayload, ownerID string) (string, error) {
	const op = "nutshell.CreateContact"
	if strings.TrimSpace(contact.Name) == "" || len(contact.Emails) == 0 {
		return "", apperr.Validation("contact needs a name and an email").WithOp(op)
	}
	item := contactCreate{ContactPayload: contact}
	if ownerID != "" {
		item.Links = &struct {
			Owner string `json:"owner"`
		}{Owner: ownerID}
	}

	var data struct {
		Contacts []struct {
			ID ID `json:"id"`
		} `json:"contacts"`
		ID ID `json:"id"`
	}
	resp := c.Do(ctx, http.MethodPost, "contacts", map[string]interface{}{"contacts": []contactCreate{item}})
	if err := decodeData(resp, op, &data); err != nil {
		return "", err
	}
	if len(data.Contacts) > 0 && data.Contacts[0].ID != "" {
		return data.Contacts[0].ID.String(), nil
	}
	if data.ID != "" {
		return data.ID.String(), nil
	}
	return "", apperr.Upstream("nutshell: contact created but id missing").WithOp(op).WithDetails(resp)
}

// FindOrCreateContact reuses the contact holding the primary email, or
// creates one.
func (c *Client) FindOrCreateContact(ctx context.Context, contact ContactPayload, ownerID string) (string, error) {
	email := contact.PrimaryEmail()
	if email == "" {
		return "", apperr.Validation("contact has no email").WithOp("nutshell.FindOrCreateContact")
	}
	id, found, err := c.FindContactByEmail(ctx, email)
	if err != nil {
		c.log.Warn("nutshell: contact search failed, creating", "error", err)
	}
	if found {
		c.log.Debug("nutshell: reusing contact", "contact_id", id)
		return id, nil
	}
	return c.CreateContact(ctx, contact, ownerID)
}

// FindAccountByName returns the account whose name matches exactly
// (case-insensitive).
func (c *Client) FindAccountByName(ctx context.Context, name string) (string, bool, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", false, nil
	}
	var data struct {
		Accounts []struct {
			ID   ID     `json:"id"`
			Name string `json:"name"`
		} `json:"accounts"`
	}
	resp := c.Do(ctx, http.MethodGet, "accounts?q="+url.QueryEscape(name), nil)
	if err := decodeData(resp, "nutshell.FindAccountByName", &data); err != nil {
		return "", false, err
	}
	want := strings.ToLower(name)
	for _, account := range data.Accounts {
		if strings.ToLower(strings.TrimSpace(account.Name)) == want && account.ID != "" {
			return account.ID.String(), true, nil
		}
	}
	return "", false, nil
}

// CreateAccount creates an account.
func (c *Client) CreateAccount(ctx context.Context, account AccountPayload) (string, error) {
	const op = "nutshell.CreateAccount"
	if strings.TrimSpace(account.Name) == "" {
		return "", apperr.Validation("account needs a name").WithOp(op)
	}
	var data struct {
		Accounts []struct {
			ID ID `json:"id"`
		} `json:"accounts"`
	}
	resp := c.Do(ctx, http.MethodPost, "accounts", map[string]interface{}{"accounts": []AccountPayload{account}})
	if err := decodeData(resp, op, &data); err != nil {
		return "", err
	}
	if len(data.Accounts) == 0 || data.Accounts[0].ID == "" {
		return "", apperr.Upstream("nutshell: account created but id missing").WithOp(op).WithDetails(resp)
	}
	return data.Accounts[0].ID.String(), nil
}

// FindOrCreateAccount reuses an account with the same name, or creates one.
func (c *Client) FindOrCreateAccount(ctx context.Context, account AccountPayload) (string, error) {
	id, found, err := c.FindAccountByName(ctx, account.Name)
	if err != nil {
		c.log.Warn("nutshell: account search failed, creating", "error", err)
	}
	if found {
		return id, nil
	}
	return c.CreateAccount(ctx, account)
}

// CreateLead creates a lead. On failure the returned error carries the
// failing Response as its details.
func (c *Client) CreateLead(ctx context.Context, lead LeadPayload) (CreatedLead, error) {
	const op = "nutshell.CreateLead"
	if strings.TrimSpace(lead.Description) == "" {
		lead.Description = defaultLeadDescription
	}

	resp := c.Do(ctx, http.MethodPost, "leads", map[string]interface{}{"leads": []LeadPayload{lead}})
	var data struct {
		Leads []struct {
			ID      ID              `json:"id"`
			Number  json.RawMessage `json:"number"`
			HTMLURL string          `json:"htmlUrl"`
		} `json:"leads"`
	}
	if err := decodeData(resp, op, &data); err != nil {
		return CreatedLead{Raw: resp.Data}, err
	}

	created := CreatedLead{Raw: resp.Data}
	if len(data.Leads) > 0 {
		created.ID = data.Leads[0].ID.String()
		created.Number = leadNumber(data.Leads[0].Number)
		created.HTMLURL = data.Leads[0].HTMLURL
	}
	if created.ID == "" {
		return created, apperr.Upstream("Lead created but ID missing").WithOp(op).WithDetails(resp)
	}
	return created, nil
}

// leadNumber accepts the number as a JSON number or a numeric string.
func leadNumber(raw json.RawMessage) int {
	if len(raw) == 0 {
		return 0
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		if v, err := n.Int64(); err == nil {
			return int(v)
		}
		if f, err := n.Float64(); err == nil {
			return int(f)
		}
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return atoiLoose(s)
	}
	return 0
}

// SetLeadStageset moves a lead into a pipeline.
func (c *Client) SetLeadStageset(ctx context.Context, leadID, stagesetID string) error {
	endpoint := "leads/" + url.PathEscape(leadID) + "/stageset"
	return c.Do(ctx, http.MethodPost, endpoint, map[string]string{"stageset": stagesetID}).Err("nutshell.SetLeadStageset")
}

// CreateLeadNote attaches a note to a lead.
func (c *Client) CreateLeadNote(ctx context.Context, leadID, body string) error {
	payload := map[string]interface{}{
		"data": map[string]interface{}{
			"body":  body,
			"links": map[string]string{"parent": leadID},
		},
	}
	return c.Do(ctx, http.MethodPost, "notes", payload).Err("nutshell.CreateLeadNote")
}

// LeadURL builds the web URL of a lead from its number.
func LeadURL(base string, number int) string {
	if number <= 0 {
		return ""
	}
	return base + strconv.Itoa(number)
}
